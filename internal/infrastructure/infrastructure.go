// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, mongo, embeddings)
// that domain systems and command-line tools require.
package infrastructure

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/JaimeStill/moodmap/internal/config"
	"github.com/JaimeStill/moodmap/internal/embedding"
	"github.com/JaimeStill/moodmap/internal/mongostore"
	"github.com/JaimeStill/moodmap/pkg/database"
	"github.com/JaimeStill/moodmap/pkg/lifecycle"
	"github.com/JaimeStill/moodmap/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Mongo is nil unless the mongo store backend is configured.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Mongo     *mongostore.Store

	embeddingCfg *embedding.Config
	embedOnce    sync.Once
	embedder     embedding.Provider
	embedErr     error
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	infra := &Infrastructure{
		Lifecycle:    lc,
		Logger:       logger,
		Database:     db,
		Storage:      store,
		embeddingCfg: &cfg.Embedding,
	}

	if cfg.Store == config.BackendMongo {
		mongo, err := mongostore.New(&cfg.Mongo, logger)
		if err != nil {
			return nil, fmt.Errorf("mongo init failed: %w", err)
		}
		infra.Mongo = mongo
	}

	return infra, nil
}

// Embedder returns the configured embedding provider, constructing it on
// first use. The ONNX provider loads its model at construction, so tools
// and requests that never embed do not pay for it.
func (i *Infrastructure) Embedder() (embedding.Provider, error) {
	i.embedOnce.Do(func() {
		i.embedder, i.embedErr = embedding.New(i.embeddingCfg, i.Logger)
		if i.embedErr != nil {
			i.embedErr = fmt.Errorf("embedding init failed: %w", i.embedErr)
		}
	})
	return i.embedder, i.embedErr
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if i.Mongo != nil {
		if err := i.Mongo.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("mongo start failed: %w", err)
		}
	}

	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		i.closeEmbedder()
	})

	return nil
}

func (i *Infrastructure) closeEmbedder() {
	if i.embedder == nil {
		return
	}
	if err := i.embedder.Close(); err != nil {
		i.Logger.Error("embedding provider close failed", "error", err)
	}
}
