package backend_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/moodmap/internal/backend"
	"github.com/JaimeStill/moodmap/internal/config"
	"github.com/JaimeStill/moodmap/internal/infrastructure"
	"github.com/JaimeStill/moodmap/internal/mongostore"
	"github.com/JaimeStill/moodmap/pkg/database"
	"github.com/JaimeStill/moodmap/pkg/pagination"
	"github.com/JaimeStill/moodmap/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=moodmapstore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/moodmapstore;"

func testConfig(store config.Backend) *config.Config {
	cfg := &config.Config{
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "moodmap",
			User:            "moodmap",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    1,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "1s",
		},
		Storage: storage.Config{
			ContainerName:    "models",
			ConnectionString: azuriteConnString,
		},
		Mongo: mongostore.Config{
			URI:            "mongodb://localhost:27017",
			Database:       "visualization_db",
			Categories:     "Emotion_Level_Mapping",
			Labels:         "Emotion_Labels",
			Assignments:    "emotion_assigned",
			Documents:      map[string]string{"tweets": "Tweeter_embedding_collection"},
			ConnectTimeout: "1s",
		},
		Store: store,
	}
	cfg.API.Pagination = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	return cfg
}

func newInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	return infra
}

func TestNewPostgres(t *testing.T) {
	cfg := testConfig(config.BackendPostgres)

	b, err := backend.New(cfg, newInfra(t, cfg))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if b.Kind != config.BackendPostgres {
		t.Errorf("kind: got %s, want postgres", b.Kind)
	}
	if b.Categories == nil || b.Documents == nil || b.Sink == nil {
		t.Error("postgres backend has nil stores")
	}
	if b.Runs == nil {
		t.Error("postgres backend should record runs")
	}
	if b.Runtime == nil || b.Runtime.Archive == nil {
		t.Error("runtime should carry the model archive")
	}
}

func TestNewMongo(t *testing.T) {
	cfg := testConfig(config.BackendMongo)

	b, err := backend.New(cfg, newInfra(t, cfg))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if b.Kind != config.BackendMongo {
		t.Errorf("kind: got %s, want mongo", b.Kind)
	}
	if b.Categories == nil || b.Documents == nil || b.Sink == nil {
		t.Error("mongo backend has nil stores")
	}
	if b.Runs != nil {
		t.Error("mongo backend has no run ledger")
	}
}

func TestNewMongoWithoutStore(t *testing.T) {
	cfg := testConfig(config.BackendPostgres)
	infra := newInfra(t, cfg)

	cfg.Store = config.BackendMongo
	if _, err := backend.New(cfg, infra); !errors.Is(err, config.ErrUnknownBackend) {
		t.Errorf("New() error = %v, want ErrUnknownBackend", err)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	cfg := testConfig(config.BackendPostgres)
	infra := newInfra(t, cfg)

	cfg.Store = "sqlite"
	if _, err := backend.New(cfg, infra); !errors.Is(err, config.ErrUnknownBackend) {
		t.Errorf("New() error = %v, want ErrUnknownBackend", err)
	}
}
