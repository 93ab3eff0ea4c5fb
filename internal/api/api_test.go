package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/moodmap/internal/api"
	"github.com/JaimeStill/moodmap/internal/config"
	"github.com/JaimeStill/moodmap/internal/embedding"
	"github.com/JaimeStill/moodmap/internal/infrastructure"
	"github.com/JaimeStill/moodmap/internal/scheduler"
	"github.com/JaimeStill/moodmap/pkg/database"
	"github.com/JaimeStill/moodmap/pkg/middleware"
	"github.com/JaimeStill/moodmap/pkg/module"
	"github.com/JaimeStill/moodmap/pkg/pagination"
	"github.com/JaimeStill/moodmap/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=moodmapstore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/moodmapstore;"

func validConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "15m",
			ShutdownTimeout: "30s",
		},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "moodmap",
			User:            "moodmap",
			Password:        "moodmap",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "models",
			ConnectionString: azuriteConnString,
			MaxListSize:      50,
		},
		API: config.APIConfig{
			BasePath: "/api",
			CORS: middleware.CORSConfig{
				Enabled: false,
			},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		Embedding: embedding.Config{
			Provider: embedding.ProviderHTTP,
			Workers:  1,
		},
		Store:           config.BackendPostgres,
		Collection:      config.CollectionTweets,
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
	if err := cfg.Pipeline.Finalize(nil); err != nil {
		t.Fatalf("pipeline finalize: %v", err)
	}
	return cfg
}

func setupInfra(t *testing.T, cfg *config.Config) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	return infra
}

func TestNewModule(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewModuleWithScheduler(t *testing.T) {
	cfg := validConfig(t)
	cfg.Scheduler = scheduler.Config{Enabled: true}
	if err := cfg.Scheduler.Finalize(nil); err != nil {
		t.Fatalf("scheduler finalize: %v", err)
	}
	infra := setupInfra(t, cfg)

	if _, err := api.NewModule(cfg, infra); err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	if err := infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	runtime := api.NewRuntime(cfg, infra)

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if runtime.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination max page size: got %d, want 100", runtime.Pagination.MaxPageSize)
	}
	if runtime.Logger == nil {
		t.Error("runtime logger is nil")
	}
	if runtime.Database == nil {
		t.Error("runtime database is nil")
	}
	if runtime.Storage == nil {
		t.Error("runtime storage is nil")
	}
	if runtime.Lifecycle == nil {
		t.Error("runtime lifecycle is nil")
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)
	runtime := api.NewRuntime(cfg, infra)

	domain := api.NewDomain(cfg, runtime)

	if domain.Categories == nil {
		t.Error("categories system is nil")
	}
	if domain.Corpus == nil {
		t.Error("corpus system is nil")
	}
	if domain.Assignments == nil {
		t.Error("assignments system is nil")
	}
	if domain.Runs == nil {
		t.Error("runs system is nil")
	}
	if domain.Archive == nil {
		t.Error("archive is nil")
	}
}

func TestModelsRejectsInvalidMaxResults(t *testing.T) {
	cfg := validConfig(t)
	infra := setupInfra(t, cfg)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	router := module.NewRouter()
	router.Mount(m)

	req := httptest.NewRequest(http.MethodGet, "/api/models?max_results=zero", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestOpenAPISpec(t *testing.T) {
	cfg := validConfig(t)
	cfg.API.OpenAPI.Title = "Moodmap API"
	infra := setupInfra(t, cfg)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	router := module.NewRouter()
	router.Mount(m)

	req := httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	var spec struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&spec); err != nil {
		t.Fatalf("decode spec: %v", err)
	}

	if spec.Info.Title != "Moodmap API" || spec.Info.Version != "0.1.0" {
		t.Errorf("info: got %+v", spec.Info)
	}
	for _, path := range []string{"/categories", "/documents/import", "/assignments/distribution", "/runs", "/models/latest/{collection}"} {
		if _, ok := spec.Paths[path]; !ok {
			t.Errorf("spec missing path %s", path)
		}
	}
}
