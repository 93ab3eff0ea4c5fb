package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/moodmap/internal/embedding"
	"github.com/JaimeStill/moodmap/internal/mongostore"
	"github.com/JaimeStill/moodmap/internal/pipeline"
	"github.com/JaimeStill/moodmap/internal/scheduler"
	"github.com/JaimeStill/moodmap/pkg/database"
	"github.com/JaimeStill/moodmap/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvMoodmapEnv             = "MOODMAP_ENV"
	EnvMoodmapShutdownTimeout = "MOODMAP_SHUTDOWN_TIMEOUT"
	EnvMoodmapVersion         = "MOODMAP_VERSION"
	EnvMoodmapStore           = "MOODMAP_STORE"
	EnvMoodmapCollection      = "MOODMAP_COLLECTION"
)

var databaseEnv = &database.Env{
	Host:            "MOODMAP_DB_HOST",
	Port:            "MOODMAP_DB_PORT",
	Name:            "MOODMAP_DB_NAME",
	User:            "MOODMAP_DB_USER",
	Password:        "MOODMAP_DB_PASSWORD",
	SSLMode:         "MOODMAP_DB_SSL_MODE",
	MaxOpenConns:    "MOODMAP_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "MOODMAP_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "MOODMAP_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "MOODMAP_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "MOODMAP_STORAGE_CONTAINER_NAME",
	ConnectionString: "MOODMAP_STORAGE_CONNECTION_STRING",
	AccountURL:       "MOODMAP_STORAGE_ACCOUNT_URL",
	MaxListSize:      "MOODMAP_STORAGE_MAX_LIST_SIZE",
}

var mongoEnv = &mongostore.Env{
	URI:            "MOODMAP_MONGO_URI",
	Database:       "MOODMAP_MONGO_DATABASE",
	ConnectTimeout: "MOODMAP_MONGO_CONNECT_TIMEOUT",
}

var pipelineEnv = &pipeline.Env{
	Method:      "MOODMAP_PIPELINE_METHOD",
	Reducer:     "MOODMAP_PIPELINE_REDUCER",
	BatchSize:   "MOODMAP_PIPELINE_BATCH_SIZE",
	LogInterval: "MOODMAP_PIPELINE_LOG_INTERVAL",
	Limit:       "MOODMAP_PIPELINE_LIMIT",
	Supervised:  "MOODMAP_PIPELINE_SUPERVISED",
	ReuseModel:  "MOODMAP_PIPELINE_REUSE_MODEL",
	Seed:        "MOODMAP_PIPELINE_SEED",
}

var embeddingEnv = &embedding.Env{
	Provider:    "MOODMAP_EMBEDDING_PROVIDER",
	Prefix:      "MOODMAP_EMBEDDING_PREFIX",
	Workers:     "MOODMAP_EMBEDDING_WORKERS",
	BaseURL:     "MOODMAP_EMBEDDING_BASE_URL",
	Model:       "MOODMAP_EMBEDDING_MODEL",
	ModelPath:   "MOODMAP_EMBEDDING_MODEL_PATH",
	LibraryPath: "MOODMAP_EMBEDDING_LIBRARY_PATH",
}

var schedulerEnv = &scheduler.Env{
	Enabled:    "MOODMAP_SCHEDULER_ENABLED",
	Schedule:   "MOODMAP_SCHEDULER_SCHEDULE",
	Collection: "MOODMAP_SCHEDULER_COLLECTION",
	Timezone:   "MOODMAP_SCHEDULER_TIMEZONE",
}

// Config is the root configuration for the moodmap service and tools.
type Config struct {
	Server          ServerConfig      `toml:"server"`
	Database        database.Config   `toml:"database"`
	Storage         storage.Config    `toml:"storage"`
	Mongo           mongostore.Config `toml:"mongo"`
	API             APIConfig         `toml:"api"`
	Pipeline        pipeline.Config   `toml:"pipeline"`
	Embedding       embedding.Config  `toml:"embedding"`
	Scheduler       scheduler.Config  `toml:"scheduler"`
	Store           Backend           `toml:"store"`
	Collection      Collection        `toml:"collection"`
	ShutdownTimeout string            `toml:"shutdown_timeout"`
	Version         string            `toml:"version"`
}

// Env returns the MOODMAP_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvMoodmapEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration bounds the lifecycle drain on exit.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return duration(c.ShutdownTimeout)
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	mergeString(&c.ShutdownTimeout, overlay.ShutdownTimeout)
	mergeString(&c.Version, overlay.Version)
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
	if overlay.Collection != "" {
		c.Collection = overlay.Collection
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Mongo.Merge(&overlay.Mongo)
	c.API.Merge(&overlay.API)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Embedding.Merge(&overlay.Embedding)
	c.Scheduler.Merge(&overlay.Scheduler)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Mongo.Finalize(mongoEnv); err != nil {
		return fmt.Errorf("mongo: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Pipeline.Finalize(pipelineEnv); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Embedding.Finalize(embeddingEnv); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if err := c.Scheduler.Finalize(schedulerEnv); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if c.Scheduler.Collection != "" {
		if _, err := ParseCollection(c.Scheduler.Collection); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.Store == "" {
		c.Store = BackendPostgres
	}
	if c.Collection == "" {
		c.Collection = CollectionTweets
	}
}

func (c *Config) loadEnv() {
	store, collection := string(c.Store), string(c.Collection)
	setenv(map[string]*string{
		EnvMoodmapShutdownTimeout: &c.ShutdownTimeout,
		EnvMoodmapVersion:         &c.Version,
		EnvMoodmapStore:           &store,
		EnvMoodmapCollection:      &collection,
	})
	c.Store, c.Collection = Backend(store), Collection(collection)
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	if _, err := ParseBackend(string(c.Store)); err != nil {
		return err
	}
	if _, err := ParseCollection(string(c.Collection)); err != nil {
		return err
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvMoodmapEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
