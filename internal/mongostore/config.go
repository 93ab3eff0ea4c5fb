package mongostore

import (
	"fmt"
	"os"
	"time"
)

// Config holds MongoDB connection parameters and the collection names the
// store reads and writes. Documents maps a corpus collection name (the
// value selected by the top-level collection setting) to its MongoDB
// collection.
type Config struct {
	URI            string            `toml:"uri"`
	Database       string            `toml:"database"`
	Categories     string            `toml:"categories"`
	Labels         string            `toml:"labels"`
	Assignments    string            `toml:"assignments"`
	Documents      map[string]string `toml:"documents"`
	ConnectTimeout string            `toml:"connect_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	URI            string
	Database       string
	ConnectTimeout string
}

// ConnectTimeoutDuration returns ConnectTimeout as a time.Duration.
func (c *Config) ConnectTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnectTimeout)
	return d
}

// DocumentCollection resolves the MongoDB collection holding the named
// corpus collection.
func (c *Config) DocumentCollection(collection string) (string, error) {
	name, ok := c.Documents[collection]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return name, nil
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Document mappings are
// merged key by key.
func (c *Config) Merge(overlay *Config) {
	if overlay.URI != "" {
		c.URI = overlay.URI
	}
	if overlay.Database != "" {
		c.Database = overlay.Database
	}
	if overlay.Categories != "" {
		c.Categories = overlay.Categories
	}
	if overlay.Labels != "" {
		c.Labels = overlay.Labels
	}
	if overlay.Assignments != "" {
		c.Assignments = overlay.Assignments
	}
	if overlay.ConnectTimeout != "" {
		c.ConnectTimeout = overlay.ConnectTimeout
	}
	if len(overlay.Documents) > 0 && c.Documents == nil {
		c.Documents = make(map[string]string, len(overlay.Documents))
	}
	for k, v := range overlay.Documents {
		c.Documents[k] = v
	}
}

func (c *Config) loadDefaults() {
	if c.URI == "" {
		c.URI = "mongodb://localhost:27017"
	}
	if c.Database == "" {
		c.Database = "visualization_db"
	}
	if c.Categories == "" {
		c.Categories = "Emotion_Level_Mapping"
	}
	if c.Labels == "" {
		c.Labels = "Emotion_Labels"
	}
	if c.Assignments == "" {
		c.Assignments = "emotion_assigned"
	}
	if len(c.Documents) == 0 {
		c.Documents = map[string]string{"tweets": "Tweeter_embedding_collection"}
	}
	if c.ConnectTimeout == "" {
		c.ConnectTimeout = "10s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.URI != "" {
		if v := os.Getenv(env.URI); v != "" {
			c.URI = v
		}
	}
	if env.Database != "" {
		if v := os.Getenv(env.Database); v != "" {
			c.Database = v
		}
	}
	if env.ConnectTimeout != "" {
		if v := os.Getenv(env.ConnectTimeout); v != "" {
			c.ConnectTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.Database == "" {
		return fmt.Errorf("database required")
	}
	for k, v := range c.Documents {
		if k == "" || v == "" {
			return fmt.Errorf("documents: empty mapping %q = %q", k, v)
		}
	}
	if _, err := time.ParseDuration(c.ConnectTimeout); err != nil {
		return fmt.Errorf("invalid connect_timeout: %w", err)
	}
	return nil
}
