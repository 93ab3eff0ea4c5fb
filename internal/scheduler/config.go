package scheduler

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Config holds the periodic assignment schedule. Schedule is a standard
// 5-field cron expression, e.g. "0 3 * * *" for daily at 03:00.
type Config struct {
	Enabled    bool   `toml:"enabled"`
	Schedule   string `toml:"schedule"`
	Collection string `toml:"collection"`
	Timezone   string `toml:"timezone"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Enabled    string
	Schedule   string
	Collection string
	Timezone   string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Enabled always applies.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled
	if overlay.Schedule != "" {
		c.Schedule = overlay.Schedule
	}
	if overlay.Collection != "" {
		c.Collection = overlay.Collection
	}
	if overlay.Timezone != "" {
		c.Timezone = overlay.Timezone
	}
}

// Location resolves Timezone. The config is validated, so errors fall back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) loadDefaults() {
	if c.Schedule == "" {
		c.Schedule = "0 3 * * *"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Enabled = b
			}
		}
	}
	if env.Schedule != "" {
		if v := os.Getenv(env.Schedule); v != "" {
			c.Schedule = v
		}
	}
	if env.Collection != "" {
		if v := os.Getenv(env.Collection); v != "" {
			c.Collection = v
		}
	}
	if env.Timezone != "" {
		if v := os.Getenv(env.Timezone); v != "" {
			c.Timezone = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := parser.Parse(c.Schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", c.Schedule, err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}
