package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	EnvServerHost            = "MOODMAP_SERVER_HOST"
	EnvServerPort            = "MOODMAP_SERVER_PORT"
	EnvServerReadTimeout     = "MOODMAP_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "MOODMAP_SERVER_WRITE_TIMEOUT"
	EnvServerShutdownTimeout = "MOODMAP_SERVER_SHUTDOWN_TIMEOUT"
)

// ServerConfig holds HTTP listener parameters. Write timeout defaults high
// because CSV imports and synchronous runs hold the connection.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration     { return duration(c.ReadTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration    { return duration(c.WriteTimeout) }
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration { return duration(c.ShutdownTimeout) }

func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *ServerConfig) Merge(o *ServerConfig) {
	mergeString(&c.Host, o.Host)
	mergeString(&c.ReadTimeout, o.ReadTimeout)
	mergeString(&c.WriteTimeout, o.WriteTimeout)
	mergeString(&c.ShutdownTimeout, o.ShutdownTimeout)
	if o.Port != 0 {
		c.Port = o.Port
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	for dst, def := range map[*string]string{
		&c.Host:            "0.0.0.0",
		&c.ReadTimeout:     "1m",
		&c.WriteTimeout:    "15m",
		&c.ShutdownTimeout: "30s",
	} {
		if *dst == "" {
			*dst = def
		}
	}
}

func (c *ServerConfig) loadEnv() {
	setenv(map[string]*string{
		EnvServerHost:            &c.Host,
		EnvServerReadTimeout:     &c.ReadTimeout,
		EnvServerWriteTimeout:    &c.WriteTimeout,
		EnvServerShutdownTimeout: &c.ShutdownTimeout,
	})
	setenvInt(EnvServerPort, &c.Port)
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, d := range []struct{ name, value string }{
		{"read_timeout", c.ReadTimeout},
		{"write_timeout", c.WriteTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
	}
	return nil
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
