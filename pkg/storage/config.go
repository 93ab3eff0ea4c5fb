package storage

import (
	"errors"
	"os"
	"strconv"
)

// Config selects the blob account and container. Set ConnectionString for
// Azurite or key-based access, or AccountURL for credential-chain auth.
type Config struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	AccountURL       string `toml:"account_url"`
	MaxListSize      int32  `toml:"max_list_size"`
}

// Env names the environment variables that override Config fields.
type Env struct {
	ContainerName    string
	ConnectionString string
	AccountURL       string
	MaxListSize      string
}

func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

func (c *Config) Merge(o *Config) {
	for dst, v := range map[*string]string{
		&c.ContainerName:    o.ContainerName,
		&c.ConnectionString: o.ConnectionString,
		&c.AccountURL:       o.AccountURL,
	} {
		if v != "" {
			*dst = v
		}
	}
	if o.MaxListSize != 0 {
		c.MaxListSize = o.MaxListSize
	}
}

func (c *Config) loadDefaults() {
	if c.ContainerName == "" {
		c.ContainerName = "models"
	}
	if c.MaxListSize == 0 {
		c.MaxListSize = 50
	}
	c.MaxListSize = min(c.MaxListSize, MaxListCap)
}

func (c *Config) loadEnv(env *Env) {
	for name, dst := range map[string]*string{
		env.ContainerName:    &c.ContainerName,
		env.ConnectionString: &c.ConnectionString,
		env.AccountURL:       &c.AccountURL,
	} {
		if v := os.Getenv(name); name != "" && v != "" {
			*dst = v
		}
	}
	if env.MaxListSize == "" {
		return
	}
	if n, err := strconv.Atoi(os.Getenv(env.MaxListSize)); err == nil && n > 0 {
		c.MaxListSize = int32(min(n, int(MaxListCap)))
	}
}

func (c *Config) validate() error {
	if c.ContainerName == "" {
		return errors.New("container_name required")
	}
	if c.ConnectionString == "" && c.AccountURL == "" {
		return errors.New("connection_string or account_url required")
	}
	return nil
}
