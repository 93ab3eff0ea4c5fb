package embedding

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider kinds.
const (
	ProviderHTTP = "http"
	ProviderONNX = "onnx"
)

// Config selects and configures the embedding provider. Prefix is
// prepended to every text before embedding; e5 models expect "query: ".
type Config struct {
	Provider string     `toml:"provider"`
	Prefix   string     `toml:"prefix"`
	Workers  int        `toml:"workers"`
	HTTP     HTTPConfig `toml:"http"`
	ONNX     ONNXConfig `toml:"onnx"`
}

// HTTPConfig targets an embedding server exposing POST /api/embed
// (Ollama and compatible servers).
type HTTPConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	Timeout string `toml:"timeout"`
}

// ONNXConfig points at a local sentence-transformer export.
type ONNXConfig struct {
	ModelPath     string `toml:"model_path"`
	TokenizerPath string `toml:"tokenizer_path"`
	LibraryPath   string `toml:"library_path"`
	MaxSeqLen     int    `toml:"max_seq_len"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider    string
	Prefix      string
	Workers     string
	BaseURL     string
	Model       string
	ModelPath   string
	LibraryPath string
}

// TimeoutDuration returns the HTTP timeout as a time.Duration.
func (c *HTTPConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.HTTP.BaseURL != "" {
		c.HTTP.BaseURL = overlay.HTTP.BaseURL
	}
	if overlay.HTTP.Model != "" {
		c.HTTP.Model = overlay.HTTP.Model
	}
	if overlay.HTTP.Timeout != "" {
		c.HTTP.Timeout = overlay.HTTP.Timeout
	}
	if overlay.ONNX.ModelPath != "" {
		c.ONNX.ModelPath = overlay.ONNX.ModelPath
	}
	if overlay.ONNX.TokenizerPath != "" {
		c.ONNX.TokenizerPath = overlay.ONNX.TokenizerPath
	}
	if overlay.ONNX.LibraryPath != "" {
		c.ONNX.LibraryPath = overlay.ONNX.LibraryPath
	}
	if overlay.ONNX.MaxSeqLen != 0 {
		c.ONNX.MaxSeqLen = overlay.ONNX.MaxSeqLen
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderHTTP
	}
	if c.Prefix == "" {
		c.Prefix = "query: "
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.HTTP.BaseURL == "" {
		c.HTTP.BaseURL = "http://localhost:11434"
	}
	if c.HTTP.Model == "" {
		c.HTTP.Model = "jeffh/intfloat-e5-small-v2"
	}
	if c.HTTP.Timeout == "" {
		c.HTTP.Timeout = "30s"
	}
	if c.ONNX.MaxSeqLen == 0 {
		c.ONNX.MaxSeqLen = 512
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Provider != "" {
		if v := os.Getenv(env.Provider); v != "" {
			c.Provider = v
		}
	}
	if env.Prefix != "" {
		if v := os.Getenv(env.Prefix); v != "" {
			c.Prefix = v
		}
	}
	if env.Workers != "" {
		if v := os.Getenv(env.Workers); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Workers = n
			}
		}
	}
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.HTTP.BaseURL = v
		}
	}
	if env.Model != "" {
		if v := os.Getenv(env.Model); v != "" {
			c.HTTP.Model = v
		}
	}
	if env.ModelPath != "" {
		if v := os.Getenv(env.ModelPath); v != "" {
			c.ONNX.ModelPath = v
		}
	}
	if env.LibraryPath != "" {
		if v := os.Getenv(env.LibraryPath); v != "" {
			c.ONNX.LibraryPath = v
		}
	}
}

func (c *Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	switch c.Provider {
	case ProviderHTTP:
		if c.HTTP.Model == "" {
			return fmt.Errorf("http.model required")
		}
		if _, err := time.ParseDuration(c.HTTP.Timeout); err != nil {
			return fmt.Errorf("invalid http.timeout: %w", err)
		}
	case ProviderONNX:
		if c.ONNX.ModelPath == "" {
			return fmt.Errorf("onnx.model_path required")
		}
		if c.ONNX.TokenizerPath == "" {
			return fmt.Errorf("onnx.tokenizer_path required")
		}
		if c.ONNX.MaxSeqLen < 2 {
			return fmt.Errorf("onnx.max_seq_len must be at least 2, got %d", c.ONNX.MaxSeqLen)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	return nil
}
