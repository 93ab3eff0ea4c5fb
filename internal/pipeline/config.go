package pipeline

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/moodmap/internal/classify"
)

// Method selects the unsupervised stage that decides a document's category
// when no supervised refiner is active.
type Method string

const (
	MethodSimilarity Method = "similarity"
	MethodPrototype  Method = "prototype"
)

// ParseMethod validates a method name. An empty name selects similarity.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case "", MethodSimilarity:
		return MethodSimilarity, nil
	case MethodPrototype:
		return MethodPrototype, nil
	default:
		return "", fmt.Errorf("%w: %w: %q", classify.ErrConfiguration, ErrUnknownMethod, s)
	}
}

const defaultEvalFraction = 0.2

// Config holds assignment pipeline settings.
type Config struct {
	Method       string   `toml:"method"`
	Reducer      string   `toml:"reducer"`
	TopK         int      `toml:"top_k"`
	Normalize    *bool    `toml:"normalize"`
	BatchSize    int      `toml:"batch_size"`
	PageSize     int      `toml:"page_size"`
	LogInterval  int      `toml:"log_interval"`
	Limit        int      `toml:"limit"`
	Supervised   bool     `toml:"supervised"`
	ReuseModel   bool     `toml:"reuse_model"`
	EvalFraction *float64 `toml:"eval_fraction"`
	Seed         uint64   `toml:"seed"`

	Refiner   classify.RefinerOptions   `toml:"refiner"`
	Corrector classify.CorrectorOptions `toml:"corrector"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Method      string
	Reducer     string
	BatchSize   string
	LogInterval string
	Limit       string
	Supervised  string
	ReuseModel  string
	Seed        string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. Supervised and ReuseModel
// only turn on.
func (c *Config) Merge(overlay *Config) {
	if overlay.Method != "" {
		c.Method = overlay.Method
	}
	if overlay.Reducer != "" {
		c.Reducer = overlay.Reducer
	}
	if overlay.TopK != 0 {
		c.TopK = overlay.TopK
	}
	if overlay.Normalize != nil {
		c.Normalize = overlay.Normalize
	}
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
	if overlay.PageSize != 0 {
		c.PageSize = overlay.PageSize
	}
	if overlay.LogInterval != 0 {
		c.LogInterval = overlay.LogInterval
	}
	if overlay.Limit != 0 {
		c.Limit = overlay.Limit
	}
	if overlay.Supervised {
		c.Supervised = true
	}
	if overlay.ReuseModel {
		c.ReuseModel = true
	}
	if overlay.EvalFraction != nil {
		c.EvalFraction = overlay.EvalFraction
	}
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
	if overlay.Refiner.Iterations != 0 {
		c.Refiner.Iterations = overlay.Refiner.Iterations
	}
	if overlay.Refiner.LearningRate != 0 {
		c.Refiner.LearningRate = overlay.Refiner.LearningRate
	}
	if overlay.Refiner.L2 != 0 {
		c.Refiner.L2 = overlay.Refiner.L2
	}
	if overlay.Corrector.MaxIterations != 0 {
		c.Corrector.MaxIterations = overlay.Corrector.MaxIterations
	}
	if overlay.Corrector.Seed != 0 {
		c.Corrector.Seed = overlay.Corrector.Seed
	}
}

// NormalizeVectors reports whether document vectors are L2-normalized
// before scoring. Defaults to true.
func (c *Config) NormalizeVectors() bool {
	return c.Normalize == nil || *c.Normalize
}

// HeldOutFraction returns the share of labeled examples held out for
// evaluation. Defaults to 0.2; an explicit 0 trains on every example.
func (c *Config) HeldOutFraction() float64 {
	if c.EvalFraction == nil {
		return defaultEvalFraction
	}
	return *c.EvalFraction
}

func (c *Config) loadDefaults() {
	if c.Method == "" {
		c.Method = string(MethodSimilarity)
	}
	if c.Reducer == "" {
		c.Reducer = string(classify.ReducerMedian)
	}
	if c.TopK == 0 {
		c.TopK = classify.DefaultTopK
	}
	if c.BatchSize == 0 {
		c.BatchSize = 100
	}
	if c.LogInterval == 0 {
		c.LogInterval = 100
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.Refiner == (classify.RefinerOptions{}) {
		c.Refiner = classify.DefaultRefinerOptions()
	}
	if c.Corrector.Seed == 0 {
		c.Corrector.Seed = c.Seed
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Method != "" {
		if v := os.Getenv(env.Method); v != "" {
			c.Method = v
		}
	}
	if env.Reducer != "" {
		if v := os.Getenv(env.Reducer); v != "" {
			c.Reducer = v
		}
	}
	if env.BatchSize != "" {
		if v := os.Getenv(env.BatchSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.BatchSize = n
			}
		}
	}
	if env.LogInterval != "" {
		if v := os.Getenv(env.LogInterval); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.LogInterval = n
			}
		}
	}
	if env.Limit != "" {
		if v := os.Getenv(env.Limit); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Limit = n
			}
		}
	}
	if env.Supervised != "" {
		if v := os.Getenv(env.Supervised); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.Supervised = b
			}
		}
	}
	if env.ReuseModel != "" {
		if v := os.Getenv(env.ReuseModel); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.ReuseModel = b
			}
		}
	}
	if env.Seed != "" {
		if v := os.Getenv(env.Seed); v != "" {
			if n, err := strconv.ParseUint(v, 10, 64); err == nil {
				c.Seed = n
			}
		}
	}
}

func (c *Config) validate() error {
	if _, err := ParseMethod(c.Method); err != nil {
		return err
	}
	if _, err := classify.ParseReducer(c.Reducer); err != nil {
		return err
	}
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be positive")
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.LogInterval < 1 {
		return fmt.Errorf("log_interval must be positive")
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	if f := c.HeldOutFraction(); f < 0 || f >= 1 {
		return fmt.Errorf("eval_fraction must be in [0, 1)")
	}
	return nil
}
