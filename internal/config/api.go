package config

import (
	"fmt"

	"github.com/JaimeStill/moodmap/pkg/formatting"
	"github.com/JaimeStill/moodmap/pkg/middleware"
	"github.com/JaimeStill/moodmap/pkg/openapi"
	"github.com/JaimeStill/moodmap/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "MOODMAP_CORS_ENABLED",
	Origins:          "MOODMAP_CORS_ORIGINS",
	AllowedMethods:   "MOODMAP_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "MOODMAP_CORS_ALLOWED_HEADERS",
	AllowCredentials: "MOODMAP_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "MOODMAP_CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "MOODMAP_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "MOODMAP_PAGINATION_MAX_PAGE_SIZE",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "MOODMAP_OPENAPI_TITLE",
	Description: "MOODMAP_OPENAPI_DESCRIPTION",
}

var authEnv = &middleware.AuthEnv{
	Enabled:  "MOODMAP_AUTH_ENABLED",
	Issuer:   "MOODMAP_AUTH_ISSUER",
	ClientID: "MOODMAP_AUTH_CLIENT_ID",
}

// APIConfig holds API routing, CORS, pagination, OpenAPI, and auth settings.
// Auth guards the mutating routes only; reads stay public for the
// visualizer.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
	OpenAPI       openapi.Config        `toml:"openapi"`
	Auth          middleware.AuthConfig `toml:"auth"`
}

func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 50 * 1024 * 1024 // 50MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(o *APIConfig) {
	mergeString(&c.BasePath, o.BasePath)
	mergeString(&c.MaxUploadSize, o.MaxUploadSize)

	c.CORS.Merge(&o.CORS)
	c.Pagination.Merge(&o.Pagination)
	c.OpenAPI.Merge(&o.OpenAPI)
	c.Auth.Merge(&o.Auth)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "50MB"
	}
}

func (c *APIConfig) loadEnv() {
	setenv(map[string]*string{
		"MOODMAP_API_BASE_PATH":       &c.BasePath,
		"MOODMAP_API_MAX_UPLOAD_SIZE": &c.MaxUploadSize,
	})
}
