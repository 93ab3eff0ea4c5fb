package api

import (
	"log/slog"

	"github.com/JaimeStill/moodmap/internal/config"
	"github.com/JaimeStill/moodmap/internal/infrastructure"
	"github.com/JaimeStill/moodmap/pkg/pagination"
)

// Runtime is the shared infrastructure as the API sees it. Logger shadows
// the process logger with module=api.
type Runtime struct {
	*infrastructure.Infrastructure
	Logger     *slog.Logger
	Pagination pagination.Config
}

func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: infra,
		Logger:         infra.Logger.With("module", "api"),
		Pagination:     cfg.API.Pagination,
	}
}
