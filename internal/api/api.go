// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/JaimeStill/moodmap/internal/config"
	"github.com/JaimeStill/moodmap/internal/infrastructure"
	"github.com/JaimeStill/moodmap/internal/scheduler"
	"github.com/JaimeStill/moodmap/pkg/middleware"
	"github.com/JaimeStill/moodmap/pkg/module"
)

const discoveryTimeout = 15 * time.Second

// NewModule creates the API module with all domain handlers and middleware.
// It also registers run recovery at startup and, when enabled, the
// assignment schedule.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	guard, err := newGuard(runtime.Lifecycle.Context(), &cfg.API.Auth)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg, runtime, guard); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	if err := startBackground(cfg, runtime, domain); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}

// newGuard builds the middleware for mutating routes. With auth disabled
// the guard passes requests through.
func newGuard(ctx context.Context, cfg *middleware.AuthConfig) (func(http.Handler) http.Handler, error) {
	if !cfg.Enabled {
		return middleware.Auth(nil), nil
	}

	ctx, cancel := context.WithTimeout(ctx, discoveryTimeout)
	defer cancel()

	verifier, err := middleware.NewVerifier(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("auth init failed: %w", err)
	}
	return middleware.Auth(verifier), nil
}

func startBackground(cfg *config.Config, runtime *Runtime, domain *Domain) error {
	lc := runtime.Lifecycle

	lc.OnStartup(func() {
		if _, err := domain.Runs.Recover(lc.Context()); err != nil {
			runtime.Logger.Error("run recovery failed", "error", err)
		}
	})

	if !cfg.Scheduler.Enabled {
		return nil
	}

	sched, err := scheduler.New(&cfg.Scheduler, domain.Runs, runtime.Logger)
	if err != nil {
		return fmt.Errorf("scheduler init failed: %w", err)
	}
	return sched.Start(lc)
}
