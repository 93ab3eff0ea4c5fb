// Package database owns the Postgres connection pool. Connections go
// through pgx's database/sql adapter so repositories stay on database/sql.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/moodmap/pkg/lifecycle"
)

// System manages the pool and ties it to the process lifecycle.
type System interface {
	// Connection returns the pool.
	Connection() *sql.DB
	// Start pings on startup and closes the pool on shutdown.
	Start(lc *lifecycle.Coordinator) error
	// Connect pings within the configured timeout. Command-line tools call
	// it in place of Start.
	Connect(ctx context.Context) error
	// Close releases the pool.
	Close() error
}

type database struct {
	conn        *sql.DB
	target      string
	logger      *slog.Logger
	connTimeout time.Duration
}

// New parses cfg into a pgx connection config and opens a pool without
// connecting.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	connCfg, err := pgx.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.ApplicationName != "" {
		connCfg.RuntimeParams["application_name"] = cfg.ApplicationName
	}

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:        db,
		target:      cfg.Redacted(),
		logger:      logger.With("system", "database"),
		connTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		if err := d.Connect(lc.Context()); err != nil {
			d.logger.Error("database ping failed", "target", d.target, "error", err)
		}
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := d.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
		}
	})

	return nil
}

func (d *database) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.connTimeout)
	defer cancel()

	if err := d.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}

	d.logger.Info("database connection established", "target", d.target)
	return nil
}

func (d *database) Close() error {
	stats := d.conn.Stats()
	if err := d.conn.Close(); err != nil {
		return err
	}
	d.logger.Info("database connection closed",
		"open", stats.OpenConnections,
		"wait_count", stats.WaitCount,
		"wait_duration", stats.WaitDuration,
	)
	return nil
}
