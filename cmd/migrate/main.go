// Command migrate applies the embedded Postgres schema migrations. The
// connection comes from -dsn, then MOODMAP_DB_DSN, then the [database]
// section of the moodmap config.
package main

import (
	"embed"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/moodmap/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "MOODMAP_DB_DSN"

func main() {
	var (
		dsn     = flag.String("dsn", "", "Postgres URL (default: MOODMAP_DB_DSN or config)")
		up      = flag.Bool("up", false, "Apply all pending migrations")
		down    = flag.Bool("down", false, "Revert all migrations")
		steps   = flag.Int("steps", 0, "Apply N migrations, or revert when negative")
		version = flag.Bool("version", false, "Print the current schema version")
		force   = flag.Int("force", -1, "Mark the schema as version N without running it")
	)
	flag.Parse()

	forced := false
	flag.Visit(func(f *flag.Flag) {
		forced = forced || f.Name == "force"
	})

	url, err := resolveDSN(*dsn)
	if err != nil {
		log.Fatal(err)
	}

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		log.Fatalf("migration source: %v", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		log.Fatalf("migrator: %v", err)
	}
	defer m.Close()

	switch {
	case *version:
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return
		}
		if err != nil {
			log.Fatalf("version: %v", err)
		}
		fmt.Printf("version %d (dirty: %v)\n", v, dirty)
	case forced:
		if err := m.Force(*force); err != nil {
			log.Fatalf("force: %v", err)
		}
		fmt.Printf("forced to version %d\n", *force)
	case *up:
		report("up", m.Up())
	case *down:
		report("down", m.Down())
	case *steps != 0:
		report(fmt.Sprintf("%d steps", *steps), m.Steps(*steps))
	default:
		fmt.Fprintln(os.Stderr, "usage: migrate [-dsn URL] -up | -down | -steps N | -version | -force N")
		flag.PrintDefaults()
		os.Exit(2)
	}
}

func resolveDSN(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("config load failed: %w", err)
	}
	return cfg.Database.URL(), nil
}

func report(action string, err error) {
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Printf("%s: schema already current\n", action)
	case err != nil:
		log.Fatalf("%s: %v", action, err)
	default:
		fmt.Printf("%s: applied\n", action)
	}
}
