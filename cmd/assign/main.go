// Command assign runs one emotion assignment over a collection and prints
// the result as JSON. With the postgres backend the run is recorded in the
// run ledger like an API-triggered run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/JaimeStill/moodmap/internal/backend"
	"github.com/JaimeStill/moodmap/internal/config"
	"github.com/JaimeStill/moodmap/internal/infrastructure"
	"github.com/JaimeStill/moodmap/internal/pipeline"
	"github.com/JaimeStill/moodmap/internal/runs"
)

func main() {
	var (
		collection = flag.String("collection", "", "Collection to assign (default from config)")
		method     = flag.String("method", "", "Final stage: similarity or prototype")
		reducer    = flag.String("reducer", "", "Reference reducer: median or max")
		supervised = flag.Bool("supervised", false, "Train the supervised refiner on labeled documents")
		reuse      = flag.Bool("reuse", false, "Reuse the latest archived refiner instead of training")
		limit      = flag.Int("limit", 0, "Assign at most this many documents (0 = all)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	overrides(&cfg.Pipeline, *method, *reducer, *supervised, *reuse, *limit)
	if err := cfg.Pipeline.Finalize(nil); err != nil {
		log.Fatalf("invalid pipeline options: %v", err)
	}

	name := string(cfg.Collection)
	if *collection != "" {
		c, err := config.ParseCollection(*collection)
		if err != nil {
			log.Fatal(err)
		}
		name = string(c)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := infrastructure.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	b, err := backend.New(cfg, infra)
	if err != nil {
		log.Fatal(err)
	}
	if err := b.Connect(ctx); err != nil {
		log.Fatalf("connect %s: %v", b.Kind, err)
	}
	defer b.Close(context.WithoutCancel(ctx))

	var out any
	if b.Runs != nil {
		run, err := b.Runs.Execute(ctx, name, runs.TriggerCLI)
		if err != nil {
			log.Fatalf("assignment failed: %v", err)
		}
		out = run
	} else {
		result, err := pipeline.Run(ctx, b.Runtime, cfg.Pipeline, name, uuid.NewString())
		if err != nil {
			log.Fatalf("assignment failed: %v", err)
		}
		out = result
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal(err)
	}
}

func overrides(cfg *pipeline.Config, method, reducer string, supervised, reuse bool, limit int) {
	if method != "" {
		cfg.Method = method
	}
	if reducer != "" {
		cfg.Reducer = reducer
	}
	if supervised {
		cfg.Supervised = true
	}
	if reuse {
		cfg.Supervised = true
		cfg.ReuseModel = true
	}
	if limit > 0 {
		cfg.Limit = limit
	}
}
