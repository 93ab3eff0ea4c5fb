// Command ingest loads a tweet CSV export into a collection. Rows already
// stored are skipped, so re-running an import is safe.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/moodmap/internal/backend"
	"github.com/JaimeStill/moodmap/internal/config"
	"github.com/JaimeStill/moodmap/internal/corpus"
	"github.com/JaimeStill/moodmap/internal/infrastructure"
	"github.com/JaimeStill/moodmap/pkg/formatting"
)

func main() {
	var (
		file       = flag.String("file", "", "CSV export with tweets_time, username, tweets columns")
		encoding   = flag.String("encoding", "utf-8", "File encoding: utf-8 or latin1")
		collection = flag.String("collection", "", "Target collection (default from config)")
	)
	flag.Parse()

	if *file == "" {
		log.Fatal("-file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	name := string(cfg.Collection)
	if *collection != "" {
		c, err := config.ParseCollection(*collection)
		if err != nil {
			log.Fatal(err)
		}
		name = string(c)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil {
		log.Printf("reading %s (%s)", *file, formatting.FormatBytes(info.Size(), 1))
	}

	parsed, err := corpus.ReadCSV(f, corpus.CSVOptions{Collection: name, Encoding: *encoding})
	if err != nil {
		log.Fatal(err)
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

	result, err := b.Documents.Insert(ctx, parsed.Documents)
	if err != nil {
		log.Fatalf("insert documents: %v", err)
	}

	log.Printf("rows %d, dropped %d, inserted %d, skipped %d",
		parsed.Rows, parsed.Dropped, result.Inserted, result.Skipped)
}
