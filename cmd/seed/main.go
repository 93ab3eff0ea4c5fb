// Command seed embeds the category definitions and replaces the stored
// category table with them. Without -file the built-in ten-level emotion
// scale is used.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/moodmap/internal/backend"
	"github.com/JaimeStill/moodmap/internal/categories"
	"github.com/JaimeStill/moodmap/internal/config"
	"github.com/JaimeStill/moodmap/internal/infrastructure"
)

func main() {
	file := flag.String("file", "", "YAML category definitions (default: built-in scale)")
	flag.Parse()

	seed := categories.DefaultSeed()
	if *file != "" {
		s, err := categories.LoadSeed(*file)
		if err != nil {
			log.Fatal(err)
		}
		seed = s
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
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

	provider, err := infra.Embedder()
	if err != nil {
		log.Fatal(err)
	}
	defer provider.Close()

	cats, err := seed.Embed(ctx, provider, cfg.Embedding.Prefix)
	if err != nil {
		log.Fatalf("embed categories: %v", err)
	}

	if err := b.Categories.Replace(ctx, cats); err != nil {
		log.Fatalf("replace categories: %v", err)
	}

	log.Printf("seeded %d categories into %s", len(cats), b.Kind)
}
