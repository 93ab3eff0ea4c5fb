// Command embed backfills document embeddings for a collection.
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
	"github.com/JaimeStill/moodmap/internal/embedding"
	"github.com/JaimeStill/moodmap/internal/infrastructure"
)

func main() {
	var (
		collection = flag.String("collection", "", "Collection to embed (default from config)")
		mode       = flag.String("mode", string(embedding.ModeContinue), "continue embeds missing vectors; rebuild clears and re-embeds all")
		limit      = flag.Int("limit", 0, "Embed at most this many documents (0 = all)")
	)
	flag.Parse()

	m, err := embedding.ParseMode(*mode)
	if err != nil {
		log.Fatal(err)
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

	result, err := embedding.NewBackfill(b.Documents, provider, &cfg.Embedding, infra.Logger).
		Run(ctx, name, m, *limit)
	if err != nil {
		log.Fatalf("backfill failed: %v", err)
	}

	log.Printf("embedded %d, skipped %d, failed %d, cleared %d",
		result.Embedded, result.Skipped, result.Failed, result.Cleared)
}
