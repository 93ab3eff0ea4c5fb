package embedding_test

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/JaimeStill/moodmap/internal/corpus"
	"github.com/JaimeStill/moodmap/internal/embedding"
)

type memoryStore struct {
	mu      sync.Mutex
	docs    []corpus.Document
	cleared int
}

func newMemoryStore(docs ...corpus.Document) *memoryStore {
	slices.SortFunc(docs, func(a, b corpus.Document) int { return strings.Compare(a.ID, b.ID) })
	return &memoryStore{docs: docs}
}

func (s *memoryStore) matching(opts corpus.StreamOptions) []corpus.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []corpus.Document
	for _, d := range s.docs {
		if d.Collection != opts.Collection {
			continue
		}
		if opts.MissingEmbedding && d.HasEmbedding() {
			continue
		}
		if opts.RequireEmbedding && !d.HasEmbedding() {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (s *memoryStore) Stream(ctx context.Context, opts corpus.StreamOptions, fn func(corpus.Document) error) error {
	docs := s.matching(opts)
	if opts.Limit > 0 && len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

func (s *memoryStore) Count(_ context.Context, opts corpus.StreamOptions) (int, error) {
	return len(s.matching(opts)), nil
}

func (s *memoryStore) SetEmbedding(_ context.Context, collection, id string, v []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.docs {
		if s.docs[i].ID == id && s.docs[i].Collection == collection {
			s.docs[i].Embedding = v
			return nil
		}
	}
	return corpus.ErrNotFound
}

func (s *memoryStore) ClearEmbeddings(_ context.Context, collection string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.docs {
		if s.docs[i].Collection == collection && s.docs[i].HasEmbedding() {
			s.docs[i].Embedding = nil
			n++
		}
	}
	s.cleared++
	return n, nil
}

func (s *memoryStore) embedding(id string) []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.ID == id {
			return d.Embedding
		}
	}
	return nil
}

type fakeProvider struct {
	mu     sync.Mutex
	inputs []string
	fail   string
}

func (p *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.inputs = append(p.inputs, text)
	p.mu.Unlock()

	if p.fail != "" && strings.Contains(text, p.fail) {
		return nil, errors.New("model unavailable")
	}
	return []float32{float32(len(text)), 1}, nil
}

func (p *fakeProvider) Close() error { return nil }

func tweets() []corpus.Document {
	return []corpus.Document{
		{ID: "a", Collection: "tweets", Text: "so happy today"},
		{ID: "b", Collection: "tweets", Text: "already done", Embedding: []float32{1, 0}},
		{ID: "c", Collection: "tweets", Text: "   "},
		{ID: "d", Collection: "tweets", Text: "rainy and grim"},
		{ID: "e", Collection: "news", Text: "other corpus"},
	}
}

func newBackfill(store embedding.Store, provider embedding.Provider, workers int) *embedding.Backfill {
	cfg := &embedding.Config{Prefix: "query: ", Workers: workers}
	return embedding.NewBackfill(store, provider, cfg, slog.Default())
}

func TestBackfillContinue(t *testing.T) {
	store := newMemoryStore(tweets()...)
	provider := &fakeProvider{}

	res, err := newBackfill(store, provider, 3).Run(context.Background(), "tweets", embedding.ModeContinue, 0)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := embedding.BackfillResult{Embedded: 2, Skipped: 1}
	if res != want {
		t.Errorf("Run() = %+v, want %+v", res, want)
	}
	if store.cleared != 0 {
		t.Error("continue mode cleared embeddings")
	}
	if got := store.embedding("b"); got[0] != 1 {
		t.Errorf("existing embedding overwritten: %v", got)
	}
	if store.embedding("e") != nil {
		t.Error("document outside the collection was embedded")
	}

	slices.Sort(provider.inputs)
	wantInputs := []string{"query: rainy and grim", "query: so happy today"}
	if !slices.Equal(provider.inputs, wantInputs) {
		t.Errorf("provider inputs = %q, want %q", provider.inputs, wantInputs)
	}
}

func TestBackfillRebuild(t *testing.T) {
	store := newMemoryStore(tweets()...)

	res, err := newBackfill(store, &fakeProvider{}, 2).Run(context.Background(), "tweets", embedding.ModeRebuild, 0)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Cleared != 1 || res.Embedded != 3 || res.Skipped != 1 {
		t.Errorf("Run() = %+v, want cleared 1, embedded 3, skipped 1", res)
	}
	if got := store.embedding("b"); got[0] != float32(len("query: already done")) {
		t.Errorf("rebuilt embedding = %v", got)
	}
}

func TestBackfillFailureContinues(t *testing.T) {
	store := newMemoryStore(tweets()...)
	provider := &fakeProvider{fail: "grim"}

	res, err := newBackfill(store, provider, 1).Run(context.Background(), "tweets", embedding.ModeContinue, 0)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.Embedded != 1 || res.Failed != 1 {
		t.Errorf("Run() = %+v, want embedded 1, failed 1", res)
	}
	if store.embedding("d") != nil {
		t.Error("failed document should remain without an embedding")
	}
}

func TestBackfillLimit(t *testing.T) {
	store := newMemoryStore(tweets()...)

	res, err := newBackfill(store, &fakeProvider{}, 2).Run(context.Background(), "tweets", embedding.ModeContinue, 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Embedded != 1 {
		t.Errorf("embedded = %d, want 1", res.Embedded)
	}
	if store.embedding("d") != nil {
		t.Error("limit exceeded")
	}
}

func TestBackfillCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newMemoryStore(tweets()...)
	_, err := newBackfill(store, &fakeProvider{}, 2).Run(ctx, "tweets", embedding.ModeContinue, 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
