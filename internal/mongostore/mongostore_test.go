package mongostore_test

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/moodmap/internal/mongostore"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := mongostore.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.URI != "mongodb://localhost:27017" {
		t.Errorf("uri: got %s", cfg.URI)
	}
	if cfg.Database != "visualization_db" {
		t.Errorf("database: got %s, want visualization_db", cfg.Database)
	}
	if cfg.Categories != "Emotion_Level_Mapping" {
		t.Errorf("categories: got %s", cfg.Categories)
	}
	if cfg.Assignments != "emotion_assigned" {
		t.Errorf("assignments: got %s", cfg.Assignments)
	}
	if cfg.ConnectTimeoutDuration() != 10*time.Second {
		t.Errorf("connect_timeout: got %v, want 10s", cfg.ConnectTimeoutDuration())
	}

	name, err := cfg.DocumentCollection("tweets")
	if err != nil {
		t.Fatalf("DocumentCollection(tweets) error = %v", err)
	}
	if name != "Tweeter_embedding_collection" {
		t.Errorf("tweets collection: got %s", name)
	}
}

func TestDocumentCollectionUnknown(t *testing.T) {
	cfg := mongostore.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if _, err := cfg.DocumentCollection("news"); !errors.Is(err, mongostore.ErrUnknownCollection) {
		t.Errorf("DocumentCollection(news) error = %v, want ErrUnknownCollection", err)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_MONGO_URI", "mongodb://mongo:27017")
	t.Setenv("TEST_MONGO_DATABASE", "moodmap")

	cfg := mongostore.Config{}
	err := cfg.Finalize(&mongostore.Env{
		URI:      "TEST_MONGO_URI",
		Database: "TEST_MONGO_DATABASE",
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.URI != "mongodb://mongo:27017" {
		t.Errorf("uri: got %s", cfg.URI)
	}
	if cfg.Database != "moodmap" {
		t.Errorf("database: got %s, want moodmap", cfg.Database)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     mongostore.Config
		wantErr string
	}{
		{
			name:    "bad timeout",
			cfg:     mongostore.Config{ConnectTimeout: "soon"},
			wantErr: "invalid connect_timeout",
		},
		{
			name:    "empty mapping",
			cfg:     mongostore.Config{Documents: map[string]string{"tweets": ""}},
			wantErr: "empty mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := mongostore.Config{}
	if err := base.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	base.Merge(&mongostore.Config{
		Database:  "archive",
		Documents: map[string]string{"news": "News_embedding_collection"},
	})

	if base.Database != "archive" {
		t.Errorf("database: got %s, want archive", base.Database)
	}
	if base.URI != "mongodb://localhost:27017" {
		t.Errorf("uri should be unchanged, got %s", base.URI)
	}
	if _, err := base.DocumentCollection("tweets"); err != nil {
		t.Errorf("tweets mapping lost after merge: %v", err)
	}
	if name, _ := base.DocumentCollection("news"); name != "News_embedding_collection" {
		t.Errorf("news mapping: got %s", name)
	}
}

func TestNewInvalidURI(t *testing.T) {
	cfg := &mongostore.Config{URI: "not-a-mongo-uri"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if _, err := mongostore.New(cfg, slog.Default()); err == nil {
		t.Fatal("expected error for invalid uri, got nil")
	}
}
