package embedding_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/moodmap/internal/embedding"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := embedding.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Provider != embedding.ProviderHTTP {
		t.Errorf("provider: got %s, want http", cfg.Provider)
	}
	if cfg.Prefix != "query: " {
		t.Errorf("prefix: got %q, want %q", cfg.Prefix, "query: ")
	}
	if cfg.Workers != 4 {
		t.Errorf("workers: got %d, want 4", cfg.Workers)
	}
	if cfg.HTTP.BaseURL != "http://localhost:11434" {
		t.Errorf("base_url: got %s", cfg.HTTP.BaseURL)
	}
	if cfg.ONNX.MaxSeqLen != 512 {
		t.Errorf("max_seq_len: got %d, want 512", cfg.ONNX.MaxSeqLen)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_EMBED_PROVIDER", "onnx")
	t.Setenv("TEST_EMBED_MODEL_PATH", "/models/e5/model.onnx")
	t.Setenv("TEST_EMBED_WORKERS", "8")

	cfg := embedding.Config{ONNX: embedding.ONNXConfig{TokenizerPath: "/models/e5/tokenizer.json"}}
	err := cfg.Finalize(&embedding.Env{
		Provider:  "TEST_EMBED_PROVIDER",
		ModelPath: "TEST_EMBED_MODEL_PATH",
		Workers:   "TEST_EMBED_WORKERS",
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Provider != embedding.ProviderONNX {
		t.Errorf("provider: got %s, want onnx", cfg.Provider)
	}
	if cfg.ONNX.ModelPath != "/models/e5/model.onnx" {
		t.Errorf("model_path: got %s", cfg.ONNX.ModelPath)
	}
	if cfg.Workers != 8 {
		t.Errorf("workers: got %d, want 8", cfg.Workers)
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     embedding.Config
		wantErr string
	}{
		{"unknown provider", embedding.Config{Provider: "openai"}, "unknown embedding provider"},
		{"negative workers", embedding.Config{Workers: -1}, "workers must be at least 1"},
		{"bad timeout", embedding.Config{HTTP: embedding.HTTPConfig{Timeout: "later"}}, "invalid http.timeout"},
		{"onnx without model", embedding.Config{Provider: "onnx"}, "onnx.model_path required"},
		{
			"onnx without tokenizer",
			embedding.Config{Provider: "onnx", ONNX: embedding.ONNXConfig{ModelPath: "m.onnx"}},
			"onnx.tokenizer_path required",
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
	base := embedding.Config{Provider: "http", Prefix: "query: ", Workers: 4}
	base.Merge(&embedding.Config{Workers: 2, HTTP: embedding.HTTPConfig{Model: "nomic-embed-text"}})

	if base.Workers != 2 {
		t.Errorf("workers: got %d, want 2", base.Workers)
	}
	if base.HTTP.Model != "nomic-embed-text" {
		t.Errorf("model: got %s", base.HTTP.Model)
	}
	if base.Prefix != "query: " {
		t.Errorf("prefix should be unchanged, got %q", base.Prefix)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims", "  feeling great  ", "feeling great"},
		{"nfkc width", "ｈａｐｐｙ", "happy"},
		{"drops control", "sad\x00 day", "sad day"},
		{"keeps newline", "line one\nline two", "line one\nline two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := embedding.NormalizeText(tt.input); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMeanPool(t *testing.T) {
	hidden := []float32{
		1, 2,
		3, 4,
		100, 100,
	}
	got := embedding.MeanPool(hidden, []int64{1, 1, 0}, 2)

	if got[0] != 2 || got[1] != 3 {
		t.Errorf("MeanPool() = %v, want [2 3]", got)
	}

	zero := embedding.MeanPool(hidden, []int64{0, 0, 0}, 2)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("MeanPool() with empty mask = %v, want zeros", zero)
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"continue", "rebuild"} {
		if _, err := embedding.ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q) error = %v", s, err)
		}
	}
	if _, err := embedding.ParseMode("restart"); !errors.Is(err, embedding.ErrUnknownMode) {
		t.Errorf("ParseMode(restart) error = %v, want ErrUnknownMode", err)
	}
}

func TestHTTPProviderEmbed(t *testing.T) {
	var got struct {
		Model string `json:"model"`
		Input string `json:"input"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embeddings":[[0.6,0.8]]}`))
	}))
	defer srv.Close()

	cfg := embedding.Config{HTTP: embedding.HTTPConfig{BaseURL: srv.URL + "/", Model: "e5"}}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	p, err := embedding.New(&cfg, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Close()

	v, err := p.Embed(context.Background(), "query:  calm evening ")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if got.Model != "e5" {
		t.Errorf("request model = %s, want e5", got.Model)
	}
	if got.Input != "query:  calm evening" {
		t.Errorf("request input = %q", got.Input)
	}
	if len(v) != 2 || math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("Embed() = %v, want [0.6 0.8]", v)
	}
}

func TestHTTPProviderErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   "model not loaded",
			check: func(err error) bool {
				var apiErr *embedding.APIError
				return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusInternalServerError
			},
		},
		{
			name:   "empty embedding",
			status: http.StatusOK,
			body:   `{"embeddings":[]}`,
			check:  func(err error) bool { return errors.Is(err, embedding.ErrEmptyEmbedding) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			cfg := embedding.Config{HTTP: embedding.HTTPConfig{BaseURL: srv.URL}}
			if err := cfg.Finalize(nil); err != nil {
				t.Fatalf("finalize failed: %v", err)
			}
			p, err := embedding.New(&cfg, slog.Default())
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			if _, err := p.Embed(context.Background(), "text"); !tt.check(err) {
				t.Errorf("Embed() error = %v", err)
			}
		})
	}
}
