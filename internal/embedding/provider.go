// Package embedding turns text into sentence embeddings. It provides an
// HTTP provider for Ollama-compatible servers, a local ONNX provider, and
// the backfill that embeds stored documents still missing a vector.
package embedding

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Provider produces one embedding per text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Close() error
}

// New constructs the configured provider.
func New(cfg *Config, logger *slog.Logger) (Provider, error) {
	switch cfg.Provider {
	case ProviderONNX:
		return newONNX(&cfg.ONNX, logger)
	case ProviderHTTP:
		return newHTTP(&cfg.HTTP, logger), nil
	default:
		return nil, ErrUnknownProvider
	}
}

// NormalizeText applies NFKC normalization, trims surrounding whitespace,
// and drops control characters other than newline and tab.
func NormalizeText(text string) string {
	normed := strings.TrimSpace(norm.NFKC.String(text))
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normed)
}
