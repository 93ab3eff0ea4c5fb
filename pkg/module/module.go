// Package module mounts self-contained HTTP handlers under single-level
// path prefixes such as /api.
package module

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JaimeStill/moodmap/pkg/middleware"
)

// ErrInvalidPrefix indicates a prefix that is not a single path segment.
var ErrInvalidPrefix = errors.New("invalid module prefix")

// Module serves an inner router under a prefix, with its own middleware.
// The inner router sees paths with the prefix removed.
type Module struct {
	prefix string
	router http.Handler
	chain  middleware.Chain
}

// New creates a Module. It panics unless prefix is a single segment with a
// leading slash.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{prefix: prefix, router: router}
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware to the module.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.chain.Use(mw)
}

// Handler returns the inner router wrapped in the module's middleware.
func (m *Module) Handler() http.Handler {
	return m.chain.Then(m.router)
}

// Serve dispatches req to the inner router with the prefix stripped.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	inner := req.Clone(req.Context())
	inner.URL.Path = strings.TrimPrefix(req.URL.Path, m.prefix)
	if inner.URL.Path == "" {
		inner.URL.Path = "/"
	}
	inner.URL.RawPath = ""
	m.Handler().ServeHTTP(w, inner)
}

func validatePrefix(prefix string) error {
	seg, ok := strings.CutPrefix(prefix, "/")
	if !ok || seg == "" || strings.Contains(seg, "/") {
		return fmt.Errorf("%w: %q (want a single segment such as /api)", ErrInvalidPrefix, prefix)
	}
	return nil
}
