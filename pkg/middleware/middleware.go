// Package middleware holds the HTTP middleware shared by API modules:
// request logging, CORS, and OIDC bearer-token auth.
package middleware

import "net/http"

// Chain is an ordered middleware stack. The first entry is outermost.
type Chain []func(http.Handler) http.Handler

// Use appends middleware to the chain.
func (c *Chain) Use(mw ...func(http.Handler) http.Handler) {
	*c = append(*c, mw...)
}

// Then wraps h with every middleware in the chain.
func (c Chain) Then(h http.Handler) http.Handler {
	for i := len(c) - 1; i >= 0; i-- {
		h = c[i](h)
	}
	return h
}
