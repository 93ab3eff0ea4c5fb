// Package routes declares HTTP routes as nested groups and registers them
// on a ServeMux using method-qualified patterns.
package routes

import (
	"net/http"

	"github.com/JaimeStill/moodmap/pkg/middleware"
)

// Route binds a method and a pattern, relative to its group, to a handler.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group organizes routes under a common prefix. Middleware wraps every
// route in the group and its children, outermost first.
type Group struct {
	Prefix     string
	Middleware middleware.Chain
	Routes     []Route
	Children   []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		g.register(mux, "", nil)
	}
}

func (g Group) register(mux *http.ServeMux, parent string, inherited middleware.Chain) {
	prefix := parent + g.Prefix
	chain := append(inherited[:len(inherited):len(inherited)], g.Middleware...)

	for _, r := range g.Routes {
		mux.Handle(r.Method+" "+prefix+r.Pattern, chain.Then(r.Handler))
	}
	for _, child := range g.Children {
		child.register(mux, prefix, chain)
	}
}
