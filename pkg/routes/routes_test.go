package routes_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/moodmap/pkg/middleware"
	"github.com/JaimeStill/moodmap/pkg/routes"
)

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux, routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: reply("list")},
			{Method: "GET", Pattern: "/{id}", Handler: reply("find")},
		},
		Children: []routes.Group{{
			Prefix: "/{id}/label",
			Routes: []routes.Route{{Method: "PUT", Pattern: "", Handler: reply("label")}},
		}},
	})

	tests := []struct {
		method, path string
		want         int
		body         string
	}{
		{"GET", "/documents", http.StatusOK, "list"},
		{"GET", "/documents/t-1", http.StatusOK, "find"},
		{"PUT", "/documents/t-1/label", http.StatusOK, "label"},
		{"POST", "/documents", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body = %s, want %s", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestGroupMiddleware(t *testing.T) {
	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	mux := http.NewServeMux()
	routes.Register(mux, routes.Group{
		Prefix:     "/runs",
		Middleware: middleware.Chain{tag("outer")},
		Routes:     []routes.Route{{Method: "GET", Pattern: "", Handler: reply("ok")}},
		Children: []routes.Group{{
			Middleware: middleware.Chain{tag("auth")},
			Routes:     []routes.Route{{Method: "POST", Pattern: "", Handler: reply("ok")}},
		}},
	})

	tests := []struct {
		method string
		want   []string
	}{
		{"GET", []string{"outer"}},
		{"POST", []string{"outer", "auth"}},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			order = nil
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, "/runs", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if !slices.Equal(order, tt.want) {
				t.Errorf("middleware order = %v, want %v", order, tt.want)
			}
		})
	}
}
