package openapi_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/moodmap/pkg/openapi"
)

func testSpec() *openapi.Spec {
	return openapi.NewSpec(&openapi.Config{Title: "Test API", Description: "A test API"}, "1.0.0")
}

func TestNewSpec(t *testing.T) {
	spec := testSpec()

	if spec.OpenAPI != "3.1.0" {
		t.Errorf("openapi version: got %s, want 3.1.0", spec.OpenAPI)
	}
	if spec.Info.Title != "Test API" {
		t.Errorf("title: got %s, want Test API", spec.Info.Title)
	}
	if spec.Info.Description != "A test API" {
		t.Errorf("description: got %s, want A test API", spec.Info.Description)
	}
	if spec.Info.Version != "1.0.0" {
		t.Errorf("version: got %s, want 1.0.0", spec.Info.Version)
	}
	if spec.Components == nil {
		t.Fatal("components should not be nil")
	}
	if spec.Paths == nil {
		t.Fatal("paths should not be nil")
	}
}

func TestAddServer(t *testing.T) {
	spec := testSpec()
	spec.AddServer("http://localhost:8080")

	if len(spec.Servers) != 1 {
		t.Fatalf("servers: got %d, want 1", len(spec.Servers))
	}
	if spec.Servers[0].URL != "http://localhost:8080" {
		t.Errorf("server url: got %s", spec.Servers[0].URL)
	}
}

func TestAddTagAndPaths(t *testing.T) {
	spec := testSpec()
	spec.AddTag("runs", "Assignment runs")
	spec.AddPaths(map[string]*openapi.PathItem{
		"/runs":      {Get: &openapi.Operation{Summary: "List"}},
		"/runs/{id}": {Get: &openapi.Operation{Summary: "Find"}},
	})
	spec.AddPaths(map[string]*openapi.PathItem{
		"/runs": {Get: &openapi.Operation{Summary: "List runs"}},
	})

	if len(spec.Tags) != 1 || spec.Tags[0].Name != "runs" {
		t.Errorf("tags: got %+v", spec.Tags)
	}
	if len(spec.Paths) != 2 {
		t.Fatalf("paths: got %d, want 2", len(spec.Paths))
	}
	if got := spec.Paths["/runs"].Get.Summary; got != "List runs" {
		t.Errorf("replaced path summary: got %s, want List runs", got)
	}
}

func TestRefs(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"schema", openapi.SchemaRef("Category").Ref, "#/components/schemas/Category"},
		{"response", openapi.ResponseRef("NotFound").Ref, "#/components/responses/NotFound"},
		{"request body", openapi.RequestBodyJSON("LabelCommand", true).Content["application/json"].Schema.Ref, "#/components/schemas/LabelCommand"},
		{"response body", openapi.ResponseJSON("ok", "Assignment").Content["application/json"].Schema.Ref, "#/components/schemas/Assignment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestParams(t *testing.T) {
	tests := []struct {
		name     string
		param    *openapi.Parameter
		in       string
		required bool
		typ      string
		format   string
	}{
		{"uuid path", openapi.PathParam("id", "string", "uuid", "Run ID"), openapi.InPath, true, "string", "uuid"},
		{"integer path", openapi.PathParam("id", "integer", "", "Category ID"), openapi.InPath, true, "integer", ""},
		{"optional query", openapi.QueryParam("search", "string", "Search query", false), openapi.InQuery, false, "string", ""},
		{"required query", openapi.QueryParam("collection", "string", "", true), openapi.InQuery, true, "string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.param
			if p.In != tt.in || p.Required != tt.required {
				t.Errorf("in=%s required=%v, want in=%s required=%v", p.In, p.Required, tt.in, tt.required)
			}
			if p.Schema.Type != tt.typ || p.Schema.Format != tt.format {
				t.Errorf("schema type=%s format=%s, want %s/%s", p.Schema.Type, p.Schema.Format, tt.typ, tt.format)
			}
		})
	}
}

func TestMultipartBody(t *testing.T) {
	rb := openapi.MultipartBody(map[string]*openapi.Schema{
		"file":       {Type: "string", Format: "binary"},
		"collection": {Type: "string"},
	}, "file")

	media, ok := rb.Content["multipart/form-data"]
	if !ok {
		t.Fatal("missing multipart/form-data content")
	}
	if !rb.Required {
		t.Error("multipart body should be required")
	}
	if len(media.Schema.Properties) != 2 || !slices.Equal(media.Schema.Required, []string{"file"}) {
		t.Errorf("form schema: %d properties, required %v", len(media.Schema.Properties), media.Schema.Required)
	}
}

func TestComponents(t *testing.T) {
	c := openapi.NewComponents()
	c.AddSchemas(map[string]*openapi.Schema{"Run": {Type: "object"}})
	c.AddResponses(map[string]*openapi.Response{"ServiceUnavailable": {Description: "Not ready"}})

	for _, name := range []string{"PageRequest", "Error", "Run"} {
		if _, ok := c.Schemas[name]; !ok {
			t.Errorf("missing schema %s", name)
		}
	}
	for _, name := range []string{"BadRequest", "Unauthorized", "NotFound", "Conflict", "PayloadTooLarge", "ServiceUnavailable"} {
		if _, ok := c.Responses[name]; !ok {
			t.Errorf("missing response %s", name)
		}
	}
	if ref := c.Responses["NotFound"].Content["application/json"].Schema.Ref; ref != "#/components/schemas/Error" {
		t.Errorf("error response schema: got %s", ref)
	}
}

func TestMarshalJSON(t *testing.T) {
	spec := testSpec()
	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if parsed["openapi"] != "3.1.0" {
		t.Errorf("openapi: got %v", parsed["openapi"])
	}
}

func TestServeSpec(t *testing.T) {
	spec := testSpec()
	data, _ := openapi.MarshalJSON(spec)

	handler := openapi.ServeSpec(data)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/openapi.json", nil)

	handler(rec, req)

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content-type: got %s", ct)
	}

	body, _ := io.ReadAll(res.Body)
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("body unmarshal failed: %v", err)
	}

	etag := res.Header.Get("ETag")
	if etag == "" {
		t.Fatal("etag header missing")
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/openapi.json", nil)
	req.Header.Set("If-None-Match", etag)
	handler(rec, req)

	if rec.Code != http.StatusNotModified {
		t.Errorf("conditional status: got %d, want 304", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("conditional body: got %d bytes, want 0", rec.Body.Len())
	}
}

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := openapi.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Title != "Moodmap API" {
		t.Errorf("title: got %s, want Moodmap API", cfg.Title)
	}
	if cfg.Description == "" {
		t.Errorf("description: got %s", cfg.Description)
	}
}

func TestConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_TITLE", "Custom API")
	t.Setenv("TEST_DESC", "Custom desc")

	env := &openapi.ConfigEnv{
		Title:       "TEST_TITLE",
		Description: "TEST_DESC",
	}

	cfg := openapi.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Title != "Custom API" {
		t.Errorf("title: got %s, want Custom API", cfg.Title)
	}
	if cfg.Description != "Custom desc" {
		t.Errorf("description: got %s, want Custom desc", cfg.Description)
	}
}

func TestConfigMerge(t *testing.T) {
	base := openapi.Config{Title: "Base"}
	overlay := openapi.Config{Title: "Overlay"}
	base.Merge(&overlay)

	if base.Title != "Overlay" {
		t.Errorf("title: got %s, want Overlay", base.Title)
	}
}
