package pagination_test

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/moodmap/pkg/pagination"
)

var bounds = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg pagination.Config
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		if cfg != bounds {
			t.Errorf("got %+v, want %+v", cfg, bounds)
		}
	})

	t.Run("env", func(t *testing.T) {
		t.Setenv("MM_PAGE_SIZE", "50")
		t.Setenv("MM_MAX_PAGE", "250")

		var cfg pagination.Config
		err := cfg.Finalize(&pagination.ConfigEnv{DefaultPageSize: "MM_PAGE_SIZE", MaxPageSize: "MM_MAX_PAGE"})
		if err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		if cfg.DefaultPageSize != 50 || cfg.MaxPageSize != 250 {
			t.Errorf("got %+v", cfg)
		}
	})

	t.Run("default above max", func(t *testing.T) {
		cfg := pagination.Config{DefaultPageSize: 200, MaxPageSize: 100}
		err := cfg.Finalize(nil)
		if err == nil || !strings.Contains(err.Error(), "cannot exceed") {
			t.Errorf("Finalize() error = %v", err)
		}
	})

	t.Run("merge keeps unset fields", func(t *testing.T) {
		cfg := bounds
		cfg.Merge(&pagination.Config{MaxPageSize: 500})
		if cfg.DefaultPageSize != 20 || cfg.MaxPageSize != 500 {
			t.Errorf("got %+v", cfg)
		}
	})
}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		page, size int
		offset     int
		search     string
		sortFields int
	}{
		{"empty", "", 1, 20, 0, "", 0},
		{"explicit", "page=3&page_size=25", 3, 25, 50, "", 0},
		{"size clamped", "page_size=5000", 1, 100, 0, "", 0},
		{"negative page", "page=-4", 1, 20, 0, "", 0},
		{"malformed numbers", "page=two&page_size=x", 1, 20, 0, "", 0},
		{"search trimmed", "search=%20joy%20", 1, 20, 0, "joy", 0},
		{"blank search", "search=%20%20", 1, 20, 0, "", 0},
		{"sort", "sort=label,-created_at", 1, 20, 0, "", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			req := pagination.PageRequestFromQuery(values, bounds)

			if req.Page != tt.page || req.PageSize != tt.size {
				t.Errorf("page=%d size=%d, want page=%d size=%d", req.Page, req.PageSize, tt.page, tt.size)
			}
			if req.Offset() != tt.offset {
				t.Errorf("Offset() = %d, want %d", req.Offset(), tt.offset)
			}
			switch {
			case tt.search == "" && req.Search != nil:
				t.Errorf("search = %q, want nil", *req.Search)
			case tt.search != "" && (req.Search == nil || *req.Search != tt.search):
				t.Errorf("search = %v, want %q", req.Search, tt.search)
			}
			if len(req.Sort) != tt.sortFields {
				t.Errorf("sort fields = %d, want %d", len(req.Sort), tt.sortFields)
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		pageSize  int
		wantPages int
	}{
		{"exact", 100, 20, 5},
		{"remainder", 101, 20, 6},
		{"empty", 0, 20, 1},
		{"zero page size", 10, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pagination.NewPageResult([]int{1}, tt.total, 1, tt.pageSize)
			if res.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", res.TotalPages, tt.wantPages)
			}
		})
	}
}

func TestNewPageResultEncodesEmptyData(t *testing.T) {
	res := pagination.NewPageResult[string](nil, 0, 1, 20)

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"data":[]`) {
		t.Errorf("encoded %s, want empty data array", data)
	}
}
