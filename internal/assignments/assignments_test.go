package assignments_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/moodmap/internal/assignments"
	"github.com/JaimeStill/moodmap/pkg/query"
)

func TestTitle(t *testing.T) {
	got := assignments.Title("ana", "2024-03-01 08:15")
	want := "Tweet by ana at 2024-03-01 08:15"
	if got != want {
		t.Errorf("Title() = %q, want %q", got, want)
	}
}

func TestFiltersFromQuery(t *testing.T) {
	tests := []struct {
		name     string
		values   url.Values
		wantCat  *int
		wantColl string
	}{
		{name: "empty", values: url.Values{}},
		{name: "category", values: url.Values{"category_id": {"3"}}, wantCat: intPtr(3)},
		{name: "bad category ignored", values: url.Values{"category_id": {"joy"}}},
		{name: "collection", values: url.Values{"collection": {"tweets"}}, wantColl: "tweets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := assignments.FiltersFromQuery(tt.values)

			switch {
			case tt.wantCat == nil && f.CategoryID != nil:
				t.Errorf("CategoryID = %d, want nil", *f.CategoryID)
			case tt.wantCat != nil && (f.CategoryID == nil || *f.CategoryID != *tt.wantCat):
				t.Errorf("CategoryID = %v, want %d", f.CategoryID, *tt.wantCat)
			}

			if tt.wantColl == "" && f.Collection != nil {
				t.Errorf("Collection = %q, want nil", *f.Collection)
			}
			if tt.wantColl != "" && (f.Collection == nil || *f.Collection != tt.wantColl) {
				t.Errorf("Collection = %v, want %q", f.Collection, tt.wantColl)
			}
		})
	}
}

func TestFiltersApply(t *testing.T) {
	coll := "tweets"
	cat := 2
	author := "ana"

	pm := query.NewProjectionMap("public", "assignments", "a").
		Project("collection", "Collection").
		Project("category_id", "CategoryID").
		Project("label", "Label").
		Project("author", "Author")

	qb := query.NewBuilder(pm)
	assignments.Filters{Collection: &coll, CategoryID: &cat, Author: &author}.Apply(qb)

	sql, args := qb.BuildCount()
	for _, frag := range []string{"a.collection = $1", "a.category_id = $2", "a.author ILIKE $3"} {
		if !strings.Contains(sql, frag) {
			t.Errorf("sql %q missing %q", sql, frag)
		}
	}
	if len(args) != 3 {
		t.Fatalf("args = %v, want 3 values", args)
	}
	if args[2] != "%ana%" {
		t.Errorf("author arg = %v, want %%ana%%", args[2])
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", assignments.ErrNotFound, http.StatusNotFound},
		{"invalid id", assignments.ErrInvalidID, http.StatusBadRequest},
		{"wrapped", fmt.Errorf("find: %w", assignments.ErrNotFound), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := assignments.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func intPtr(v int) *int { return &v }
