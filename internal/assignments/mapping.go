package assignments

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/JaimeStill/moodmap/pkg/query"
	"github.com/JaimeStill/moodmap/pkg/repository"
	"github.com/JaimeStill/moodmap/pkg/vector"
)

var projection = query.
	NewProjectionMap("public", "assignments", "a").
	Project("document_id", "DocumentID").
	Project("collection", "Collection").
	Project("title", "Title").
	Project("text", "Text").
	Project("author", "Author").
	Project("posted_at", "Timestamp").
	Project("category_id", "CategoryID").
	Project("label", "Label").
	Project("color", "Color").
	Project("score", "Score").
	Project("embedding", "Vector").
	Project("diagnostics", "Diagnostics")

var defaultSort = query.SortField{Field: "DocumentID"}

// Filters contains optional filtering criteria for assignment queries.
type Filters struct {
	Collection *string `json:"collection,omitempty"`
	CategoryID *int    `json:"category_id,omitempty"`
	Label      *string `json:"label,omitempty"`
	Author     *string `json:"author,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Collection", f.Collection).
		WhereEquals("CategoryID", f.CategoryID).
		WhereEquals("Label", f.Label).
		WhereContains("Author", f.Author)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("collection"); c != "" {
		f.Collection = &c
	}
	if c := values.Get("category_id"); c != "" {
		if v, err := strconv.Atoi(c); err == nil {
			f.CategoryID = &v
		}
	}
	if l := values.Get("label"); l != "" {
		f.Label = &l
	}
	if a := values.Get("author"); a != "" {
		f.Author = &a
	}

	return f
}

func scanRecord(s repository.Scanner) (Record, error) {
	var (
		r     Record
		raw   []byte
		diags []byte
	)
	err := s.Scan(
		&r.DocumentID,
		&r.Collection,
		&r.Title,
		&r.Text,
		&r.Author,
		&r.Timestamp,
		&r.CategoryID,
		&r.Label,
		&r.Color,
		&r.Score,
		&raw,
		&diags,
	)
	if err != nil {
		return r, err
	}

	if r.Vector, err = vector.Decode(raw); err != nil {
		return r, err
	}
	if len(diags) > 0 {
		r.Diagnostics = &Diagnostics{}
		if err := json.Unmarshal(diags, r.Diagnostics); err != nil {
			return r, err
		}
	}
	return r, nil
}

func diagnosticsParam(d *Diagnostics) (any, error) {
	if d == nil {
		return nil, nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
