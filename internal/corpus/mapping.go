package corpus

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/moodmap/pkg/query"
	"github.com/JaimeStill/moodmap/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("collection", "Collection").
	Project("author", "Author").
	Project("posted_at", "Timestamp").
	Project("text", "Text").
	Project("embedding", "Embedding").
	Project("created_at", "CreatedAt").
	Join("public", "labels", "l", "LEFT JOIN", "l.document_id = d.id").
	Project("category_id", "Label")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// Filters contains optional filtering criteria for document queries.
// Nil fields are ignored. Author and Text use case-insensitive contains matching.
type Filters struct {
	Collection *string `json:"collection,omitempty"`
	Author     *string `json:"author,omitempty"`
	Text       *string `json:"text,omitempty"`
	Label      *int    `json:"label,omitempty"`
	Labeled    *bool   `json:"labeled,omitempty"`
	Embedded   *bool   `json:"embedded,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereEquals("Collection", f.Collection).
		WhereContains("Author", f.Author).
		WhereContains("Text", f.Text).
		WhereEquals("Label", f.Label)

	if f.Labeled != nil {
		if *f.Labeled {
			b.WhereNotNull("Label")
		} else {
			b.WhereNull("Label")
		}
	}
	if f.Embedded != nil {
		if *f.Embedded {
			b.WhereNotNull("Embedding")
		} else {
			b.WhereNull("Embedding")
		}
	}
	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("collection"); c != "" {
		f.Collection = &c
	}
	if a := values.Get("author"); a != "" {
		f.Author = &a
	}
	if t := values.Get("text"); t != "" {
		f.Text = &t
	}
	if l := values.Get("label"); l != "" {
		if v, err := strconv.Atoi(l); err == nil {
			f.Label = &v
		}
	}
	if l := values.Get("labeled"); l != "" {
		if v, err := strconv.ParseBool(l); err == nil {
			f.Labeled = &v
		}
	}
	if e := values.Get("embedded"); e != "" {
		if v, err := strconv.ParseBool(e); err == nil {
			f.Embedded = &v
		}
	}

	return f
}

func scanDocument(s repository.Scanner) (Document, error) {
	var (
		d     Document
		raw   []byte
		label *int
	)
	err := s.Scan(
		&d.ID,
		&d.Collection,
		&d.Author,
		&d.Timestamp,
		&d.Text,
		&raw,
		&d.CreatedAt,
		&label,
	)
	if err != nil {
		return d, err
	}

	d.Embedding = DecodeEmbedding(raw)
	d.Dimensions = len(d.Embedding)
	d.Label = label
	return d, nil
}
