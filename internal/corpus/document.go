// Package corpus implements the document store: ingested texts, their
// embeddings, and the manual labels used as supervised ground truth.
package corpus

import (
	"time"

	"github.com/JaimeStill/moodmap/pkg/vector"
)

// DefaultPageSize is the keyset page size used by Stream when none is set.
const DefaultPageSize = 500

// Document is one stored text record. Label is the manually assigned
// category id, if any.
type Document struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	Author     string    `json:"author"`
	Timestamp  string    `json:"timestamp"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"`
	Dimensions int       `json:"dimensions"`
	Label      *int      `json:"label,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasEmbedding reports whether the document carries a non-empty vector.
func (d Document) HasEmbedding() bool {
	return len(d.Embedding) > 0
}

// DecodeEmbedding decodes a stored vector. A malformed value yields nil so
// the document surfaces as missing its embedding instead of failing the
// page it was read with.
func DecodeEmbedding(raw []byte) []float32 {
	v, err := vector.Decode(raw)
	if err != nil {
		return nil
	}
	return v
}

// StreamOptions selects which documents Stream visits.
// RequireEmbedding and MissingEmbedding are mutually exclusive; when neither
// is set every document in the collection is visited. Limit caps the number
// of documents visited; zero means no limit.
type StreamOptions struct {
	Collection       string
	RequireEmbedding bool
	MissingEmbedding bool
	Limit            int
	PageSize         int
}

// NewDocument carries the fields needed to ingest a document.
type NewDocument struct {
	Collection string
	Author     string
	Timestamp  string
	Text       string
}

// InsertResult reports how many documents an Insert stored and how many it
// skipped because the same text already exists in the collection.
type InsertResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// LabelCommand assigns a ground-truth category to a document.
type LabelCommand struct {
	CategoryID int    `json:"category_id"`
	LabeledBy  string `json:"labeled_by,omitempty"`
}
