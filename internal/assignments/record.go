// Package assignments stores the per-document emotion assignments produced
// by the pipeline and serves them to the visualizer.
package assignments

import "fmt"

// Assignment methods recorded in Diagnostics.
const (
	MethodSimilarity = "similarity"
	MethodPrototype  = "prototype"
	MethodSupervised = "supervised"
)

// Record is the assignment for one document. Records are replaced
// wholesale on every run and carry no wall-clock fields, so re-running an
// unchanged corpus reproduces them exactly.
type Record struct {
	DocumentID  string       `json:"document_id"`
	Collection  string       `json:"collection"`
	Title       string       `json:"title"`
	Text        string       `json:"text"`
	Author      string       `json:"author"`
	Timestamp   string       `json:"timestamp"`
	CategoryID  int          `json:"category_id"`
	Label       string       `json:"label"`
	Color       string       `json:"color"`
	Score       float64      `json:"score"`
	Vector      []float32    `json:"vector,omitempty"`
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`
}

// Diagnostics explains how a record's category was chosen. Scores and
// TopSimilarities are keyed by category label and rounded to 4 places.
type Diagnostics struct {
	Method              string               `json:"method"`
	Reducer             string               `json:"reducer,omitempty"`
	Scores              map[string]float64   `json:"scores,omitempty"`
	TopSimilarities     map[string][]float64 `json:"top_similarities,omitempty"`
	PrototypeCategory   int                  `json:"prototype_category"`
	PrototypeSimilarity float64              `json:"prototype_similarity"`
	SupervisedCategory  *int                 `json:"supervised_category,omitempty"`
	Agreement           *bool                `json:"agreement,omitempty"`
}

// CategoryCount is the number of assigned documents in one category.
type CategoryCount struct {
	CategoryID int    `json:"category_id"`
	Label      string `json:"label"`
	Color      string `json:"color"`
	Count      int    `json:"count"`
}

// Title formats the display title for a tweet.
func Title(author, timestamp string) string {
	return fmt.Sprintf("Tweet by %s at %s", author, timestamp)
}
