// Package categories implements the emotion category reference store.
// Each category carries a label, a display color, and the reference
// embeddings the classifier scores documents against.
package categories

import (
	"time"

	"github.com/JaimeStill/moodmap/internal/classify"
)

// Reference is one embedded exemplar term (a synonym) for a category.
type Reference struct {
	Term      string    `json:"term"`
	Embedding []float32 `json:"-"`
}

// Category is a stored emotion category. Embedding is the embedded label
// and is used only when the category has no references.
type Category struct {
	ID         int         `json:"id"`
	Label      string      `json:"label"`
	Color      string      `json:"color"`
	Embedding  []float32   `json:"-"`
	References []Reference `json:"references"`
	Dimensions int         `json:"dimensions"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Classify converts the stored category into the classifier's form.
func (c Category) Classify() classify.Category {
	refs := make([][]float32, 0, len(c.References))
	for _, r := range c.References {
		refs = append(refs, r.Embedding)
	}
	return classify.Category{
		ID:         c.ID,
		Label:      c.Label,
		Color:      c.Color,
		References: refs,
		Embedding:  c.Embedding,
	}
}

// BuildCatalog validates and normalizes a set of stored categories into a
// classifier catalog.
func BuildCatalog(cats []Category) (*classify.Catalog, error) {
	converted := make([]classify.Category, len(cats))
	for i, c := range cats {
		converted[i] = c.Classify()
	}
	return classify.NewCatalog(converted)
}

func dimensions(c Category) int {
	if len(c.References) > 0 {
		return len(c.References[0].Embedding)
	}
	return len(c.Embedding)
}
