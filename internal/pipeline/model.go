package pipeline

import (
	"fmt"

	"github.com/JaimeStill/moodmap/internal/classify"
)

// Model is the trained state applied to every document in a run. Refiner
// is nil for unsupervised runs.
type Model struct {
	Catalog    *classify.Catalog
	Prototypes *classify.Prototypes
	Scorer     *classify.Scorer
	Refiner    *classify.Refiner
}

// NewModel builds the unsupervised stages for catalog.
func NewModel(catalog *classify.Catalog, reducer classify.Reducer, topK int) (*Model, error) {
	scorer, err := classify.NewScorer(reducer, topK)
	if err != nil {
		return nil, err
	}

	prototypes, err := classify.NewPrototypes(catalog)
	if err != nil {
		return nil, err
	}

	return &Model{
		Catalog:    catalog,
		Prototypes: prototypes,
		Scorer:     scorer,
	}, nil
}

// WithRefiner attaches a fitted refiner after checking that every class it
// predicts resolves in the catalog.
func (m *Model) WithRefiner(r *classify.Refiner) error {
	if !r.Fitted() {
		return classify.ErrNotFitted
	}
	for _, id := range r.Classes() {
		if _, ok := m.Catalog.Lookup(id); !ok {
			return fmt.Errorf("%w: %w: refiner class %d", classify.ErrConfiguration, ErrModelMismatch, id)
		}
	}
	m.Refiner = r
	return nil
}

// Supervised reports whether a refiner is attached.
func (m *Model) Supervised() bool { return m.Refiner != nil }
