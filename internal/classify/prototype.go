package classify

import (
	"fmt"
	"slices"

	"github.com/JaimeStill/moodmap/pkg/vector"
)

// Prototypes holds one unit-length representative vector per scorable
// category, in ascending id order.
type Prototypes struct {
	ids     []int
	vectors [][]float32
	dim     int
}

// NewPrototypes reduces each scorable category to the re-normalized mean of
// its references, or its normalized single embedding.
func NewPrototypes(catalog *Catalog) (*Prototypes, error) {
	p := &Prototypes{dim: catalog.Dim()}

	for _, cat := range catalog.Scorable() {
		var proto []float32
		if len(cat.References) > 0 {
			mean, err := vector.Mean(cat.References)
			if err != nil {
				return nil, fmt.Errorf("%w: %w: category %d", ErrConfiguration, ErrDimensionMismatch, cat.ID)
			}
			proto = vector.Normalize(mean)
		} else {
			proto = vector.Normalize(cat.Embedding)
		}

		p.ids = append(p.ids, cat.ID)
		p.vectors = append(p.vectors, proto)
	}

	return p, nil
}

// Len returns the number of categories with a prototype.
func (p *Prototypes) Len() int { return len(p.ids) }

// IDs returns the category ids in ascending order.
func (p *Prototypes) IDs() []int { return slices.Clone(p.ids) }

// Vector returns the prototype for a category id.
func (p *Prototypes) Vector(id int) ([]float32, bool) {
	i := slices.Index(p.ids, id)
	if i < 0 {
		return nil, false
	}
	return p.vectors[i], true
}

// Classify returns the category whose prototype has the largest dot product
// with v, and that dot product. Ties resolve to the lowest id.
func (p *Prototypes) Classify(v []float32) (int, float64) {
	best, bestSim := p.ids[0], vector.Dot(v, p.vectors[0])
	for i := 1; i < len(p.ids); i++ {
		if sim := vector.Dot(v, p.vectors[i]); sim > bestSim {
			best, bestSim = p.ids[i], sim
		}
	}
	return best, bestSim
}

// ClassifyAll classifies every vector in vs.
func (p *Prototypes) ClassifyAll(vs [][]float32) []int {
	out := make([]int, len(vs))
	for i, v := range vs {
		out[i], _ = p.Classify(v)
	}
	return out
}
