// Package classify implements the emotion assignment core: similarity
// scoring against per-category reference sets, prototype classification,
// the soft-accuracy metric, weighted supervised refinement, and residual
// cluster correction. It has no storage dependencies; callers supply
// vectors and receive category ids.
package classify

import (
	"fmt"
	"slices"

	"github.com/JaimeStill/moodmap/pkg/vector"
)

const defaultColor = "#000000"

// Category is one emotional bucket. References holds synonym embeddings;
// Embedding holds a single precomputed embedding when no synonym list exists.
type Category struct {
	ID         int
	Label      string
	Color      string
	References [][]float32
	Embedding  []float32
}

// ReferenceSet returns the vectors the category is scored against: its
// references, or its single embedding when no references are present.
func (c Category) ReferenceSet() [][]float32 {
	if len(c.References) > 0 {
		return c.References
	}
	if len(c.Embedding) > 0 {
		return [][]float32{c.Embedding}
	}
	return nil
}

// Catalog is the validated, read-only category universe for one run.
// Categories are held in ascending id order and every vector is unit length.
// Zero vectors have no direction and are dropped.
type Catalog struct {
	categories []Category
	index      map[int]int
	scorable   []int
	dim        int
	dropped    int
}

// NewCatalog validates and normalizes categories. It fails with a
// configuration error on duplicate ids, mixed dimensionality, or when no
// category carries any vector.
func NewCatalog(categories []Category) (*Catalog, error) {
	sorted := slices.Clone(categories)
	slices.SortFunc(sorted, func(a, b Category) int { return a.ID - b.ID })

	c := &Catalog{
		categories: make([]Category, 0, len(sorted)),
		index:      make(map[int]int, len(sorted)),
	}

	for _, cat := range sorted {
		if _, dup := c.index[cat.ID]; dup {
			return nil, fmt.Errorf("%w: %w: %d", ErrConfiguration, ErrDuplicateCategory, cat.ID)
		}

		norm, err := c.normalize(cat)
		if err != nil {
			return nil, err
		}

		c.index[cat.ID] = len(c.categories)
		if len(norm.ReferenceSet()) > 0 {
			c.scorable = append(c.scorable, len(c.categories))
		}
		c.categories = append(c.categories, norm)
	}

	if len(c.scorable) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, ErrNoReferences)
	}

	return c, nil
}

func (c *Catalog) normalize(cat Category) (Category, error) {
	out := Category{
		ID:    cat.ID,
		Label: cat.Label,
		Color: cat.Color,
	}
	if out.Label == "" {
		out.Label = fmt.Sprintf("Cluster %d", cat.ID)
	}
	if out.Color == "" {
		out.Color = defaultColor
	}

	for _, ref := range cat.References {
		if len(ref) == 0 {
			continue
		}
		if err := c.checkDim(cat.ID, ref); err != nil {
			return Category{}, err
		}
		if vector.Norm(ref) == 0 {
			c.dropped++
			continue
		}
		out.References = append(out.References, vector.Normalize(ref))
	}

	if len(cat.Embedding) > 0 {
		if err := c.checkDim(cat.ID, cat.Embedding); err != nil {
			return Category{}, err
		}
		if vector.Norm(cat.Embedding) == 0 {
			c.dropped++
		} else {
			out.Embedding = vector.Normalize(cat.Embedding)
		}
	}

	return out, nil
}

func (c *Catalog) checkDim(id int, v []float32) error {
	if c.dim == 0 {
		c.dim = len(v)
		return nil
	}
	if len(v) != c.dim {
		return fmt.Errorf(
			"%w: %w: category %d has dimension %d, want %d",
			ErrConfiguration, ErrDimensionMismatch, id, len(v), c.dim,
		)
	}
	return nil
}

// Dim returns the shared embedding dimensionality.
func (c *Catalog) Dim() int { return c.dim }

// Dropped returns the number of zero-norm vectors left out of the catalog.
func (c *Catalog) Dropped() int { return c.dropped }

// Len returns the number of categories, including those without vectors.
func (c *Catalog) Len() int { return len(c.categories) }

// Categories returns all categories in ascending id order.
func (c *Catalog) Categories() []Category {
	return slices.Clone(c.categories)
}

// Scorable returns the categories with a non-empty reference set in
// ascending id order. This is the category universe for scoring.
func (c *Catalog) Scorable() []Category {
	out := make([]Category, len(c.scorable))
	for i, idx := range c.scorable {
		out[i] = c.categories[idx]
	}
	return out
}

// Lookup resolves a category id.
func (c *Catalog) Lookup(id int) (Category, bool) {
	idx, ok := c.index[id]
	if !ok {
		return Category{}, false
	}
	return c.categories[idx], true
}

// Label resolves a category id to its label, or "Cluster <id>" when unknown.
func (c *Catalog) Label(id int) string {
	if cat, ok := c.Lookup(id); ok {
		return cat.Label
	}
	return fmt.Sprintf("Cluster %d", id)
}
