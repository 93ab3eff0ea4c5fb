package classify

import (
	"fmt"
	"slices"

	"github.com/JaimeStill/moodmap/pkg/vector"
)

// Reducer collapses a category's per-reference similarities into one score.
type Reducer string

const (
	ReducerMedian Reducer = "median"
	ReducerMax    Reducer = "max"
)

const (
	DefaultTopK      = 5
	diagnosticPlaces = 4
)

// ParseReducer validates a reducer name. An empty name selects the median.
func ParseReducer(s string) (Reducer, error) {
	switch Reducer(s) {
	case "", ReducerMedian:
		return ReducerMedian, nil
	case ReducerMax:
		return ReducerMax, nil
	default:
		return "", fmt.Errorf("%w: %w: %q", ErrConfiguration, ErrUnknownReducer, s)
	}
}

func (r Reducer) reduce(xs []float64) float64 {
	if r == ReducerMax {
		return vector.Max(xs)
	}
	return vector.Median(xs)
}

// CategoryScore is the reduced similarity of a document against one category.
// Top holds the highest individual similarities rounded for diagnostics.
type CategoryScore struct {
	CategoryID int
	Label      string
	Score      float64
	Top        []float64
}

// Scorer ranks categories by reduced cosine similarity.
type Scorer struct {
	reducer Reducer
	topK    int
}

func NewScorer(reducer Reducer, topK int) (*Scorer, error) {
	r, err := ParseReducer(string(reducer))
	if err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Scorer{reducer: r, topK: topK}, nil
}

func (s *Scorer) Reducer() Reducer { return s.reducer }

// Score compares v against every reference of every scorable category and
// returns the categories ranked by score, highest first. Equal scores keep
// ascending id order.
func (s *Scorer) Score(v []float32, catalog *Catalog) ([]CategoryScore, error) {
	if len(v) != catalog.Dim() {
		return nil, fmt.Errorf("%w: document has dimension %d, want %d", ErrDimensionMismatch, len(v), catalog.Dim())
	}

	cats := catalog.Scorable()
	scores := make([]CategoryScore, 0, len(cats))

	for _, cat := range cats {
		refs := cat.ReferenceSet()
		sims := make([]float64, len(refs))
		for i, ref := range refs {
			sims[i] = vector.Cosine(v, ref)
		}

		top := vector.TopK(sims, s.topK)
		for i := range top {
			top[i] = vector.Round(top[i], diagnosticPlaces)
		}

		scores = append(scores, CategoryScore{
			CategoryID: cat.ID,
			Label:      cat.Label,
			Score:      s.reducer.reduce(sims),
			Top:        top,
		})
	}

	slices.SortStableFunc(scores, func(a, b CategoryScore) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	return scores, nil
}
