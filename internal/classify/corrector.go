package classify

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/JaimeStill/moodmap/pkg/vector"
)

// CorrectorOptions controls residual clustering.
type CorrectorOptions struct {
	MaxIterations int    `json:"max_iterations" toml:"max_iterations"`
	Seed          uint64 `json:"seed" toml:"seed"`
}

const defaultKMeansIterations = 100

// Example is a vector with its ground-truth category.
type Example struct {
	DocumentID string
	Vector     []float32
	CategoryID int
}

// Correction is the outcome of a residual correction pass. Predictions is
// always aligned with the input examples.
type Correction struct {
	Predictions []int
	Residuals   int
	Replaced    int
	// ClusterLabels maps each cluster index to the category it was assigned.
	ClusterLabels []int
	// SkipReason is non-nil when the stage did not run. It wraps ErrStageSkipped.
	SkipReason error
}

// Skipped reports whether correction was skipped.
func (c Correction) Skipped() bool { return c.SkipReason != nil }

// Corrector re-clusters the examples a supervised stage still misses and
// relabels a residual only when the cluster's category scores strictly
// better for it.
type Corrector struct {
	prototypes *Prototypes
	opts       CorrectorOptions
}

func NewCorrector(prototypes *Prototypes, opts CorrectorOptions) *Corrector {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultKMeansIterations
	}
	return &Corrector{prototypes: prototypes, opts: opts}
}

// Correct evaluates supervised predictions against examples. Examples whose
// prediction has a soft score below 1 are residuals. With fewer residuals
// than categories the predictions are returned unchanged and the stage is
// reported as skipped.
func (c *Corrector) Correct(examples []Example, predictions []int) (Correction, error) {
	if len(examples) != len(predictions) {
		return Correction{}, fmt.Errorf(
			"%w: %d examples, %d predictions",
			ErrInvalidTrainingSet, len(examples), len(predictions),
		)
	}

	result := Correction{Predictions: slices.Clone(predictions)}

	var residualIdx []int
	for i, ex := range examples {
		if SoftScore(ex.CategoryID, predictions[i]) < 1.0 {
			residualIdx = append(residualIdx, i)
		}
	}
	result.Residuals = len(residualIdx)

	k := c.prototypes.Len()
	if len(residualIdx) < k {
		result.SkipReason = fmt.Errorf(
			"%w: %d residuals, need at least %d",
			ErrStageSkipped, len(residualIdx), k,
		)
		return result, nil
	}

	points := make([][]float32, len(residualIdx))
	for i, idx := range residualIdx {
		points[i] = vector.Normalize(examples[idx].Vector)
	}

	rng := rand.New(rand.NewPCG(c.opts.Seed, c.opts.Seed^0x9e3779b97f4a7c15))
	assign, centroids := kmeans(points, k, c.opts.MaxIterations, rng)

	result.ClusterLabels = make([]int, len(centroids))
	for i, centroid := range centroids {
		f := make([]float32, len(centroid))
		for j, x := range centroid {
			f[j] = float32(x)
		}
		result.ClusterLabels[i], _ = c.prototypes.Classify(vector.Normalize(f))
	}

	for i, idx := range residualIdx {
		truth := examples[idx].CategoryID
		candidate := result.ClusterLabels[assign[i]]
		if SoftScore(truth, candidate) > SoftScore(truth, predictions[idx]) {
			result.Predictions[idx] = candidate
			result.Replaced++
		}
	}

	return result, nil
}
