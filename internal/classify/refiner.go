package classify

import (
	"fmt"
	"math"
	"slices"
)

// RefinerOptions controls gradient descent for the supervised refiner.
type RefinerOptions struct {
	Iterations   int     `json:"iterations" toml:"iterations"`
	LearningRate float64 `json:"learning_rate" toml:"learning_rate"`
	L2           float64 `json:"l2" toml:"l2"`
}

// DefaultRefinerOptions returns the options used when none are configured.
func DefaultRefinerOptions() RefinerOptions {
	return RefinerOptions{
		Iterations:   300,
		LearningRate: 0.5,
		L2:           1e-4,
	}
}

func (o RefinerOptions) withDefaults() RefinerOptions {
	d := DefaultRefinerOptions()
	if o.Iterations <= 0 {
		o.Iterations = d.Iterations
	}
	if o.LearningRate <= 0 {
		o.LearningRate = d.LearningRate
	}
	if o.L2 < 0 {
		o.L2 = d.L2
	}
	return o
}

// RefinerState is the serializable form of a fitted refiner.
type RefinerState struct {
	Options RefinerOptions `json:"options"`
	Classes []int          `json:"classes"`
	Weights [][]float64    `json:"weights"`
	Bias    []float64      `json:"bias"`
}

// Refiner is a weighted multinomial logistic regression over embedding
// vectors. Classes are the distinct training labels in ascending order.
type Refiner struct {
	opts    RefinerOptions
	classes []int
	weights [][]float64
	bias    []float64
}

func NewRefiner(opts RefinerOptions) *Refiner {
	return &Refiner{opts: opts.withDefaults()}
}

// RestoreRefiner rebuilds a fitted refiner from its state.
func RestoreRefiner(state RefinerState) (*Refiner, error) {
	k := len(state.Classes)
	if k < 2 {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, ErrInsufficientClasses)
	}
	if len(state.Weights) != k || len(state.Bias) != k {
		return nil, fmt.Errorf("%w: refiner state has %d classes but %d weight rows", ErrInvalidTrainingSet, k, len(state.Weights))
	}
	dim := len(state.Weights[0])
	for _, row := range state.Weights {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: ragged refiner weights", ErrInvalidTrainingSet)
		}
	}
	return &Refiner{
		opts:    state.Options.withDefaults(),
		classes: slices.Clone(state.Classes),
		weights: state.Weights,
		bias:    slices.Clone(state.Bias),
	}, nil
}

// State returns the serializable form of r.
func (r *Refiner) State() RefinerState {
	weights := make([][]float64, len(r.weights))
	for i, row := range r.weights {
		weights[i] = slices.Clone(row)
	}
	return RefinerState{
		Options: r.opts,
		Classes: slices.Clone(r.classes),
		Weights: weights,
		Bias:    slices.Clone(r.bias),
	}
}

// Fitted reports whether Fit has completed successfully.
func (r *Refiner) Fitted() bool { return len(r.classes) > 0 }

// Classes returns the category ids the refiner can predict.
func (r *Refiner) Classes() []int { return slices.Clone(r.classes) }

// Fit trains the refiner on X with labels y and per-example weights.
// It fails when fewer than two distinct labels are present.
func (r *Refiner) Fit(X [][]float32, y []int, weights []float64) error {
	if len(X) == 0 || len(X) != len(y) || len(X) != len(weights) {
		return fmt.Errorf(
			"%w: %d vectors, %d labels, %d weights",
			ErrInvalidTrainingSet, len(X), len(y), len(weights),
		)
	}

	classes := slices.Clone(y)
	slices.Sort(classes)
	classes = slices.Compact(classes)
	if len(classes) < 2 {
		return fmt.Errorf("%w: %w", ErrConfiguration, ErrInsufficientClasses)
	}

	dim := len(X[0])
	var total float64
	for i := range X {
		if len(X[i]) != dim {
			return fmt.Errorf("%w: example %d has dimension %d, want %d", ErrDimensionMismatch, i, len(X[i]), dim)
		}
		if weights[i] < 0 || math.IsNaN(weights[i]) {
			return fmt.Errorf("%w: example %d has weight %v", ErrInvalidTrainingSet, i, weights[i])
		}
		total += weights[i]
	}
	if total == 0 {
		return fmt.Errorf("%w: all weights are zero", ErrInvalidTrainingSet)
	}

	k := len(classes)
	target := make([]int, len(y))
	for i, label := range y {
		target[i], _ = slices.BinarySearch(classes, label)
	}

	W := make([][]float64, k)
	gradW := make([][]float64, k)
	for c := range k {
		W[c] = make([]float64, dim)
		gradW[c] = make([]float64, dim)
	}
	b := make([]float64, k)
	gradB := make([]float64, k)
	probs := make([]float64, k)

	lr, l2 := r.opts.LearningRate, r.opts.L2

	for range r.opts.Iterations {
		for c := range k {
			clear(gradW[c])
		}
		clear(gradB)

		for i, x := range X {
			softmax(W, b, x, probs)
			for c := range k {
				g := probs[c]
				if c == target[i] {
					g -= 1
				}
				g *= weights[i]
				gradB[c] += g
				row := gradW[c]
				for j, xj := range x {
					row[j] += g * float64(xj)
				}
			}
		}

		for c := range k {
			b[c] -= lr * gradB[c] / total
			row := W[c]
			for j := range row {
				row[j] -= lr * (gradW[c][j]/total + l2*row[j])
			}
		}
	}

	r.classes = classes
	r.weights = W
	r.bias = b
	return nil
}

// Probabilities returns class probabilities for x aligned with Classes.
func (r *Refiner) Probabilities(x []float32) ([]float64, error) {
	if !r.Fitted() {
		return nil, ErrNotFitted
	}
	if len(x) != len(r.weights[0]) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(x), len(r.weights[0]))
	}
	probs := make([]float64, len(r.classes))
	softmax(r.weights, r.bias, x, probs)
	return probs, nil
}

// Predict returns the most probable category for x. Ties resolve to the
// lowest category id.
func (r *Refiner) Predict(x []float32) (int, error) {
	probs, err := r.Probabilities(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return r.classes[best], nil
}

// PredictAll predicts every vector in X.
func (r *Refiner) PredictAll(X [][]float32) ([]int, error) {
	out := make([]int, len(X))
	for i, x := range X {
		p, err := r.Predict(x)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func softmax(W [][]float64, b []float64, x []float32, out []float64) {
	peak := math.Inf(-1)
	for c := range W {
		z := b[c]
		for j, xj := range x {
			z += W[c][j] * float64(xj)
		}
		out[c] = z
		peak = max(peak, z)
	}
	var sum float64
	for c := range out {
		out[c] = math.Exp(out[c] - peak)
		sum += out[c]
	}
	for c := range out {
		out[c] /= sum
	}
}
