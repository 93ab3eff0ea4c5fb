package pipeline

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/JaimeStill/moodmap/internal/classify"
	"github.com/JaimeStill/moodmap/pkg/vector"
)

// TrainOptions controls supervised training and evaluation.
type TrainOptions struct {
	EvalFraction float64
	Seed         uint64
	Normalize    bool
	Refiner      classify.RefinerOptions
	Corrector    classify.CorrectorOptions
}

// Report describes one training pass. Accuracies are soft accuracies over
// the held-out examples.
type Report struct {
	Examples           int     `json:"examples"`
	Discarded          int     `json:"discarded"`
	Train              int     `json:"train"`
	Eval               int     `json:"eval"`
	Classes            []int   `json:"classes"`
	PrototypeAccuracy  float64 `json:"prototype_accuracy"`
	SupervisedAccuracy float64 `json:"supervised_accuracy"`
	CorrectedAccuracy  float64 `json:"corrected_accuracy"`
	Residuals          int     `json:"residuals"`
	Replaced           int     `json:"replaced"`
	CorrectionSkipped  string  `json:"correction_skipped,omitempty"`
}

// Trainer fits the supervised refiner against a model's prototypes.
type Trainer struct {
	model  *Model
	opts   TrainOptions
	logger *slog.Logger
}

func NewTrainer(model *Model, opts TrainOptions, logger *slog.Logger) *Trainer {
	return &Trainer{model: model, opts: opts, logger: logger}
}

// Train splits examples into training and held-out sets, fits a refiner
// weighted by prototype error, and evaluates the prototype, supervised, and
// residual-corrected predictions on the held-out set. The correction result
// is reported only; it needs ground truth and so never reaches assignment.
func (t *Trainer) Train(examples []classify.Example) (*classify.Refiner, *Report, error) {
	report := &Report{Examples: len(examples)}

	usable := t.prepare(examples, report)
	classes := distinctClasses(usable)
	if len(classes) < 2 {
		return nil, report, fmt.Errorf(
			"%w: %w: %d labeled examples across %d categories",
			classify.ErrConfiguration, classify.ErrInsufficientClasses, len(usable), len(classes),
		)
	}

	trainSet, evalSet := split(usable, t.opts.EvalFraction, t.opts.Seed)
	report.Train = len(trainSet)
	report.Eval = len(evalSet)

	X, y := unzip(trainSet)
	report.Classes = classes

	weights := classify.TrainingWeights(y, t.model.Prototypes.ClassifyAll(X))

	refiner := classify.NewRefiner(t.opts.Refiner)
	if err := refiner.Fit(X, y, weights); err != nil {
		return nil, report, fmt.Errorf("fit refiner: %w", err)
	}

	t.logger.Info("refiner trained", "train", len(trainSet), "classes", len(classes))

	if len(evalSet) == 0 {
		report.CorrectionSkipped = fmt.Errorf("%w: no held-out examples", classify.ErrStageSkipped).Error()
		t.logger.Info("evaluation skipped", "reason", report.CorrectionSkipped)
		return refiner, report, nil
	}

	if err := t.evaluate(refiner, evalSet, report); err != nil {
		return nil, report, err
	}

	return refiner, report, nil
}

func (t *Trainer) prepare(examples []classify.Example, report *Report) []classify.Example {
	dim := t.model.Catalog.Dim()
	out := make([]classify.Example, 0, len(examples))
	for _, ex := range examples {
		if len(ex.Vector) != dim {
			report.Discarded++
			continue
		}
		if t.opts.Normalize {
			ex.Vector = vector.Normalize(ex.Vector)
		}
		out = append(out, ex)
	}
	if report.Discarded > 0 {
		t.logger.Warn("labeled examples discarded", "reason", classify.ErrDimensionMismatch, "count", report.Discarded)
	}
	return out
}

func (t *Trainer) evaluate(refiner *classify.Refiner, evalSet []classify.Example, report *Report) error {
	X, y := unzip(evalSet)

	supervised, err := refiner.PredictAll(X)
	if err != nil {
		return fmt.Errorf("evaluate refiner: %w", err)
	}

	report.PrototypeAccuracy = vector.Round(classify.SoftAccuracy(y, t.model.Prototypes.ClassifyAll(X)), scorePlaces)
	report.SupervisedAccuracy = vector.Round(classify.SoftAccuracy(y, supervised), scorePlaces)

	corrector := classify.NewCorrector(t.model.Prototypes, t.opts.Corrector)
	correction, err := corrector.Correct(evalSet, supervised)
	if err != nil {
		return fmt.Errorf("residual correction: %w", err)
	}

	report.Residuals = correction.Residuals
	report.Replaced = correction.Replaced
	report.CorrectedAccuracy = vector.Round(classify.SoftAccuracy(y, correction.Predictions), scorePlaces)

	if correction.Skipped() {
		report.CorrectionSkipped = correction.SkipReason.Error()
		t.logger.Info("residual correction skipped", "reason", correction.SkipReason)
	}

	t.logger.Info("evaluation complete",
		"eval", len(evalSet),
		"prototype_accuracy", report.PrototypeAccuracy,
		"supervised_accuracy", report.SupervisedAccuracy,
		"corrected_accuracy", report.CorrectedAccuracy,
		"replaced", report.Replaced,
	)
	return nil
}

// split shuffles examples deterministically for seed and holds out
// fraction of them. An example is held out only while its category keeps
// at least one other example for training, so every category present in
// examples is present in train.
func split(examples []classify.Example, fraction float64, seed uint64) (train, eval []classify.Example) {
	shuffled := slices.Clone(examples)
	slices.SortFunc(shuffled, func(a, b classify.Example) int {
		return cmp.Compare(a.DocumentID, b.DocumentID)
	})

	rng := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	remaining := make(map[int]int)
	for _, ex := range shuffled {
		remaining[ex.CategoryID]++
	}

	n := int(math.Round(float64(len(shuffled)) * fraction))
	n = max(min(n, len(shuffled)-len(remaining)), 0)

	train = make([]classify.Example, 0, len(shuffled)-n)
	eval = make([]classify.Example, 0, n)
	for _, ex := range shuffled {
		if len(eval) < n && remaining[ex.CategoryID] > 1 {
			remaining[ex.CategoryID]--
			eval = append(eval, ex)
			continue
		}
		train = append(train, ex)
	}
	return train, eval
}

func distinctClasses(examples []classify.Example) []int {
	classes := make([]int, len(examples))
	for i, ex := range examples {
		classes[i] = ex.CategoryID
	}
	slices.Sort(classes)
	return slices.Compact(classes)
}

func unzip(examples []classify.Example) ([][]float32, []int) {
	X := make([][]float32, len(examples))
	y := make([]int, len(examples))
	for i, ex := range examples {
		X[i] = ex.Vector
		y[i] = ex.CategoryID
	}
	return X, y
}
