package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JaimeStill/moodmap/internal/assignments"
	"github.com/JaimeStill/moodmap/internal/classify"
)

// Result is the outcome of a complete run.
type Result struct {
	RunID      string        `json:"run_id"`
	Collection string        `json:"collection"`
	Method     string        `json:"method"`
	Summary    Summary       `json:"summary"`
	Report     *Report       `json:"report,omitempty"`
	ModelKey   string        `json:"model_key,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Run builds the model for collection, trains or restores the refiner when
// cfg.Supervised is set, and assigns every embedded document. Configuration
// errors abort before any record is written.
func Run(ctx context.Context, rt *Runtime, cfg Config, collection, runID string) (*Result, error) {
	start := time.Now()
	logger := rt.Logger.With("run_id", runID, "collection", collection)

	method, err := ParseMethod(cfg.Method)
	if err != nil {
		return nil, err
	}

	catalog, err := rt.Categories.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if n := catalog.Dropped(); n > 0 {
		logger.Warn("zero-norm reference vectors dropped", "count", n)
	}

	model, err := NewModel(catalog, classify.Reducer(cfg.Reducer), cfg.TopK)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:      runID,
		Collection: collection,
		Method:     string(method),
	}

	if cfg.Supervised {
		if err := prepareSupervised(ctx, rt, cfg, collection, model, result); err != nil {
			return nil, err
		}
		result.Method = assignments.MethodSupervised
	}

	logger.Info("assignment started",
		"method", result.Method,
		"reducer", cfg.Reducer,
		"categories", len(catalog.Scorable()),
		"dimensions", catalog.Dim(),
	)

	assigner := NewAssigner(model, method, cfg.NormalizeVectors())
	batches := NewBatchAssigner(assigner, rt.Sink, BatchOptions{
		Collection:  collection,
		BatchSize:   cfg.BatchSize,
		PageSize:    cfg.PageSize,
		LogInterval: cfg.LogInterval,
		Limit:       cfg.Limit,
	}, logger)

	summary, err := batches.Run(ctx, rt.Documents)
	result.Summary = summary
	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	logger.Info("assignment complete",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"retried", summary.Retried,
		"failed", summary.Failed,
		"batches", summary.Batches,
		"duration", result.Duration,
	)

	return result, nil
}

func prepareSupervised(ctx context.Context, rt *Runtime, cfg Config, collection string, model *Model, result *Result) error {
	if cfg.ReuseModel && rt.Archive != nil {
		snap, err := rt.Archive.Latest(ctx, collection)
		switch {
		case err == nil:
			if err := snap.Restore(model); err != nil {
				return err
			}
			result.ModelKey = Key(collection, snap.RunID)
			result.Report = snap.Report
			rt.Logger.Info("refiner restored", "key", result.ModelKey)
			return nil
		case errors.Is(err, ErrNoModel):
			rt.Logger.Info("no archived refiner, training", "collection", collection)
		default:
			return fmt.Errorf("load archived model: %w", err)
		}
	}

	examples, err := rt.Labels.Labeled(ctx, collection)
	if err != nil {
		return fmt.Errorf("load labeled examples: %w", err)
	}

	trainer := NewTrainer(model, TrainOptions{
		EvalFraction: cfg.HeldOutFraction(),
		Seed:         cfg.Seed,
		Normalize:    cfg.NormalizeVectors(),
		Refiner:      cfg.Refiner,
		Corrector:    cfg.Corrector,
	}, rt.Logger)

	refiner, report, err := trainer.Train(examples)
	if err != nil {
		return err
	}
	if err := model.WithRefiner(refiner); err != nil {
		return err
	}
	result.Report = report

	if rt.Archive != nil {
		key, err := rt.Archive.Save(ctx, NewSnapshot(result.RunID, collection, model, report))
		if err != nil {
			rt.Logger.Warn("model archive failed", "error", err)
		} else {
			result.ModelKey = key
		}
	}

	return nil
}
