package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/JaimeStill/moodmap/internal/classify"
	"github.com/JaimeStill/moodmap/pkg/storage"
)

const latestKey = "latest.json"

// BlobStore is the subset of blob storage the archive needs.
type BlobStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) error
	Download(ctx context.Context, key string) (*storage.BlobResult, error)
}

// PrototypeVector is one category prototype in a snapshot.
type PrototypeVector struct {
	CategoryID int       `json:"category_id"`
	Label      string    `json:"label"`
	Vector     []float32 `json:"vector"`
}

// Snapshot is the archived form of a trained model and its report.
type Snapshot struct {
	RunID      string                 `json:"run_id"`
	Collection string                 `json:"collection"`
	Reducer    string                 `json:"reducer"`
	Dimensions int                    `json:"dimensions"`
	Prototypes []PrototypeVector      `json:"prototypes"`
	Refiner    *classify.RefinerState `json:"refiner,omitempty"`
	Report     *Report                `json:"report,omitempty"`
}

// NewSnapshot captures model for archiving.
func NewSnapshot(runID, collection string, model *Model, report *Report) *Snapshot {
	snap := &Snapshot{
		RunID:      runID,
		Collection: collection,
		Reducer:    string(model.Scorer.Reducer()),
		Dimensions: model.Catalog.Dim(),
		Report:     report,
	}
	for _, id := range model.Prototypes.IDs() {
		v, _ := model.Prototypes.Vector(id)
		snap.Prototypes = append(snap.Prototypes, PrototypeVector{
			CategoryID: id,
			Label:      model.Catalog.Label(id),
			Vector:     v,
		})
	}
	if model.Refiner != nil {
		state := model.Refiner.State()
		snap.Refiner = &state
	}
	return snap
}

// Archive stores model snapshots under <collection>/<run id>.json and keeps
// <collection>/latest.json pointing at the most recent one.
type Archive struct {
	store  BlobStore
	logger *slog.Logger
}

func NewArchive(store BlobStore, logger *slog.Logger) *Archive {
	return &Archive{
		store:  store,
		logger: logger.With("system", "archive"),
	}
}

// Key returns the blob key for a run's snapshot.
func Key(collection, runID string) string {
	return path.Join(collection, runID+".json")
}

// Save uploads snap under its run key and as the collection's latest.
func (a *Archive) Save(ctx context.Context, snap *Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	key := Key(snap.Collection, snap.RunID)
	for _, k := range []string{key, path.Join(snap.Collection, latestKey)} {
		if err := a.store.Upload(ctx, k, bytes.NewReader(data), "application/json"); err != nil {
			return "", fmt.Errorf("upload snapshot %s: %w", k, err)
		}
	}

	a.logger.Info("model archived", "key", key, "supervised", snap.Refiner != nil)
	return key, nil
}

// Latest loads the most recent snapshot for collection.
func (a *Archive) Latest(ctx context.Context, collection string) (*Snapshot, error) {
	blob, err := a.store.Download(ctx, path.Join(collection, latestKey))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoModel, collection)
		}
		return nil, err
	}
	defer blob.Body.Close()

	var snap Snapshot
	if err := json.NewDecoder(blob.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Restore attaches the snapshot's refiner to model. It fails with
// ErrModelMismatch when the snapshot was trained at another dimensionality.
func (s *Snapshot) Restore(model *Model) error {
	if s.Refiner == nil {
		return fmt.Errorf("%w: snapshot %s is unsupervised", ErrNoModel, s.RunID)
	}
	if s.Dimensions != model.Catalog.Dim() {
		return fmt.Errorf(
			"%w: %w: snapshot dimension %d, catalog %d",
			classify.ErrConfiguration, ErrModelMismatch, s.Dimensions, model.Catalog.Dim(),
		)
	}
	refiner, err := classify.RestoreRefiner(*s.Refiner)
	if err != nil {
		return err
	}
	return model.WithRefiner(refiner)
}
