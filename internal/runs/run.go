// Package runs records assignment runs and executes them in the background.
package runs

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/moodmap/internal/pipeline"
)

// Status is the state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Trigger records what started a run.
type Trigger string

const (
	TriggerAPI      Trigger = "api"
	TriggerSchedule Trigger = "schedule"
	TriggerCLI      Trigger = "cli"
)

// Run is one execution of the assignment pipeline against a collection.
type Run struct {
	ID          uuid.UUID         `json:"id"`
	Status      Status            `json:"status"`
	Trigger     Trigger           `json:"trigger"`
	Collection  string            `json:"collection"`
	Summary     *pipeline.Summary `json:"summary,omitempty"`
	Report      *pipeline.Report  `json:"report,omitempty"`
	Error       *string           `json:"error,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// StartCommand requests a new run. An empty collection selects the default.
type StartCommand struct {
	Collection string `json:"collection"`
}
