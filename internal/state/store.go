// Package state records generation runs in a local SQLite ledger.
package state

import (
	"context"
	"time"
)

// RunStatus is the outcome of a generation run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded generation.
type Run struct {
	ID            string
	Language      string
	NodeTypesPath string
	// Digest is the hex SHA-256 of the node types file.
	Digest      string
	Status      RunStatus
	Entries     int
	Classes     int
	Tables      int
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// RunInput describes a run being started.
type RunInput struct {
	Language      string
	NodeTypesPath string
	Digest        string
}

// RunCounts are the sizes of a successful run's artifacts.
type RunCounts struct {
	Entries int
	Classes int
	Tables  int
}

// Store is the run ledger.
type Store interface {
	CreateRun(ctx context.Context, in RunInput) (*Run, error)
	CompleteRun(ctx context.Context, id string, counts RunCounts, runErr error) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	Close() error
}
