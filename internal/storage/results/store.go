// Package results persists backtest runs and their reported metrics.
package results

import (
	"context"
	"time"
)

// Run is one persisted backtest run: its identity, configuration
// extremes, and the flattened Overall metrics of its report.
type Run struct {
	ID           string
	Strategy     string
	Symbol       string
	StartDate    time.Time
	EndDate      time.Time
	StartingCash float64
	FinalEquity  float64
	Bars         int
	Orders       int
	Fills        int
	CreatedAt    time.Time
	Metrics      map[string]string
}

// Store defines the interface for run persistence.
type Store interface {
	// SaveRun persists a run and its metrics.
	SaveRun(ctx context.Context, run Run) error

	// GetRun retrieves a run by ID, metrics included.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns retrieves the most recent runs, newest first, without
	// their metric maps.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// PruneRuns deletes all but the newest keep runs and returns how
	// many were removed.
	PruneRuns(ctx context.Context, keep int) (int64, error)
}
