// Package store persists gather results: the latest/history JSON documents
// served to the dashboard, a SQLite archive of runs, and Parquet archives of
// the raw per-day top lists.
package store

import (
	"context"

	"twflow/internal/snapshot"
)

// SnapshotWriter persists one gather run's payload.
type SnapshotWriter interface {
	// SaveRun persists the payload, keyed by its most recent trading date.
	SaveRun(ctx context.Context, p *snapshot.Payload) error
}

// SnapshotReader retrieves archived runs.
type SnapshotReader interface {
	// ListRunDates returns the archived run dates, ascending.
	ListRunDates(ctx context.Context) ([]string, error)

	// GetRun returns the payload for a run date, or an error when absent.
	GetRun(ctx context.Context, date string) (*snapshot.Payload, error)
}

// runDate keys a payload by its most recent trading date ("YYYY-MM-DD");
// falls back to the generation timestamp's date part.
func runDate(p *snapshot.Payload) string {
	if len(p.TradingDates) > 0 {
		return p.TradingDates[0]
	}
	if len(p.GeneratedAtUTC) >= 10 {
		return p.GeneratedAtUTC[:10]
	}
	return "unknown"
}
