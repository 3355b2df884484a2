// Package storage persists completed training sessions and derives lifetime
// totals from them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRecord is returned by Append for empty exercise IDs or negative counts.
var ErrInvalidRecord = errors.New("invalid session record")

// Record is one persisted session. Records are append-only.
type Record struct {
	ID         string
	ExerciseID string
	Reps       int
	CreatedAt  time.Time
}

// Store is the durable session log.
//
// Totals are always computed from the stored records; no backend keeps a
// separate running total. Total and Totals never fail: unreadable storage is
// logged and reads as an empty history.
type Store interface {
	Append(ctx context.Context, exerciseID string, reps int) (Record, error)
	Total(ctx context.Context, exerciseID string) int
	Totals(ctx context.Context) map[string]int
	History(ctx context.Context, exerciseID string) ([]Record, error)
	Close() error
}

func validateRecord(exerciseID string, reps int) error {
	if exerciseID == "" {
		return fmt.Errorf("%w: exercise id is required", ErrInvalidRecord)
	}
	if reps < 0 {
		return fmt.Errorf("%w: reps must be non-negative, got %d", ErrInvalidRecord, reps)
	}
	return nil
}
