package storage

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the history of one exercise. Derived on demand, never stored.
type Stats struct {
	ExerciseID  string
	Sessions    int
	Total       int
	Mean        float64
	StdDev      float64
	BestSession int
}

// Summarize derives Stats from a set of records for one exercise.
func Summarize(exerciseID string, records []Record) Stats {
	s := Stats{ExerciseID: exerciseID, Sessions: len(records)}
	if len(records) == 0 {
		return s
	}

	reps := make([]float64, len(records))
	for i, r := range records {
		reps[i] = float64(r.Reps)
		s.Total += r.Reps
		if r.Reps > s.BestSession {
			s.BestSession = r.Reps
		}
	}
	if len(reps) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(reps, nil)
	} else {
		s.Mean = reps[0]
	}
	return s
}

// StatsFor loads the history of exerciseID and summarizes it.
func StatsFor(ctx context.Context, st Store, exerciseID string) (Stats, error) {
	records, err := st.History(ctx, exerciseID)
	if err != nil {
		return Stats{}, fmt.Errorf("loading history for %s: %w", exerciseID, err)
	}
	return Summarize(exerciseID, records), nil
}
