package models

import (
	"github.com/claude/repcounter/internal/exercise"
	"github.com/claude/repcounter/internal/session"
	"github.com/claude/repcounter/internal/storage"
)

// StatusFromSnapshot renders a live session snapshot.
func StatusFromSnapshot(s session.Snapshot) SessionStatus {
	return SessionStatus{
		Exercise:      s.Exercise,
		TargetReps:    s.Target,
		Reps:          s.Reps,
		RepState:      s.State.String(),
		Status:        s.Status.String(),
		Angle:         s.Angle,
		PersonVisible: s.PersonVisible,
		Progress:      s.Progress(),
	}
}

// RecordFromStorage renders a persisted session.
func RecordFromStorage(r storage.Record) SessionRecord {
	return SessionRecord{
		ID:        r.ID,
		Exercise:  r.ExerciseID,
		Reps:      r.Reps,
		CreatedAt: r.CreatedAt,
	}
}

// RecordsFromStorage renders a history, never returning nil.
func RecordsFromStorage(rs []storage.Record) []SessionRecord {
	out := make([]SessionRecord, 0, len(rs))
	for _, r := range rs {
		out = append(out, RecordFromStorage(r))
	}
	return out
}

// ExerciseFromProfile renders a catalog entry.
func ExerciseFromProfile(p exercise.Profile) ExerciseInfo {
	return ExerciseInfo{
		ID:            p.ID,
		Name:          p.DisplayName(),
		Joints:        [3]string{string(p.Joints[0]), string(p.Joints[1]), string(p.Joints[2])},
		UpThreshold:   p.Up,
		DownThreshold: p.Down,
	}
}

// StatsFromStorage renders derived history stats.
func StatsFromStorage(s storage.Stats) ExerciseStats {
	return ExerciseStats{
		Exercise:    s.ExerciseID,
		Sessions:    s.Sessions,
		Total:       s.Total,
		Mean:        s.Mean,
		StdDev:      s.StdDev,
		BestSession: s.BestSession,
	}
}
