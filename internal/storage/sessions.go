package storage

import (
	"context"
	"fmt"
)

// Append inserts one session record.
func (db *DB) Append(ctx context.Context, exerciseID string, reps int) (Record, error) {
	if err := validateRecord(exerciseID, reps); err != nil {
		return Record{}, err
	}
	rec := Record{ExerciseID: exerciseID, Reps: reps}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO session_records (exercise_id, reps) VALUES ($1, $2)
		 RETURNING id::text, created_at`,
		exerciseID, reps,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("inserting session record: %w", err)
	}
	return rec, nil
}

// Total sums reps for exerciseID.
func (db *DB) Total(ctx context.Context, exerciseID string) int {
	var total int
	err := db.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(reps), 0) FROM session_records WHERE exercise_id = $1`, exerciseID,
	).Scan(&total)
	if err != nil {
		db.log.Warn("session total unavailable", "exercise", exerciseID, "error", err)
		return 0
	}
	return total
}

// Totals sums reps per exercise.
func (db *DB) Totals(ctx context.Context) map[string]int {
	out := map[string]int{}
	rows, err := db.Pool.Query(ctx,
		`SELECT exercise_id, SUM(reps)::bigint FROM session_records GROUP BY exercise_id`)
	if err != nil {
		db.log.Warn("session totals unavailable", "error", err)
		return out
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var total int64
		if err := rows.Scan(&id, &total); err != nil {
			db.log.Warn("scanning session total", "error", err)
			return map[string]int{}
		}
		out[id] = int(total)
	}
	if err := rows.Err(); err != nil {
		db.log.Warn("session totals unavailable", "error", err)
		return map[string]int{}
	}
	return out
}

// History returns sessions for exerciseID, oldest first.
func (db *DB) History(ctx context.Context, exerciseID string) ([]Record, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id::text, exercise_id, reps, created_at FROM session_records
		 WHERE exercise_id = $1 ORDER BY created_at ASC, seq ASC`, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying session records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.ExerciseID, &r.Reps, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
