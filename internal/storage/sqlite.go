package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the session log in a local SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string, log *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir for %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	// One connection serializes writers.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS session_records (
		id          TEXT PRIMARY KEY,
		exercise_id TEXT NOT NULL,
		reps        INTEGER NOT NULL CHECK (reps >= 0),
		created_at  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS session_records_exercise_idx ON session_records (exercise_id, created_at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session_records table: %w", err)
	}

	return &SQLiteStore{db: db, log: log}, nil
}

// Append inserts one session.
func (s *SQLiteStore) Append(ctx context.Context, exerciseID string, reps int) (Record, error) {
	if err := validateRecord(exerciseID, reps); err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:         uuid.NewString(),
		ExerciseID: exerciseID,
		Reps:       reps,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_records (id, exercise_id, reps, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.ExerciseID, rec.Reps, rec.CreatedAt.UnixMicro(),
	)
	if err != nil {
		return Record{}, fmt.Errorf("inserting session record: %w", err)
	}
	return rec, nil
}

// Total sums reps for exerciseID.
func (s *SQLiteStore) Total(ctx context.Context, exerciseID string) int {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(reps), 0) FROM session_records WHERE exercise_id = ?`, exerciseID,
	).Scan(&total)
	if err != nil {
		s.log.Warn("session total unavailable", "exercise", exerciseID, "error", err)
		return 0
	}
	return total
}

// Totals sums reps per exercise.
func (s *SQLiteStore) Totals(ctx context.Context) map[string]int {
	out := map[string]int{}
	rows, err := s.db.QueryContext(ctx,
		`SELECT exercise_id, SUM(reps) FROM session_records GROUP BY exercise_id`)
	if err != nil {
		s.log.Warn("session totals unavailable", "error", err)
		return out
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var total int
		if err := rows.Scan(&id, &total); err != nil {
			s.log.Warn("scanning session total", "error", err)
			return map[string]int{}
		}
		out[id] = total
	}
	if err := rows.Err(); err != nil {
		s.log.Warn("session totals unavailable", "error", err)
		return map[string]int{}
	}
	return out
}

// History returns sessions for exerciseID, oldest first.
func (s *SQLiteStore) History(ctx context.Context, exerciseID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, exercise_id, reps, created_at FROM session_records
		 WHERE exercise_id = ? ORDER BY created_at ASC, rowid ASC`, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying session records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var micros int64
		if err := rows.Scan(&r.ID, &r.ExerciseID, &r.Reps, &micros); err != nil {
			return nil, fmt.Errorf("scanning session record: %w", err)
		}
		r.CreatedAt = time.UnixMicro(micros).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
