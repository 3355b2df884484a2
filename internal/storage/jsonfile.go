package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps the session log in a single JSON file shaped as
// {"<exercise>": [reps, reps, ...]}, one entry per closed session.
//
// Every Append rewrites the whole file through a temp file and rename, so a
// failed write leaves the previous contents in place.
type FileStore struct {
	path string
	log  *slog.Logger

	mu sync.Mutex
	// writeFile is swapped in tests to simulate write failures.
	writeFile func(path string, data []byte) error
}

var _ Store = (*FileStore)(nil)

// OpenFile returns a store backed by path. The file need not exist yet.
func OpenFile(path string, log *slog.Logger) (*FileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir %s: %w", dir, err)
	}
	return &FileStore{path: path, log: log, writeFile: writeFileAtomic}, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

// errCorruptLog marks a log that was read but could not be parsed.
var errCorruptLog = errors.New("session log is not valid JSON")

// load reads the log. A missing or empty file is an empty log; a file that
// reads but does not parse yields an error wrapping errCorruptLog.
func (s *FileStore) load() (map[string][]int, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string][]int{}, nil
	}
	if err != nil {
		return map[string][]int{}, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return map[string][]int{}, nil
	}
	var data map[string][]int
	if err := json.Unmarshal(raw, &data); err != nil {
		return map[string][]int{}, fmt.Errorf("parsing %s: %w: %v", s.path, errCorruptLog, err)
	}
	if data == nil {
		data = map[string][]int{}
	}
	return data, nil
}

// read loads the log, degrading to an empty history on failure.
func (s *FileStore) read() map[string][]int {
	data, err := s.load()
	if err != nil {
		s.log.Warn("session log unreadable, treating as empty", "path", s.path, "error", err)
	}
	return data
}

// Append adds one session to the log.
func (s *FileStore) Append(_ context.Context, exerciseID string, reps int) (Record, error) {
	if err := validateRecord(exerciseID, reps); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	switch {
	case errors.Is(err, errCorruptLog):
		s.log.Warn("session log unparseable, starting a new one", "path", s.path, "error", err)
		s.quarantine()
	case err != nil:
		// A log that cannot be read is never overwritten.
		return Record{}, fmt.Errorf("loading session log: %w", err)
	}

	data[exerciseID] = append(data[exerciseID], reps)
	raw, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return Record{}, fmt.Errorf("encoding session log: %w", err)
	}
	if err := s.writeFile(s.path, raw); err != nil {
		return Record{}, fmt.Errorf("writing session log: %w", err)
	}

	n := len(data[exerciseID])
	return Record{
		ID:         fileRecordID(exerciseID, n),
		ExerciseID: exerciseID,
		Reps:       reps,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// quarantine moves an unparseable log aside so the next write does not
// destroy it.
func (s *FileStore) quarantine() {
	dst := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, dst); err != nil {
		s.log.Warn("could not move corrupt session log aside", "path", s.path, "error", err)
		return
	}
	s.log.Warn("moved corrupt session log aside", "path", dst)
}

// Total sums the reps recorded for exerciseID.
func (s *FileStore) Total(_ context.Context, exerciseID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sum(s.read()[exerciseID])
}

// Totals sums reps for every exercise in the log.
func (s *FileStore) Totals(_ context.Context) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int{}
	for id, counts := range s.read() {
		out[id] = sum(counts)
	}
	return out
}

// History returns the sessions for exerciseID in append order. The file
// format keeps counts only, so IDs are positional and CreatedAt is zero.
func (s *FileStore) History(_ context.Context, exerciseID string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := s.read()[exerciseID]
	out := make([]Record, 0, len(counts))
	for i, reps := range counts {
		out = append(out, Record{ID: fileRecordID(exerciseID, i+1), ExerciseID: exerciseID, Reps: reps})
	}
	return out, nil
}

// Close is a no-op; the file is not held open between calls.
func (s *FileStore) Close() error { return nil }

func fileRecordID(exerciseID string, n int) string {
	return fmt.Sprintf("%s-%d", exerciseID, n)
}

func sum(counts []int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

// writeFileAtomic writes data to a temp file in the target directory, syncs
// it and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		d.Close()
	}
	return nil
}
