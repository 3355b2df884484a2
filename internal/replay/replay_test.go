package replay

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/repcounter/internal/exercise"
	"github.com/claude/repcounter/internal/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recording builds n full repetitions for the given joint names, with an
// absent frame and a blank line mixed in.
func recording(joints [3]string, n int) string {
	frame := func(wx, wy float64) string {
		return fmt.Sprintf(`{"landmarks":{%q:{"x":1,"y":0},%q:{"x":0,"y":0},%q:{"x":%g,"y":%g}}}`,
			joints[0], joints[1], joints[2], wx, wy)
	}
	var b strings.Builder
	b.WriteString("{\"t\":0}\n\n")
	for i := 0; i < n; i++ {
		b.WriteString(frame(-1, 0) + "\n") // 180 degrees
		b.WriteString(frame(1, 1) + "\n")  // 45 degrees
	}
	return b.String()
}

var (
	armJoints = [3]string{"left_shoulder", "left_elbow", "left_wrist"}
	legJoints = [3]string{"left_hip", "left_knee", "left_ankle"}
)

func mkParent(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	mkParent(t, path)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	mkParent(t, path)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
}

func writeZstd(t *testing.T, path, content string) {
	t.Helper()
	mkParent(t, path)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()
}

// setupRecordings writes a plain, a gzip, a zstd and an unknown-exercise recording.
func setupRecordings(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pushup_morning.jsonl"), recording(armJoints, 4))
	writeGzip(t, filepath.Join(dir, "squat_evening.jsonl.gz"), recording(legJoints, 3))
	writeZstd(t, filepath.Join(dir, "nested", "pushup_late.jsonl.zst"), recording(armJoints, 2))
	writeFile(t, filepath.Join(dir, "burpee_x.jsonl"), recording(armJoints, 1))
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a recording")
	return dir
}

// TestExerciseFromName verifies the exercise prefix is taken from file names.
func TestExerciseFromName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"pushup_2026-01-01.jsonl", "pushup"},
		{"/data/squat_a_b.jsonl.gz", "squat"},
		{"curl.jsonl", "curl"},
		{"curl_x.jsonl.zst", "curl"},
	}
	for _, tt := range tests {
		if got := ExerciseFromName(tt.path); got != tt.want {
			t.Errorf("ExerciseFromName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

// TestDiscover finds recordings recursively and ignores other files.
func TestDiscover(t *testing.T) {
	dir := setupRecordings(t)
	files, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range files {
		rel, _ := filepath.Rel(dir, f)
		names = append(names, rel)
	}
	want := []string{
		"burpee_x.jsonl",
		filepath.Join("nested", "pushup_late.jsonl.zst"),
		"pushup_morning.jsonl",
		"squat_evening.jsonl.gz",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Discover mismatch (-want +got):\n%s", diff)
	}

	if _, err := Discover(filepath.Join(dir, "notes.txt")); err == nil {
		t.Error("expected error for a non-recording file")
	}
}

// TestRunSavesOneSessionPerFile replays the directory and checks totals,
// then verifies a second run skips everything.
func TestRunSavesOneSessionPerFile(t *testing.T) {
	dir := setupRecordings(t)
	ctx := context.Background()
	log := discardLogger()

	st, err := storage.OpenFile(filepath.Join(t.TempDir(), "sessions.json"), log)
	if err != nil {
		t.Fatal(err)
	}
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	stats, err := New(exercise.DefaultCatalog(), st, state, Options{Window: 1}, log).Run(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesProcessed != 3 || stats.FilesErrored != 1 || stats.SessionsSaved != 3 {
		t.Errorf("stats = %+v, want 3 processed, 1 errored, 3 saved", stats)
	}
	if diff := cmp.Diff(map[string]int{"pushup": 6, "squat": 3}, stats.Reps); diff != "" {
		t.Errorf("reps mismatch (-want +got):\n%s", diff)
	}
	if stats.Frames["no_person"] != 3 {
		t.Errorf("no_person frames = %d, want 3", stats.Frames["no_person"])
	}
	if got := st.Total(ctx, "pushup"); got != 6 {
		t.Errorf("Total(pushup) = %d, want 6", got)
	}

	again, err := New(exercise.DefaultCatalog(), st, state, Options{Window: 1}, log).Run(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if again.FilesSkipped != 3 || again.SessionsSaved != 0 {
		t.Errorf("second run stats = %+v, want 3 skipped", again)
	}
	if got := st.Total(ctx, "pushup"); got != 6 {
		t.Errorf("Total(pushup) after rerun = %d, want 6", got)
	}
}

// TestRunDryRun counts without touching the store.
func TestRunDryRun(t *testing.T) {
	dir := setupRecordings(t)
	ctx := context.Background()
	st, err := storage.OpenFile(filepath.Join(t.TempDir(), "sessions.json"), discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	stats, err := New(exercise.DefaultCatalog(), st, nil, Options{Window: 1, DryRun: true}, discardLogger()).Run(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reps["squat"] != 3 || stats.SessionsSaved != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if got := st.Totals(ctx); len(got) != 0 {
		t.Errorf("Totals after dry run = %v, want empty", got)
	}
}

// TestRunTargetAndOverride stops at the target and applies the exercise override.
func TestRunTargetAndOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session1.jsonl")
	writeFile(t, path, recording(armJoints, 10))
	ctx := context.Background()
	st, err := storage.OpenFile(filepath.Join(t.TempDir(), "sessions.json"), discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	opts := Options{Exercise: "pushup", Target: 5, Window: 1}
	stats, err := New(exercise.DefaultCatalog(), st, nil, opts, discardLogger()).Run(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reps["pushup"] != 5 {
		t.Errorf("reps = %d, want 5", stats.Reps["pushup"])
	}
	if got := st.Total(ctx, "pushup"); got != 5 {
		t.Errorf("Total(pushup) = %d, want 5", got)
	}
}

// TestRunSavesRepsBeforeUnreadableLine verifies that a recording cut short by
// an oversize line still saves the reps counted before it.
func TestRunSavesRepsBeforeUnreadableLine(t *testing.T) {
	dir := t.TempDir()
	content := recording(armJoints, 3) +
		`{"landmarks":{"nose":"` + strings.Repeat("x", 2<<20) + `"}}` + "\n" +
		recording(armJoints, 2)
	writeFile(t, filepath.Join(dir, "pushup_cut.jsonl"), content)

	ctx := context.Background()
	st, err := storage.OpenFile(filepath.Join(t.TempDir(), "sessions.json"), discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	stats, err := New(exercise.DefaultCatalog(), st, state, Options{Window: 1}, discardLogger()).Run(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if stats.FilesErrored != 1 || stats.SessionsSaved != 1 || stats.FilesProcessed != 0 {
		t.Errorf("stats = %+v, want 1 errored, 1 saved, 0 processed", stats)
	}
	if got := st.Total(ctx, "pushup"); got != 3 {
		t.Errorf("Total(pushup) = %d, want 3", got)
	}

	// The saved file is not replayed again.
	again, err := New(exercise.DefaultCatalog(), st, state, Options{Window: 1}, discardLogger()).Run(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if again.FilesSkipped != 1 {
		t.Errorf("second run stats = %+v, want 1 skipped", again)
	}
	if got := st.Total(ctx, "pushup"); got != 3 {
		t.Errorf("Total(pushup) after rerun = %d, want 3", got)
	}
}

// TestStateDB verifies size and hash both participate in the replay key.
func TestStateDB(t *testing.T) {
	s, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.MarkReplayed("a.jsonl", 10, "abc", "pushup", 4); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		size int64
		hash string
		want bool
	}{
		{10, "abc", true},
		{11, "abc", false},
		{10, "def", false},
	}
	for _, tt := range tests {
		got, err := s.IsReplayed("a.jsonl", tt.size, tt.hash)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("IsReplayed(%d, %s) = %v, want %v", tt.size, tt.hash, got, tt.want)
		}
	}
}
