package session

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/claude/repcounter/internal/engine"
	"github.com/claude/repcounter/internal/exercise"
	"github.com/claude/repcounter/internal/pose"
	"github.com/claude/repcounter/internal/storage"
)

var pushup = exercise.Profile{
	ID:     "pushup",
	Joints: [3]pose.Landmark{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist},
	Up:     160,
	Down:   90,
}

// jointAt builds a frame whose angle at joints[1] is deg degrees.
func jointAt(joints [3]pose.Landmark, deg float64) pose.Frame {
	rad := deg * math.Pi / 180
	return pose.PresentFrame(pose.Set{
		joints[0]: {X: math.Cos(rad), Y: math.Sin(rad)},
		joints[1]: {X: 0, Y: 0},
		joints[2]: {X: 1, Y: 0},
	})
}

func armAt(deg float64) pose.Frame { return jointAt(pushup.Joints, deg) }

// doReps feeds n extend/bend cycles.
func doReps(s interface{ HandleFrame(pose.Frame) Snapshot }, n int) Snapshot {
	var snap Snapshot
	for i := 0; i < n; i++ {
		s.HandleFrame(armAt(170))
		snap = s.HandleFrame(armAt(70))
	}
	return snap
}

// fakeRecorder records appends and can be told to fail.
type fakeRecorder struct {
	mu      sync.Mutex
	appends []storage.Record
	err     error
}

func (f *fakeRecorder) Append(_ context.Context, exerciseID string, reps int) (storage.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return storage.Record{}, f.err
	}
	rec := storage.Record{ID: "r", ExerciseID: exerciseID, Reps: reps}
	f.appends = append(f.appends, rec)
	return rec, nil
}

func (f *fakeRecorder) calls() []storage.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]storage.Record, len(f.appends))
	copy(out, f.appends)
	return out
}

// TestSessionEarlyClose verifies closing before the target persists the
// partial count exactly once.
func TestSessionEarlyClose(t *testing.T) {
	s, err := New(pushup, 10, Options{Window: 1})
	if err != nil {
		t.Fatal(err)
	}
	snap := doReps(s, 9)
	if snap.Reps != 9 || snap.Status != Active {
		t.Fatalf("after 9 reps snapshot = %+v", snap)
	}
	if got := snap.Progress(); math.Abs(got-0.9) > 1e-9 {
		t.Errorf("Progress = %v, want 0.9", got)
	}

	rec := &fakeRecorder{}
	if _, err := s.Close(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Close(context.Background(), rec); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close error = %v, want ErrClosed", err)
	}

	calls := rec.calls()
	if len(calls) != 1 || calls[0].Reps != 9 || calls[0].ExerciseID != "pushup" {
		t.Errorf("appends = %+v, want one pushup record of 9", calls)
	}
	if s.Status() != Closed {
		t.Errorf("Status = %v, want closed", s.Status())
	}
}

// TestSessionCompletesAtTarget verifies the status flips once and the count
// stops at the target.
func TestSessionCompletesAtTarget(t *testing.T) {
	var reps []int
	completions := 0
	s, err := New(pushup, 3, Options{
		Window:     1,
		OnRep:      func(ev RepEvent) { reps = append(reps, ev.Count) },
		OnComplete: func(Snapshot) { completions++ },
	})
	if err != nil {
		t.Fatal(err)
	}

	snap := doReps(s, 5)
	if snap.Status != Completed {
		t.Errorf("Status = %v, want completed", snap.Status)
	}
	if snap.Reps != 3 {
		t.Errorf("Reps = %d, want 3", snap.Reps)
	}
	if snap.Progress() != 1 {
		t.Errorf("Progress = %v, want 1", snap.Progress())
	}
	if completions != 1 {
		t.Errorf("OnComplete fired %d times, want 1", completions)
	}
	if len(reps) != 3 || reps[2] != 3 {
		t.Errorf("OnRep counts = %v, want [1 2 3]", reps)
	}
}

// TestSessionOpenEnded verifies a zero target never completes.
func TestSessionOpenEnded(t *testing.T) {
	s, err := New(pushup, 0, Options{Window: 1})
	if err != nil {
		t.Fatal(err)
	}
	snap := doReps(s, 25)
	if snap.Status != Active || snap.Reps != 25 {
		t.Errorf("snapshot = %+v, want active with 25 reps", snap)
	}
	if snap.Progress() != 0 {
		t.Errorf("Progress = %v, want 0", snap.Progress())
	}
}

// TestSessionRejectsNegativeTarget verifies target validation.
func TestSessionRejectsNegativeTarget(t *testing.T) {
	if _, err := New(pushup, -1, Options{}); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("error = %v, want ErrInvalidTarget", err)
	}
}

// TestSessionFailedCloseRetries verifies the count survives a failed save
// and is written once the store recovers.
func TestSessionFailedCloseRetries(t *testing.T) {
	s, err := New(pushup, 10, Options{Window: 1})
	if err != nil {
		t.Fatal(err)
	}
	doReps(s, 4)

	rec := &fakeRecorder{err: errors.New("disk full")}
	if _, err := s.Close(context.Background(), rec); err == nil {
		t.Fatal("expected save error")
	}
	if s.Status() == Closed {
		t.Fatal("session closed despite failed save")
	}

	// Counting is frozen after a close attempt.
	doReps(s, 2)
	if s.Reps() != 4 {
		t.Errorf("Reps after failed close = %d, want 4", s.Reps())
	}

	rec.err = nil
	if _, err := s.Close(context.Background(), rec); err != nil {
		t.Fatalf("retry Close: %v", err)
	}
	if calls := rec.calls(); len(calls) != 1 || calls[0].Reps != 4 {
		t.Errorf("appends = %+v, want one record of 4", calls)
	}
}

// TestSessionVisibility tracks whether a person is in view.
func TestSessionVisibility(t *testing.T) {
	s, err := New(pushup, 5, Options{Window: 1})
	if err != nil {
		t.Fatal(err)
	}
	if snap := s.HandleFrame(pose.AbsentFrame()); snap.PersonVisible || snap.Outcome != engine.OutcomeNoPerson {
		t.Errorf("absent frame snapshot = %+v", snap)
	}
	if snap := s.HandleFrame(armAt(170)); !snap.PersonVisible || snap.State != engine.Up {
		t.Errorf("present frame snapshot = %+v", snap)
	}
	if snap := s.HandleFrame(pose.MalformedFrame("x")); snap.PersonVisible || snap.Outcome != engine.OutcomeMalformed || snap.State != engine.Up {
		t.Errorf("malformed frame snapshot = %+v", snap)
	}
}
