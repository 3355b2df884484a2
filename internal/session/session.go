// Package session runs one training attempt: frames in, counted reps out,
// and a single persisted record when the attempt is closed.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/repcounter/internal/engine"
	"github.com/claude/repcounter/internal/exercise"
	"github.com/claude/repcounter/internal/pose"
	"github.com/claude/repcounter/internal/storage"
)

var (
	// ErrInvalidTarget is returned for a negative target rep count.
	ErrInvalidTarget = errors.New("target reps must be non-negative")
	// ErrClosed is returned when closing a session that was already persisted.
	ErrClosed = errors.New("session already closed")
)

// Status is the session lifecycle state.
type Status int

const (
	Active Status = iota
	Completed
	Closed
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Closed:
		return "closed"
	default:
		return "active"
	}
}

// Snapshot is what the presentation layer needs to render a frame.
type Snapshot struct {
	Exercise      string
	Target        int
	Reps          int
	State         engine.State
	Status        Status
	Angle         float64
	PersonVisible bool
	Outcome       engine.Outcome
}

// Progress is Reps/Target clamped to [0, 1]; zero for open-ended sessions.
func (s Snapshot) Progress() float64 {
	if s.Target <= 0 {
		return 0
	}
	p := float64(s.Reps) / float64(s.Target)
	if p > 1 {
		return 1
	}
	return p
}

// RepEvent is emitted synchronously when a repetition is counted.
type RepEvent struct {
	Exercise string
	Count    int
	Angle    float64
}

// Options tunes a session. The zero value is usable.
type Options struct {
	// Window is the smoothing window length; engine.DefaultWindow when zero.
	Window     int
	OnRep      func(RepEvent)
	OnComplete func(Snapshot)
}

// Recorder persists a closed session. storage.Store satisfies it.
type Recorder interface {
	Append(ctx context.Context, exerciseID string, reps int) (storage.Record, error)
}

// Session is a single training attempt. It is not safe for concurrent use.
type Session struct {
	profile exercise.Profile
	target  int
	tracker *engine.Tracker
	opts    Options

	status  Status
	reps    int
	visible bool
	outcome engine.Outcome
	// closing freezes counting once a close has been attempted.
	closing bool
	record  storage.Record
}

// New starts an Active session. A target of zero means open-ended: the
// session never completes on its own.
func New(p exercise.Profile, target int, opts Options) (*Session, error) {
	if target < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTarget, target)
	}
	window := opts.Window
	if window == 0 {
		window = engine.DefaultWindow
	}
	return &Session{
		profile: p,
		target:  target,
		tracker: engine.NewTracker(p, window),
		opts:    opts,
		outcome: engine.OutcomeNoPerson,
	}, nil
}

// HandleFrame routes one frame through the engine. Frames are still
// accepted once Completed, but the count stops at the target. Frames after
// a close attempt are ignored.
func (s *Session) HandleFrame(f pose.Frame) Snapshot {
	if s.closing || s.status == Closed {
		return s.Snapshot()
	}

	res := s.tracker.Process(f)
	s.visible = f.Kind == pose.Present
	s.outcome = res.Outcome

	if res.Transition.Rep && s.status == Active {
		s.reps = res.Transition.Count
		if s.opts.OnRep != nil {
			s.opts.OnRep(RepEvent{Exercise: s.profile.ID, Count: s.reps, Angle: res.Smoothed})
		}
		if s.target > 0 && s.reps >= s.target {
			s.status = Completed
			if s.opts.OnComplete != nil {
				s.opts.OnComplete(s.Snapshot())
			}
		}
	}
	return s.Snapshot()
}

// Snapshot reports the current session view.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Exercise:      s.profile.ID,
		Target:        s.target,
		Reps:          s.reps,
		State:         s.tracker.State(),
		Status:        s.status,
		Angle:         s.tracker.Angle(),
		PersonVisible: s.visible,
		Outcome:       s.outcome,
	}
}

// Close persists the accumulated count. It appends exactly once per
// session: after a successful close, further calls return ErrClosed. If the
// append fails the session keeps its result and Close may be retried.
func (s *Session) Close(ctx context.Context, rec Recorder) (storage.Record, error) {
	if s.status == Closed {
		return s.record, ErrClosed
	}
	s.closing = true

	record, err := rec.Append(ctx, s.profile.ID, s.reps)
	if err != nil {
		return storage.Record{}, fmt.Errorf("saving %s session: %w", s.profile.ID, err)
	}
	s.record = record
	s.status = Closed
	return record, nil
}

// Profile returns the exercise being tracked.
func (s *Session) Profile() exercise.Profile { return s.profile }

// Reps returns the counted repetitions.
func (s *Session) Reps() int { return s.reps }

// Status returns the lifecycle state.
func (s *Session) Status() Status { return s.status }
