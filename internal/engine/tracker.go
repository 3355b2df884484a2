package engine

import (
	"github.com/claude/repcounter/internal/exercise"
	"github.com/claude/repcounter/internal/pose"
)

// Outcome says what the tracker did with a frame.
type Outcome int

const (
	// OutcomeCounted means the frame produced an angle and was fed to the machine.
	OutcomeCounted Outcome = iota
	// OutcomeNoPerson means the frame was skipped because nobody was in view.
	OutcomeNoPerson
	// OutcomeMalformed means the frame was skipped because the landmarks
	// needed for the exercise were unusable or missing.
	OutcomeMalformed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoPerson:
		return "no_person"
	case OutcomeMalformed:
		return "malformed"
	default:
		return "counted"
	}
}

// FrameResult is the per-frame output of a Tracker.
type FrameResult struct {
	Outcome    Outcome
	Raw        float64
	Smoothed   float64
	Transition Transition
	Reason     string
}

// Skipped reports whether the frame left the engine state untouched.
func (r FrameResult) Skipped() bool { return r.Outcome != OutcomeCounted }

// Tracker runs a frame through angle calculation, smoothing and the state
// machine for one exercise.
type Tracker struct {
	profile  exercise.Profile
	smoother *Smoother
	machine  *Machine
	last     float64
}

// NewTracker builds a tracker with a smoothing window of the given size.
func NewTracker(p exercise.Profile, window int) *Tracker {
	return &Tracker{
		profile:  p,
		smoother: NewSmoother(window),
		machine:  NewMachine(p),
	}
}

// Process handles one frame. Skipped frames never touch the smoothing
// window or the machine.
func (t *Tracker) Process(f pose.Frame) FrameResult {
	switch f.Kind {
	case pose.Absent:
		return t.skip(OutcomeNoPerson, "")
	case pose.Malformed:
		return t.skip(OutcomeMalformed, f.Reason)
	}

	a, b, c, ok := f.Triple(t.profile.Joints)
	if !ok {
		return t.skip(OutcomeMalformed, "missing landmarks for "+t.profile.ID)
	}

	raw := pose.Angle(a, b, c)
	smoothed := t.smoother.Push(raw)
	t.last = smoothed
	return FrameResult{
		Outcome:    OutcomeCounted,
		Raw:        raw,
		Smoothed:   smoothed,
		Transition: t.machine.Step(smoothed),
	}
}

func (t *Tracker) skip(o Outcome, reason string) FrameResult {
	state := t.machine.State()
	return FrameResult{
		Outcome:  o,
		Smoothed: t.last,
		Reason:   reason,
		Transition: Transition{
			From:  state,
			To:    state,
			Angle: t.last,
			Count: t.machine.Count(),
		},
	}
}

// Reset clears the smoothing window and the machine.
func (t *Tracker) Reset() {
	t.smoother.Reset()
	t.machine.Reset()
	t.last = 0
}

// Profile returns the tracked exercise.
func (t *Tracker) Profile() exercise.Profile { return t.profile }

// State returns the machine state.
func (t *Tracker) State() State { return t.machine.State() }

// Count returns the completed reps.
func (t *Tracker) Count() int { return t.machine.Count() }

// Angle returns the most recent smoothed angle.
func (t *Tracker) Angle() float64 { return t.last }

// WindowLen exposes the smoothing window fill, mainly for tests.
func (t *Tracker) WindowLen() int { return t.smoother.Len() }
