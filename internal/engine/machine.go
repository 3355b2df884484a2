// Package engine turns a stream of joint angles into counted repetitions.
package engine

import "github.com/claude/repcounter/internal/exercise"

// State is the limb position as judged by the hysteresis thresholds.
type State int

const (
	// Unknown is the start state: no threshold crossed yet.
	Unknown State = iota
	Up
	Down
)

func (s State) String() string {
	switch s {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// Transition is the outcome of one Step.
type Transition struct {
	From  State
	To    State
	Angle float64
	// Rep is true only on the Up→Down edge that completed a repetition.
	Rep   bool
	Count int
}

// Changed reports whether the state moved.
func (t Transition) Changed() bool { return t.From != t.To }

// Machine is the rep state machine for one exercise profile.
// It is not safe for concurrent use.
type Machine struct {
	up, down float64
	state    State
	count    int
}

// NewMachine builds a machine from the profile's thresholds.
func NewMachine(p exercise.Profile) *Machine {
	return &Machine{up: p.Up, down: p.Down}
}

// Step feeds one smoothed angle.
func (m *Machine) Step(angle float64) Transition {
	t := Transition{From: m.state, Angle: angle}

	// up > down, so at most one of these fires for a given angle. Any reading
	// above up re-arms the machine, including from Down.
	if angle > m.up {
		m.state = Up
	}
	if m.state == Up && angle < m.down {
		m.state = Down
		m.count++
		t.Rep = true
	}

	t.To = m.state
	t.Count = m.count
	return t
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Count returns the number of completed reps.
func (m *Machine) Count() int { return m.count }

// Reset returns the machine to Unknown with a zero count.
func (m *Machine) Reset() {
	m.state = Unknown
	m.count = 0
}
