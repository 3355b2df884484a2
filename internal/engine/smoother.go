package engine

import "gonum.org/v1/gonum/stat"

// DefaultWindow is the number of samples averaged by a Smoother.
const DefaultWindow = 8

// Smoother is a fixed-length moving average over recent angle samples.
// It is owned by a single session and is not safe for concurrent use.
type Smoother struct {
	size   int
	window []float64
}

// NewSmoother returns a smoother averaging the last n samples (at least 1).
func NewSmoother(n int) *Smoother {
	if n < 1 {
		n = 1
	}
	return &Smoother{size: n, window: make([]float64, 0, n)}
}

// Push adds a sample, evicting the oldest once the window is full, and
// returns the mean of the current window.
func (s *Smoother) Push(angle float64) float64 {
	if len(s.window) == s.size {
		copy(s.window, s.window[1:])
		s.window = s.window[:s.size-1]
	}
	s.window = append(s.window, angle)
	return stat.Mean(s.window, nil)
}

// Reset empties the window.
func (s *Smoother) Reset() {
	s.window = s.window[:0]
}

// Len returns the number of samples currently held.
func (s *Smoother) Len() int { return len(s.window) }

// Size returns the window length.
func (s *Smoother) Size() int { return s.size }
