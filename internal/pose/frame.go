package pose

import "context"

// FrameKind classifies what the pose source produced for a frame.
type FrameKind int

const (
	// Absent means no person was detected.
	Absent FrameKind = iota
	// Present means a landmark set is available.
	Present
	// Malformed means the model output could not be turned into landmarks.
	Malformed
)

func (k FrameKind) String() string {
	switch k {
	case Present:
		return "present"
	case Malformed:
		return "malformed"
	default:
		return "absent"
	}
}

// Frame is the typed result of one pose-estimation step.
type Frame struct {
	Kind      FrameKind
	Landmarks Set
	Reason    string // set when Kind is Malformed
}

// PresentFrame wraps a detected landmark set.
func PresentFrame(s Set) Frame {
	if len(s) == 0 {
		return AbsentFrame()
	}
	return Frame{Kind: Present, Landmarks: s}
}

// AbsentFrame reports that nobody is in view.
func AbsentFrame() Frame {
	return Frame{Kind: Absent}
}

// MalformedFrame reports unusable model output.
func MalformedFrame(reason string) Frame {
	return Frame{Kind: Malformed, Reason: reason}
}

// Triple returns the three points for the given joints, or ok=false if the
// frame is not Present or any joint is missing.
func (f Frame) Triple(joints [3]Landmark) (a, b, c Point, ok bool) {
	if f.Kind != Present {
		return Point{}, Point{}, Point{}, false
	}
	if a, ok = f.Landmarks[joints[0]]; !ok {
		return
	}
	if b, ok = f.Landmarks[joints[1]]; !ok {
		return
	}
	c, ok = f.Landmarks[joints[2]]
	return
}

// Source yields frames from a camera, a model, or a recording.
// Next returns io.EOF when the stream is exhausted.
type Source interface {
	Next(ctx context.Context) (Frame, error)
}
