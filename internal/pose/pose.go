// Package pose defines the per-frame body landmark contract consumed by the
// rep-counting engine.
package pose

import (
	"fmt"
	"math"
)

// Landmark identifies an anatomical point reported by the pose model.
type Landmark string

const (
	Nose          Landmark = "nose"
	LeftShoulder  Landmark = "left_shoulder"
	RightShoulder Landmark = "right_shoulder"
	LeftElbow     Landmark = "left_elbow"
	RightElbow    Landmark = "right_elbow"
	LeftWrist     Landmark = "left_wrist"
	RightWrist    Landmark = "right_wrist"
	LeftHip       Landmark = "left_hip"
	RightHip      Landmark = "right_hip"
	LeftKnee      Landmark = "left_knee"
	RightKnee     Landmark = "right_knee"
	LeftAnkle     Landmark = "left_ankle"
	RightAnkle    Landmark = "right_ankle"
)

// Landmarks lists every supported landmark.
var Landmarks = []Landmark{
	Nose,
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
}

// Valid reports whether l is one of the supported landmarks.
func (l Landmark) Valid() bool {
	for _, known := range Landmarks {
		if l == known {
			return true
		}
	}
	return false
}

// ParseLandmark converts a landmark name into a Landmark.
func ParseLandmark(name string) (Landmark, error) {
	l := Landmark(name)
	if !l.Valid() {
		return "", fmt.Errorf("unknown landmark %q", name)
	}
	return l, nil
}

// Point is a 2-D image coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Set maps landmarks to their positions for a single frame.
type Set map[Landmark]Point

// Angle returns the interior angle at vertex b, in degrees within [0, 180],
// formed by the rays b→a and b→c. Coincident points yield a defined value.
func Angle(a, b, c Point) float64 {
	radians := math.Atan2(c.Y-b.Y, c.X-b.X) - math.Atan2(a.Y-b.Y, a.X-b.X)
	angle := math.Abs(radians * 180.0 / math.Pi)
	if angle > 180 {
		angle = 360 - angle
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}
	return angle
}
