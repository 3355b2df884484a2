// Package blazepose decodes the 33-landmark BlazePose output used by
// MediaPipe Pose.
package blazepose

import (
	"fmt"

	"github.com/claude/repcounter/internal/pose"
)

// NumLandmarks is the length of a BlazePose skeleton.
const NumLandmarks = 33

// MinVisibility is the visibility score below which a landmark is dropped.
const MinVisibility = 0.5

var indices = map[int]pose.Landmark{
	0:  pose.Nose,
	11: pose.LeftShoulder,
	12: pose.RightShoulder,
	13: pose.LeftElbow,
	14: pose.RightElbow,
	15: pose.LeftWrist,
	16: pose.RightWrist,
	23: pose.LeftHip,
	24: pose.RightHip,
	25: pose.LeftKnee,
	26: pose.RightKnee,
	27: pose.LeftAnkle,
	28: pose.RightAnkle,
}

// Decode converts landmark rows of [x, y] or [x, y, visibility].
func Decode(rows [][]float64) pose.Frame {
	if len(rows) == 0 {
		return pose.AbsentFrame()
	}
	if len(rows) != NumLandmarks {
		return pose.MalformedFrame(fmt.Sprintf("blazepose: %d landmarks, want %d", len(rows), NumLandmarks))
	}

	set := make(pose.Set, len(indices))
	for i, lm := range indices {
		row := rows[i]
		if len(row) < 2 {
			return pose.MalformedFrame(fmt.Sprintf("blazepose: landmark %d has %d values, want 2 or 3", i, len(row)))
		}
		if len(row) >= 3 && row[2] < MinVisibility {
			continue
		}
		set[lm] = pose.Point{X: row[0], Y: row[1]}
	}
	if len(set) == 0 {
		return pose.AbsentFrame()
	}
	return pose.PresentFrame(set)
}
