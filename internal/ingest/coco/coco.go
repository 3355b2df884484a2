// Package coco decodes COCO-17 keypoint rows, as produced by YOLO pose models.
package coco

import (
	"fmt"

	"github.com/claude/repcounter/internal/pose"
)

// NumKeypoints is the length of a COCO keypoint skeleton.
const NumKeypoints = 17

// COCO keypoint indices for the landmarks the engine tracks.
// 1-4 are eyes and ears, which no exercise uses.
var indices = map[int]pose.Landmark{
	0:  pose.Nose,
	5:  pose.LeftShoulder,
	6:  pose.RightShoulder,
	7:  pose.LeftElbow,
	8:  pose.RightElbow,
	9:  pose.LeftWrist,
	10: pose.RightWrist,
	11: pose.LeftHip,
	12: pose.RightHip,
	13: pose.LeftKnee,
	14: pose.RightKnee,
	15: pose.LeftAnkle,
	16: pose.RightAnkle,
}

// Decode converts keypoint rows into a frame. Rows must have at least x and y.
// A keypoint at exactly (0, 0) is how YOLO reports an undetected point and
// is left out of the set. Shorter skeletons keep the points they do have.
func Decode(rows [][]float64) pose.Frame {
	if len(rows) == 0 {
		return pose.AbsentFrame()
	}
	if len(rows) > NumKeypoints {
		return pose.MalformedFrame(fmt.Sprintf("coco: %d keypoints, want at most %d", len(rows), NumKeypoints))
	}

	set := make(pose.Set, len(indices))
	for i, row := range rows {
		if len(row) < 2 {
			return pose.MalformedFrame(fmt.Sprintf("coco: keypoint %d has %d values, want 2", i, len(row)))
		}
		lm, ok := indices[i]
		if !ok {
			continue
		}
		if row[0] == 0 && row[1] == 0 {
			continue
		}
		set[lm] = pose.Point{X: row[0], Y: row[1]}
	}
	if len(set) == 0 {
		return pose.AbsentFrame()
	}
	return pose.PresentFrame(set)
}
