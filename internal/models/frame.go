package models

import "github.com/claude/repcounter/internal/pose"

// Keypoint formats understood by the ingest decoders.
const (
	FormatCOCO      = "coco"
	FormatBlazePose = "blazepose"
)

// FramePayload is one frame of pose-model output as sent over the wire or
// stored in a JSON Lines recording.
//
// Keypoints holds raw model rows in model order: [x, y] for COCO or
// [x, y, visibility] for BlazePose. Landmarks is the already-named form.
// A payload with neither means nobody was detected.
type FramePayload struct {
	Time      float64               `json:"t,omitempty"`
	Format    string                `json:"format,omitempty"`
	Keypoints [][]float64           `json:"keypoints,omitempty"`
	Landmarks map[string]pose.Point `json:"landmarks,omitempty"`
}

// Empty reports whether the payload carries no detection at all.
func (p FramePayload) Empty() bool {
	return len(p.Keypoints) == 0 && len(p.Landmarks) == 0
}
