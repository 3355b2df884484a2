// Package ingest turns pose-model payloads into engine frames.
package ingest

import (
	"fmt"

	"github.com/claude/repcounter/internal/ingest/blazepose"
	"github.com/claude/repcounter/internal/ingest/coco"
	"github.com/claude/repcounter/internal/models"
	"github.com/claude/repcounter/internal/pose"
)

// Decode maps a payload to a typed frame. It never fails: unusable payloads
// become Malformed frames so a single bad frame cannot end a session.
func Decode(p models.FramePayload) pose.Frame {
	if p.Empty() {
		return pose.AbsentFrame()
	}

	if len(p.Landmarks) > 0 {
		return decodeNamed(p.Landmarks)
	}

	switch p.Format {
	case models.FormatCOCO, "":
		return coco.Decode(p.Keypoints)
	case models.FormatBlazePose:
		return blazepose.Decode(p.Keypoints)
	default:
		return pose.MalformedFrame(fmt.Sprintf("unknown keypoint format %q", p.Format))
	}
}

// decodeNamed keeps the landmarks it knows. Models emit more points than the
// engine tracks; those are dropped, and a frame whose
// required joints are missing is caught by the tracker.
func decodeNamed(named map[string]pose.Point) pose.Frame {
	set := make(pose.Set, len(named))
	for name, pt := range named {
		lm, err := pose.ParseLandmark(name)
		if err != nil {
			continue
		}
		set[lm] = pt
	}
	return pose.PresentFrame(set)
}
