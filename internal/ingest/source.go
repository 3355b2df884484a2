package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/claude/repcounter/internal/models"
	"github.com/claude/repcounter/internal/pose"
)

// maxLineSize bounds a single recorded frame.
const maxLineSize = 1 << 20

// LineSource reads a JSON Lines recording of FramePayload values.
// Blank lines are skipped; lines that fail to parse yield Malformed frames.
type LineSource struct {
	scanner *bufio.Scanner
	line    int
	last    models.FramePayload
}

var _ pose.Source = (*LineSource)(nil)

// NewLineSource wraps r.
func NewLineSource(r io.Reader) *LineSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return &LineSource{scanner: sc}
}

// Next returns the next frame, or io.EOF at the end of the recording.
func (s *LineSource) Next(ctx context.Context) (pose.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return pose.Frame{}, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return pose.Frame{}, fmt.Errorf("reading line %d: %w", s.line+1, err)
			}
			return pose.Frame{}, io.EOF
		}
		s.line++
		raw := bytes.TrimSpace(s.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var p models.FramePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			s.last = models.FramePayload{}
			return pose.MalformedFrame(fmt.Sprintf("line %d: %v", s.line, err)), nil
		}
		s.last = p
		return Decode(p), nil
	}
}

// Payload returns the raw payload behind the most recent frame. Malformed
// lines yield the zero payload.
func (s *LineSource) Payload() models.FramePayload {
	return s.last
}

// Line reports how many lines have been consumed.
func (s *LineSource) Line() int {
	return s.line
}
