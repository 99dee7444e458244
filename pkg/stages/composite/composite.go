// Package composite implements the ROI compositing stage.
package composite

import (
	"context"
	"fmt"

	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

// Constant background samples.
const (
	BackgroundLuma   byte = 0
	BackgroundChroma byte = 128
)

// Stage keeps the pixels inside the box and replaces everything else with
// the background. Frames are modified in place.
type Stage struct {
	logger ports.Logger
	policy pipeline.ChromaPolicy
}

// NewStage creates a new composite stage using the given chroma policy.
// An empty policy selects ChromaCosited.
func NewStage(policy pipeline.ChromaPolicy, logger ports.Logger) *Stage {
	if policy == "" {
		policy = pipeline.ChromaCosited
	}
	return &Stage{
		logger: logger.WithComponent("composite"),
		policy: policy,
	}
}

// Policy returns the chroma policy in use.
func (s *Stage) Policy() pipeline.ChromaPolicy {
	return s.policy
}

// Execute composites one frame and returns it.
func (s *Stage) Execute(ctx context.Context, input pipeline.CompositeInput) (*frame.Frame, error) {
	f := input.Frame
	if f == nil {
		return nil, fmt.Errorf("composite: nil frame: %w", pipeline.ErrCodec)
	}
	if bg := input.Background; bg != nil && !f.SameGeometry(bg) {
		return nil, fmt.Errorf("composite: background %dx%d does not match frame %dx%d: %w",
			bg.Width, bg.Height, f.Width, f.Height, pipeline.ErrCodec)
	}

	box := input.Box
	if !box.Empty() && box.Covers(f.Width, f.Height) {
		return f, nil
	}

	var bg [3]*frame.Plane
	if input.Background != nil {
		for i := range bg {
			bg[i] = &input.Background.Planes[i]
		}
	}

	if box.Empty() {
		s.logger.Debug("Empty box, frame %d becomes background", f.PTS)
	}

	maskPlane(f.Planes[frame.PlaneY], bg[frame.PlaneY], box, BackgroundLuma)

	cbox := ChromaBox(box, s.policy)
	maskPlane(f.Planes[frame.PlaneU], bg[frame.PlaneU], cbox, BackgroundChroma)
	maskPlane(f.Planes[frame.PlaneV], bg[frame.PlaneV], cbox, BackgroundChroma)

	return f, nil
}

// ChromaBox maps a luma box onto the half-resolution chroma grid.
// The result may be empty, in which case no chroma sample is kept.
func ChromaBox(box pipeline.BoundingBox, policy pipeline.ChromaPolicy) pipeline.BoundingBox {
	if box.Empty() {
		return box
	}
	if policy == pipeline.ChromaOutward {
		return pipeline.BoundingBox{X1: box.X1 / 2, Y1: box.Y1 / 2, X2: box.X2 / 2, Y2: box.Y2 / 2}
	}
	// A chroma sample (cx, cy) is co-sited with luma (2cx, 2cy).
	return pipeline.BoundingBox{
		X1: (box.X1 + 1) / 2,
		Y1: (box.Y1 + 1) / 2,
		X2: box.X2 / 2,
		Y2: box.Y2 / 2,
	}
}

// maskPlane writes the background into every sample of p outside box.
// Samples come from bg when it is non-nil, otherwise value is used.
func maskPlane(p frame.Plane, bg *frame.Plane, box pipeline.BoundingBox, value byte) {
	x1, x2 := box.X1, min(box.X2, p.Width-1)
	for y := 0; y < p.Height; y++ {
		row := p.Row(y)
		var src []byte
		if bg != nil {
			src = bg.Row(y)
		}
		if box.Empty() || x1 > x2 || y < box.Y1 || y > box.Y2 {
			paint(row, src, 0, p.Width, value)
			continue
		}
		paint(row, src, 0, x1, value)
		paint(row, src, x2+1, p.Width, value)
	}
}

func paint(row, src []byte, from, to int, value byte) {
	if src == nil {
		frame.FillRow(row, from, to, value)
		return
	}
	if from < to {
		copy(row[from:to], src[from:to])
	}
}
