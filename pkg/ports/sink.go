package ports

import (
	"image"

	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/pipeline"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving intermediate processing results for debugging purposes.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveStreamJSON saves the probed stream information as JSON.
	SaveStreamJSON(data []byte) error

	// SaveTrackJSON saves the loaded bounding box track as JSON.
	SaveTrackJSON(data []byte) error

	// SavePreview saves a rendered preview of a composited frame.
	SavePreview(index int, img image.Image) error
}

// PreviewRenderer renders composited frames for inspection.
type PreviewRenderer interface {
	// Render draws the frame with its box outlined and labelled with index.
	Render(f *frame.Frame, box pipeline.BoundingBox, index int) image.Image

	// EncodePNG encodes a rendered preview as PNG.
	EncodePNG(img image.Image) ([]byte, error)
}
