package mocks

import (
	"image"

	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

// PreviewRenderer is a mock implementation of ports.PreviewRenderer.
type PreviewRenderer struct {
	RenderFunc    func(f *frame.Frame, box pipeline.BoundingBox, index int) image.Image
	EncodePNGFunc func(img image.Image) ([]byte, error)

	// Recorded calls for verification
	Rendered []int
}

func (m *PreviewRenderer) Render(f *frame.Frame, box pipeline.BoundingBox, index int) image.Image {
	m.Rendered = append(m.Rendered, index)
	if m.RenderFunc != nil {
		return m.RenderFunc(f, box, index)
	}
	return image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
}

func (m *PreviewRenderer) EncodePNG(img image.Image) ([]byte, error) {
	if m.EncodePNGFunc != nil {
		return m.EncodePNGFunc(img)
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

var _ ports.PreviewRenderer = (*PreviewRenderer)(nil)
