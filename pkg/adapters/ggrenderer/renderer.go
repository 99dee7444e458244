// Package ggrenderer renders composited frames into annotated previews
// using the gg library.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

// DefaultMaxWidth is the preview width above which frames are downscaled.
const DefaultMaxWidth = 640

var (
	outlineColor = color.RGBA{R: 255, G: 64, B: 64, A: 255}
	labelColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	shadowColor  = color.RGBA{A: 192}
)

// Renderer implements ports.PreviewRenderer using the gg library.
type Renderer struct {
	MaxWidth int
}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{MaxWidth: DefaultMaxWidth}
}

// Render converts the frame to RGB, outlines the box and labels the frame
// index in the top-left corner.
func (r *Renderer) Render(f *frame.Frame, box pipeline.BoundingBox, index int) image.Image {
	dc := gg.NewContextForImage(f.Image())

	if !box.Empty() {
		dc.SetColor(outlineColor)
		dc.SetLineWidth(2)
		dc.DrawRectangle(float64(box.X1), float64(box.Y1),
			float64(box.X2-box.X1+1), float64(box.Y2-box.Y1+1))
		dc.Stroke()
	}

	label := fmt.Sprintf("Frame %d", index)
	dc.SetColor(shadowColor)
	dc.DrawString(label, 5, 15)
	dc.SetColor(labelColor)
	dc.DrawString(label, 4, 14)

	return r.fit(dc.Image())
}

// fit downscales img to MaxWidth, keeping the aspect ratio.
func (r *Renderer) fit(img image.Image) image.Image {
	b := img.Bounds()
	if r.MaxWidth <= 0 || b.Dx() <= r.MaxWidth {
		return img
	}
	height := b.Dy() * r.MaxWidth / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.MaxWidth, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// EncodePNG encodes a rendered preview as PNG.
func (r *Renderer) EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// Ensure Renderer implements ports.PreviewRenderer
var _ ports.PreviewRenderer = (*Renderer)(nil)
