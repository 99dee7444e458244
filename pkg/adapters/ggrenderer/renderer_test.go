package ggrenderer

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/pipeline"
)

func grayFrame(w, h int) *frame.Frame {
	f := frame.New(w, h)
	f.Planes[frame.PlaneY].Fill(128)
	f.Planes[frame.PlaneU].Fill(128)
	f.Planes[frame.PlaneV].Fill(128)
	return f
}

func TestRenderer_RenderKeepsSize(t *testing.T) {
	r := New()

	img := r.Render(grayFrame(64, 48), pipeline.BoundingBox{X1: 8, Y1: 8, X2: 31, Y2: 23}, 3)

	b := img.Bounds()
	if b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("expected 64x48, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderer_RenderOutlinesBox(t *testing.T) {
	r := New()
	box := pipeline.BoundingBox{X1: 20, Y1: 30, X2: 40, Y2: 44}

	img := r.Render(grayFrame(64, 48), box, 0)

	// The left edge of the outline is drawn in red over mid gray.
	red, green, _, _ := img.At(box.X1, (box.Y1+box.Y2)/2).RGBA()
	if red>>8 < 200 || green>>8 > 120 {
		t.Errorf("expected outline color at box edge, got r=%d g=%d", red>>8, green>>8)
	}

	// Inside the box the frame is untouched.
	red, green, _, _ = img.At(30, 37).RGBA()
	if red>>8 != green>>8 {
		t.Errorf("expected gray inside box, got r=%d g=%d", red>>8, green>>8)
	}
}

func TestRenderer_RenderEmptyBox(t *testing.T) {
	r := New()

	img := r.Render(grayFrame(32, 32), pipeline.BoundingBox{X1: 10, Y1: 10, X2: 5, Y2: 5}, 1)

	red, green, _, _ := img.At(31, 31).RGBA()
	if red != green {
		t.Error("expected no outline for empty box")
	}
}

func TestRenderer_Downscale(t *testing.T) {
	r := &Renderer{MaxWidth: 100}

	img := r.Render(grayFrame(400, 200), pipeline.BoundingBox{X2: 399, Y2: 199}, 0)

	b := img.Bounds()
	if b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("expected 100x50, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRenderer_EncodePNG(t *testing.T) {
	r := New()
	img := r.Render(grayFrame(16, 16), pipeline.BoundingBox{X2: 15, Y2: 15}, 0)

	data, err := r.EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 16 {
		t.Errorf("expected width 16, got %d", decoded.Bounds().Dx())
	}
}
