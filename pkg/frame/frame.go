// Package frame provides the planar YUV 4:2:0 frame used throughout the pipeline.
package frame

import (
	"errors"
	"fmt"
	"image"
	"io"
)

// Plane indices.
const (
	PlaneY = 0
	PlaneU = 1
	PlaneV = 2
)

// ErrGeometry is returned when a buffer does not match the frame geometry.
var ErrGeometry = errors.New("frame: geometry mismatch")

// Plane is a single 8-bit image plane. Stride may exceed Width.
type Plane struct {
	Data   []byte
	Stride int
	Width  int
	Height int
}

// Row returns the Width visible samples of row y.
func (p Plane) Row(y int) []byte {
	off := y * p.Stride
	return p.Data[off : off+p.Width]
}

// At returns the sample at (x, y).
func (p Plane) At(x, y int) byte {
	return p.Data[y*p.Stride+x]
}

// Set stores v at (x, y).
func (p Plane) Set(x, y int, v byte) {
	p.Data[y*p.Stride+x] = v
}

// Fill sets every visible sample to v.
func (p Plane) Fill(v byte) {
	for y := 0; y < p.Height; y++ {
		fill(p.Row(y), v)
	}
}

// Frame is a decoded picture in planar YUV 4:2:0.
type Frame struct {
	Width  int
	Height int
	Planes [3]Plane
	PTS    int64 // in the time base of whoever owns the frame
}

// ChromaSize returns the chroma plane dimensions for a width x height picture.
func ChromaSize(width, height int) (int, int) {
	return (width + 1) / 2, (height + 1) / 2
}

// Size returns the byte size of a tightly packed I420 picture.
func Size(width, height int) int {
	cw, ch := ChromaSize(width, height)
	return width*height + 2*cw*ch
}

// New allocates a tightly packed frame.
func New(width, height int) *Frame {
	return NewWithStride(width, height, width, (width+1)/2)
}

// NewWithStride allocates a frame whose luma rows are yStride bytes apart and
// whose chroma rows are cStride bytes apart.
func NewWithStride(width, height, yStride, cStride int) *Frame {
	cw, ch := ChromaSize(width, height)
	f := &Frame{Width: width, Height: height}
	f.Planes[PlaneY] = Plane{Data: make([]byte, yStride*height), Stride: yStride, Width: width, Height: height}
	f.Planes[PlaneU] = Plane{Data: make([]byte, cStride*ch), Stride: cStride, Width: cw, Height: ch}
	f.Planes[PlaneV] = Plane{Data: make([]byte, cStride*ch), Stride: cStride, Width: cw, Height: ch}
	return f
}

// FromI420 wraps a tightly packed I420 buffer without copying.
func FromI420(buf []byte, width, height int) (*Frame, error) {
	if len(buf) != Size(width, height) {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrGeometry, len(buf), width, height)
	}
	cw, ch := ChromaSize(width, height)
	ySize := width * height
	cSize := cw * ch

	f := &Frame{Width: width, Height: height}
	f.Planes[PlaneY] = Plane{Data: buf[:ySize], Stride: width, Width: width, Height: height}
	f.Planes[PlaneU] = Plane{Data: buf[ySize : ySize+cSize], Stride: cw, Width: cw, Height: ch}
	f.Planes[PlaneV] = Plane{Data: buf[ySize+cSize:], Stride: cw, Width: cw, Height: ch}
	return f, nil
}

// WriteI420 writes the visible samples of every plane as tightly packed I420.
func (f *Frame) WriteI420(w io.Writer) error {
	for i := range f.Planes {
		p := f.Planes[i]
		if p.Stride == p.Width {
			if _, err := w.Write(p.Data[:p.Width*p.Height]); err != nil {
				return err
			}
			continue
		}
		for y := 0; y < p.Height; y++ {
			if _, err := w.Write(p.Row(y)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := &Frame{Width: f.Width, Height: f.Height, PTS: f.PTS}
	for i, p := range f.Planes {
		data := make([]byte, len(p.Data))
		copy(data, p.Data)
		c.Planes[i] = Plane{Data: data, Stride: p.Stride, Width: p.Width, Height: p.Height}
	}
	return c
}

// SameGeometry reports whether o has the same picture and plane sizes.
func (f *Frame) SameGeometry(o *Frame) bool {
	return o != nil && f.Width == o.Width && f.Height == o.Height
}

// Equal reports whether the visible samples of both frames are identical.
func (f *Frame) Equal(o *Frame) bool {
	if !f.SameGeometry(o) {
		return false
	}
	for i := range f.Planes {
		a, b := f.Planes[i], o.Planes[i]
		for y := 0; y < a.Height; y++ {
			if string(a.Row(y)) != string(b.Row(y)) {
				return false
			}
		}
	}
	return true
}

// Image returns an image.YCbCr view sharing the frame's memory.
// U and V must share a stride, which holds for every frame built by this package.
func (f *Frame) Image() *image.YCbCr {
	return &image.YCbCr{
		Y:              f.Planes[PlaneY].Data,
		Cb:             f.Planes[PlaneU].Data,
		Cr:             f.Planes[PlaneV].Data,
		YStride:        f.Planes[PlaneY].Stride,
		CStride:        f.Planes[PlaneU].Stride,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, f.Width, f.Height),
	}
}

func fill(b []byte, v byte) {
	if len(b) == 0 {
		return
	}
	b[0] = v
	for n := 1; n < len(b); n *= 2 {
		copy(b[n:], b[:n])
	}
}

// FillRow sets every sample of row[from:to] to v.
func FillRow(row []byte, from, to int, v byte) {
	if from < 0 {
		from = 0
	}
	if to > len(row) {
		to = len(row)
	}
	if from >= to {
		return
	}
	fill(row[from:to], v)
}
