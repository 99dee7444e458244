package pipeline

import (
	"github.com/user/roicompress/pkg/frame"
)

// PixelFormatYUV420P is the canonical working format of the compositor.
const PixelFormatYUV420P = "yuv420p"

// =============================================================================
// Common Types
// =============================================================================

// BoundingBox is an inclusive pixel rectangle (X1, Y1)-(X2, Y2).
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Empty reports whether the box contains no pixel.
func (b BoundingBox) Empty() bool {
	return b.X2 < b.X1 || b.Y2 < b.Y1
}

// Clamp clamps the box to a width x height frame:
// x1 = max(0, min(W-1, x1)), x2 = max(x1, min(W-1, x2)), same for y.
func (b BoundingBox) Clamp(width, height int) BoundingBox {
	x1 := max(0, min(width-1, b.X1))
	x2 := max(x1, min(width-1, b.X2))
	y1 := max(0, min(height-1, b.Y1))
	y2 := max(y1, min(height-1, b.Y2))
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Covers reports whether the box spans the whole width x height frame.
func (b BoundingBox) Covers(width, height int) bool {
	return b.X1 <= 0 && b.Y1 <= 0 && b.X2 >= width-1 && b.Y2 >= height-1
}

// Contains reports whether pixel (x, y) lies inside the box.
func (b BoundingBox) Contains(x, y int) bool {
	return x >= b.X1 && x <= b.X2 && y >= b.Y1 && y <= b.Y2
}

// =============================================================================
// Source Types
// =============================================================================

// StreamInfo describes the selected video stream of an input container.
type StreamInfo struct {
	Index        int      `json:"index"`
	Codec        string   `json:"codec"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	PixelFormat  string   `json:"pixel_format"`
	SampleAspect Rational `json:"sample_aspect"`
	TimeBase     Rational `json:"time_base"`
	FrameRate    Rational `json:"frame_rate"`
	FrameCount   int      `json:"frame_count"` // estimate, 0 when unknown
	HasAudio     bool     `json:"has_audio"`
}

// =============================================================================
// Composite Stage Types
// =============================================================================

// ChromaPolicy selects how a luma box maps onto the subsampled chroma planes.
type ChromaPolicy string

const (
	// ChromaCosited preserves a chroma sample iff its co-sited luma sample
	// (2cx, 2cy) lies inside the box.
	ChromaCosited ChromaPolicy = "cosited"
	// ChromaOutward preserves every chroma sample that overlaps the box.
	ChromaOutward ChromaPolicy = "outward"
)

// CompositeInput contains one frame to composite.
type CompositeInput struct {
	Frame *frame.Frame
	Box   BoundingBox // clamped to the frame
	// Background supplies the samples outside the box. When nil the
	// constant background (Y=0, U=V=128) is used.
	Background *frame.Frame
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncoderConfig mirrors the source geometry for one output stream.
type EncoderConfig struct {
	Width        int
	Height       int
	PixelFormat  string
	SampleAspect Rational
	FrameRate    Rational
	TimeBase     Rational // 1 / FrameRate
	MaxBFrames   int      // always 0, keeps DTS == PTS
	GlobalHeader bool     // parameter sets carried as container extradata
	BitRate      int      // bits per second, ignored when CRF > 0
	CRF          int      // 0 = unset
	Codec        string
	Preset       string
	Profile      string
	GOPSize      int // 0 = encoder default
}

// DefaultBitRate is the target bit rate when neither CRF nor a bit rate is given.
const DefaultBitRate = 1_000_000

// StreamConfig is what a muxer needs to describe the output stream.
type StreamConfig struct {
	Width        int
	Height       int
	SampleAspect Rational
	FrameRate    Rational
	TimeBase     Rational // encoder time base
	Codec        string
	GlobalHeader bool
}

// StreamConfig derives the muxer configuration from the encoder configuration.
func (c EncoderConfig) StreamConfig() StreamConfig {
	return StreamConfig{
		Width:        c.Width,
		Height:       c.Height,
		SampleAspect: c.SampleAspect,
		FrameRate:    c.FrameRate,
		TimeBase:     c.TimeBase,
		Codec:        c.Codec,
		GlobalHeader: c.GlobalHeader,
	}
}

// Packet is one encoded access unit.
type Packet struct {
	Data     []byte // Annex B byte stream
	PTS      int64
	DTS      int64
	Duration int64
	Keyframe bool
}
