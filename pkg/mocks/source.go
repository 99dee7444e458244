package mocks

import (
	"context"
	"fmt"
	"io"

	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource that replays Frames.
type FrameSource struct {
	StreamInfo pipeline.StreamInfo
	Frames     []*frame.Frame
	// FailAfter ends the stream with PumpErr after that many frames when > 0.
	FailAfter int
	PumpErr   error

	// Recorded calls for verification
	NextCalls   int
	CloseCalled bool

	pos      int
	finished bool
	err      error
}

// NewFrameSource creates a source of n frames filled with a luma ramp and
// neutral chroma. Frame i has PTS i.
func NewFrameSource(width, height, n int) *FrameSource {
	frames := make([]*frame.Frame, n)
	for i := range frames {
		f := frame.New(width, height)
		y := f.Planes[frame.PlaneY]
		for row := 0; row < y.Height; row++ {
			for col := 0; col < y.Width; col++ {
				y.Set(col, row, byte(16+(row*y.Width+col+i)%200))
			}
		}
		f.Planes[frame.PlaneU].Fill(90)
		f.Planes[frame.PlaneV].Fill(160)
		f.PTS = int64(i)
		frames[i] = f
	}
	return &FrameSource{
		StreamInfo: pipeline.StreamInfo{
			Codec:        "h264",
			Width:        width,
			Height:       height,
			PixelFormat:  pipeline.PixelFormatYUV420P,
			SampleAspect: pipeline.Rational{Num: 1, Den: 1},
			TimeBase:     pipeline.Rational{Num: 1, Den: 30},
			FrameRate:    pipeline.DefaultFrameRate,
			FrameCount:   n,
		},
		Frames: frames,
	}
}

func (m *FrameSource) Info() pipeline.StreamInfo {
	return m.StreamInfo
}

func (m *FrameSource) Next(ctx context.Context) (*frame.Frame, error) {
	m.NextCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.finished {
		return nil, io.EOF
	}
	if m.FailAfter > 0 && m.pos >= m.FailAfter {
		m.finished = true
		m.err = m.PumpErr
		if m.err == nil {
			m.err = fmt.Errorf("mock decoder failure: %w", pipeline.ErrCodec)
		}
		return nil, io.EOF
	}
	if m.pos >= len(m.Frames) {
		m.finished = true
		return nil, io.EOF
	}
	f := m.Frames[m.pos].Clone()
	m.pos++
	return f, nil
}

func (m *FrameSource) Err() error {
	return m.err
}

func (m *FrameSource) Close() error {
	m.CloseCalled = true
	return nil
}

var _ ports.FrameSource = (*FrameSource)(nil)

// FrameSourceOpener is a mock implementation of ports.FrameSourceOpener.
type FrameSourceOpener struct {
	// Sources maps paths to the source returned for them.
	Sources  map[string]*FrameSource
	OpenFunc func(ctx context.Context, path string) (ports.FrameSource, error)

	// Recorded calls for verification
	Opened []string
}

func (m *FrameSourceOpener) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	m.Opened = append(m.Opened, path)
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, path)
	}
	if src, ok := m.Sources[path]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("open %s: %w", path, pipeline.ErrIO)
}

var _ ports.FrameSourceOpener = (*FrameSourceOpener)(nil)
