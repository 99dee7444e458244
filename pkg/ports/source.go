package ports

import (
	"context"

	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/pipeline"
)

// FrameSource yields decoded frames of one video stream in decode order.
// The sequence is finite and single-pass.
type FrameSource interface {
	// Info returns the geometry and timing of the selected stream.
	Info() pipeline.StreamInfo

	// Next returns the next decoded frame, or io.EOF once the stream has
	// ended. After io.EOF every further call returns io.EOF.
	Next(ctx context.Context) (*frame.Frame, error)

	// Err returns the fatal decode error that ended the stream early, if any.
	Err() error

	// Close releases the decoder and the container.
	Close() error
}

// FrameSourceOpener opens frame sources.
type FrameSourceOpener interface {
	// Open opens the container at path and selects its best video stream.
	Open(ctx context.Context, path string) (FrameSource, error)
}
