package ports

import (
	"errors"

	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/pipeline"
)

// ErrAgain is returned by VideoEncoder.Receive when no packet is ready yet.
var ErrAgain = errors.New("encoder: no packet available")

// VideoEncoder is a two-way pump: frames in, packets out.
type VideoEncoder interface {
	// Begin configures the encoder. It must be called before Send.
	Begin(cfg pipeline.EncoderConfig) error

	// Send submits a frame. Its PTS is in the encoder time base.
	Send(f *frame.Frame) error

	// SendEOF signals that no more frames will be sent.
	SendEOF() error

	// Receive returns the next encoded packet. It returns ErrAgain when
	// none is ready, and io.EOF once SendEOF was called and every packet
	// has been returned. Receive blocks only after SendEOF.
	Receive() (pipeline.Packet, error)

	// Close releases encoder resources. It is safe to call more than once.
	Close() error
}
