package ports

import (
	"github.com/user/roicompress/pkg/pipeline"
)

// Muxer writes encoded packets into an output container.
type Muxer interface {
	// WriteHeader configures the single video stream.
	WriteHeader(cfg pipeline.StreamConfig) error

	// TimeBase returns the stream time base chosen by WriteHeader.
	// Packets passed to WritePacket must be expressed in it.
	TimeBase() pipeline.Rational

	// WritePacket interleaves one packet into the container.
	WritePacket(pkt pipeline.Packet) error

	// WriteTrailer finalizes the container.
	WriteTrailer() error

	// Close releases the output. It is safe to call after WriteTrailer.
	Close() error
}

// MuxerFactory creates a muxer writing to path.
type MuxerFactory func(path string) (Muxer, error)
