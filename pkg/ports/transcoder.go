package ports

import (
	"context"
)

// QualityOffsetOptions configures the static region quality offset variant.
type QualityOffsetOptions struct {
	// Region is an ffmpeg addroi region, e.g. "x=iw/2:y=0:w=iw/2:h=ih".
	Region  string
	QOffset float64 // -1.0 is best quality, 1.0 worst
	CRF     int
	Codec   string
}

// Transcoder runs whole-file transcodes in an external process.
// These are the baseline variants; the core pipeline does not depend on them.
type Transcoder interface {
	// CompressBackground re-encodes the video of in at a high CRF into out.
	CompressBackground(ctx context.Context, in, out string, crf int) error

	// QualityOffset encodes in into out with a static region quality offset.
	QualityOffset(ctx context.Context, in, out string, opts QualityOffsetOptions) error

	// CopyAudio muxes the video of video with the audio of audioSource
	// into out, without re-encoding either.
	CopyAudio(ctx context.Context, video, audioSource, out string) error
}
