package boxtrack

import (
	"fmt"

	"github.com/user/roicompress/pkg/pipeline"
)

// Aligner maps decoded frame indices onto track records.
// Frames past the end of the track reuse the last record.
type Aligner struct {
	track *Track
}

// NewAligner creates an aligner over track.
func NewAligner(track *Track) *Aligner {
	return &Aligner{track: track}
}

// At returns the box for frame i clamped to a width x height frame.
// reused is true when i is beyond the last record.
func (a *Aligner) At(i, width, height int) (Box, bool) {
	n := a.track.Len()
	reused := i >= n
	if reused {
		i = n - 1
	}
	return a.track.At(i).Clamp(width, height), reused
}

// Mismatch returns an ErrDimensionMismatch error when the track length
// differs from the number of decoded frames, and nil otherwise.
func (a *Aligner) Mismatch(frames int) error {
	if n := a.track.Len(); n != frames {
		return fmt.Errorf("%w: %d boxes for %d frames", pipeline.ErrDimensionMismatch, n, frames)
	}
	return nil
}
