// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/roicompress/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveStreamJSON does nothing.
func (s *Sink) SaveStreamJSON(data []byte) error {
	return nil
}

// SaveTrackJSON does nothing.
func (s *Sink) SaveTrackJSON(data []byte) error {
	return nil
}

// SavePreview does nothing.
func (s *Sink) SavePreview(index int, img image.Image) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
