package mocks

import (
	"image"
	"sync"

	"github.com/user/roicompress/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	StreamJSON []byte
	TrackJSON  []byte
	Previews   map[int]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:  enabled,
		Previews: make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveStreamJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StreamJSON = data
	return nil
}

func (m *DebugSink) SaveTrackJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrackJSON = data
	return nil
}

func (m *DebugSink) SavePreview(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Previews[index] = img
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool                                { return false }
func (m *NullSink) SaveStreamJSON(data []byte) error             { return nil }
func (m *NullSink) SaveTrackJSON(data []byte) error              { return nil }
func (m *NullSink) SavePreview(index int, img image.Image) error { return nil }

var _ ports.DebugSink = (*NullSink)(nil)
