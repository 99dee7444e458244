// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/roicompress/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.PreviewRenderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.PreviewRenderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveStreamJSON saves the probed input stream as JSON.
func (s *Sink) SaveStreamJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "stream.json")
	return s.fs.WriteFile(path, data)
}

// SaveTrackJSON saves the loaded box track as JSON.
func (s *Sink) SaveTrackJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "track.json")
	return s.fs.WriteFile(path, data)
}

// SavePreview saves a rendered preview frame as PNG.
func (s *Sink) SavePreview(index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodePNG(img)
	if err != nil {
		return fmt.Errorf("encode preview frame: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%05d.png", index))
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
