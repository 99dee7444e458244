// Package muxers selects an output muxer from the output path.
package muxers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/roicompress/pkg/adapters/annexbmuxer"
	"github.com/user/roicompress/pkg/adapters/mp4muxer"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

// ErrUnsupportedContainer is returned for output extensions without a muxer.
var ErrUnsupportedContainer = errors.New("muxers: unsupported output container")

// Container kinds.
const (
	KindMP4    = "mp4"
	KindAnnexB = "h264"
)

var extensions = map[string]string{
	".mp4":  KindMP4,
	".m4v":  KindMP4,
	".mov":  KindMP4,
	".h264": KindAnnexB,
	".264":  KindAnnexB,
}

// Kind returns the container kind for path.
func Kind(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	kind, ok := extensions[ext]
	if !ok {
		return "", fmt.Errorf("%w %q: %w", ErrUnsupportedContainer, ext, pipeline.ErrIO)
	}
	return kind, nil
}

// SupportsAudio reports whether the container at path can carry an audio track.
func SupportsAudio(path string) bool {
	kind, err := Kind(path)
	return err == nil && kind == KindMP4
}

// ForPath creates the muxer matching the extension of path.
func ForPath(path string) (ports.Muxer, error) {
	kind, err := Kind(path)
	if err != nil {
		return nil, err
	}
	if kind == KindAnnexB {
		m, err := annexbmuxer.Create(path)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	m, err := mp4muxer.Create(path)
	if err != nil {
		return nil, err
	}
	return m, nil
}

var _ ports.MuxerFactory = ForPath
