// Package boxtrack loads per-frame bounding boxes and aligns them to decoded frames.
package boxtrack

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ideamans/go-l10n"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

// Box is an inclusive pixel rectangle.
type Box = pipeline.BoundingBox

// Track is the ordered, read-only sequence of boxes loaded from a track file.
// Record i belongs to decoded frame i.
type Track struct {
	boxes   []Box
	skipped int
}

// NewTrack creates a track from boxes. It fails with ErrNoBoxes when boxes is empty.
func NewTrack(boxes []Box) (*Track, error) {
	if len(boxes) == 0 {
		return nil, pipeline.ErrNoBoxes
	}
	b := make([]Box, len(boxes))
	copy(b, boxes)
	return &Track{boxes: b}, nil
}

// Len returns the number of records.
func (t *Track) Len() int {
	return len(t.boxes)
}

// At returns record i.
func (t *Track) At(i int) Box {
	return t.boxes[i]
}

// Boxes returns a copy of all records.
func (t *Track) Boxes() []Box {
	b := make([]Box, len(t.boxes))
	copy(b, t.boxes)
	return b
}

// Skipped returns the number of malformed lines dropped while parsing.
func (t *Track) Skipped() int {
	return t.skipped
}

// Parse reads one "x1,y1,x2,y2" record per line.
// Blank lines are ignored and malformed lines are logged and skipped.
func Parse(r io.Reader, log ports.Logger) (*Track, error) {
	var boxes []Box
	skipped := 0

	// ReadString has no line length limit, so an overlong line is one
	// more malformed record rather than a read failure.
	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("read track: %w: %w", pipeline.ErrIO, readErr)
		}

		if line := strings.TrimSpace(raw); line != "" {
			box, err := parseLine(line)
			if err != nil {
				skipped++
				if log != nil {
					log.Debug(l10n.F("Skipping line %d: %s", lineNo, err))
				}
			} else {
				boxes = append(boxes, box)
			}
		}

		if readErr == io.EOF {
			break
		}
	}

	if len(boxes) == 0 {
		return nil, fmt.Errorf("track has no valid record (%d malformed lines): %w", skipped, pipeline.ErrNoBoxes)
	}
	return &Track{boxes: boxes, skipped: skipped}, nil
}

// Load reads the track file at path.
// A file that cannot be read is reported as both ErrNoBoxes and ErrIO.
func Load(fs ports.FileSystem, path string, log ports.Logger) (*Track, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open track %s: %w: %w: %w", path, pipeline.ErrNoBoxes, pipeline.ErrIO, err)
	}
	t, err := Parse(bytes.NewReader(data), log)
	if err != nil {
		return nil, fmt.Errorf("load track %s: %w", path, err)
	}
	if log != nil {
		log.Debug(l10n.F("Loaded %d boxes from %s", t.Len(), path))
	}
	return t, nil
}

// maxQuotedField bounds how much of a bad field is quoted in the error.
const maxQuotedField = 32

func parseLine(line string) (Box, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 4 {
		return Box{}, fmt.Errorf("%w: want 4 fields, got %d", pipeline.ErrMalformedBoxLine, len(fields))
	}
	var v [4]int
	for i, f := range fields {
		f = strings.TrimSpace(f)
		n, err := strconv.Atoi(f)
		if err != nil {
			if len(f) > maxQuotedField {
				f = f[:maxQuotedField] + "..."
			}
			return Box{}, fmt.Errorf("%w: field %d %q is not an integer", pipeline.ErrMalformedBoxLine, i+1, f)
		}
		v[i] = n
	}
	return Box{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}
