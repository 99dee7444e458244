package pipeline

import "errors"

// Error kinds. Every error surfaced by the pipeline wraps at least one of
// these so that callers can classify it with errors.Is.
var (
	// ErrIO is returned when a file cannot be opened, read or written.
	ErrIO = errors.New("io error")

	// ErrStreamNotFound is returned when the input has no video stream.
	ErrStreamNotFound = errors.New("video stream not found")

	// ErrCodec is returned when a decoder or encoder cannot be constructed
	// or fails while pumping.
	ErrCodec = errors.New("codec error")

	// ErrNoBoxes is returned when the track file yields no valid record.
	ErrNoBoxes = errors.New("no bounding boxes")

	// ErrMalformedBoxLine marks a single unparsable track line. It is
	// logged and skipped, never returned from a run.
	ErrMalformedBoxLine = errors.New("malformed bounding box line")

	// ErrDimensionMismatch marks a track whose length differs from the
	// decoded frame count. It is non-fatal.
	ErrDimensionMismatch = errors.New("track length does not match frame count")
)

// Kind names, as reported by KindOf.
const (
	KindIO                = "IoError"
	KindStreamNotFound    = "StreamNotFound"
	KindCodec             = "CodecError"
	KindNoBoxes           = "NoBoxes"
	KindMalformedBoxLine  = "MalformedBoxLine"
	KindDimensionMismatch = "DimensionMismatch"
)

// KindOf returns the kind name of err, or "" when err carries no kind.
// NoBoxes takes precedence over IoError so that a missing track file is
// reported as NoBoxes.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoBoxes):
		return KindNoBoxes
	case errors.Is(err, ErrStreamNotFound):
		return KindStreamNotFound
	case errors.Is(err, ErrCodec):
		return KindCodec
	case errors.Is(err, ErrIO):
		return KindIO
	case errors.Is(err, ErrMalformedBoxLine):
		return KindMalformedBoxLine
	case errors.Is(err, ErrDimensionMismatch):
		return KindDimensionMismatch
	default:
		return ""
	}
}
