package h264encoder

import "errors"

var (
	// ErrNotInitialized is returned when encoder methods are called before Begin.
	ErrNotInitialized = errors.New("h264encoder: encoder not initialized")

	// ErrEncodingFailed is returned when the encoder process fails.
	ErrEncodingFailed = errors.New("h264encoder: encoding failed")

	// ErrUnsupportedCodec is returned when the configured codec does not produce H.264.
	ErrUnsupportedCodec = errors.New("h264encoder: codec does not produce H.264")

	// ErrFrameGeometry is returned when a frame does not match the configured size.
	ErrFrameGeometry = errors.New("h264encoder: frame size does not match configuration")

	// ErrEOFSent is returned when a frame is sent after SendEOF.
	ErrEOFSent = errors.New("h264encoder: frame sent after end of stream")
)
