package mp4muxer

import "errors"

var (
	// ErrNotKeyframe is returned when the first packet is not a keyframe.
	ErrNotKeyframe = errors.New("mp4muxer: first packet must be a keyframe")

	// ErrNoParameterSets is returned when the first keyframe carries no SPS or PPS.
	ErrNoParameterSets = errors.New("mp4muxer: SPS/PPS not found in first keyframe")

	// ErrNoFrames is returned when the trailer is written without any packet.
	ErrNoFrames = errors.New("mp4muxer: no frames to mux")

	// ErrState is returned when methods are called out of order.
	ErrState = errors.New("mp4muxer: invalid call order")
)
