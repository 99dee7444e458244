// Package mocks provides hand-written test doubles for the ports.
//
// FrameSource replays prepared I420 frames, VideoEncoder turns every frame
// into one decodable H.264 access unit, and Muxer records packets in memory,
// so the orchestrator and encode sink can be tested without ffmpeg.
package mocks
