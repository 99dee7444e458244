package main

import (
	"github.com/user/roicompress/pkg/orchestrator"
	"github.com/user/roicompress/pkg/summarizer"
)

// buildSummary converts a run result into a report.
func buildSummary(r orchestrator.RunResult, cfg orchestrator.Config) *summarizer.Summary {
	return summarizer.NewBuilder().
		WithInput(summarizer.InputInfo{
			Path:         r.InputPath,
			Codec:        r.Stream.Codec,
			Width:        r.Stream.Width,
			Height:       r.Stream.Height,
			PixelFormat:  r.Stream.PixelFormat,
			FrameRate:    r.Stream.FrameRate.String(),
			SampleAspect: r.Stream.SampleAspect.String(),
			FrameCount:   r.Stream.FrameCount,
			HasAudio:     r.Stream.HasAudio,
		}).
		WithTrack(summarizer.TrackInfo{
			Path:     cfg.BoxesPath,
			Records:  r.TrackLength,
			Skipped:  r.SkippedLines,
			Reused:   r.ReusedBoxes,
			Empty:    r.EmptyBoxes,
			Mismatch: r.DimensionMismatch,
		}).
		WithSettings(summarizer.Settings{
			Codec:         r.Encoder.Codec,
			Preset:        r.Encoder.Preset,
			Profile:       r.Encoder.Profile,
			CRF:           r.Encoder.CRF,
			BitRate:       r.Encoder.BitRate,
			GOPSize:       r.Encoder.GOPSize,
			Chroma:        string(r.Chroma),
			Background:    string(r.Background),
			BackgroundCRF: cfg.BackgroundCRF,
		}).
		WithOutput(summarizer.OutputInfo{
			Path:           r.OutputPath,
			FrameRate:      r.Encoder.FrameRate.String(),
			FramesDecoded:  r.FramesDecoded,
			FramesWritten:  r.FramesWritten,
			PacketsWritten: r.PacketsWritten,
			Keyframes:      r.Keyframes,
			FileSize:       r.OutputSize,
			AudioCopied:    r.AudioCopied,
		}).
		WithElapsed(r.Elapsed).
		WithMemory().
		Build()
}
