// Package orchestrator drives the decode, composite and encode pipeline.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/ideamans/go-l10n"

	"github.com/user/roicompress/pkg/adapters/muxers"
	"github.com/user/roicompress/pkg/boxtrack"
	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
	"github.com/user/roicompress/pkg/stages/encode"
)

// BackgroundMode selects what replaces the pixels outside the box.
type BackgroundMode string

const (
	// BackgroundBlack paints Y=0, U=V=128 outside the box.
	BackgroundBlack BackgroundMode = "black"
	// BackgroundCompressed copies the co-located samples of a heavily
	// compressed re-encode of the input.
	BackgroundCompressed BackgroundMode = "compressed"
)

// Defaults.
const (
	DefaultBackgroundPath = "roi_background.mp4"
	DefaultBackgroundCRF  = 51
	DefaultProgressEvery  = 30
)

// Config contains all configuration for the orchestrator.
type Config struct {
	// Input / Output
	InputPath  string
	OutputPath string
	BoxesPath  string

	// Encoding
	Encoder encode.Options

	// Composition
	Chroma         pipeline.ChromaPolicy // reported only; the stage is injected
	Background     BackgroundMode
	BackgroundCRF  int
	BackgroundPath string

	// Audio copies the input audio into the output when both allow it.
	Audio bool

	// Debug
	PreviewEvery  int // 0 disables previews
	ProgressEvery int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Chroma:         pipeline.ChromaCosited,
		Background:     BackgroundBlack,
		BackgroundCRF:  DefaultBackgroundCRF,
		BackgroundPath: DefaultBackgroundPath,
		Audio:          true,
		ProgressEvery:  DefaultProgressEvery,
	}
}

// EncoderFactory creates the video encoder for one run.
type EncoderFactory func(ctx context.Context) ports.VideoEncoder

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	opener         ports.FrameSourceOpener
	compositeStage pipeline.Stage[pipeline.CompositeInput, *frame.Frame]
	newEncoder     EncoderFactory
	newMuxer       ports.MuxerFactory
	transcoder     ports.Transcoder
	fs             ports.FileSystem
	sink           ports.DebugSink
	renderer       ports.PreviewRenderer
	logger         ports.Logger
}

// New creates a new Orchestrator. renderer may be nil when previews are
// never requested.
func New(
	opener ports.FrameSourceOpener,
	compositeStage pipeline.Stage[pipeline.CompositeInput, *frame.Frame],
	newEncoder EncoderFactory,
	newMuxer ports.MuxerFactory,
	transcoder ports.Transcoder,
	fs ports.FileSystem,
	sink ports.DebugSink,
	renderer ports.PreviewRenderer,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		opener:         opener,
		compositeStage: compositeStage,
		newEncoder:     newEncoder,
		newMuxer:       newMuxer,
		transcoder:     transcoder,
		fs:             fs,
		sink:           sink,
		renderer:       renderer,
		logger:         logger,
	}
}

// TempVideoPath returns the video-only intermediate used when audio is
// copied into output: "out.mp4" becomes "out.video.mp4".
func TempVideoPath(output string) string {
	ext := filepath.Ext(output)
	return strings.TrimSuffix(output, ext) + ".video" + ext
}

// Run executes the complete pipeline.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	start := time.Now()
	result := RunResult{
		InputPath:  config.InputPath,
		OutputPath: config.OutputPath,
		Chroma:     config.Chroma,
		Background: config.Background,
	}
	o.logger.Info(l10n.T("Starting pipeline"))

	// 1. Frame source
	src, err := o.opener.Open(ctx, config.InputPath)
	if err != nil {
		o.logger.Error(l10n.F("Failed to open input: %s", err))
		return result, err
	}
	defer src.Close()

	info := src.Info()
	result.Stream = info
	o.logger.Info(l10n.F("Input %dx%d %s at %s fps", info.Width, info.Height, info.PixelFormat, info.FrameRate))
	if info.PixelFormat != "" && info.PixelFormat != pipeline.PixelFormatYUV420P {
		o.logger.Warn(l10n.F("Input pixel format %s is converted to yuv420p", info.PixelFormat))
	}
	o.saveJSON(o.sink.SaveStreamJSON, info)

	// 2. Box track, before any output exists
	track, err := boxtrack.Load(o.fs, config.BoxesPath, o.logger.WithComponent("boxtrack"))
	if err != nil {
		o.logger.Error(l10n.F("Failed to load boxes: %s", err))
		return result, err
	}
	result.TrackLength = track.Len()
	result.SkippedLines = track.Skipped()
	o.saveJSON(o.sink.SaveTrackJSON, track.Boxes())
	aligner := boxtrack.NewAligner(track)

	// 3. Compressed background
	var bgSrc ports.FrameSource
	if config.Background == BackgroundCompressed {
		bgSrc, err = o.openBackground(ctx, config, info)
		if bgSrc != nil {
			defer bgSrc.Close()
		}
		if err != nil {
			return result, err
		}
	}

	// 4. Frame sink
	copyAudio := o.audioEnabled(config, info)
	videoPath := config.OutputPath
	if copyAudio {
		videoPath = TempVideoPath(config.OutputPath)
		defer o.removeTemp(videoPath)
	}

	encCfg := encode.ConfigFromStream(info, config.Encoder)
	result.Encoder = encCfg
	mux, err := o.newMuxer(videoPath)
	if err != nil {
		o.logger.Error(l10n.F("Failed to create output: %s", err))
		return result, err
	}
	sink := encode.NewSink(o.newEncoder(ctx), mux, o.logger)
	defer func() {
		if err := sink.Release(); err != nil {
			o.logger.Debug(l10n.F("Releasing encoder: %s", err))
		}
	}()
	if err := sink.Open(encCfg); err != nil {
		o.logger.Error(l10n.F("Failed to start encoder: %s", err))
		return result, err
	}
	o.logger.Info(l10n.F("Encoding %s at %s fps", encCfg.Codec, encCfg.FrameRate))

	// 5. Per-frame loop
	progressEvery := config.ProgressEvery
	if progressEvery <= 0 {
		progressEvery = DefaultProgressEvery
	}
	var bgDone bool
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			o.logger.Warn(l10n.T("Interrupted, shutting down..."))
			return result, err
		}

		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("decode frame %d: %w", i, err)
		}
		result.FramesDecoded++

		if track.At(min(i, track.Len()-1)).Empty() {
			result.EmptyBoxes++
		}
		box, reused := aligner.At(i, f.Width, f.Height)
		if reused {
			result.ReusedBoxes++
		}

		var bg *frame.Frame
		if bgSrc != nil && !bgDone {
			bg, err = bgSrc.Next(ctx)
			if errors.Is(err, io.EOF) {
				bgDone = true
				bg = nil
				o.logger.Warn(l10n.F("Background ended at frame %d, using black", i))
			} else if err != nil {
				return result, fmt.Errorf("decode background frame %d: %w", i, err)
			}
		}

		out, err := o.compositeStage.Execute(ctx, pipeline.CompositeInput{Frame: f, Box: box, Background: bg})
		if err != nil {
			return result, fmt.Errorf("composite frame %d: %w", i, err)
		}
		out.PTS = int64(i)

		if err := sink.WriteFrame(ctx, out); err != nil {
			o.logger.Error(l10n.F("Failed to encode video: %s", err))
			return result, err
		}

		if config.PreviewEvery > 0 && i%config.PreviewEvery == 0 {
			o.savePreview(out, box, i)
		}
		if (i+1)%progressEvery == 0 {
			o.logProgress(i+1, info.FrameCount)
		}
	}

	// 6. End of stream
	if err := src.Err(); err != nil {
		o.logger.Error(l10n.F("Decoder failed: %s", err))
		return result, fmt.Errorf("decode: %w", err)
	}
	if bgSrc != nil {
		if err := bgSrc.Err(); err != nil {
			return result, fmt.Errorf("decode background: %w", err)
		}
	}
	if err := sink.Close(ctx); err != nil {
		o.logger.Error(l10n.F("Failed to encode video: %s", err))
		return result, err
	}
	if err := sink.Release(); err != nil {
		return result, fmt.Errorf("close output: %w: %w", pipeline.ErrIO, err)
	}
	stats := sink.Stats()
	result.FramesWritten = stats.FramesWritten
	result.PacketsWritten = stats.PacketsWritten
	result.Keyframes = stats.Keyframes

	if err := aligner.Mismatch(result.FramesDecoded); err != nil {
		result.DimensionMismatch = true
		o.logger.Warn(l10n.F("Box track has %d records for %d frames", track.Len(), result.FramesDecoded))
	}

	// 7. Audio
	if copyAudio {
		o.logger.Info(l10n.T("Copying audio"))
		if err := o.transcoder.CopyAudio(ctx, videoPath, config.InputPath, config.OutputPath); err != nil {
			o.logger.Error(l10n.F("Failed to copy audio: %s", err))
			return result, err
		}
		result.AudioCopied = true
	}

	if size, err := o.fs.Size(config.OutputPath); err == nil {
		result.OutputSize = size
	} else {
		o.logger.Debug(l10n.F("Cannot stat output: %s", err))
	}
	result.Elapsed = time.Since(start)

	o.logger.Info(l10n.F("Wrote %d frames to %s", result.FramesWritten, config.OutputPath))
	o.logger.Info(l10n.T("Pipeline completed successfully"))
	return result, nil
}

// openBackground creates the compressed background intermediate and opens
// a source over it. Closing the returned source removes the intermediate.
func (o *Orchestrator) openBackground(ctx context.Context, config Config, info pipeline.StreamInfo) (ports.FrameSource, error) {
	path := config.BackgroundPath
	if path == "" {
		path = DefaultBackgroundPath
	}
	crf := config.BackgroundCRF
	if crf <= 0 {
		crf = DefaultBackgroundCRF
	}

	o.logger.Info(l10n.F("Compressing background at CRF %d", crf))
	if err := o.transcoder.CompressBackground(ctx, config.InputPath, path, crf); err != nil {
		o.removeTemp(path)
		o.logger.Error(l10n.F("Failed to compress background: %s", err))
		return nil, err
	}

	bg, err := o.opener.Open(ctx, path)
	if err != nil {
		o.removeTemp(path)
		return nil, fmt.Errorf("open background: %w", err)
	}
	bgInfo := bg.Info()
	if bgInfo.Width != info.Width || bgInfo.Height != info.Height {
		bg.Close()
		o.removeTemp(path)
		return nil, fmt.Errorf("background is %dx%d, input is %dx%d: %w",
			bgInfo.Width, bgInfo.Height, info.Width, info.Height, pipeline.ErrCodec)
	}
	return &tempSource{FrameSource: bg, cleanup: func() { o.removeTemp(path) }}, nil
}

// tempSource removes its backing file on Close.
type tempSource struct {
	ports.FrameSource
	cleanup func()
}

func (s *tempSource) Close() error {
	err := s.FrameSource.Close()
	s.cleanup()
	return err
}

func (o *Orchestrator) audioEnabled(config Config, info pipeline.StreamInfo) bool {
	if !config.Audio || !info.HasAudio || o.transcoder == nil {
		return false
	}
	if !muxers.SupportsAudio(config.OutputPath) {
		o.logger.Warn(l10n.F("%s cannot carry audio, audio is dropped", filepath.Ext(config.OutputPath)))
		return false
	}
	return true
}

func (o *Orchestrator) removeTemp(path string) {
	if err := o.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		o.logger.Warn(l10n.F("Failed to remove %s: %s", path, err))
	}
}

func (o *Orchestrator) logProgress(done, total int) {
	if total > 0 {
		o.logger.Info(l10n.F("Processed %d/%d frames", done, total))
		return
	}
	o.logger.Info(l10n.F("Processed %d frames", done))
}

func (o *Orchestrator) saveJSON(save func([]byte) error, v any) {
	if !o.sink.Enabled() {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err == nil {
		err = save(data)
	}
	if err != nil {
		o.logger.Warn(l10n.F("Failed to save debug output: %s", err))
	}
}

func (o *Orchestrator) savePreview(f *frame.Frame, box pipeline.BoundingBox, index int) {
	if !o.sink.Enabled() || o.renderer == nil {
		return
	}
	if err := o.sink.SavePreview(index, o.renderer.Render(f, box, index)); err != nil {
		o.logger.Warn(l10n.F("Failed to save debug output: %s", err))
	}
}

// RunResult contains the results of a pipeline run for summary generation.
type RunResult struct {
	InputPath  string
	OutputPath string

	// Stream and encoder
	Stream  pipeline.StreamInfo
	Encoder pipeline.EncoderConfig

	// Composition
	Chroma     pipeline.ChromaPolicy
	Background BackgroundMode

	// Counters
	FramesDecoded  int
	FramesWritten  int
	PacketsWritten int
	Keyframes      int

	// Track
	TrackLength       int
	SkippedLines      int
	ReusedBoxes       int // frames past the end of the track
	EmptyBoxes        int // records that were empty before clamping
	DimensionMismatch bool

	AudioCopied bool
	OutputSize  int64
	Elapsed     time.Duration
}
