// Package integration contains integration tests for the roicompress pipeline.
package integration

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/user/roicompress/pkg/adapters/ffmpegbin"
	"github.com/user/roicompress/pkg/adapters/ffmpegsource"
	"github.com/user/roicompress/pkg/adapters/ffmpegtranscoder"
	"github.com/user/roicompress/pkg/adapters/ggrenderer"
	"github.com/user/roicompress/pkg/adapters/h264encoder"
	"github.com/user/roicompress/pkg/adapters/logger"
	"github.com/user/roicompress/pkg/adapters/mp4muxer"
	"github.com/user/roicompress/pkg/adapters/mp4probe"
	"github.com/user/roicompress/pkg/adapters/muxers"
	"github.com/user/roicompress/pkg/adapters/nullsink"
	"github.com/user/roicompress/pkg/adapters/osfilesystem"
	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/mocks"
	"github.com/user/roicompress/pkg/orchestrator"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
	"github.com/user/roicompress/pkg/stages/composite"
)

// writeBoxes writes a box file into dir and returns its path.
func writeBoxes(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "boxes.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// newMockOrchestrator decodes and encodes with mocks but muxes for real.
func newMockOrchestrator(src *mocks.FrameSource, transcoder ports.Transcoder) *orchestrator.Orchestrator {
	log := logger.NewNoop()
	return orchestrator.New(
		&mocks.FrameSourceOpener{OpenFunc: func(ctx context.Context, path string) (ports.FrameSource, error) {
			return src, nil
		}},
		composite.NewStage(pipeline.ChromaCosited, log),
		func(ctx context.Context) ports.VideoEncoder { return &mocks.VideoEncoder{GOPSize: 5} },
		muxers.ForPath,
		transcoder,
		osfilesystem.New(),
		nullsink.New(),
		ggrenderer.New(),
		log,
	)
}

func TestPipeline_MP4Output(t *testing.T) {
	dir := t.TempDir()
	cfg := orchestrator.DefaultConfig()
	cfg.InputPath = filepath.Join(dir, "in.mp4")
	cfg.OutputPath = filepath.Join(dir, "out.mp4")
	cfg.BoxesPath = writeBoxes(t, dir, "0,0,15,15\n8,8,31,31\n")

	transcoder := &mocks.Transcoder{}
	result, err := newMockOrchestrator(mocks.NewFrameSource(32, 32, 12), transcoder).
		Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	report, err := mp4probe.InspectFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("inspect output: %v", err)
	}
	if len(report.Samples) != 12 {
		t.Errorf("expected 12 samples, got %d", len(report.Samples))
	}
	if report.Timescale != mp4muxer.Timescale(pipeline.DefaultFrameRate) {
		t.Errorf("unexpected timescale %d", report.Timescale)
	}
	if report.Codec == "" || report.SampleEntry == "" {
		t.Errorf("expected codec information, got %+v", report)
	}

	sync := 0
	for i, s := range report.Samples {
		if s.Sync {
			sync++
		}
		if i > 0 && s.DecodeTime <= report.Samples[i-1].DecodeTime {
			t.Errorf("sample %d: decode time %d not increasing", i, s.DecodeTime)
		}
	}
	if sync != result.Keyframes || sync != 3 {
		t.Errorf("expected 3 sync samples, got %d (result %d)", sync, result.Keyframes)
	}
	if result.OutputSize == 0 {
		t.Error("expected output size to be recorded")
	}
	if len(transcoder.AudioCalls) != 0 {
		t.Error("expected no audio copy for a silent source")
	}
}

func TestPipeline_AnnexBOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := orchestrator.DefaultConfig()
	cfg.InputPath = filepath.Join(dir, "in.mp4")
	cfg.OutputPath = filepath.Join(dir, "out.h264")
	cfg.BoxesPath = writeBoxes(t, dir, "0,0,15,15\n")

	src := mocks.NewFrameSource(32, 32, 4)
	src.StreamInfo.HasAudio = true
	transcoder := &mocks.Transcoder{}

	result, err := newMockOrchestrator(src, transcoder).Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte{0, 0, 0, 1}) {
		t.Errorf("expected Annex B start code, got % x", data[:min(len(data), 8)])
	}
	if result.AudioCopied || len(transcoder.AudioCalls) != 0 {
		t.Error("elementary stream output cannot carry audio")
	}
}

func TestPipeline_MissingBoxesLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	cfg := orchestrator.DefaultConfig()
	cfg.InputPath = filepath.Join(dir, "in.mp4")
	cfg.OutputPath = filepath.Join(dir, "out.mp4")
	cfg.BoxesPath = filepath.Join(dir, "missing.txt")

	_, err := newMockOrchestrator(mocks.NewFrameSource(32, 32, 4), &mocks.Transcoder{}).
		Run(context.Background(), cfg)
	if pipeline.KindOf(err) != pipeline.KindNoBoxes {
		t.Fatalf("expected NoBoxes, got %v", err)
	}
	if _, err := os.Stat(cfg.OutputPath); !os.IsNotExist(err) {
		t.Error("expected no output file")
	}
}

// generateClip renders a small test clip with audio and returns its path.
func generateClip(t *testing.T, dir string, frames int) string {
	t.Helper()
	if !ffmpegbin.Available() {
		t.Skip("ffmpeg not available")
	}
	ffmpegPath, _ := ffmpegbin.Find(ffmpegbin.FFmpeg)

	path := filepath.Join(dir, "clip.mp4")
	cmd := exec.Command(ffmpegPath, "-hide_banner", "-loglevel", "error", "-y",
		"-f", "lavfi", "-i", "testsrc=size=64x48:rate=10",
		"-f", "lavfi", "-i", "sine=frequency=440:sample_rate=48000",
		"-frames:v", strconv.Itoa(frames), "-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-c:a", "aac", "-shortest", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("cannot generate test clip: %v\n%s", err, out)
	}
	return path
}

// decodeAll decodes every frame of path with the ffmpeg source.
func decodeAll(t *testing.T, path string) []*frame.Frame {
	t.Helper()
	ctx := context.Background()
	src, err := ffmpegsource.NewOpener(logger.NewNoop()).Open(ctx, path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer src.Close()

	var frames []*frame.Frame
	for {
		f, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		frames = append(frames, f)
	}
	if err := src.Err(); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return frames
}

func TestPipeline_FFmpeg(t *testing.T) {
	dir := t.TempDir()
	input := generateClip(t, dir, 20)

	log := logger.NewNoop()
	orch := orchestrator.New(
		ffmpegsource.NewOpener(log),
		composite.NewStage(pipeline.ChromaCosited, log),
		func(ctx context.Context) ports.VideoEncoder { return h264encoder.New(ctx, log) },
		muxers.ForPath,
		ffmpegtranscoder.New(log),
		osfilesystem.New(),
		nullsink.New(),
		ggrenderer.New(),
		log,
	)

	cfg := orchestrator.DefaultConfig()
	cfg.InputPath = input
	cfg.OutputPath = filepath.Join(dir, "out.mp4")
	cfg.BoxesPath = writeBoxes(t, dir, "16,8,47,39\n")
	cfg.Encoder.CRF = 18

	result, err := orch.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.FramesWritten != 20 {
		t.Errorf("expected 20 frames written, got %d", result.FramesWritten)
	}
	if !result.AudioCopied {
		t.Error("expected audio to be copied")
	}

	report, err := mp4probe.InspectFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("inspect output: %v", err)
	}
	if report.Width != 64 || report.Height != 48 {
		t.Errorf("expected 64x48, got %dx%d", report.Width, report.Height)
	}
	if len(report.Samples) != 20 {
		t.Errorf("expected 20 samples, got %d", len(report.Samples))
	}
	if !report.HasAudio {
		t.Error("expected an audio track")
	}
	if _, err := os.Stat(orchestrator.TempVideoPath(cfg.OutputPath)); !os.IsNotExist(err) {
		t.Error("expected temporary video to be removed")
	}

	// Outside the box the output is close to black.
	out := decodeAll(t, cfg.OutputPath)
	if len(out) != 20 {
		t.Fatalf("expected 20 decoded frames, got %d", len(out))
	}
	y := out[10].Planes[frame.PlaneY]
	for _, p := range [][2]int{{0, 0}, {63, 0}, {0, 47}, {63, 47}, {8, 24}} {
		if v := y.At(p[0], p[1]); v > 8 {
			t.Errorf("luma at %v = %d, expected near 0", p, v)
		}
	}
}

func TestPipeline_FFmpegCompressedBackground(t *testing.T) {
	dir := t.TempDir()
	input := generateClip(t, dir, 10)

	log := logger.NewNoop()
	fs := osfilesystem.New()
	orch := orchestrator.New(
		ffmpegsource.NewOpener(log),
		composite.NewStage(pipeline.ChromaCosited, log),
		func(ctx context.Context) ports.VideoEncoder { return h264encoder.New(ctx, log) },
		muxers.ForPath,
		ffmpegtranscoder.New(log),
		fs,
		nullsink.New(),
		ggrenderer.New(),
		log,
	)

	cfg := orchestrator.DefaultConfig()
	cfg.InputPath = input
	cfg.OutputPath = filepath.Join(dir, "out.mp4")
	cfg.BoxesPath = writeBoxes(t, dir, "16,8,47,39\n")
	cfg.Background = orchestrator.BackgroundCompressed
	cfg.BackgroundPath = filepath.Join(dir, orchestrator.DefaultBackgroundPath)
	cfg.Audio = false

	result, err := orch.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.FramesWritten != 10 {
		t.Errorf("expected 10 frames written, got %d", result.FramesWritten)
	}
	if exists, _ := fs.Exists(cfg.BackgroundPath); exists {
		t.Error("expected background intermediate to be removed")
	}

	report, err := mp4probe.InspectFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("inspect output: %v", err)
	}
	if report.HasAudio {
		t.Error("expected no audio track")
	}
}
