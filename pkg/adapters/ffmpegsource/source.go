// Package ffmpegsource decodes a video stream into planar YUV 4:2:0 frames
// using ffprobe and an ffmpeg subprocess.
package ffmpegsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/ideamans/go-l10n"
	"golang.org/x/sync/errgroup"

	"github.com/user/roicompress/pkg/adapters/ffmpegbin"
	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

// stderrTail is the number of diagnostic lines kept for error reports.
const stderrTail = 20

// Opener opens ffmpeg-backed frame sources.
type Opener struct {
	logger ports.Logger
}

// NewOpener creates a new opener.
func NewOpener(logger ports.Logger) *Opener {
	return &Opener{logger: logger.WithComponent("source")}
}

// Open probes path, selects its best video stream and starts the decoder.
func (o *Opener) Open(ctx context.Context, path string) (ports.FrameSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open input: %w: %w", pipeline.ErrIO, err)
	}

	ffprobePath, err := ffmpegbin.Find(ffmpegbin.FFprobe)
	if err != nil {
		return nil, fmt.Errorf("open input: %w: %w", pipeline.ErrCodec, err)
	}
	data, err := runProbe(ctx, ffprobePath, path)
	if err != nil {
		return nil, err
	}
	info, err := ParseProbe(data)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	o.logger.Debug(l10n.F("Selected stream #%d (%s %dx%d %s)", info.Index, info.Codec, info.Width, info.Height, info.PixelFormat))

	ffmpegPath, err := ffmpegbin.Find(ffmpegbin.FFmpeg)
	if err != nil {
		return nil, fmt.Errorf("open decoder: %w: %w", pipeline.ErrCodec, err)
	}
	return start(ctx, ffmpegPath, path, info, o.logger)
}

var _ ports.FrameSourceOpener = (*Opener)(nil)

// Source reads decoded frames from an ffmpeg process.
type Source struct {
	info      pipeline.StreamInfo
	logger    ports.Logger
	frameSize int

	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout *bufio.Reader
	stderr *stderrLog
	group  *errgroup.Group

	index    int
	finished bool
	waited   bool
	err      error
}

// decoderArgs builds the ffmpeg arguments for decoding stream index of path.
func decoderArgs(path string, index int) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-nostats",
		"-i", path,
		"-map", "0:" + strconv.Itoa(index),
		"-an", "-sn", "-dn",
		"-vf", "showinfo",
		"-f", "rawvideo",
		"-pix_fmt", pipeline.PixelFormatYUV420P,
		"-fps_mode", "passthrough",
		"pipe:1",
	}
}

func start(ctx context.Context, ffmpegPath, path string, info pipeline.StreamInfo, logger ports.Logger) (*Source, error) {
	procCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(procCtx, ffmpegPath, decoderArgs(path, info.Index)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("decoder stdout: %w: %w", pipeline.ErrCodec, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("decoder stderr: %w: %w", pipeline.ErrCodec, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start decoder: %w: %w", pipeline.ErrCodec, err)
	}

	s := &Source{
		info:      info,
		logger:    logger,
		frameSize: frame.Size(info.Width, info.Height),
		cmd:       cmd,
		cancel:    cancel,
		stdout:    bufio.NewReaderSize(stdout, 1<<20),
		stderr:    newStderrLog(stderrTail),
		group:     &errgroup.Group{},
	}
	s.group.Go(func() error {
		return s.stderr.consume(stderr)
	})
	logger.Debug(l10n.F("Decoder started for %s", path))
	return s, nil
}

// Info returns the selected stream.
func (s *Source) Info() pipeline.StreamInfo {
	return s.info
}

// Next reads the next frame. A short read or a failing decoder ends the
// stream; the failure is then available from Err.
func (s *Source) Next(ctx context.Context) (*frame.Frame, error) {
	if s.finished {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := make([]byte, s.frameSize)
	_, err := io.ReadFull(s.stdout, buf)
	switch {
	case errors.Is(err, io.EOF):
		s.finish(nil)
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.finish(fmt.Errorf("decoder: truncated frame %d: %w", s.index, pipeline.ErrCodec))
		return nil, io.EOF
	case err != nil:
		s.finish(fmt.Errorf("decoder: read frame %d: %w: %w", s.index, pipeline.ErrCodec, err))
		return nil, io.EOF
	}

	f, err := frame.FromI420(buf, s.info.Width, s.info.Height)
	if err != nil {
		s.finish(fmt.Errorf("decoder: %w: %w", pipeline.ErrCodec, err))
		return nil, io.EOF
	}
	if pts, ok := s.stderr.take(s.index); ok {
		f.PTS = pts
	} else {
		f.PTS = pipeline.Rescale(int64(s.index), s.info.FrameRate.Invert(), s.info.TimeBase)
	}
	s.index++
	return f, nil
}

// Err returns the error that ended the stream early, if any.
func (s *Source) Err() error {
	return s.err
}

// Close stops the decoder.
func (s *Source) Close() error {
	if !s.finished {
		s.finished = true
		s.cancel()
		s.wait()
	}
	s.cancel()
	return nil
}

// finish marks the stream as ended and records cause, or the decoder's exit
// failure when cause is nil.
func (s *Source) finish(cause error) {
	s.finished = true
	if cause != nil {
		s.cancel()
	}
	waitErr := s.wait()
	switch {
	case cause != nil:
		s.err = cause
	case waitErr != nil:
		s.err = fmt.Errorf("decoder exited: %w: %w\nstderr: %s", pipeline.ErrCodec, waitErr, s.stderr.String())
	}
	if s.err != nil {
		s.logger.Debug(l10n.F("Decoder stopped after %d frames: %s", s.index, s.err))
	}
}

func (s *Source) wait() error {
	if s.waited {
		return nil
	}
	s.waited = true
	if err := s.group.Wait(); err != nil {
		s.logger.Debug(l10n.F("Decoder stderr: %s", err))
	}
	return s.cmd.Wait()
}

var _ ports.FrameSource = (*Source)(nil)
