// Package h264encoder provides H.264 video encoding through an ffmpeg process.
// Raw YUV 4:2:0 frames are written to its stdin and Annex B access units are
// read back from its stdout.
package h264encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/ideamans/go-l10n"
	"golang.org/x/sync/errgroup"

	"github.com/user/roicompress/pkg/adapters/ffmpegbin"
	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

// maxStderr bounds the diagnostics kept from the encoder process.
const maxStderr = 64 * 1024

// Encoder implements ports.VideoEncoder with an ffmpeg subprocess.
// Send, SendEOF, Receive and Close must be called from one goroutine.
type Encoder struct {
	ctx    context.Context
	logger ports.Logger

	cfg    pipeline.EncoderConfig
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdin  io.WriteCloser
	stderr *tailBuffer
	group  *errgroup.Group

	units *unitQueue
	pts   []int64

	begun    bool
	eofSent  bool
	finished bool
	exitErr  error
}

// New creates a new H.264 encoder. The process is bound to ctx.
func New(ctx context.Context, logger ports.Logger) *Encoder {
	return &Encoder{
		ctx:    ctx,
		logger: logger.WithComponent("encoder"),
	}
}

// Args builds the ffmpeg arguments for cfg.
func Args(cfg pipeline.EncoderConfig) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", pipeline.PixelFormatYUV420P,
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", cfg.FrameRate.String(),
		"-i", "pipe:0",
		"-an",
		"-c:v", cfg.Codec,
	}
	if cfg.Preset != "" {
		args = append(args, "-preset", cfg.Preset)
	}
	if cfg.Profile != "" {
		args = append(args, "-profile:v", cfg.Profile)
	}
	args = append(args, "-bf", strconv.Itoa(cfg.MaxBFrames))
	if cfg.GOPSize > 0 {
		args = append(args, "-g", strconv.Itoa(cfg.GOPSize))
	}
	if cfg.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(cfg.CRF))
	} else if cfg.BitRate > 0 {
		args = append(args, "-b:v", strconv.Itoa(cfg.BitRate))
	}
	args = append(args, "-pix_fmt", pipeline.PixelFormatYUV420P)

	bsf := "h264_metadata=aud=insert"
	if sar := cfg.SampleAspect; sar.Valid() && sar.Num != sar.Den {
		bsf += ":sample_aspect_ratio=" + sar.String()
	}
	args = append(args,
		"-bsf:v", bsf,
		"-f", "h264",
		"pipe:1",
	)
	return args
}

// Begin starts the encoder process.
func (e *Encoder) Begin(cfg pipeline.EncoderConfig) error {
	if e.begun {
		return fmt.Errorf("%w: already started", ErrEncodingFailed)
	}
	if !strings.Contains(cfg.Codec, "264") {
		return fmt.Errorf("%w: %s: %w", ErrUnsupportedCodec, cfg.Codec, pipeline.ErrCodec)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || !cfg.FrameRate.Valid() {
		return fmt.Errorf("%w: invalid configuration %dx%d@%s: %w", ErrEncodingFailed, cfg.Width, cfg.Height, cfg.FrameRate, pipeline.ErrCodec)
	}

	ffmpegPath, err := ffmpegbin.Find(ffmpegbin.FFmpeg)
	if err != nil {
		return fmt.Errorf("%w: %w", pipeline.ErrCodec, err)
	}

	procCtx, cancel := context.WithCancel(e.ctx)
	cmd := exec.CommandContext(procCtx, ffmpegPath, Args(cfg)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("encoder stdin: %w: %w", pipeline.ErrCodec, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("encoder stdout: %w: %w", pipeline.ErrCodec, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("encoder stderr: %w: %w", pipeline.ErrCodec, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start encoder: %w: %w", pipeline.ErrCodec, err)
	}

	e.cfg = cfg
	e.cmd = cmd
	e.cancel = cancel
	e.stdin = stdin
	e.stderr = &tailBuffer{max: maxStderr}
	e.units = newUnitQueue()
	e.group = &errgroup.Group{}
	e.begun = true

	e.group.Go(func() error {
		_, err := io.Copy(e.stderr, stderr)
		return err
	})
	e.group.Go(func() error {
		err := readUnits(stdout, e.units)
		e.units.close(err)
		return err
	})

	e.logger.Debug(l10n.F("Encoder started: %s", strings.Join(Args(cfg), " ")))
	return nil
}

// readUnits splits r into access units and queues them until EOF.
func readUnits(r io.Reader, q *unitQueue) error {
	var splitter auSplitter
	var pending []byte
	emit := func(unit []byte) {
		if hasSlice, _ := unitInfo(unit); !hasSlice {
			pending = append(pending, unit...)
			return
		}
		if len(pending) > 0 {
			unit = append(pending, unit...)
			pending = nil
		}
		q.push(unit)
	}

	buf := make([]byte, 256*1024)
	for {
		n, err := r.Read(buf)
		for _, unit := range splitter.Write(buf[:n]) {
			emit(unit)
		}
		if errors.Is(err, io.EOF) {
			if unit := splitter.Flush(); unit != nil {
				emit(unit)
			}
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Send writes one frame to the encoder.
func (e *Encoder) Send(f *frame.Frame) error {
	if !e.begun {
		return ErrNotInitialized
	}
	if e.eofSent {
		return ErrEOFSent
	}
	if f.Width != e.cfg.Width || f.Height != e.cfg.Height {
		return fmt.Errorf("%w: %dx%d, want %dx%d: %w", ErrFrameGeometry, f.Width, f.Height, e.cfg.Width, e.cfg.Height, pipeline.ErrCodec)
	}
	if err := f.WriteI420(e.stdin); err != nil {
		return fmt.Errorf("%w: write frame: %w: %w%s", ErrEncodingFailed, pipeline.ErrCodec, err, e.diagnostics())
	}
	e.pts = append(e.pts, f.PTS)
	return nil
}

// SendEOF closes the encoder input so that it flushes.
func (e *Encoder) SendEOF() error {
	if !e.begun {
		return ErrNotInitialized
	}
	if e.eofSent {
		return nil
	}
	e.eofSent = true
	if err := e.stdin.Close(); err != nil {
		return fmt.Errorf("%w: close input: %w: %w", ErrEncodingFailed, pipeline.ErrCodec, err)
	}
	return nil
}

// Receive returns the next access unit. Before SendEOF it never blocks.
func (e *Encoder) Receive() (pipeline.Packet, error) {
	if !e.begun {
		return pipeline.Packet{}, ErrNotInitialized
	}

	var unit []byte
	var ok bool
	if e.eofSent {
		unit, ok = e.units.pop()
	} else {
		unit, ok = e.units.tryPop()
		if !ok && !e.units.done() {
			return pipeline.Packet{}, ports.ErrAgain
		}
	}

	if !ok {
		if err := e.finish(); err != nil {
			return pipeline.Packet{}, err
		}
		if !e.eofSent {
			return pipeline.Packet{}, fmt.Errorf("%w: encoder exited early: %w", ErrEncodingFailed, pipeline.ErrCodec)
		}
		if len(e.pts) > 0 {
			return pipeline.Packet{}, fmt.Errorf("%w: %d frames without a packet: %w", ErrEncodingFailed, len(e.pts), pipeline.ErrCodec)
		}
		return pipeline.Packet{}, io.EOF
	}

	if len(e.pts) == 0 {
		return pipeline.Packet{}, fmt.Errorf("%w: more packets than frames: %w", ErrEncodingFailed, pipeline.ErrCodec)
	}
	pts := e.pts[0]
	e.pts = e.pts[1:]
	_, idr := unitInfo(unit)
	return pipeline.Packet{
		Data:     unit,
		PTS:      pts,
		DTS:      pts,
		Duration: 1,
		Keyframe: idr,
	}, nil
}

// Close stops the encoder process. It is safe to call more than once.
func (e *Encoder) Close() error {
	if !e.begun || e.finished {
		return nil
	}
	if !e.eofSent {
		e.eofSent = true
		e.stdin.Close()
		e.cancel()
	}
	e.finish()
	return nil
}

// finish waits for the readers and the process once.
func (e *Encoder) finish() error {
	if e.finished {
		return e.exitErr
	}
	e.finished = true
	readErr := e.group.Wait()
	waitErr := e.cmd.Wait()
	e.cancel()
	if err := errors.Join(readErr, waitErr); err != nil {
		e.exitErr = fmt.Errorf("%w: %w: %w%s", ErrEncodingFailed, pipeline.ErrCodec, err, e.diagnostics())
	}
	return e.exitErr
}

func (e *Encoder) diagnostics() string {
	if e.stderr == nil {
		return ""
	}
	if s := strings.TrimSpace(e.stderr.String()); s != "" {
		return "\nstderr: " + s
	}
	return ""
}

var _ ports.VideoEncoder = (*Encoder)(nil)

// unitQueue hands access units from the reader goroutine to Receive.
type unitQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	units  [][]byte
	closed bool
	err    error
}

func newUnitQueue() *unitQueue {
	q := &unitQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *unitQueue) push(unit []byte) {
	q.mu.Lock()
	q.units = append(q.units, unit)
	q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *unitQueue) close(err error) {
	q.mu.Lock()
	q.closed = true
	q.err = err
	q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *unitQueue) done() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.units) == 0
}

// tryPop returns the next unit without waiting.
func (q *unitQueue) tryPop() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// pop waits for the next unit. It returns false once the queue is closed and empty.
func (q *unitQueue) pop() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.units) == 0 && !q.closed {
		q.cond.Wait()
	}
	return q.popLocked()
}

func (q *unitQueue) popLocked() ([]byte, bool) {
	if len(q.units) == 0 {
		return nil, false
	}
	unit := q.units[0]
	q.units[0] = nil
	q.units = q.units[1:]
	return unit, true
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Write(p)
	if over := b.buf.Len() - b.max; over > 0 {
		b.buf.Next(over)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
