// Package encode implements the frame sink: encoding and muxing of composited frames.
package encode

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

// Options overrides parts of the encoder configuration derived from the source.
type Options struct {
	FrameRate pipeline.Rational // zero keeps the source rate
	BitRate   int
	CRF       int
	Codec     string
	Preset    string
	Profile   string
	GOPSize   int
}

// Encoder defaults.
const (
	DefaultCodec   = "libx264"
	DefaultPreset  = "fast"
	DefaultProfile = "baseline"
)

// ConfigFromStream derives the output encoder configuration from the input stream.
func ConfigFromStream(info pipeline.StreamInfo, opts Options) pipeline.EncoderConfig {
	rate := info.FrameRate
	if opts.FrameRate.Valid() {
		rate = opts.FrameRate
	}
	if !rate.Valid() {
		rate = pipeline.DefaultFrameRate
	}
	rate = rate.Reduce()

	aspect := info.SampleAspect
	if !aspect.Valid() {
		aspect = pipeline.Rational{Num: 1, Den: 1}
	}
	pixFmt := info.PixelFormat
	if pixFmt == "" {
		pixFmt = pipeline.PixelFormatYUV420P
	}

	cfg := pipeline.EncoderConfig{
		Width:        info.Width,
		Height:       info.Height,
		PixelFormat:  pixFmt,
		SampleAspect: aspect,
		FrameRate:    rate,
		TimeBase:     rate.Invert(),
		MaxBFrames:   0,
		GlobalHeader: true,
		CRF:          opts.CRF,
		Codec:        orDefault(opts.Codec, DefaultCodec),
		Preset:       orDefault(opts.Preset, DefaultPreset),
		Profile:      orDefault(opts.Profile, DefaultProfile),
		GOPSize:      opts.GOPSize,
	}
	if cfg.CRF <= 0 {
		cfg.CRF = 0
		cfg.BitRate = opts.BitRate
		if cfg.BitRate <= 0 {
			cfg.BitRate = pipeline.DefaultBitRate
		}
	}
	return cfg
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Stats counts what went through the sink.
type Stats struct {
	FramesWritten  int
	PacketsWritten int
	BytesWritten   int64
	Keyframes      int
}

// Sink owns an encoder and a muxer. Frames go in; packets come out of the
// encoder, are rescaled to the muxer time base and written.
type Sink struct {
	encoder ports.VideoEncoder
	muxer   ports.Muxer
	logger  ports.Logger

	cfg     pipeline.EncoderConfig
	muxBase pipeline.Rational

	opened   bool
	flushed  bool
	released bool

	lastFramePTS  int64
	lastPacketPTS int64
	stats         Stats
}

// NewSink creates a new frame sink.
func NewSink(encoder ports.VideoEncoder, muxer ports.Muxer, logger ports.Logger) *Sink {
	return &Sink{
		encoder: encoder,
		muxer:   muxer,
		logger:  logger.WithComponent("encode"),
	}
}

// Open configures the encoder and writes the container header.
func (s *Sink) Open(cfg pipeline.EncoderConfig) error {
	if s.opened {
		return errors.New("encode: sink already open")
	}
	if !cfg.TimeBase.Valid() {
		return fmt.Errorf("encode: invalid time base %s: %w", cfg.TimeBase, pipeline.ErrCodec)
	}
	if err := s.encoder.Begin(cfg); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	if err := s.muxer.WriteHeader(cfg.StreamConfig()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	s.cfg = cfg
	s.muxBase = s.muxer.TimeBase()
	if !s.muxBase.Valid() {
		s.muxBase = cfg.TimeBase
	}
	s.opened = true
	s.logger.Debug("Encoder time base %s, muxer time base %s", cfg.TimeBase, s.muxBase)
	return nil
}

// Config returns the configuration passed to Open.
func (s *Sink) Config() pipeline.EncoderConfig {
	return s.cfg
}

// WriteFrame submits a frame whose PTS is in the encoder time base and
// writes every packet the encoder has ready.
func (s *Sink) WriteFrame(ctx context.Context, f *frame.Frame) error {
	if !s.opened || s.flushed {
		return errors.New("encode: sink not accepting frames")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if s.stats.FramesWritten > 0 && f.PTS <= s.lastFramePTS {
		return fmt.Errorf("encode: frame pts %d not after %d: %w", f.PTS, s.lastFramePTS, pipeline.ErrCodec)
	}
	if err := s.encoder.Send(f); err != nil {
		return fmt.Errorf("encode frame %d: %w", f.PTS, err)
	}
	s.lastFramePTS = f.PTS
	s.stats.FramesWritten++
	return s.drain(false)
}

// Close flushes the encoder and writes the container trailer.
func (s *Sink) Close(ctx context.Context) error {
	if !s.opened {
		return errors.New("encode: sink not open")
	}
	if s.flushed {
		return nil
	}
	s.flushed = true
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.encoder.SendEOF(); err != nil {
		return fmt.Errorf("flush encoder: %w", err)
	}
	if err := s.drain(true); err != nil {
		return err
	}
	// One packet per frame: with B-frames off the encoder never merges frames.
	if s.stats.PacketsWritten != s.stats.FramesWritten {
		return fmt.Errorf("encode: %d frames produced %d packets: %w",
			s.stats.FramesWritten, s.stats.PacketsWritten, pipeline.ErrCodec)
	}
	if err := s.muxer.WriteTrailer(); err != nil {
		return fmt.Errorf("write trailer: %w", err)
	}
	s.logger.Debug("Flushed %d frames into %d packets", s.stats.FramesWritten, s.stats.PacketsWritten)
	return nil
}

// Release frees the encoder and the muxer. It runs on every exit path and
// may be called after Close.
func (s *Sink) Release() error {
	if s.released {
		return nil
	}
	s.released = true
	encErr := s.encoder.Close()
	muxErr := s.muxer.Close()
	return errors.Join(encErr, muxErr)
}

// Stats returns the sink counters.
func (s *Sink) Stats() Stats {
	return s.stats
}

// drain writes available packets. When final is set it reads until io.EOF,
// otherwise until ports.ErrAgain.
func (s *Sink) drain(final bool) error {
	for {
		pkt, err := s.encoder.Receive()
		if errors.Is(err, ports.ErrAgain) {
			if final {
				return fmt.Errorf("encode: encoder returned no packet after flush: %w", pipeline.ErrCodec)
			}
			return nil
		}
		if errors.Is(err, io.EOF) {
			if !final {
				return fmt.Errorf("encode: encoder ended before flush: %w", pipeline.ErrCodec)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("receive packet: %w", err)
		}
		if err := s.writePacket(pkt); err != nil {
			return err
		}
	}
}

func (s *Sink) writePacket(pkt pipeline.Packet) error {
	if pkt.DTS != pkt.PTS {
		return fmt.Errorf("encode: packet dts %d != pts %d: %w", pkt.DTS, pkt.PTS, pipeline.ErrCodec)
	}
	if s.stats.PacketsWritten > 0 && pkt.PTS <= s.lastPacketPTS {
		return fmt.Errorf("encode: packet pts %d not after %d: %w", pkt.PTS, s.lastPacketPTS, pipeline.ErrCodec)
	}
	s.lastPacketPTS = pkt.PTS

	tb := s.cfg.TimeBase
	out := pkt
	out.PTS = pipeline.Rescale(pkt.PTS, tb, s.muxBase)
	out.DTS = pipeline.Rescale(pkt.DTS, tb, s.muxBase)
	out.Duration = pipeline.Rescale(pkt.Duration, tb, s.muxBase)
	if err := s.muxer.WritePacket(out); err != nil {
		return fmt.Errorf("write packet %d: %w", pkt.PTS, err)
	}
	s.stats.PacketsWritten++
	s.stats.BytesWritten += int64(len(pkt.Data))
	if pkt.Keyframe {
		s.stats.Keyframes++
	}
	return nil
}
