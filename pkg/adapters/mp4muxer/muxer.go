// Package mp4muxer writes H.264 packets into a fragmented MP4 file.
package mp4muxer

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Eyevinn/mp4ff/avc"
	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

const trackID = 1

// sample is a packet waiting for its fragment to be flushed.
type sample struct {
	data     []byte
	dts      int64
	pts      int64
	duration int64
	keyframe bool
}

// Muxer implements ports.Muxer. The movie header is written at the first
// keyframe, once SPS and PPS are known, and each GOP becomes one fragment.
type Muxer struct {
	buf    *bufio.Writer
	closer io.Closer

	cfg       pipeline.StreamConfig
	timescale uint32

	headerWritten  bool
	moovWritten    bool
	trailerWritten bool

	seq     uint32
	pending []sample
	lastDTS int64
	count   int
}

// Create creates the file at path and returns a muxer writing to it.
func Create(path string) (*Muxer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w: %w", path, pipeline.ErrIO, err)
	}
	m := New(f)
	m.closer = f
	return m, nil
}

// New returns a muxer writing to w.
func New(w io.Writer) *Muxer {
	buf := bufio.NewWriterSize(w, 1<<20)
	return &Muxer{buf: buf}
}

// Timescale returns the track timescale for a frame rate: 1000 ticks per
// frame for integral rates, otherwise the rate numerator.
func Timescale(rate pipeline.Rational) uint32 {
	if !rate.Valid() {
		rate = pipeline.DefaultFrameRate
	}
	rate = rate.Reduce()
	if rate.Den == 1 {
		return uint32(rate.Num * 1000)
	}
	return uint32(rate.Num)
}

// WriteHeader writes the file type box and fixes the time base.
func (m *Muxer) WriteHeader(cfg pipeline.StreamConfig) error {
	if m.headerWritten {
		return fmt.Errorf("%w: header already written", ErrState)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > math.MaxUint16 || cfg.Height > math.MaxUint16 {
		return fmt.Errorf("mp4muxer: invalid size %dx%d: %w", cfg.Width, cfg.Height, pipeline.ErrCodec)
	}
	m.cfg = cfg
	m.timescale = Timescale(cfg.FrameRate)

	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "iso6", "avc1", "mp41"})
	if err := ftyp.Encode(m.buf); err != nil {
		return fmt.Errorf("encode ftyp: %w: %w", pipeline.ErrIO, err)
	}
	m.headerWritten = true
	return nil
}

// TimeBase returns 1/timescale.
func (m *Muxer) TimeBase() pipeline.Rational {
	return pipeline.Rational{Num: 1, Den: int(m.timescale)}
}

// WritePacket queues one access unit whose timestamps are in TimeBase.
func (m *Muxer) WritePacket(pkt pipeline.Packet) error {
	if !m.headerWritten || m.trailerWritten {
		return fmt.Errorf("%w: packet outside header and trailer", ErrState)
	}
	if !m.moovWritten {
		if !pkt.Keyframe {
			return fmt.Errorf("%w: %w", ErrNotKeyframe, pipeline.ErrCodec)
		}
		if err := m.writeMoov(pkt.Data); err != nil {
			return err
		}
	} else if pkt.DTS <= m.lastDTS {
		return fmt.Errorf("mp4muxer: dts %d not after %d: %w", pkt.DTS, m.lastDTS, pipeline.ErrCodec)
	}

	if pkt.Keyframe && len(m.pending) > 0 {
		if err := m.flush(pkt.DTS, true); err != nil {
			return err
		}
	}
	m.pending = append(m.pending, sample{
		data:     toSample(pkt.Data, m.cfg.GlobalHeader),
		dts:      pkt.DTS,
		pts:      pkt.PTS,
		duration: pkt.Duration,
		keyframe: pkt.Keyframe,
	})
	m.lastDTS = pkt.DTS
	m.count++
	return nil
}

// WriteTrailer flushes the last fragment.
func (m *Muxer) WriteTrailer() error {
	if !m.headerWritten {
		return fmt.Errorf("%w: trailer before header", ErrState)
	}
	if m.trailerWritten {
		return nil
	}
	m.trailerWritten = true
	if m.count == 0 {
		return fmt.Errorf("%w: %w", ErrNoFrames, pipeline.ErrCodec)
	}
	if err := m.flush(0, false); err != nil {
		return err
	}
	if err := m.buf.Flush(); err != nil {
		return fmt.Errorf("flush output: %w: %w", pipeline.ErrIO, err)
	}
	return nil
}

// Close releases the output file.
func (m *Muxer) Close() error {
	if m.closer == nil {
		return nil
	}
	c := m.closer
	m.closer = nil
	if err := c.Close(); err != nil {
		return fmt.Errorf("close output: %w: %w", pipeline.ErrIO, err)
	}
	return nil
}

func (m *Muxer) writeMoov(keyframe []byte) error {
	sps, pps := extractParameterSets(keyframe)
	if sps == nil || pps == nil {
		return fmt.Errorf("%w: %w", ErrNoParameterSets, pipeline.ErrCodec)
	}
	if _, err := avc.ParseSPSNALUnit(sps, false); err != nil {
		return fmt.Errorf("mp4muxer: parse SPS: %w: %w", pipeline.ErrCodec, err)
	}

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(m.timescale, "video", "und")
	trak := init.Moov.Trak

	avcC, err := mp4.CreateAvcC([][]byte{sps}, [][]byte{pps}, true)
	if err != nil {
		return fmt.Errorf("create avcC: %w: %w", pipeline.ErrCodec, err)
	}
	entryType := "avc1"
	if !m.cfg.GlobalHeader {
		entryType = "avc3"
	}
	entry := mp4.CreateVisualSampleEntryBox(entryType, uint16(m.cfg.Width), uint16(m.cfg.Height), avcC)

	displayWidth := m.cfg.Width
	if sar := m.cfg.SampleAspect.Reduce(); sar.Valid() && sar.Num != sar.Den {
		entry.AddChild(&mp4.PaspBox{HSpacing: uint32(sar.Num), VSpacing: uint32(sar.Den)})
		displayWidth = int(math.Round(float64(m.cfg.Width) * sar.Float64()))
	}
	trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)
	trak.Tkhd.Width = mp4.Fixed32(displayWidth << 16)
	trak.Tkhd.Height = mp4.Fixed32(m.cfg.Height << 16)

	if err := init.Moov.Encode(m.buf); err != nil {
		return fmt.Errorf("encode moov: %w: %w", pipeline.ErrIO, err)
	}
	m.moovWritten = true
	return nil
}

// flush writes the pending samples as one fragment. Sample durations come
// from the following decode time; the final sample of the stream keeps its
// packet duration.
func (m *Muxer) flush(nextDTS int64, haveNext bool) error {
	if len(m.pending) == 0 {
		return nil
	}
	m.seq++
	frag, err := mp4.CreateFragment(m.seq, trackID)
	if err != nil {
		return fmt.Errorf("create fragment: %w: %w", pipeline.ErrCodec, err)
	}

	for i, s := range m.pending {
		dur := s.duration
		switch {
		case i+1 < len(m.pending):
			dur = m.pending[i+1].dts - s.dts
		case haveNext:
			dur = nextDTS - s.dts
		}
		if dur <= 0 {
			dur = int64(m.timescale) * int64(m.cfg.FrameRate.Den) / int64(max(m.cfg.FrameRate.Num, 1))
		}
		flags := mp4.NonSyncSampleFlags
		if s.keyframe {
			flags = mp4.SyncSampleFlags
		}
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags:                 flags,
				Dur:                   uint32(dur),
				Size:                  uint32(len(s.data)),
				CompositionTimeOffset: int32(s.pts - s.dts),
			},
			DecodeTime: uint64(s.dts),
			Data:       s.data,
		})
	}
	m.pending = m.pending[:0]

	if err := frag.Encode(m.buf); err != nil {
		return fmt.Errorf("encode fragment %d: %w: %w", m.seq, pipeline.ErrIO, err)
	}
	return nil
}

var _ ports.Muxer = (*Muxer)(nil)
