package mp4muxer

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/user/roicompress/pkg/adapters/mp4probe"
	"github.com/user/roicompress/pkg/mocks"
	"github.com/user/roicompress/pkg/pipeline"
)

func streamConfig(rate pipeline.Rational) pipeline.StreamConfig {
	return pipeline.StreamConfig{
		Width:        64,
		Height:       48,
		SampleAspect: pipeline.Rational{Num: 1, Den: 1},
		FrameRate:    rate,
		TimeBase:     rate.Invert(),
		Codec:        "libx264",
		GlobalHeader: true,
	}
}

// writePackets muxes n frames with a keyframe every gop frames.
func writePackets(t *testing.T, m *Muxer, n, gop int) {
	t.Helper()
	step := int64(m.TimeBase().Den) / 30
	for i := 0; i < n; i++ {
		key := i%gop == 0
		pkt := pipeline.Packet{
			Data:     mocks.H264AccessUnit(64, 48, key, byte(i)),
			PTS:      int64(i) * step,
			DTS:      int64(i) * step,
			Duration: step,
			Keyframe: key,
		}
		if err := m.WritePacket(pkt); err != nil {
			t.Fatalf("WritePacket(%d) failed: %v", i, err)
		}
	}
}

func TestTimescale(t *testing.T) {
	tests := []struct {
		rate pipeline.Rational
		want uint32
	}{
		{pipeline.Rational{Num: 30, Den: 1}, 30000},
		{pipeline.Rational{Num: 25, Den: 1}, 25000},
		{pipeline.Rational{Num: 30000, Den: 1001}, 30000},
		{pipeline.Rational{Num: 60, Den: 2}, 30000},
		{pipeline.Rational{}, 30000},
	}
	for _, tt := range tests {
		if got := Timescale(tt.rate); got != tt.want {
			t.Errorf("Timescale(%s) = %d, want %d", tt.rate, got, tt.want)
		}
	}
}

func TestMuxer_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	if err := m.WriteHeader(streamConfig(pipeline.Rational{Num: 30, Den: 1})); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if m.TimeBase() != (pipeline.Rational{Num: 1, Den: 30000}) {
		t.Fatalf("unexpected time base %s", m.TimeBase())
	}
	writePackets(t, m, 12, 5)
	if err := m.WriteTrailer(); err != nil {
		t.Fatalf("WriteTrailer failed: %v", err)
	}

	data := buf.Bytes()
	if string(data[4:8]) != "ftyp" {
		t.Errorf("expected ftyp box, got %q", data[4:8])
	}

	report, err := mp4probe.InspectBytes(data)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !report.Fragmented || report.SampleEntry != "avc1" || report.Codec != "h264" {
		t.Errorf("unexpected report %+v", report)
	}
	if report.Width != 64 || report.Height != 48 || report.Timescale != 30000 {
		t.Errorf("unexpected geometry %dx%d timescale %d", report.Width, report.Height, report.Timescale)
	}
	if len(report.Samples) != 12 {
		t.Fatalf("expected 12 samples, got %d", len(report.Samples))
	}
	for i, s := range report.Samples {
		if s.DecodeTime != uint64(i*1000) || s.PTS != int64(i*1000) {
			t.Errorf("sample %d: decode time %d pts %d", i, s.DecodeTime, s.PTS)
		}
		if s.Duration != 1000 {
			t.Errorf("sample %d: duration %d", i, s.Duration)
		}
		if s.Sync != (i%5 == 0) {
			t.Errorf("sample %d: sync %v", i, s.Sync)
		}
	}
	if report.Duration() != 12000 {
		t.Errorf("expected duration 12000, got %d", report.Duration())
	}
}

func TestMuxer_StripsParameterSets(t *testing.T) {
	au := mocks.H264AccessUnit(64, 48, true, 1)

	stripped := toSample(au, true)
	// 4-byte length + 5-byte IDR slice
	if len(stripped) != 9 || stripped[4] != 0x65 {
		t.Errorf("expected only the IDR slice, got % x", stripped)
	}

	kept := toSample(au, false)
	if len(kept) <= len(stripped) {
		t.Errorf("in-band sample should keep parameter sets, got % x", kept)
	}
}

func TestMuxer_InBandParameterSets(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	cfg := streamConfig(pipeline.Rational{Num: 25, Den: 1})
	cfg.GlobalHeader = false
	cfg.SampleAspect = pipeline.Rational{Num: 4, Den: 3}
	if err := m.WriteHeader(cfg); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	writePackets(t, m, 3, 10)
	if err := m.WriteTrailer(); err != nil {
		t.Fatalf("WriteTrailer failed: %v", err)
	}

	report, err := mp4probe.InspectBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if report.SampleEntry != "avc3" {
		t.Errorf("expected avc3 sample entry, got %s", report.SampleEntry)
	}
	if report.SampleAspect != (pipeline.Rational{Num: 4, Den: 3}) {
		t.Errorf("expected pasp 4:3, got %s", report.SampleAspect)
	}
}

func TestMuxer_FirstPacketMustBeKeyframe(t *testing.T) {
	m := New(&bytes.Buffer{})
	if err := m.WriteHeader(streamConfig(pipeline.Rational{Num: 30, Den: 1})); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	err := m.WritePacket(pipeline.Packet{Data: mocks.H264AccessUnit(64, 48, false, 0)})
	if !errors.Is(err, ErrNotKeyframe) || !errors.Is(err, pipeline.ErrCodec) {
		t.Errorf("expected ErrNotKeyframe, got %v", err)
	}
}

func TestMuxer_NoParameterSets(t *testing.T) {
	m := New(&bytes.Buffer{})
	if err := m.WriteHeader(streamConfig(pipeline.Rational{Num: 30, Den: 1})); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	err := m.WritePacket(pipeline.Packet{Data: []byte{0, 0, 0, 1, 0x65, 0x88}, Keyframe: true})
	if !errors.Is(err, ErrNoParameterSets) {
		t.Errorf("expected ErrNoParameterSets, got %v", err)
	}
}

func TestMuxer_NoFrames(t *testing.T) {
	m := New(&bytes.Buffer{})
	if err := m.WriteHeader(streamConfig(pipeline.Rational{Num: 30, Den: 1})); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := m.WriteTrailer(); !errors.Is(err, ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}
}

func TestMuxer_RejectsNonMonotonicDTS(t *testing.T) {
	m := New(&bytes.Buffer{})
	if err := m.WriteHeader(streamConfig(pipeline.Rational{Num: 30, Den: 1})); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	writePackets(t, m, 2, 10)
	err := m.WritePacket(pipeline.Packet{Data: mocks.H264AccessUnit(64, 48, false, 9), PTS: 0, DTS: 0})
	if !errors.Is(err, pipeline.ErrCodec) {
		t.Errorf("expected ErrCodec, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mp4")
	m, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := m.WriteHeader(streamConfig(pipeline.Rational{Num: 30, Den: 1})); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	writePackets(t, m, 4, 2)
	if err := m.WriteTrailer(); err != nil {
		t.Fatalf("WriteTrailer failed: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	report, err := mp4probe.InspectFile(path)
	if err != nil {
		t.Fatalf("InspectFile failed: %v", err)
	}
	if len(report.Samples) != 4 {
		t.Errorf("expected 4 samples, got %d", len(report.Samples))
	}
}

func TestCreate_BadPath(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "out.mp4"))
	if !errors.Is(err, pipeline.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}
