package annexbmuxer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/user/roicompress/pkg/mocks"
	"github.com/user/roicompress/pkg/pipeline"
)

func TestMuxer_WritesVerbatim(t *testing.T) {
	var buf bytes.Buffer
	m := New(&buf)
	if err := m.WriteHeader(pipeline.StreamConfig{TimeBase: pipeline.Rational{Num: 1, Den: 25}}); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if m.TimeBase() != (pipeline.Rational{Num: 1, Den: 25}) {
		t.Errorf("expected encoder time base, got %s", m.TimeBase())
	}

	var want []byte
	for i := 0; i < 3; i++ {
		au := mocks.H264AccessUnit(16, 16, i == 0, byte(i))
		want = append(want, au...)
		if err := m.WritePacket(pipeline.Packet{Data: au, PTS: int64(i), DTS: int64(i)}); err != nil {
			t.Fatalf("WritePacket failed: %v", err)
		}
	}
	if err := m.WriteTrailer(); err != nil {
		t.Fatalf("WriteTrailer failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Error("output should be the concatenated access units")
	}
}

func TestMuxer_PacketBeforeHeader(t *testing.T) {
	m := New(&bytes.Buffer{})
	if err := m.WritePacket(pipeline.Packet{}); !errors.Is(err, ErrState) {
		t.Errorf("expected ErrState, got %v", err)
	}
}
