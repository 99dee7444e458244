package mocks

import (
	"errors"
	"io"

	"github.com/user/roicompress/pkg/frame"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

// VideoEncoder is a mock implementation of ports.VideoEncoder.
// Every sent frame yields one packet carrying the frame's PTS and a
// syntactically valid H.264 access unit.
type VideoEncoder struct {
	// Delay holds back that many packets until SendEOF, like encoder lookahead.
	Delay int
	// GOPSize marks every GOPSize-th packet as a keyframe. 0 means only the first.
	GOPSize int
	// Lose discards that many pending packets at SendEOF.
	Lose int

	BeginFunc func(cfg pipeline.EncoderConfig) error
	SendFunc  func(f *frame.Frame) error
	// PacketFunc may rewrite each packet before it is queued.
	PacketFunc func(pkt pipeline.Packet) pipeline.Packet

	// Recorded calls for verification
	Config      pipeline.EncoderConfig
	BeginCalled bool
	SentPTS     []int64
	EOFCalled   bool
	CloseCalled bool

	queue []pipeline.Packet
}

func (m *VideoEncoder) Begin(cfg pipeline.EncoderConfig) error {
	m.BeginCalled = true
	m.Config = cfg
	if m.BeginFunc != nil {
		return m.BeginFunc(cfg)
	}
	return nil
}

func (m *VideoEncoder) Send(f *frame.Frame) error {
	if !m.BeginCalled {
		return errors.New("mock encoder: Send before Begin")
	}
	if m.EOFCalled {
		return errors.New("mock encoder: Send after SendEOF")
	}
	if m.SendFunc != nil {
		if err := m.SendFunc(f); err != nil {
			return err
		}
	}
	n := len(m.SentPTS)
	m.SentPTS = append(m.SentPTS, f.PTS)
	key := n == 0 || (m.GOPSize > 0 && n%m.GOPSize == 0)
	pkt := pipeline.Packet{
		Data:     H264AccessUnit(align16(m.Config.Width), align16(m.Config.Height), key, byte(n)),
		PTS:      f.PTS,
		DTS:      f.PTS,
		Duration: 1,
		Keyframe: key,
	}
	if m.PacketFunc != nil {
		pkt = m.PacketFunc(pkt)
	}
	m.queue = append(m.queue, pkt)
	return nil
}

func (m *VideoEncoder) SendEOF() error {
	m.EOFCalled = true
	m.queue = m.queue[:max(0, len(m.queue)-m.Lose)]
	return nil
}

func (m *VideoEncoder) Receive() (pipeline.Packet, error) {
	if len(m.queue) > 0 && (m.EOFCalled || len(m.queue) > m.Delay) {
		pkt := m.queue[0]
		m.queue = m.queue[1:]
		return pkt, nil
	}
	if m.EOFCalled {
		return pipeline.Packet{}, io.EOF
	}
	return pipeline.Packet{}, ports.ErrAgain
}

func (m *VideoEncoder) Close() error {
	m.CloseCalled = true
	return nil
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)

func align16(v int) int {
	return max(16, (v+15)/16*16)
}
