package mocks

import (
	"errors"

	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

// Muxer is a mock implementation of ports.Muxer that records packets.
type Muxer struct {
	// Base is the time base reported after WriteHeader. Zero means the
	// encoder time base.
	Base pipeline.Rational

	WriteHeaderFunc func(cfg pipeline.StreamConfig) error
	WritePacketFunc func(pkt pipeline.Packet) error

	// Recorded calls for verification
	Path          string
	Header        *pipeline.StreamConfig
	Packets       []pipeline.Packet
	TrailerCalled bool
	CloseCalled   bool
}

func (m *Muxer) WriteHeader(cfg pipeline.StreamConfig) error {
	if m.WriteHeaderFunc != nil {
		if err := m.WriteHeaderFunc(cfg); err != nil {
			return err
		}
	}
	m.Header = &cfg
	if !m.Base.Valid() {
		m.Base = cfg.TimeBase
	}
	return nil
}

func (m *Muxer) TimeBase() pipeline.Rational {
	return m.Base
}

func (m *Muxer) WritePacket(pkt pipeline.Packet) error {
	if m.Header == nil {
		return errors.New("mock muxer: packet before header")
	}
	if m.TrailerCalled {
		return errors.New("mock muxer: packet after trailer")
	}
	if m.WritePacketFunc != nil {
		if err := m.WritePacketFunc(pkt); err != nil {
			return err
		}
	}
	m.Packets = append(m.Packets, pkt)
	return nil
}

func (m *Muxer) WriteTrailer() error {
	m.TrailerCalled = true
	return nil
}

func (m *Muxer) Close() error {
	m.CloseCalled = true
	return nil
}

// Factory returns a ports.MuxerFactory that hands out m and records the path.
func (m *Muxer) Factory() ports.MuxerFactory {
	return func(path string) (ports.Muxer, error) {
		m.Path = path
		return m, nil
	}
}

var _ ports.Muxer = (*Muxer)(nil)
