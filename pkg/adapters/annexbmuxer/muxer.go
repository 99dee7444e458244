// Package annexbmuxer writes packets as a raw H.264 Annex B elementary stream.
package annexbmuxer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/ports"
)

// ErrState is returned when methods are called out of order.
var ErrState = errors.New("annexbmuxer: invalid call order")

// Muxer implements ports.Muxer. Packets are written verbatim, so parameter
// sets and delimiters stay in-band; timestamps are not stored.
type Muxer struct {
	buf    *bufio.Writer
	closer io.Closer
	tb     pipeline.Rational

	headerWritten  bool
	trailerWritten bool
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
	return &Muxer{buf: bufio.NewWriterSize(w, 1<<20)}
}

// WriteHeader adopts the encoder time base.
func (m *Muxer) WriteHeader(cfg pipeline.StreamConfig) error {
	if m.headerWritten {
		return fmt.Errorf("%w: header already written", ErrState)
	}
	m.tb = cfg.TimeBase
	m.headerWritten = true
	return nil
}

// TimeBase returns the encoder time base.
func (m *Muxer) TimeBase() pipeline.Rational {
	return m.tb
}

// WritePacket appends the access unit.
func (m *Muxer) WritePacket(pkt pipeline.Packet) error {
	if !m.headerWritten || m.trailerWritten {
		return fmt.Errorf("%w: packet outside header and trailer", ErrState)
	}
	if _, err := m.buf.Write(pkt.Data); err != nil {
		return fmt.Errorf("write packet: %w: %w", pipeline.ErrIO, err)
	}
	return nil
}

// WriteTrailer flushes buffered data.
func (m *Muxer) WriteTrailer() error {
	if !m.headerWritten {
		return fmt.Errorf("%w: trailer before header", ErrState)
	}
	m.trailerWritten = true
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

var _ ports.Muxer = (*Muxer)(nil)
