package h264encoder

import (
	"github.com/Eyevinn/mp4ff/avc"
)

// auSplitter cuts an H.264 Annex B byte stream into access units at
// access unit delimiter NAL units. Data may arrive in arbitrary chunks.
type auSplitter struct {
	buf  []byte
	scan int // next offset to inspect for a start code
}

// Write appends p and returns every access unit completed by it.
func (s *auSplitter) Write(p []byte) [][]byte {
	s.buf = append(s.buf, p...)
	var units [][]byte
	for {
		found := -1
		i := s.scan
		for ; i+3 < len(s.buf); i++ {
			if s.buf[i] == 0 && s.buf[i+1] == 0 && s.buf[i+2] == 1 &&
				avc.GetNaluType(s.buf[i+3]) == avc.NALU_AUD {
				found = i
				break
			}
		}
		if found < 0 {
			s.scan = i
			return units
		}

		start := found
		if start > 0 && s.buf[start-1] == 0 {
			start--
		}
		if start == 0 {
			s.scan = found + 4
			continue
		}
		unit := make([]byte, start)
		copy(unit, s.buf[:start])
		units = append(units, unit)
		s.buf = s.buf[start:]
		s.scan = found - start + 4
	}
}

// Flush returns the trailing access unit, if any.
func (s *auSplitter) Flush() []byte {
	if len(s.buf) == 0 {
		return nil
	}
	unit := s.buf
	s.buf = nil
	s.scan = 0
	return unit
}

// unitInfo reports whether an access unit carries a coded slice and
// whether it is an IDR picture.
func unitInfo(unit []byte) (hasSlice, idr bool) {
	for _, nalu := range avc.ExtractNalusFromByteStream(unit) {
		if len(nalu) == 0 {
			continue
		}
		switch avc.GetNaluType(nalu[0]) {
		case avc.NALU_IDR:
			return true, true
		case avc.NALU_NON_IDR:
			hasSlice = true
		}
	}
	return hasSlice, false
}
