package mp4muxer

import (
	"encoding/binary"

	"github.com/Eyevinn/mp4ff/avc"
)

// extractParameterSets returns the first SPS and PPS of an Annex B access unit.
func extractParameterSets(data []byte) (sps, pps []byte) {
	for _, nalu := range avc.ExtractNalusFromByteStream(data) {
		if len(nalu) == 0 {
			continue
		}
		switch avc.GetNaluType(nalu[0]) {
		case avc.NALU_SPS:
			if sps == nil {
				sps = append([]byte(nil), nalu...)
			}
		case avc.NALU_PPS:
			if pps == nil {
				pps = append([]byte(nil), nalu...)
			}
		}
	}
	return sps, pps
}

// toSample converts an Annex B access unit to length-prefixed NAL units.
// When stripHeaders is set, SPS, PPS and AUD NAL units are dropped since
// they live in the sample entry.
func toSample(data []byte, stripHeaders bool) []byte {
	nalus := avc.ExtractNalusFromByteStream(data)
	size := 0
	for _, nalu := range nalus {
		size += 4 + len(nalu)
	}

	out := make([]byte, 0, size)
	for _, nalu := range nalus {
		if len(nalu) == 0 {
			continue
		}
		if stripHeaders {
			switch avc.GetNaluType(nalu[0]) {
			case avc.NALU_SPS, avc.NALU_PPS, avc.NALU_AUD:
				continue
			}
		}
		out = binary.BigEndian.AppendUint32(out, uint32(len(nalu)))
		out = append(out, nalu...)
	}
	return out
}
