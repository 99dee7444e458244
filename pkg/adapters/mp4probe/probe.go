// Package mp4probe inspects the video track of MP4 files.
package mp4probe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/roicompress/pkg/pipeline"
)

// ErrNoVideoTrack is returned when the file has no video track.
var ErrNoVideoTrack = errors.New("mp4probe: no video track found")

// Sample describes one video sample.
type Sample struct {
	DecodeTime uint64
	PTS        int64
	Duration   uint32
	Size       uint32
	Sync       bool
}

// Report summarizes the video track of an MP4 file.
type Report struct {
	Fragmented  bool
	SampleEntry string // e.g. "avc1", "avc3", "av01"
	Codec       string
	Width       int
	Height      int
	Timescale   uint32
	// SampleAspect is taken from a pasp box, 1:1 when absent.
	SampleAspect pipeline.Rational
	HasAudio     bool
	Samples      []Sample
}

// Duration returns the track duration in timescale ticks.
func (r Report) Duration() uint64 {
	var d uint64
	for _, s := range r.Samples {
		d += uint64(s.Duration)
	}
	return d
}

// InspectFile inspects the MP4 file at path.
func InspectFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w: %w", pipeline.ErrIO, err)
	}
	defer f.Close()

	return Inspect(f)
}

// InspectBytes inspects MP4 data held in memory.
func InspectBytes(data []byte) (*Report, error) {
	return Inspect(bytes.NewReader(data))
}

// Inspect decodes an MP4 file and reports its first video track.
func Inspect(reader io.ReadSeeker) (*Report, error) {
	file, err := mp4.DecodeFile(reader)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w: %w", pipeline.ErrIO, err)
	}

	moov := file.Moov
	if file.IsFragmented() && file.Init != nil {
		moov = file.Init.Moov
	}
	if moov == nil {
		return nil, ErrNoVideoTrack
	}

	report := &Report{Fragmented: file.IsFragmented()}
	var video *mp4.TrakBox
	for _, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
			continue
		}
		switch trak.Mdia.Hdlr.HandlerType {
		case "vide":
			if video == nil {
				video = trak
			}
		case "soun":
			report.HasAudio = true
		}
	}
	if video == nil {
		return nil, ErrNoVideoTrack
	}

	report.Timescale = video.Mdia.Mdhd.Timescale
	describeEntry(report, video)

	if report.Fragmented {
		err = fragmentSamples(report, file, video.Tkhd.TrackID)
	} else {
		err = progressiveSamples(report, video)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func describeEntry(report *Report, trak *mp4.TrakBox) {
	report.SampleAspect = pipeline.Rational{Num: 1, Den: 1}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return
	}
	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		entry, ok := child.(*mp4.VisualSampleEntryBox)
		if !ok {
			continue
		}
		report.SampleEntry = entry.Type()
		report.Width = int(entry.Width)
		report.Height = int(entry.Height)
		switch entry.Type() {
		case "avc1", "avc3":
			report.Codec = "h264"
		case "hvc1", "hev1":
			report.Codec = "hevc"
		case "av01":
			report.Codec = "av1"
		default:
			report.Codec = entry.Type()
		}
		for _, c := range entry.Children {
			if pasp, ok := c.(*mp4.PaspBox); ok && pasp.HSpacing > 0 && pasp.VSpacing > 0 {
				report.SampleAspect = pipeline.Rational{Num: int(pasp.HSpacing), Den: int(pasp.VSpacing)}
			}
		}
		return
	}
}

func fragmentSamples(report *Report, file *mp4.File, trackID uint32) error {
	var trex *mp4.TrexBox
	if file.Init != nil && file.Init.Moov.Mvex != nil {
		if t := file.Init.Moov.Mvex.Trex; t != nil && t.TrackID == trackID {
			trex = t
		}
	}
	for _, seg := range file.Segments {
		for _, frag := range seg.Fragments {
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return fmt.Errorf("read fragment samples: %w: %w", pipeline.ErrIO, err)
			}
			for _, s := range samples {
				report.Samples = append(report.Samples, Sample{
					DecodeTime: s.DecodeTime,
					PTS:        int64(s.DecodeTime) + int64(s.CompositionTimeOffset),
					Duration:   s.Dur,
					Size:       s.Size,
					Sync:       s.IsSync(),
				})
			}
		}
	}
	return nil
}

func progressiveSamples(report *Report, trak *mp4.TrakBox) error {
	stbl := trak.Mdia.Minf.Stbl
	if stbl.Stts == nil || stbl.Stsz == nil {
		return fmt.Errorf("mp4probe: missing sample tables: %w", pipeline.ErrIO)
	}
	n := stbl.Stsz.SampleNumber
	for nr := uint32(1); nr <= n; nr++ {
		decodeTime, dur := stbl.Stts.GetDecodeTime(nr)
		pts := int64(decodeTime)
		if stbl.Ctts != nil {
			pts += int64(stbl.Ctts.GetCompositionTimeOffset(nr))
		}
		sync := true
		if stbl.Stss != nil {
			sync = stbl.Stss.IsSyncSample(nr)
		}
		report.Samples = append(report.Samples, Sample{
			DecodeTime: decodeTime,
			PTS:        pts,
			Duration:   dur,
			Size:       stbl.Stsz.GetSampleSize(int(nr)),
			Sync:       sync,
		})
	}
	return nil
}
