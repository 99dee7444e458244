package ffmpegsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/user/roicompress/pkg/pipeline"
)

// probeOutput is the subset of `ffprobe -show_streams -of json` we use.
type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Index             int            `json:"index"`
	CodecType         string         `json:"codec_type"`
	CodecName         string         `json:"codec_name"`
	Width             int            `json:"width"`
	Height            int            `json:"height"`
	PixFmt            string         `json:"pix_fmt"`
	SampleAspectRatio string         `json:"sample_aspect_ratio"`
	TimeBase          string         `json:"time_base"`
	RFrameRate        string         `json:"r_frame_rate"`
	AvgFrameRate      string         `json:"avg_frame_rate"`
	NbFrames          string         `json:"nb_frames"`
	Duration          string         `json:"duration"`
	Disposition       map[string]int `json:"disposition"`
}

func (s probeStream) isPicture() bool {
	return s.CodecType == "video" && s.Disposition["attached_pic"] == 0 && s.Width > 0 && s.Height > 0
}

// ParseProbe selects the best video stream from ffprobe JSON output.
// The best stream is the largest picture; the default disposition breaks ties.
// Attached pictures (cover art) are never selected.
func ParseProbe(data []byte) (pipeline.StreamInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return pipeline.StreamInfo{}, fmt.Errorf("parse ffprobe output: %w: %w", pipeline.ErrIO, err)
	}

	best := -1
	hasAudio := false
	for i, s := range out.Streams {
		if s.CodecType == "audio" {
			hasAudio = true
		}
		if !s.isPicture() {
			continue
		}
		if best < 0 || better(s, out.Streams[best]) {
			best = i
		}
	}
	if best < 0 {
		return pipeline.StreamInfo{}, pipeline.ErrStreamNotFound
	}

	s := out.Streams[best]
	info := pipeline.StreamInfo{
		Index:       s.Index,
		Codec:       s.CodecName,
		Width:       s.Width,
		Height:      s.Height,
		PixelFormat: s.PixFmt,
		HasAudio:    hasAudio,
	}

	info.SampleAspect = pipeline.Rational{Num: 1, Den: 1}
	if sar, err := pipeline.ParseRational(s.SampleAspectRatio); err == nil && sar.Valid() && sar.Num > 0 {
		info.SampleAspect = sar.Reduce()
	}

	info.FrameRate = pipeline.DefaultFrameRate
	for _, candidate := range []string{s.RFrameRate, s.AvgFrameRate} {
		if r, err := pipeline.ParseRational(candidate); err == nil && r.Valid() && r.Num > 0 {
			info.FrameRate = r.Reduce()
			break
		}
	}

	info.TimeBase = info.FrameRate.Invert()
	if tb, err := pipeline.ParseRational(s.TimeBase); err == nil && tb.Valid() && tb.Num > 0 {
		info.TimeBase = tb
	}

	if n, err := strconv.Atoi(s.NbFrames); err == nil && n > 0 {
		info.FrameCount = n
	} else if d, err := strconv.ParseFloat(s.Duration, 64); err == nil && d > 0 {
		info.FrameCount = int(math.Round(d * info.FrameRate.Float64()))
	}

	return info, nil
}

func better(a, b probeStream) bool {
	areaA, areaB := a.Width*a.Height, b.Width*b.Height
	if areaA != areaB {
		return areaA > areaB
	}
	return a.Disposition["default"] > b.Disposition["default"]
}

// runProbe runs ffprobe on path and returns its JSON output.
func runProbe(ctx context.Context, ffprobePath, path string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-show_streams",
		"-of", "json",
		path,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w: %w\nstderr: %s", path, pipeline.ErrIO, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
