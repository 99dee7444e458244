package summarizer

import (
	"strings"
	"testing"
	"time"
)

func sampleSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		RunID:       "3f1c1a52-7d36-4b8e-9c6a-0d7e1f2a3b4c",
		Input: InputInfo{
			Path:         "in.mp4",
			Codec:        "h264",
			Width:        1920,
			Height:       1080,
			PixelFormat:  "yuv420p",
			FrameRate:    "30/1",
			SampleAspect: "1/1",
			FrameCount:   300,
			HasAudio:     true,
		},
		Track: TrackInfo{
			Path:     "boxes.txt",
			Records:  290,
			Skipped:  2,
			Reused:   10,
			Mismatch: true,
		},
		Settings: Settings{
			Codec:         "libx264",
			Preset:        "fast",
			Profile:       "baseline",
			BitRate:       1_000_000,
			Chroma:        "cosited",
			Background:    "compressed",
			BackgroundCRF: 51,
		},
		Output: OutputInfo{
			Path:           "out.mp4",
			FrameRate:      "30/1",
			FramesDecoded:  300,
			FramesWritten:  300,
			PacketsWritten: 300,
			Keyframes:      3,
			FileSize:       1024 * 1024,
			AudioCopied:    true,
		},
		Resources: ResourceInfo{
			Elapsed:  10 * time.Second,
			RSSBytes: 64 * 1024 * 1024,
		},
	}
}

func TestMarkdownFormatter_Format_Basic(t *testing.T) {
	result := NewMarkdownFormatter().Format(sampleSummary())

	checks := []string{
		"# Compression Summary",
		"2024-01-15T10:30:00Z",
		"3f1c1a52-7d36-4b8e-9c6a-0d7e1f2a3b4c",
		"| Resolution | 1920x1080 |",
		"| Frames (estimate) | 300 |",
		"| Records | 290 |",
		"| Length Mismatch | Yes (290 / 300) |",
		"| Rate Control | 1.00 Mbps |",
		"compressed (CRF 51)",
		"| Chroma Policy | cosited |",
		"| Frames Written | 300 / 300 |",
		"300 (3 keyframes)",
		"| File Size | 1.00 MB |",
		"| Speed | 30.0 fps |",
		"| Resident Memory | 64.00 MB |",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
}

func TestMarkdownFormatter_CRF(t *testing.T) {
	s := sampleSummary()
	s.Settings.CRF = 23
	s.Settings.GOPSize = 60

	result := NewMarkdownFormatter().Format(s)

	if !strings.Contains(result, "| Rate Control | CRF 23 |") {
		t.Error("expected CRF rate control")
	}
	if !strings.Contains(result, "| GOP Size | 60 |") {
		t.Error("expected GOP size")
	}
}

func TestMarkdownFormatter_Unknowns(t *testing.T) {
	s := sampleSummary()
	s.Input.FrameCount = 0
	s.Resources.RSSBytes = 0
	s.Track.Mismatch = false

	result := NewMarkdownFormatter().Format(s)

	if !strings.Contains(result, "| Frames (estimate) | N/A |") {
		t.Error("expected N/A frame estimate")
	}
	if !strings.Contains(result, "| Resident Memory | N/A |") {
		t.Error("expected N/A memory")
	}
	if !strings.Contains(result, "| Length Mismatch | No |") {
		t.Error("expected no mismatch")
	}
}

func TestMarkdownFormatter_WithTranslator(t *testing.T) {
	translator := func(key string) string {
		translations := map[string]string{
			"Compression Summary": "圧縮サマリー",
			"Box Track":           "ボックストラック",
			"Yes":                 "はい",
		}
		if v, ok := translations[key]; ok {
			return v
		}
		return key
	}

	result := NewMarkdownFormatter(WithTranslator(translator)).Format(sampleSummary())

	for _, want := range []string{"圧縮サマリー", "ボックストラック", "はい"} {
		if !strings.Contains(result, want) {
			t.Errorf("expected translated %q", want)
		}
	}
}

func TestMarkdownFormatter_WithVersion(t *testing.T) {
	result := NewMarkdownFormatter(WithVersion("v1.2.0")).Format(sampleSummary())

	if !strings.Contains(result, "v1.2.0") {
		t.Error("expected output to contain version 'v1.2.0'")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{100, "100 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1024 * 1024, "1.00 MB"},
		{1024 * 1024 * 1024, "1.00 GB"},
		{1536 * 1024 * 1024, "1.50 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := formatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatBitRate(t *testing.T) {
	tests := map[int]string{
		500:       "500 bps",
		128_000:   "128 kbps",
		2_500_000: "2.50 Mbps",
	}
	for bps, want := range tests {
		if got := formatBitRate(bps); got != want {
			t.Errorf("formatBitRate(%d) = %q, want %q", bps, got, want)
		}
	}
}
