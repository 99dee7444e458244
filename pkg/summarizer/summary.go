// Package summarizer provides summary generation for compositing runs.
package summarizer

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/process"
)

// Summary contains all data collected during a compositing run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time `json:"generated_at"`
	RunID       string    `json:"run_id"`

	// Input stream
	Input InputInfo `json:"input"`

	// Box track
	Track TrackInfo `json:"track"`

	// Encoding and compositing settings
	Settings Settings `json:"settings"`

	// Output details
	Output OutputInfo `json:"output"`

	// Resource usage
	Resources ResourceInfo `json:"resources"`
}

// InputInfo describes the decoded input stream.
type InputInfo struct {
	Path         string `json:"path"`
	Codec        string `json:"codec"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	PixelFormat  string `json:"pixel_format"`
	FrameRate    string `json:"frame_rate"`
	SampleAspect string `json:"sample_aspect"`
	FrameCount   int    `json:"frame_count"` // container estimate
	HasAudio     bool   `json:"has_audio"`
}

// TrackInfo describes the bounding box track.
type TrackInfo struct {
	Path     string `json:"path"`
	Records  int    `json:"records"`
	Skipped  int    `json:"skipped"` // malformed lines
	Reused   int    `json:"reused"`  // frames past the end of the track
	Empty    int    `json:"empty"`   // records empty before clamping
	Mismatch bool   `json:"mismatch"`
}

// Settings contains the run configuration.
type Settings struct {
	Codec         string `json:"codec"`
	Preset        string `json:"preset"`
	Profile       string `json:"profile"`
	CRF           int    `json:"crf"` // 0 when a bit rate is used
	BitRate       int    `json:"bit_rate"`
	GOPSize       int    `json:"gop_size"`
	Chroma        string `json:"chroma"`
	Background    string `json:"background"`
	BackgroundCRF int    `json:"background_crf"`
}

// OutputInfo contains information about the output video.
type OutputInfo struct {
	Path           string `json:"path"`
	FrameRate      string `json:"frame_rate"`
	FramesDecoded  int    `json:"frames_decoded"`
	FramesWritten  int    `json:"frames_written"`
	PacketsWritten int    `json:"packets_written"`
	Keyframes      int    `json:"keyframes"`
	FileSize       int64  `json:"file_size"`
	AudioCopied    bool   `json:"audio_copied"`
}

// ResourceInfo contains run time and memory usage.
type ResourceInfo struct {
	Elapsed  time.Duration `json:"elapsed_ns"`
	RSSBytes uint64        `json:"rss_bytes"` // resident set size at the end of the run, 0 if unknown
}

// FramesPerSecond returns the processing speed.
func (r ResourceInfo) FramesPerSecond(frames int) float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(frames) / r.Elapsed.Seconds()
}

// NewSummary creates a new Summary with the current timestamp and a fresh run id.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
		RunID:       uuid.NewString(),
	}
}

// CurrentRSS returns the resident set size of this process.
func CurrentRSS() (uint64, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return mem.RSS, nil
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithRunID overrides the generated run id.
func (b *Builder) WithRunID(id string) *Builder {
	b.summary.RunID = id
	return b
}

// WithInput sets input stream information.
func (b *Builder) WithInput(input InputInfo) *Builder {
	b.summary.Input = input
	return b
}

// WithTrack sets box track information.
func (b *Builder) WithTrack(track TrackInfo) *Builder {
	b.summary.Track = track
	return b
}

// WithSettings sets run settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithOutput sets output information.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Output = output
	return b
}

// WithElapsed sets the run duration.
func (b *Builder) WithElapsed(elapsed time.Duration) *Builder {
	b.summary.Resources.Elapsed = elapsed
	return b
}

// WithMemory samples the resident set size of the current process.
// Sampling failures leave it at zero.
func (b *Builder) WithMemory() *Builder {
	if rss, err := CurrentRSS(); err == nil {
		b.summary.Resources.RSSBytes = rss
	}
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
