// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/roicompress/pkg/orchestrator"
	"github.com/user/roicompress/pkg/pipeline"
	"github.com/user/roicompress/pkg/stages/encode"
)

// Config represents the full configuration for roicompress.
type Config struct {
	// Input/Output
	InputPath  string `yaml:"-"`
	OutputPath string `yaml:"-"`
	BoxesPath  string `yaml:"-"`

	// FrameRate overrides the source rate, e.g. "30" or "30000/1001".
	FrameRate string `yaml:"frame_rate"`

	Encoder    EncoderConfig    `yaml:"encoder"`
	Compositor CompositorConfig `yaml:"compositor"`

	Audio bool `yaml:"audio"`

	// External tools
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`

	// Debug
	Debug        bool   `yaml:"debug"`
	DebugDir     string `yaml:"debug_dir"`
	PreviewEvery int    `yaml:"preview_every"`

	// Logging / reporting
	LogLevel string `yaml:"log_level"`
	Summary  string `yaml:"summary"`
}

// EncoderConfig represents the output encoder settings.
type EncoderConfig struct {
	Codec   string `yaml:"codec"`
	Preset  string `yaml:"preset"`
	Profile string `yaml:"profile"`
	BitRate int    `yaml:"bitrate"` // bits per second
	CRF     int    `yaml:"crf"`     // 0 = use BitRate
	GOP     int    `yaml:"gop"`
}

// CompositorConfig represents the compositing settings.
type CompositorConfig struct {
	Chroma        string `yaml:"chroma"`     // cosited or outward
	Background    string `yaml:"background"` // black or compressed
	BackgroundCRF int    `yaml:"background_crf"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Encoder: EncoderConfig{
			Codec:   encode.DefaultCodec,
			Preset:  encode.DefaultPreset,
			Profile: encode.DefaultProfile,
			BitRate: pipeline.DefaultBitRate,
		},
		Compositor: CompositorConfig{
			Chroma:        string(pipeline.ChromaCosited),
			Background:    string(orchestrator.BackgroundBlack),
			BackgroundCRF: orchestrator.DefaultBackgroundCRF,
		},
		Audio:    true,
		DebugDir: "./debug",
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file on top of Defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w: %w", pipeline.ErrIO, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks enumerated values and ranges.
func (c Config) Validate() error {
	switch pipeline.ChromaPolicy(c.Compositor.Chroma) {
	case pipeline.ChromaCosited, pipeline.ChromaOutward:
	default:
		return fmt.Errorf("config: unknown chroma policy %q", c.Compositor.Chroma)
	}
	switch orchestrator.BackgroundMode(c.Compositor.Background) {
	case orchestrator.BackgroundBlack, orchestrator.BackgroundCompressed:
	default:
		return fmt.Errorf("config: unknown background %q", c.Compositor.Background)
	}
	if c.Encoder.CRF < 0 || c.Encoder.CRF > 51 {
		return fmt.Errorf("config: crf %d out of range 0-51", c.Encoder.CRF)
	}
	if c.Compositor.BackgroundCRF < 0 || c.Compositor.BackgroundCRF > 51 {
		return fmt.Errorf("config: background crf %d out of range 0-51", c.Compositor.BackgroundCRF)
	}
	if c.Encoder.BitRate < 0 || c.Encoder.GOP < 0 || c.PreviewEvery < 0 {
		return fmt.Errorf("config: negative bitrate, gop or preview interval")
	}
	if c.FrameRate != "" {
		r, err := pipeline.ParseRational(c.FrameRate)
		if err != nil {
			return fmt.Errorf("config: frame rate: %w", err)
		}
		if !r.Valid() {
			return fmt.Errorf("config: frame rate %s must be positive", c.FrameRate)
		}
	}
	return nil
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() (orchestrator.Config, error) {
	if err := c.Validate(); err != nil {
		return orchestrator.Config{}, err
	}

	var rate pipeline.Rational
	if c.FrameRate != "" {
		rate, _ = pipeline.ParseRational(c.FrameRate)
	}

	out := orchestrator.DefaultConfig()
	out.InputPath = c.InputPath
	out.OutputPath = c.OutputPath
	out.BoxesPath = c.BoxesPath
	out.Encoder = encode.Options{
		FrameRate: rate,
		BitRate:   c.Encoder.BitRate,
		CRF:       c.Encoder.CRF,
		Codec:     c.Encoder.Codec,
		Preset:    c.Encoder.Preset,
		Profile:   c.Encoder.Profile,
		GOPSize:   c.Encoder.GOP,
	}
	out.Chroma = pipeline.ChromaPolicy(c.Compositor.Chroma)
	out.Background = orchestrator.BackgroundMode(c.Compositor.Background)
	out.BackgroundCRF = c.Compositor.BackgroundCRF
	out.Audio = c.Audio
	if c.Debug {
		out.PreviewEvery = c.PreviewEvery
	}
	return out, nil
}
