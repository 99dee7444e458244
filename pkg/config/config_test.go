package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/roicompress/pkg/orchestrator"
	"github.com/user/roicompress/pkg/pipeline"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roicompress.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Compositor.Chroma != "cosited" || cfg.Compositor.Background != "black" {
		t.Errorf("unexpected compositor defaults %+v", cfg.Compositor)
	}
	if cfg.Compositor.BackgroundCRF != 51 {
		t.Errorf("expected background crf 51, got %d", cfg.Compositor.BackgroundCRF)
	}
	if !cfg.Audio {
		t.Error("expected audio enabled by default")
	}
	if cfg.Encoder.BitRate != pipeline.DefaultBitRate || cfg.Encoder.CRF != 0 {
		t.Errorf("unexpected encoder defaults %+v", cfg.Encoder)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
frame_rate: 30000/1001
encoder:
  preset: slow
  crf: 23
  gop: 60
compositor:
  chroma: outward
  background: compressed
  background_crf: 45
audio: false
debug: true
preview_every: 10
log_level: debug
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.FrameRate != "30000/1001" || cfg.Encoder.Preset != "slow" || cfg.Encoder.CRF != 23 || cfg.Encoder.GOP != 60 {
		t.Errorf("unexpected encoder settings %+v", cfg.Encoder)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Encoder.Codec != "libx264" || cfg.Encoder.Profile != "baseline" {
		t.Errorf("expected default codec and profile, got %+v", cfg.Encoder)
	}
	if cfg.Compositor.Chroma != "outward" || cfg.Compositor.Background != "compressed" || cfg.Compositor.BackgroundCRF != 45 {
		t.Errorf("unexpected compositor settings %+v", cfg.Compositor)
	}
	if cfg.Audio || !cfg.Debug || cfg.PreviewEvery != 10 || cfg.LogLevel != "debug" {
		t.Errorf("unexpected settings %+v", cfg)
	}
	if cfg.DebugDir != "./debug" {
		t.Errorf("expected default debug dir, got %s", cfg.DebugDir)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, pipeline.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := map[string]string{
		"syntax":     "encoder: [",
		"chroma":     "compositor:\n  chroma: center\n",
		"background": "compositor:\n  background: blur\n",
		"crf":        "encoder:\n  crf: 70\n",
		"frame rate": "frame_rate: 0/1\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFromFile(writeConfig(t, content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestToOrchestratorConfig(t *testing.T) {
	cfg := Defaults()
	cfg.InputPath = "in.mp4"
	cfg.OutputPath = "out.mp4"
	cfg.BoxesPath = "boxes.txt"
	cfg.FrameRate = "25"
	cfg.Encoder.CRF = 28
	cfg.Compositor.Background = "compressed"
	cfg.PreviewEvery = 5

	out, err := cfg.ToOrchestratorConfig()
	if err != nil {
		t.Fatalf("ToOrchestratorConfig failed: %v", err)
	}

	if out.InputPath != "in.mp4" || out.OutputPath != "out.mp4" || out.BoxesPath != "boxes.txt" {
		t.Errorf("unexpected paths %+v", out)
	}
	if out.Encoder.FrameRate != (pipeline.Rational{Num: 25, Den: 1}) || out.Encoder.CRF != 28 {
		t.Errorf("unexpected encoder options %+v", out.Encoder)
	}
	if out.Background != orchestrator.BackgroundCompressed || out.Chroma != pipeline.ChromaCosited {
		t.Errorf("unexpected composition %s %s", out.Background, out.Chroma)
	}
	if out.BackgroundPath != orchestrator.DefaultBackgroundPath {
		t.Errorf("expected default background path, got %s", out.BackgroundPath)
	}
	// Previews are only taken in debug mode.
	if out.PreviewEvery != 0 {
		t.Errorf("expected previews disabled without debug, got %d", out.PreviewEvery)
	}

	cfg.Debug = true
	out, _ = cfg.ToOrchestratorConfig()
	if out.PreviewEvery != 5 {
		t.Errorf("expected preview every 5, got %d", out.PreviewEvery)
	}
}
