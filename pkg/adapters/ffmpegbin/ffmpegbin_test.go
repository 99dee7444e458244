package ffmpegbin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFind_CustomPath(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(fake, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	SetPath(FFmpeg, fake)
	defer SetPath(FFmpeg, "")

	got, err := Find(FFmpeg)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got != fake {
		t.Errorf("expected %s, got %s", fake, got)
	}
}

func TestFind_SiblingProbe(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"ffmpeg", "ffprobe"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("FFPROBE_PATH", "")
	SetPath(FFmpeg, filepath.Join(dir, "ffmpeg"))
	defer SetPath(FFmpeg, "")

	got, err := Find(FFprobe)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got != filepath.Join(dir, "ffprobe") {
		t.Errorf("expected sibling ffprobe, got %s", got)
	}
}

func TestFind_MissingCustomPath(t *testing.T) {
	SetPath(FFprobe, "/nonexistent/ffprobe")
	defer SetPath(FFprobe, "")

	if _, err := Find(FFprobe); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFind_MissingEnvPath(t *testing.T) {
	t.Setenv("FFMPEG_PATH", "/nonexistent/ffmpeg")

	if _, err := Find(FFmpeg); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
