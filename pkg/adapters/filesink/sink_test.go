package filesink

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/user/roicompress/pkg/mocks"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug")

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem(), &mocks.PreviewRenderer{})

	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.PreviewRenderer{})

	if err := sink.SaveStreamJSON([]byte(`{"width": 4}`)); err != nil {
		t.Fatalf("SaveStreamJSON failed: %v", err)
	}
	if err := sink.SaveTrackJSON([]byte(`[]`)); err != nil {
		t.Fatalf("SaveTrackJSON failed: %v", err)
	}

	if data, ok := fs.GetFile(filepath.Join(testBaseDir, "stream.json")); !ok || string(data) != `{"width": 4}` {
		t.Errorf("stream.json not saved correctly: %q", data)
	}
	if _, ok := fs.GetFile(filepath.Join(testBaseDir, "track.json")); !ok {
		t.Error("track.json not saved")
	}
}

func TestSink_SavePreview(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.PreviewRenderer{})

	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if err := sink.SavePreview(42, img); err != nil {
		t.Fatalf("SavePreview failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "frames", "frame-00042.png")
	if _, ok := fs.GetFile(expectedPath); !ok {
		t.Errorf("expected file at %s", expectedPath)
	}
	if exists, _ := fs.Exists(filepath.Join(testBaseDir, "frames")); !exists {
		t.Error("frames directory should be created")
	}
}

func TestSink_SavePreviewEncodeError(t *testing.T) {
	boom := errors.New("boom")
	renderer := &mocks.PreviewRenderer{
		EncodePNGFunc: func(image.Image) ([]byte, error) { return nil, boom },
	}
	sink := New(testBaseDir, mocks.NewFileSystem(), renderer)

	if err := sink.SavePreview(0, image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, boom) {
		t.Errorf("expected encode error, got %v", err)
	}
}
