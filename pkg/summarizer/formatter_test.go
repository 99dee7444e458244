package summarizer

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		json bool
	}{
		{"summary.json", true},
		{"out/SUMMARY.JSON", true},
		{"summary.md", false},
		{"summary", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			out := ForPath(tt.path).Format(NewSummary())
			isJSON := strings.HasPrefix(out, "{")
			if isJSON != tt.json {
				t.Errorf("ForPath(%q) produced JSON = %v, want %v", tt.path, isJSON, tt.json)
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	summary := NewBuilder().
		WithRunID("run-1").
		WithTrack(TrackInfo{Records: 3, Reused: 7, Mismatch: true}).
		WithOutput(OutputInfo{FramesWritten: 10, Keyframes: 2}).
		WithElapsed(2 * time.Second).
		Build()

	var decoded map[string]any
	if err := json.Unmarshal([]byte(JSONFormatter.Format(summary)), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}

	if decoded["run_id"] != "run-1" {
		t.Errorf("run_id = %v", decoded["run_id"])
	}
	track := decoded["track"].(map[string]any)
	if track["records"] != float64(3) || track["reused"] != float64(7) || track["mismatch"] != true {
		t.Errorf("track = %v", track)
	}
	resources := decoded["resources"].(map[string]any)
	if resources["elapsed_ns"] != float64(2*time.Second) {
		t.Errorf("elapsed_ns = %v", resources["elapsed_ns"])
	}
}
