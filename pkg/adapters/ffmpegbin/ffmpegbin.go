// Package ffmpegbin locates the ffmpeg and ffprobe executables.
package ffmpegbin

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Tool names.
const (
	FFmpeg  = "ffmpeg"
	FFprobe = "ffprobe"
)

// ErrNotFound is returned when an executable cannot be located.
var ErrNotFound = errors.New("ffmpegbin: executable not found")

var (
	mu          sync.RWMutex
	customPaths = map[string]string{}
)

// SetPath overrides the location of tool. An empty path clears the override.
func SetPath(tool, path string) {
	mu.Lock()
	defer mu.Unlock()
	if path == "" {
		delete(customPaths, tool)
		return
	}
	customPaths[tool] = path
}

// Available reports whether both ffmpeg and ffprobe can be found.
func Available() bool {
	if _, err := Find(FFmpeg); err != nil {
		return false
	}
	_, err := Find(FFprobe)
	return err == nil
}

// Find searches for tool.
// Priority: 1) SetPath override, 2) FFMPEG_PATH / FFPROBE_PATH env,
// 3) a sibling of an overridden ffmpeg (for ffprobe), 4) PATH, 5) common locations.
func Find(tool string) (string, error) {
	mu.RLock()
	custom := customPaths[tool]
	ffmpegCustom := customPaths[FFmpeg]
	mu.RUnlock()

	if custom != "" {
		if _, err := os.Stat(custom); err == nil {
			return custom, nil
		}
		return "", fmt.Errorf("%w: custom path %s for %s", ErrNotFound, custom, tool)
	}

	envName := strings.ToUpper(tool) + "_PATH"
	if envPath := os.Getenv(envName); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: %s %s", ErrNotFound, envName, envPath)
	}

	execName := tool
	if runtime.GOOS == "windows" {
		execName += ".exe"
	}

	if tool != FFmpeg && ffmpegCustom != "" {
		sibling := filepath.Join(filepath.Dir(ffmpegCustom), execName)
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}

	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	for _, dir := range commonDirs() {
		p := filepath.Join(dir, execName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, tool)
}

func commonDirs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\ffmpeg\bin`,
			`C:\Program Files\ffmpeg\bin`,
			`C:\Program Files (x86)\ffmpeg\bin`,
		}
	case "darwin":
		return []string{
			"/opt/homebrew/bin",
			"/usr/local/bin",
			"/usr/bin",
		}
	default:
		return []string{
			"/usr/bin",
			"/usr/local/bin",
			"/opt/homebrew/bin",
			"/snap/bin",
		}
	}
}
