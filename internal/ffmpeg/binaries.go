package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
)

type BinaryPaths struct {
	FFmpeg  string
	FFprobe string
}

var ErrNotFound = errors.New("ffmpeg binaries not found")

var (
	mu         sync.Mutex
	configured BinaryPaths
	resolved   *BinaryPaths
)

// Configure sets explicit binary paths, e.g. from the config file. Empty
// fields fall back to discovery.
func Configure(paths BinaryPaths) {
	mu.Lock()
	defer mu.Unlock()
	configured = paths
	resolved = nil
}

// Ensure locates ffmpeg and ffprobe once. Explicit configuration wins,
// then LESSON_FFMPEG_PATH / LESSON_FFPROBE_PATH, then PATH.
func Ensure() (BinaryPaths, error) {
	mu.Lock()
	defer mu.Unlock()
	if resolved != nil {
		return *resolved, nil
	}

	paths := BinaryPaths{
		FFmpeg:  firstNonEmpty(configured.FFmpeg, os.Getenv("LESSON_FFMPEG_PATH")),
		FFprobe: firstNonEmpty(configured.FFprobe, os.Getenv("LESSON_FFPROBE_PATH")),
	}
	if paths.FFmpeg == "" {
		if found, err := exec.LookPath("ffmpeg"); err == nil {
			paths.FFmpeg = found
		}
	}
	if paths.FFprobe == "" {
		if found, err := exec.LookPath("ffprobe"); err == nil {
			paths.FFprobe = found
		}
	}

	if paths.FFmpeg == "" || paths.FFprobe == "" {
		return BinaryPaths{}, fmt.Errorf(
			"%w: install ffmpeg or set LESSON_FFMPEG_PATH and LESSON_FFPROBE_PATH",
			ErrNotFound,
		)
	}
	resolved = &paths
	return paths, nil
}

func FFmpegPath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFmpeg, nil
}

func FFprobePath() (string, error) {
	paths, err := Ensure()
	if err != nil {
		return "", err
	}
	return paths.FFprobe, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
