package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/lesson/internal/caption"
	"github.com/mgpai22/lesson/internal/lesson"
)

// captions named on the command line, either a local caption file or a
// lesson address resolved through the content root
type target struct {
	Path  string
	Ref   lesson.Ref
	Index *caption.Index
	// local audio track, empty when none was found
	Audio string
}

func (t *target) Name() string {
	if t.Path != "" {
		return t.Path
	}
	return t.Ref.String()
}

// output path next to a local file, or named after the lesson otherwise
func (t *target) OutputBase() string {
	if t.Path != "" {
		return strings.TrimSuffix(t.Path, filepath.Ext(t.Path))
	}
	return t.Ref.Lesson
}

func resolveTarget(ctx context.Context, arg string) (*target, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		parser := &caption.Parser{Offset: cfg.Offset}
		idx, err := parser.Open(arg)
		if err != nil {
			return nil, err
		}
		t := &target{Path: arg, Index: idx}
		if audio := siblingAudio(arg); audio != "" {
			t.Audio = audio
		}
		return t, nil
	}

	ref, err := lesson.ParseRef(arg)
	if err != nil {
		return nil, fmt.Errorf("%q is neither a caption file nor a lesson address: %w", arg, err)
	}

	lib, err := cfg.Library()
	if err != nil {
		return nil, err
	}
	idx, err := lib.Captions(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to load captions for %s: %w", ref, err)
	}

	t := &target{Ref: ref, Index: idx}
	if dir, ok := lib.Source.(*lesson.DirSource); ok {
		if path, err := dir.Path(ref.Resources().Audio); err == nil && fileExists(path) {
			t.Audio = path
		}
	}
	return t, nil
}

// the .mp3 next to a caption file
func siblingAudio(captionPath string) string {
	audio := strings.TrimSuffix(captionPath, filepath.Ext(captionPath)) + ".mp3"
	if fileExists(audio) {
		return audio
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// mm:ss.xx for terminal listings
func clockString(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := int(seconds) / 60
	return fmt.Sprintf("%02d:%05.2f", minutes, seconds-float64(minutes*60))
}
