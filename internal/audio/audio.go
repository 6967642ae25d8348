package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/mgpai22/lesson/internal/caption"
	ffmpegbin "github.com/mgpai22/lesson/internal/ffmpeg"
)

var ErrInvalidRange = errors.New("invalid clip range")

// one extracted segment clip
type ClipInfo struct {
	Path  string
	Index int
	Start time.Duration
	End   time.Duration
}

// parses the duration out of ffprobe's -print_format json output
func parseProbe(out []byte) (time.Duration, error) {
	if !gjson.ValidBytes(out) {
		return 0, fmt.Errorf("failed to parse ffprobe output: invalid json")
	}
	value := gjson.GetBytes(out, "format.duration")
	if !value.Exists() {
		return 0, fmt.Errorf("failed to parse ffprobe output: no format.duration")
	}
	seconds := value.Float()
	if seconds <= 0 {
		return 0, fmt.Errorf("failed to parse duration: %q", value.String())
	}
	return caption.Seconds(seconds), nil
}

// duration of an audio file
func GetDuration(ctx context.Context, filePath string) (time.Duration, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return 0, fmt.Errorf("file not found: %s", filePath)
	}

	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbe(out.Bytes())
}

// ffmpeg output arguments for the [start, end) window; end 0 runs to the end
// of the track
func clipArgs(outputPath string, start, end float64) (ffmpeg.KwArgs, error) {
	if start < 0 || (end != 0 && end <= start) {
		return nil, fmt.Errorf("%w: start %.3f end %.3f", ErrInvalidRange, start, end)
	}

	kwargs := ffmpeg.KwArgs{
		"ss": fmt.Sprintf("%.3f", start),
		"vn": "",
		"y":  "",
	}
	if end != 0 {
		kwargs["t"] = fmt.Sprintf("%.3f", end-start)
	}

	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".mp3":
		kwargs["acodec"] = "libmp3lame"
	case ".m4a", ".aac":
		kwargs["acodec"] = "aac"
	case ".wav":
		kwargs["acodec"] = "pcm_s16le"
	default:
		kwargs["c"] = "copy"
	}
	return kwargs, nil
}

// extracts [start, end) of the track into outputPath
func ClipSegment(
	ctx context.Context,
	audioPath, outputPath string,
	start, end float64,
) error {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return fmt.Errorf("audio file not found: %s", audioPath)
	}

	kwargs, err := clipArgs(outputPath, start, end)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	err = ffmpeg.Input(audioPath).
		Output(outputPath, kwargs).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		return fmt.Errorf("clip failed: %w", err)
	}

	return nil
}

// clipJob represents a single segment clip to be created
type clipJob struct {
	index int
	start float64
	end   float64
	path  string
}

// ClipSegments writes one clip per caption segment into outputDir.
// If concurrency is 0 or negative, it defaults to 4 concurrent workers.
func ClipSegments(
	ctx context.Context,
	audioPath string,
	segments []caption.Segment,
	outputDir string,
	concurrency int,
) ([]ClipInfo, error) {
	if concurrency <= 0 {
		concurrency = 4
	}

	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	jobs := planClips(audioPath, segments, outputDir)

	var (
		mu       sync.Mutex
		clips    []ClipInfo
		firstErr error
		wg       sync.WaitGroup
	)

	sem := make(chan struct{}, concurrency)

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			_ = CleanupClips(clips)
			return nil, err
		}

		mu.Lock()
		hasErr := firstErr != nil
		mu.Unlock()
		if hasErr {
			break
		}

		wg.Add(1)
		go func(j clipJob) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			mu.Lock()
			hasErr := firstErr != nil
			mu.Unlock()
			if hasErr {
				return
			}

			err := ClipSegment(ctx, audioPath, j.path, j.start, j.end)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to clip segment %d: %w", j.index, err)
				}
				return
			}

			clips = append(clips, ClipInfo{
				Path:  j.path,
				Index: j.index,
				Start: caption.Seconds(j.start),
				End:   caption.Seconds(j.end),
			})
		}(job)
	}

	wg.Wait()

	if firstErr != nil {
		if err := CleanupClips(clips); err != nil {
			return nil, fmt.Errorf("%w (cleanup: %v)", firstErr, err)
		}
		return nil, firstErr
	}

	sort.Slice(clips, func(i, j int) bool {
		return clips[i].Index < clips[j].Index
	})

	return clips, nil
}

func planClips(audioPath string, segments []caption.Segment, outputDir string) []clipJob {
	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	ext := filepath.Ext(audioPath)

	jobs := make([]clipJob, 0, len(segments))
	for i, seg := range segments {
		start := max(seg.Start, 0)
		end := seg.End
		// only the last segment may run to the end of the track
		if (end != 0 || i < len(segments)-1) && end <= start {
			continue
		}
		jobs = append(jobs, clipJob{
			index: i,
			start: start,
			end:   end,
			path:  filepath.Join(outputDir, fmt.Sprintf("%s_%03d%s", baseName, i+1, ext)),
		})
	}
	return jobs
}

// checks if the file is an audio file based on extension
func IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	audioExts := map[string]bool{
		".mp3":  true,
		".wav":  true,
		".aac":  true,
		".flac": true,
		".ogg":  true,
		".m4a":  true,
		".wma":  true,
		".aiff": true,
	}
	return audioExts[ext]
}

// removes all clip files
func CleanupClips(clips []ClipInfo) error {
	var lastErr error
	for _, clip := range clips {
		if err := os.Remove(clip.Path); err != nil && !os.IsNotExist(err) {
			lastErr = err
		}
	}
	return lastErr
}
