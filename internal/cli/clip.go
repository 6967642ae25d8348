package cli

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lesson/internal/audio"
)

var clipCmd = &cobra.Command{
	Use:   "clip [caption_file | book/lesson] [segment]",
	Short: "Cut the audio of one caption segment (or all of them) to files",
	Long: `Cut the [start, end) window of a caption segment out of the lesson
audio. Segments are numbered from 1 as listed by "lesson parse". The
last segment runs to the end of the track.

Examples:
  lesson clip NCE1/001 3
  lesson clip lessons/001.lrc 3 --audio lessons/001.mp3 -o line3.mp3
  lesson clip NCE1/001 --all -o clips/`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runClip,
}

func init() {
	rootCmd.AddCommand(clipCmd)

	clipCmd.Flags().String("audio", "", "Audio track (default: the lesson's .mp3)")
	clipCmd.Flags().Bool("all", false, "Clip every segment into the output directory")
	clipCmd.Flags().Int("concurrency", 4, "Number of parallel ffmpeg processes with --all")
}

func runClip(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	audioPath, _ := cmd.Flags().GetString("audio")
	all, _ := cmd.Flags().GetBool("all")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	outputPath, _ := cmd.Flags().GetString("output")

	if all == (len(args) == 2) {
		return fmt.Errorf("give either a segment number or --all")
	}

	t, err := resolveTarget(ctx, args[0])
	if err != nil {
		return err
	}
	if audioPath == "" {
		audioPath = t.Audio
	}
	if audioPath == "" {
		return fmt.Errorf("no local audio track for %s: use --audio", t.Name())
	}
	if !audio.IsAudioFile(audioPath) {
		return fmt.Errorf("not an audio file: %s", audioPath)
	}

	if all {
		if outputPath == "" {
			outputPath = t.OutputBase() + "_clips"
		}
		logger.Infow("Clipping all segments",
			"audio", audioPath,
			"segments", t.Index.Len(),
			"output_dir", outputPath,
		)
		clips, err := audio.ClipSegments(ctx, audioPath, t.Index.Segments(), outputPath, concurrency)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Clipped %d segments into %s\n", len(clips), outputPath)
		return nil
	}

	n, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid segment number %q", args[1])
	}
	seg, ok := t.Index.Get(n - 1)
	if !ok {
		return fmt.Errorf("segment %d out of range: %s has %d segments", n, t.Name(), t.Index.Len())
	}

	if outputPath == "" {
		outputPath = fmt.Sprintf("%s_%03d%s", t.OutputBase(), n, filepath.Ext(audioPath))
	}

	start := max(seg.Start, 0)
	if (seg.End != 0 || n < t.Index.Len()) && seg.End <= start {
		return fmt.Errorf("segment %d has no audio: it ends at %s", n, clockString(seg.End))
	}
	logger.Infow("Clipping segment",
		"segment", n,
		"start", start,
		"end", seg.End,
		"output", outputPath,
	)
	if err := audio.ClipSegment(ctx, audioPath, outputPath, start, seg.End); err != nil {
		return err
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Segment %d clipped: %s\n", n, absOutput)
	return nil
}
