package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lesson/internal/audio"
	"github.com/mgpai22/lesson/internal/caption"
)

var exportCmd = &cobra.Command{
	Use:   "export [caption_file | book/lesson]",
	Short: "Convert lesson captions to SRT, VTT, ASS or LRC",
	Long: `Convert a lesson's captions to another caption format.

Both texts of each segment are written, primary first. The last segment
has no end in LRC; it is closed at the end of the audio track when the
track can be probed with ffprobe, or --duration when given, and five
seconds after its start otherwise.

Examples:
  lesson export NCE1/001 --format srt
  lesson export lessons/001.lrc -o 001.vtt
  lesson export NCE1/001 --format ass --duration 83.5`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().
		StringP("format", "f", "", "Output format: srt, vtt, ass or lrc (default from output extension, else srt)")
	exportCmd.Flags().
		Float64("duration", 0, "Track length in seconds used to close the last segment")
	exportCmd.Flags().
		Bool("simplify", false, "Convert traditional Chinese secondary text to simplified")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	formatStr, _ := cmd.Flags().GetString("format")
	durationSec, _ := cmd.Flags().GetFloat64("duration")
	simplify, _ := cmd.Flags().GetBool("simplify")
	outputPath, _ := cmd.Flags().GetString("output")

	format, err := exportFormat(formatStr, outputPath)
	if err != nil {
		return err
	}

	t, err := resolveTarget(ctx, args[0])
	if err != nil {
		return err
	}
	if t.Index.Len() == 0 {
		return fmt.Errorf("%s contains no timed lines", t.Name())
	}

	if outputPath == "" {
		outputPath = t.OutputBase() + caption.GetExtensionForFormat(format)
	}

	doc := caption.NewDocument(t.Index)
	doc.Duration = trackDuration(ctx, t, durationSec)
	if simplify {
		if doc.Segments, err = simplifySegments(doc.Segments); err != nil {
			return err
		}
	}

	writer, err := caption.NewWriter(format)
	if err != nil {
		return err
	}
	if lw, ok := writer.(*caption.LRCWriter); ok {
		lw.Offset = cfg.Offset
	}

	logger.Infow("Exporting captions",
		"source", t.Name(),
		"output", outputPath,
		"format", format,
		"segments", len(doc.Segments),
		"duration", doc.Duration,
	)

	if err := writer.Write(doc, outputPath); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Captions exported: %s\n", absOutput)
	return nil
}

func exportFormat(flag, outputPath string) (caption.Format, error) {
	switch strings.ToLower(flag) {
	case "":
		if outputPath != "" {
			return caption.GetFormatFromExtension(outputPath), nil
		}
		return caption.FormatSRT, nil
	case "srt":
		return caption.FormatSRT, nil
	case "vtt":
		return caption.FormatVTT, nil
	case "ass", "ssa":
		return caption.FormatASS, nil
	case "lrc":
		return caption.FormatLRC, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use srt, vtt, ass or lrc", flag)
	}
}

// explicit duration first, then ffprobe on the local track; 0 if neither
func trackDuration(ctx context.Context, t *target, seconds float64) time.Duration {
	if seconds > 0 {
		return caption.Seconds(seconds)
	}
	if t.Audio == "" {
		return 0
	}
	d, err := audio.GetDuration(ctx, t.Audio)
	if err != nil {
		logger.Warnw("Could not probe track length", "audio", t.Audio, "error", err)
		return 0
	}
	return d
}
