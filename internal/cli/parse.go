package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lesson/internal/caption"
)

var parseCmd = &cobra.Command{
	Use:   "parse [caption_file | book/lesson]",
	Short: "Parse an LRC caption file into timed segments",
	Long: `Parse an LRC caption file and list its segments with their
resolved [start, end) windows.

The argument is either a local .lrc file or a lesson address such as
NCE1/001, which is read from the configured content root.

Examples:
  lesson parse NCE1/001
  lesson parse lessons/001.lrc --json -o 001.json
  lesson parse NCE2/005 --simplify`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().Bool("json", false, "Print segments and metadata as JSON")
	parseCmd.Flags().
		Bool("simplify", false, "Convert traditional Chinese secondary text to simplified")
}

type parseOutput struct {
	Metadata caption.Metadata  `json:"metadata"`
	Segments []caption.Segment `json:"segments"`
}

func runParse(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	simplify, _ := cmd.Flags().GetBool("simplify")
	outputPath, _ := cmd.Flags().GetString("output")

	t, err := resolveTarget(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	segments := t.Index.Segments()
	if simplify {
		if segments, err = simplifySegments(segments); err != nil {
			return err
		}
	}

	logger.Infow("Parsed captions",
		"source", t.Name(),
		"segments", len(segments),
	)

	out := cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(parseOutput{Metadata: t.Index.Metadata(), Segments: segments})
	}
	return printSegments(out, t.Index.Metadata(), segments)
}

func printSegments(w io.Writer, meta caption.Metadata, segments []caption.Segment) error {
	if meta.Title != "" || meta.Artist != "" || meta.Album != "" {
		if _, err := fmt.Fprintf(w, "%s | %s | %s\n", meta.Title, meta.Artist, meta.Album); err != nil {
			return err
		}
	}
	for i, seg := range segments {
		end := "end"
		if !seg.OpenEnded() {
			end = clockString(seg.End)
		}
		line := fmt.Sprintf("%3d  %s -> %-8s  %s", i+1, clockString(seg.Start), end, seg.Primary)
		if seg.Secondary != "" {
			line += " | " + seg.Secondary
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func simplifySegments(segments []caption.Segment) ([]caption.Segment, error) {
	s, err := caption.NewSimplifier()
	if err != nil {
		return nil, err
	}
	return s.Apply(segments), nil
}
