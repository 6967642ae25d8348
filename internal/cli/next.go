package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lesson/internal/lesson"
)

var nextCmd = &cobra.Command{
	Use:   "next [book/lesson]",
	Short: "Show the lesson that follows a lesson in the manifest",
	Long: `Look up the lesson after the given one in the lesson manifest. The
last lesson of a book is followed by the first lesson of the next book.

An empty address points to the book list.

Examples:
  lesson next NCE1/001
  lesson next "#NCE1/143"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNext,
}

func init() {
	rootCmd.AddCommand(nextCmd)
}

func runNext(cmd *cobra.Command, args []string) error {
	address := ""
	if len(args) == 1 {
		address = args[0]
	}
	out := cmd.OutOrStdout()

	ref, err := lesson.ParseRef(address)
	if errors.Is(err, lesson.ErrEmptyRef) {
		fmt.Fprintf(out, "No lesson given; see %s\n", lesson.HomePage)
		return nil
	}
	if err != nil {
		return err
	}

	lib, err := cfg.Library()
	if err != nil {
		return err
	}
	manifest, err := lib.Manifest(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	next, err := manifest.Next(ref)
	switch {
	case errors.Is(err, lesson.ErrNoNextLesson):
		fmt.Fprintf(out, "%s is the last lesson; back to %s\n", ref, ref.Resources().BookIndex)
		return nil
	case err != nil:
		return err
	}

	res := next.Resources()
	fmt.Fprintln(out, next.String())
	fmt.Fprintf(out, "  Page: %s\n", next.PageURL())
	fmt.Fprintf(out, "  Audio: %s\n", res.Audio)
	fmt.Fprintf(out, "  Captions: %s\n", res.Caption)
	if entry, ok := manifest.Lookup(next); ok && entry.Title != "" {
		fmt.Fprintf(out, "  Title: %s\n", entry.Title)
	}
	return nil
}
