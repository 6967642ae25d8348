package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mgpai22/lesson/internal/config"
	"github.com/mgpai22/lesson/internal/ffmpeg"
	"github.com/mgpai22/lesson/internal/logging"
)

var (
	verbose    bool
	configPath string
	logger     *logging.Logger
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Bilingual caption player for audio lessons",
	Long: `Lesson plays NCE-style audio lessons with timed bilingual captions.

It parses LRC caption files, follows playback segment by segment,
exports captions to other formats, fills missing translations with AI
and serves lessons over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if cfg.Path() != "" {
			logger.Debugw("Loaded config", "path", cfg.Path())
		}

		ffmpeg.Configure(ffmpeg.BinaryPaths{
			FFmpeg:  cfg.FFmpegPath,
			FFprobe: cfg.FFprobePath,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Config file (default lesson.yaml if present)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
}
