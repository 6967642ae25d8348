package cli

import (
	"github.com/spf13/cobra"

	"github.com/mgpai22/lesson/internal/lesson"
	"github.com/mgpai22/lesson/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lessons, captions and audio over HTTP",
	Long: `Start the HTTP lesson API:

  GET /api/manifest                  books and their lessons
  GET /api/lessons/{book}/{lesson}   parsed captions, resources and next lesson
  GET /api/resolve?address=...       page for a lesson address
  GET /content/...                   files under the content root

Parsed captions are cached; with a local content root the cache follows
file changes.

Examples:
  lesson serve
  lesson serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().Bool("watch", true, "Invalidate cached captions when local files change")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	addr := cfg.Addr
	stringFlag(cmd, "addr", &addr)
	watch, _ := cmd.Flags().GetBool("watch")

	lib, err := cfg.Library()
	if err != nil {
		return err
	}

	srv := server.New(lib, cfg.CORSOrigins, logger)

	if dir, ok := lib.Source.(*lesson.DirSource); ok && watch {
		if err := srv.Cache().Watch(ctx, dir.Root); err != nil {
			logger.Warnw("File watching disabled", "root", dir.Root, "error", err)
		}
	}

	logger.Infow("Serving lessons",
		"content_root", cfg.ContentRoot,
		"manifest", lib.ManifestPath,
		"addr", addr,
	)
	return srv.ListenAndServe(ctx, addr)
}
