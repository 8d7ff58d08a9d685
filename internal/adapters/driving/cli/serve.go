package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paperbase/paperbase/internal/adapters/driving/httpapi"
	"github.com/paperbase/paperbase/internal/adapters/driving/watcher"
	"github.com/paperbase/paperbase/internal/extractors"
	"github.com/paperbase/paperbase/internal/logger"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the HTTP API on the configured port. When watching is
enabled, documents are ingested automatically as files change under
the documents root.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if ingestService == nil || queryService == nil || documentService == nil {
		return errors.New("services not configured")
	}
	cfg := appConfig
	if cfg == nil {
		return errors.New("configuration not loaded")
	}

	port := cfg.Port
	if servePort > 0 {
		port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Watch {
		w := watcher.New(cfg.DataDir, ingestService, extractors.MediaTypeFor,
			watcher.WithDebounce(cfg.WatchDebounce))
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Warn("Watcher stopped: %v", err)
			}
		}()
	}

	srv := httpapi.NewServer(port, ingestService, queryService, answerService, documentService,
		httpapi.WithUploadDir(cfg.DataDir))
	cmd.Printf("Listening on :%d\n", port)
	return srv.ListenAndServe(ctx)
}
