// ABOUTME: CLI command to run the HTTP API server
// ABOUTME: Optionally watches the docs tree and reindexes on changes
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/docchat-standalone/internal/server"
	"github.com/harper/docchat-standalone/internal/storage/sqlite"
	"github.com/harper/docchat-standalone/internal/watcher"
)

var (
	serveAddr  string
	serveWatch bool
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the documentation chat API.

Endpoints:
  GET  /health
  GET  /api/models
  POST /api/chat
  POST /api/sessions
  GET  /api/sessions/{id}/messages
  POST /api/reindex

With --watch, markdown changes under the docs directory trigger an
automatic reindex.

Examples:
  docchat serve
  docchat serve --addr :9090 --watch`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides HTTP_ADDR)")
	cmd.Flags().BoolVar(&serveWatch, "watch", false, "Reindex automatically when docs change")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		os.Setenv("HTTP_ADDR", serveAddr)
	}
	if serveWatch {
		os.Setenv("WATCH_DOCS", "true")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	db, err := sqlite.Open(a.cfg.ChatDBPath)
	if err != nil {
		return fmt.Errorf("opening chat database: %w", err)
	}
	defer func() { _ = db.Close() }()

	history := sqlite.NewChatStore(db)

	srv := server.New(server.Config{
		Addr:               a.cfg.HTTPAddr,
		EnableChatHistory:  a.cfg.EnableChatHistory,
		MaxHistoryMessages: a.cfg.MaxHistoryMessages,
	}, a.retriever, a.ingestor, history, a.logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.WatchDocs {
		w, err := watcher.New(a.cfg.DocsPath, a.ingestor, watcher.DefaultDebounce, a.logger)
		if err != nil {
			return fmt.Errorf("initializing docs watcher: %w", err)
		}
		go func() {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				a.logger.Error("docs watcher stopped", zap.Error(err))
			}
		}()
	}

	return srv.Start(ctx)
}
