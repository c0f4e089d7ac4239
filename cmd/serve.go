package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"ocrdoc/internal/api"
	"ocrdoc/internal/export"
	"ocrdoc/internal/logger"
	"ocrdoc/internal/ocr"
	"ocrdoc/internal/pipeline"
	"ocrdoc/internal/render"
	"ocrdoc/internal/session"
)

// sessionIdleTTL is how long an untouched session is kept.
const sessionIdleTTL = 2 * time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the OCR session API over HTTP",
	Long: `Start an HTTP server exposing OCR sessions.

A client creates a session, uploads images, starts a batch, follows the
progress as server-sent events and downloads txt, docx or pdf exports.
Sessions live in memory and are dropped after two hours without activity.

Configuration: PORT, GIN_MODE, ALLOWED_ORIGINS, MAX_UPLOAD_MB and the
engine variables of "ocrdoc ocr".`,
	Example: `  ocrdoc serve
  ocrdoc serve --port 9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "Listen port (default: PORT or 8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, err := ocr.New(ctx, cfg)
	if err != nil {
		return handleOCRError(err, cfg.Engine, log)
	}
	defer rec.Close()

	exporter := export.New(nil, render.WithPDFFont(cfg.PDFFontPath))
	sessions := session.NewManager(pipeline.New(rec), exporter, cfg.Languages)

	handler := api.NewHandler(ctx, sessions, api.Config{
		AllowedOrigins: cfg.AllowedOrigins,
		MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
		ExportBaseName: cfg.ExportBaseName,
		Version:        version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go pruneSessions(ctx, sessions)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("engine", rec.Name()).
			Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		sessions.Close()
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := stopServer(shutdownCtx, srv, sessions); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exited")
	return nil
}

// stopServer closes every session first, which ends open progress streams
// and cancels running batches, then drains the HTTP server.
func stopServer(ctx context.Context, srv *http.Server, sessions *session.Manager) error {
	sessions.Close()
	return srv.Shutdown(ctx)
}

// pruneSessions drops idle sessions until ctx is done.
func pruneSessions(ctx context.Context, sessions *session.Manager) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.Prune(sessionIdleTTL)
		}
	}
}
