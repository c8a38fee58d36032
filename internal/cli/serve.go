package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkang/heritaged/internal/api"
	"github.com/mkang/heritaged/internal/worker"
)

var servePort int

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the vault HTTP API",
	Long: `Serve starts the management API:
- POST /assets uploads and classifies a file
- GET /assets lists the vault, GET /assets/{id}/content downloads bytes
- POST /assets/{id}/tokenize mints an on-chain token
- GET /inheritance/preferences returns per-category recommendations

Example:
  heritaged serve
  heritaged serve --port 9000
  HERITAGED_SERVER_TOKEN=secret heritaged serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	logger := newLogger(cfg)

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	// requests_per_second <= 0 disables upload pacing
	var limiter *worker.Limiter
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	}

	handler := api.NewHandler(api.Deps{
		Service:        a.service,
		Token:          cfg.Server.Token,
		MaxUploadBytes: cfg.Storage.MaxUploadMiB << 20,
		Limiter:        limiter,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
