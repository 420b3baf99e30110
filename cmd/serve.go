package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"progress-server-go/db"
	"progress-server-go/handlers"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Start the HTTP server",
		RunE:    runServe,
	}
	cmd.Flags().String("addr", "", "Listen address (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	s, err := newScorer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var archive db.ReportArchive
	if cfg.Archive.Enabled {
		client, err := db.InitializeRedisClient(ctx, cfg.Archive.Addr, cfg.Archive.Password, cfg.Archive.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		archive = db.NewRedisService(client, cfg.Archive.TTL, cfg.Archive.MaxEntries, logger.Named("archive"))
		logger.Info("report archive enabled", zap.String("redis", cfg.Archive.Addr))
	}

	gin.SetMode(cfg.Server.Mode)
	h := handlers.NewAPIHandler(s, newCharts(cfg), archive, logger.Named("handlers"))
	h.MaxUploadBytes = cfg.Server.MaxUploadBytes

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handlers.NewRouter(h, logger.Named("http")),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("addr", cfg.Server.Addr),
			zap.String("policy", s.Policy().Name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("error shutting down server", zap.Error(err))
		return err
	}
	return nil
}
