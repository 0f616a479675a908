package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"saju-engine/internal/config"
	"saju-engine/internal/handlers"
	"saju-engine/internal/httpserver"
	"saju-engine/internal/metrics"
	"saju-engine/pkg/logging"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logger, err := logging.NewLogger(cfg.Server.LogLevel, cfg.Server.Env)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()
			logging.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx = logging.WithLogger(ctx, logger)

			return serve(ctx, cfg, configPath, watch, logger)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (defaults plus env when empty)")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload scoring params when the config file changes")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, configPath string, watch bool, logger *zap.Logger) error {
	metrics.Register()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("shutdown_error", zap.Error(err))
		}
	}()
	a.registry.Start()

	if watch && configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, func(next *config.Config) {
				if err := a.svc.SetParams(next.Scoring); err != nil {
					logger.Error("scoring_params_rejected", zap.Error(err))
				}
			})
			if err != nil {
				logger.Error("config_watch_failed", zap.Error(err))
			}
		}()
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, handlers.New(a.svc), httpserver.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting_server",
		zap.String("addr", srv.Addr),
		zap.String("chart_provider", cfg.Chart.Provider),
		zap.String("result_backend", cfg.Cache.Result.Backend),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutdown_signal_received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", zap.Error(err))
		return err
	}

	logger.Info("server_shutdown_complete")
	return nil
}
