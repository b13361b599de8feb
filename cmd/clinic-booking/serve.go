package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/wolfman30/clinic-scheduler/internal/api/router"
	"github.com/wolfman30/clinic-scheduler/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-scheduler/internal/config"
	"github.com/wolfman30/clinic-scheduler/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/clinic-scheduler/internal/http/middleware"
	"github.com/wolfman30/clinic-scheduler/internal/observability/metrics"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

const (
	sessionMaxIdle   = 30 * time.Minute
	sessionSweep     = 5 * time.Minute
	sessionRateLimit = 1.0
	sessionBurst     = 10
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the booking session API for browser front-ends",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				a.cfg.Port = port
			}
			if !cmd.Flags().Changed("log-format") && os.Getenv("LOG_FORMAT") == "" {
				a.logger = logging.NewWithWriter(cmd.ErrOrStderr(), a.cfg.LogLevel, "json")
			}
			return serve(cmd.Context(), a.cfg, a.logger)
		},
	}
	cmd.Flags().String("port", "", "Listen port (overrides PORT)")
	return cmd
}

// server bundles the HTTP handler with the background work it needs.
type server struct {
	handler  http.Handler
	registry *handlers.Registry
	limiter  *httpmiddleware.RateLimiter
}

func newServer(cfg *appconfig.Config, logger *logging.Logger) *server {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(reg)

	// Browsers report their own position, so sessions get no server-side locator.
	build := bootstrap.NewWorkflowBuilder(cfg, nil, nil, bookingMetrics, logger)
	registry := handlers.NewRegistry(sessionMaxIdle)
	limiter := httpmiddleware.NewRateLimiter(sessionRateLimit, sessionBurst)

	handler := router.New(&router.Config{
		Logger:             logger,
		Sessions:           handlers.NewSessionsHandler(build, registry, cfg.TokenSecret, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		TokenSecret:        cfg.TokenSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		SessionLimiter:     limiter,
	})
	return &server{handler: handler, registry: registry, limiter: limiter}
}

// sweep expires idle sessions until ctx is done.
func (s *server) sweep(ctx context.Context, logger *logging.Logger) {
	ticker := time.NewTicker(sessionSweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.registry.Prune(); n > 0 {
				logger.Info("expired idle booking sessions", "count", n)
			}
		}
	}
}

func serve(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	logger.Info("starting clinic booking server",
		"env", cfg.Env,
		"port", cfg.Port,
		"api_url", cfg.APIBaseURL,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := newServer(cfg, logger)
	go s.sweep(ctx, logger)
	go s.limiter.Run(ctx, sessionSweep)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.APITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case <-quit:
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		return err
	}
	logger.Info("server exited")
	return nil
}
