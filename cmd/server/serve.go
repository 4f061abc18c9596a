package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trypzy/backend/internal/advisory"
	"github.com/trypzy/backend/internal/api"
	"github.com/trypzy/backend/internal/api/handlers"
	"github.com/trypzy/backend/internal/config"
	"github.com/trypzy/backend/internal/metrics"
	"github.com/trypzy/backend/internal/notify"
	"github.com/trypzy/backend/internal/roster"
	"github.com/trypzy/backend/internal/schedule"
	"github.com/trypzy/backend/internal/storage"
	"github.com/trypzy/backend/internal/websocket"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		addr        string
		healthCheck bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduling API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			// Health check mode for Docker HEALTHCHECK
			if healthCheck {
				return runHealthCheck(cfg.Server.Addr)
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := cfg.Log.NewLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP server address (overrides config)")
	cmd.Flags().BoolVar(&healthCheck, "health-check", false, "Run health check and exit")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting trypzy", zap.String("version", version))

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database ready", zap.String("path", db.Path()))

	m, err := metrics.New()
	if err != nil {
		return err
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(logger.Named("websocket"), m.SetWebsocketClients)
	broadcaster := websocket.NewEventBroadcaster(hub, logger.Named("websocket"))

	trips := storage.NewTripRepository(db)
	rosters, err := roster.NewCache(trips, cfg.Roster.CacheSize, cfg.Roster.CacheTTL)
	if err != nil {
		return err
	}
	svc := schedule.NewService(storage.NewScheduleStore(db), rosters, schedule.Options{
		MaxWindowsPerUser:   cfg.Schedule.MaxWindowsPerUser,
		SimilarityThreshold: cfg.Schedule.SimilarityThreshold,
	})

	sinks := []notify.Sink{
		notify.NewHubSink(broadcaster),
		notify.NewLogSink(logger.Named("notify")),
	}
	if cfg.Notify.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookSink(cfg.Notify.WebhookURL, 10*time.Second))
	}
	dispatcher := notify.NewDispatcher(storage.NewEventRepository(db), sinks, cfg.Notify.Interval, logger.Named("notify"), m.Delivery)

	deps := &handlers.Deps{
		Service:     svc,
		Broadcaster: broadcaster,
		Observer:    m,
		Logger:      logger.Named("api"),
	}
	if cfg.AdvisoryEnabled() {
		deps.Advisory = advisory.NewClient(advisory.Config{
			BaseURL: cfg.Advisory.BaseURL,
			Token:   cfg.Advisory.Token,
			Timeout: cfg.Advisory.Timeout,
		})
	}

	router := api.NewRouter(api.Options{
		DB:          db,
		Hub:         hub,
		Deps:        deps,
		Metrics:     m,
		Logger:      logger.Named("http"),
		JWTSecret:   cfg.Auth.JWTSecret,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	if cfg.Auth.JWTSecret == "" {
		logger.Warn("no JWT secret configured, trusting the X-User-ID header")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := dispatcher.Start(); err != nil {
		return err
	}
	defer dispatcher.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
