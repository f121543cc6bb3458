// Package main is the entry point for the bike-dash HTTP server. It serves
// the dashboard under /ui and the JSON API under /api/v1.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	flag "github.com/spf13/pflag"

	"bike-dash/internal/api"
	"bike-dash/internal/app"
	"bike-dash/internal/cache"
	"bike-dash/internal/config"
	"bike-dash/internal/middleware"
	"bike-dash/internal/ui"
)

const defaultCurlHost = "localhost:8080"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("bike-dash-server", flag.ContinueOnError)
	envFile := fs.String("env-file", ".env", "dotenv file loaded before reading the environment")
	listen := fs.String("listen", "", "listen address (overrides LISTEN_ADDR)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.LoadDotEnv(*envFile); err != nil {
		return fmt.Errorf("load %s: %w", *envFile, err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn("config", "warning", w)
	}

	application, err := app.New(app.Deps{Cfg: cfg, Logger: logger})
	if err != nil {
		return err
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})

	sweeper, err := cache.NewSweeper(application.Cache, cfg.CacheSweepSchedule, logger.With("component", "cache"))
	if err != nil {
		return err
	}
	if err := sweeper.AddFunc(cfg.CacheSweepSchedule, func() {
		if n := limiter.Prune(middleware.DefaultClientIdle); n > 0 {
			logger.Debug("pruned idle rate limit clients", "count", n)
		}
	}); err != nil {
		return err
	}
	sweeper.Start()
	defer sweeper.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           newRouter(application, cfg, limiter, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	host := curlHostForListenAddr(cfg.ListenAddr)
	logger.Info("HTTP server listening",
		"addr", cfg.ListenAddr,
		"dashboard", "http://"+host+"/ui",
		"api", "http://"+host+"/api/v1/trips",
		"live_enabled", cfg.LiveEnabled(),
		"store_driver", cfg.TripsStoreDriver,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// newRouter builds the full handler tree: shared middleware, /healthz,
// the JSON API and the dashboard.
func newRouter(a *app.App, cfg *config.Config, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", api.Healthz)
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/ui", http.StatusFound)
	})

	apiHandler := api.NewHandler(a.Services.Trips, a.Services.Routes, a.Services.Live, logger.With("component", "api"))
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Handler)
		apiHandler.MountRoutes(r)
	})

	uiHandler := ui.NewHandler(a.Services.Trips, a.Services.Routes, a.Services.Live, cfg.IsProduction(), logger.With("component", "ui"))
	r.Route("/ui", func(r chi.Router) {
		r.Use(limiter.Handler)
		ui.MountRoutes(r, uiHandler)
	})

	return r
}

// curlHostForListenAddr turns a listen address into a host:port a browser or
// curl can reach. Wildcard and empty hosts become localhost.
func curlHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return defaultCurlHost
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
