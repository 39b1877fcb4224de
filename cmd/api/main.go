// Package main is the entry point for the TripStory API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pkordes/tripstory/internal/auth"
	"github.com/pkordes/tripstory/internal/config"
	"github.com/pkordes/tripstory/internal/geocode"
	"github.com/pkordes/tripstory/internal/handler"
	"github.com/pkordes/tripstory/internal/metrics"
	"github.com/pkordes/tripstory/internal/middleware"
	"github.com/pkordes/tripstory/internal/photo"
	"github.com/pkordes/tripstory/internal/repo"
	"github.com/pkordes/tripstory/internal/service"
	"github.com/pkordes/tripstory/migrations"
	"github.com/pkordes/tripstory/spec"
)

func main() {
	// --- Config -----------------------------------------------------------
	// A .env file is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	// JSON handler writes machine-readable output suitable for log aggregators.
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if cfg.AutoMigrate {
		if err := migrate(context.Background(), pool); err != nil {
			slog.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
	}

	if err := metrics.RegisterPool(prometheus.DefaultRegisterer, pool); err != nil {
		slog.Error("failed to register pool metrics", "error", err)
		os.Exit(1)
	}

	// --- Providers --------------------------------------------------------
	geocoder := geocode.New(geocode.Config{
		AccessToken: cfg.MapboxAccessToken,
		BaseURL:     cfg.MapboxBaseURL,
		Timeout:     cfg.ProviderTimeout,
	}, logger)
	photos := photo.New(photo.Config{
		AccessKey: cfg.UnsplashAccessKey,
		BaseURL:   cfg.UnsplashBaseURL,
		Timeout:   cfg.ProviderTimeout,
	}, logger)

	authCfg := auth.Config{ProjectID: cfg.FirebaseProjectID}
	if cfg.FirebaseVerifySignature {
		authCfg.Keys = auth.NewCertKeySource(cfg.FirebaseCertsURL, cfg.ProviderTimeout, logger)
	}
	tokens := auth.NewValidator(authCfg, logger)

	// --- Services ---------------------------------------------------------
	store := repo.NewStore(pool)
	trips := service.NewTripService(store, photos, logger)
	dests := service.NewDestinationService(store, logger)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order:
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// Authenticator attaches the caller's principal when the bearer token is valid.
	// SlogLogger writes one structured JSON log line per request, with the user id.
	// metrics.Middleware counts requests by route pattern.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	// CORS answers preflights and sets the allow headers.
	// MaxBodySize rejects request bodies over the configured limit with 413.
	srvHandlers := handler.NewServer(trips, dests, geocoder, pool, logger)
	r := handler.NewRouter(srvHandlers,
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		middleware.NewAuthenticator(tokens, logger),
		middleware.NewSlogLogger(logger),
		metrics.Middleware,
		chimiddleware.Recoverer,
		middleware.NewCORSHandler(cfg.CORSOrigins),
		middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes),
	)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Serve the raw OpenAPI spec so clients can generate code against it.
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(spec.OpenAPI)
	})

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies pending migrations through a database/sql handle that
// borrows connections from pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	n, err := migrations.Up(ctx, db)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "count", n)
	return nil
}
