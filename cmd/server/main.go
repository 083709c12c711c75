package main

import (
	"commute-service/internal/api"
	"commute-service/internal/app"
	"commute-service/internal/config"
	"commute-service/internal/platform/obs"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

// main is the application composition root.
// It wires concrete adapters (stores, caches, providers) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := obs.NewLogger("", "")
		boot.Fatal().Err(err).Msg("load config")
	}

	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("close backends")
		}
	}()

	// Warm the bus timetable so the first request does not pay for the scrape.
	if _, err := a.Buses.Get(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial bus schedule load failed")
	}

	router := api.NewRouter(api.Deps{
		Commute:      a.Commute,
		Schedules:    a.Buses,
		Routes:       a.Routes,
		BatchTimeout: cfg.BatchTimeout,
		Metrics:      a.Metrics,
		Logger:       logger,
	})

	// WriteTimeout leaves room for a full batch plus response encoding.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.BatchTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("provider", cfg.DirectionsProvider).
			Str("db", string(cfg.DBBackend)).
			Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
