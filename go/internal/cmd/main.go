package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/courier/go/internal/config"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(os.Getenv("COURIER_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel())

	services, err := setupServices(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	server := setupServer(cfg, services)

	log.Info().
		Str("api", cfg.API.BaseURL).
		Str("driver_id", cfg.Driver.ID).
		Str("push", cfg.Push.Transport).
		Dur("poll_interval", cfg.Feed.PollInterval).
		Str("addr", server.Addr).
		Msg("starting courier driver daemon")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		services.Gateway.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return services.Feed.Run(gctx)
	})
	if services.PushSource != nil {
		g.Go(func() error {
			return services.PushSource.Run(gctx)
		})
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case <-gctx.Done():
		log.Warn().Msg("a service stopped - shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("service exited with error")
	}

	// Stop countdowns and let in-flight expiry updates and notifications finish.
	services.Timers.Close()
	services.Notices.Wait()

	log.Info().Msg("courier driver daemon shutdown complete")
}
