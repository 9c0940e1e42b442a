package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacobmichels/portal/academic"
	"github.com/jacobmichels/portal/auth"
	"github.com/jacobmichels/portal/config"
	"github.com/jacobmichels/portal/observability"
	"github.com/jacobmichels/portal/server"
	"github.com/jacobmichels/portal/store"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// set with -ldflags at build time
var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("received interrupt, shutting down")
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("portal failure")
		os.Exit(1)
	}
}

// run holds every resource, so its deferred cleanups finish before main exits
func run(ctx context.Context) error {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using the process environment")
	}

	cfg, err := config.ReadConfig()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	setupLogging(cfg.Log)

	flush, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Sentry.Environment, version)
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}
	defer flush()

	kv, err := store.New(ctx, cfg.Store)
	if err != nil {
		observability.CaptureErr(err)
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close store")
		}
	}()

	if cfg.Admin.Password == "" {
		log.Warn().Msg("admin.password is not set, admin login is disabled")
	}
	authRepo := auth.NewRepository(kv, auth.WithAdmin(cfg.Admin.Username, cfg.Admin.Password))

	academicRepo := academic.NewRepository(kv)
	if err := academicRepo.SeedIfAbsent(ctx); err != nil {
		observability.CaptureErr(err)
		return fmt.Errorf("failed to seed academic data: %w", err)
	}

	if cfg.Server.SessionSecret == "" {
		log.Warn().Msg("server.session_secret is not set, sessions end when the process restarts")
	}
	srv, err := server.NewServer(cfg.Server.Addr, authRepo, academicRepo, server.WithSessionSecret(cfg.Server.SessionSecret))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if err := srv.Start(ctx); err != nil {
		observability.CaptureErr(err)
		return err
	}
	return nil
}

func setupLogging(cfg config.Log) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
