package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewpulse/reviewpulse/internal/app"
	"github.com/reviewpulse/reviewpulse/internal/core/domain"
	"github.com/reviewpulse/reviewpulse/internal/platform/config"
	"github.com/reviewpulse/reviewpulse/internal/storage"
)

func main() {
	mode := flag.String("mode", "", "Service mode (worker, maintenance, submit)")
	appID := flag.String("app-id", "", "App identifier to analyze (submit mode)")
	platform := flag.String("platform", string(domain.PlatformGooglePlay), "Review platform of the app (submit mode)")
	websiteURL := flag.String("website-url", "", "Website URL to analyze instead of an app (submit mode)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolOpts := storage.DefaultPoolOptions()
	poolOpts.MaxConns = int32(cfg.DBMaxConns)
	poolOpts.MaxConnLifetime = cfg.DBConnMaxLifetime

	database, err := storage.NewWithOptions(ctx, cfg.PostgresDSN, poolOpts, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	application := app.New(cfg, database, &logger)

	target := domain.Target{
		AppID:      *appID,
		Platform:   domain.Platform(*platform),
		WebsiteURL: *websiteURL,
	}

	if err := runMode(ctx, application, *mode, target); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func runMode(ctx context.Context, application *app.App, mode string, target domain.Target) error {
	switch mode {
	case "worker":
		return application.RunWorker(ctx)
	case "maintenance":
		return application.RunMaintenance(ctx)
	case "submit":
		return application.RunSubmit(ctx, target)
	default:
		log.Fatalf("Usage: %s --mode=[worker|maintenance|submit]", os.Args[0])

		return nil
	}
}
