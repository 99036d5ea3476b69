// Command hydrator keeps the search cache warm for a fixed list of
// locations, persisting and indexing each refreshed result set.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/yourorg/domus-api/internal/bootstrap"
	"github.com/yourorg/domus-api/internal/config"
	"github.com/yourorg/domus-api/internal/hydrator"
	"github.com/yourorg/domus-api/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat).Named("hydrator")

	if len(cfg.Hydrator.Locations) == 0 {
		log.Fatal("HYDRATOR_LOCATIONS must be provided (semicolon separated)")
	}
	if cfg.Gemini.APIKey == "" {
		log.Fatal("GEMINI_API_KEY must be set; the hydrator never caches mock listings")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(rootCtx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer app.Close()
	app.Start(rootCtx)

	job := &hydrator.BulkJob{
		Finder: app.Finder,
		Logger: log,
		Config: hydrator.BulkConfig{
			Locations:            cfg.Hydrator.Locations,
			Interval:             cfg.Hydrator.Interval,
			PauseBetweenRequests: cfg.Hydrator.Pause,
			RequestTimeout:       cfg.Hydrator.RequestTimeout,
		},
	}

	if cfg.Hydrator.RunOnce {
		if err := job.RunOnce(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("hydrator bulk run failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := job.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("hydrator job stopped with error", zap.Error(err))
		os.Exit(1)
	}
}
