package hydrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Refresher fetches a location from the provider and stores it in the
// search cache.
type Refresher interface {
	Refresh(ctx context.Context, location string) error
}

type BulkConfig struct {
	Locations            []string
	Interval             time.Duration
	PauseBetweenRequests time.Duration
	RequestTimeout       time.Duration
}

// BulkJob keeps the search cache warm for a fixed list of locations.
type BulkJob struct {
	Finder Refresher
	Logger *zap.Logger
	Config BulkConfig
}

func (j *BulkJob) validate() error {
	if j == nil {
		return errors.New("nil bulk job")
	}
	if j.Finder == nil {
		return errors.New("hydrator bulk job missing finder")
	}
	if len(j.Config.Locations) == 0 {
		return errors.New("hydrator bulk job requires at least one location")
	}
	if j.Logger == nil {
		j.Logger = zap.NewNop()
	}
	return nil
}

func (j *BulkJob) Run(ctx context.Context) error {
	if err := j.validate(); err != nil {
		return err
	}
	interval := j.Config.Interval
	if interval <= 0 {
		return j.RunOnce(ctx)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	j.Logger.Info("hydrator bulk job starting",
		zap.Duration("interval", interval),
		zap.Int("locations", len(j.Config.Locations)))
	if err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		j.Logger.Warn("hydrator bulk job initial run error", zap.Error(err))
	}
	for {
		select {
		case <-ctx.Done():
			j.Logger.Info("hydrator bulk job stopping", zap.Error(ctx.Err()))
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			if err := j.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				j.Logger.Warn("hydrator bulk job iteration error", zap.Error(err))
			}
		}
	}
}

// RunOnce refreshes every configured location. Failures are collected and
// returned together; cancellation stops the pass early.
func (j *BulkJob) RunOnce(ctx context.Context) error {
	if err := j.validate(); err != nil {
		return err
	}
	timeout := j.Config.RequestTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	var joined error
	done := 0
	for i, raw := range j.Config.Locations {
		loc := strings.TrimSpace(raw)
		if loc == "" {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i > 0 && j.Config.PauseBetweenRequests > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(j.Config.PauseBetweenRequests):
			}
		}
		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		err := j.Finder.Refresh(reqCtx, loc)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			joined = errors.Join(joined, fmt.Errorf("location %q: %w", loc, err))
			continue
		}
		done++
	}
	j.Logger.Info("hydrator bulk job pass complete", zap.Int("refreshed", done))
	return joined
}
