// Package finder answers "which listings are in this location". It prefers a
// cached generative result, then a fresh one, and falls back to generated
// mock listings whenever the provider cannot answer.
package finder

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/domus-api/gemini"
	"github.com/yourorg/domus-api/internal/canon"
	"github.com/yourorg/domus-api/internal/listing"
	"github.com/yourorg/domus-api/internal/metrics"
	"github.com/yourorg/domus-api/internal/mockdata"
	"github.com/yourorg/domus-api/internal/redisx"
)

// DefaultLocation is searched when the caller does not name one.
const DefaultLocation = "Accra, Ghana"

const (
	SourceProvider = "gemini"
	SourceCache    = "cache"
	SourceMock     = "mock"
)

var ErrBusy = errors.New("finder: refresh already in progress")

type Source interface {
	Configured() bool
	FindProperties(ctx context.Context, location string) ([]listing.Property, []byte, error)
}

// Writer receives every result set that is served fresh.
type Writer interface {
	Write(ctx context.Context, provider, location, locationKey string, raw []byte, props []listing.Property) error
}

type Finder struct {
	Source  Source
	Cache   *redisx.Client
	Writer  Writer
	Refetch func(location, locationKey string)
	Logger  *zap.Logger

	DefaultLocation string
	CacheTTL        time.Duration
	StaleAfter      time.Duration
	NegativeTTL     time.Duration
	LockTTL         time.Duration
	LockWait        time.Duration
	FetchTimeout    time.Duration

	now func() time.Time
}

type Result struct {
	Location    string
	LocationKey string
	Properties  []listing.Property
	IsMockData  bool
	Source      string
	Stale       bool
	FetchedAt   time.Time
}

type cachedEnvelope struct {
	Properties []listing.Property `json:"properties"`
	Meta       struct {
		LastFetch  time.Time `json:"last_fetch_at"`
		StaleAfter time.Time `json:"stale_after"`
		TTLSeconds int       `json:"ttl_seconds"`
		Provider   string    `json:"provider"`
	} `json:"meta"`
	Location string `json:"location"`
}

func cacheKey(key string) string { return "search:loc:" + key }
func missKey(key string) string  { return "search:miss:" + key }
func lockKey(key string) string  { return "search:lock:" + key }

func (f *Finder) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now()
}

func (f *Finder) log() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}

// Normalize returns the display form and cache key of location, substituting
// the default location for blank input.
func (f *Finder) Normalize(location string) (display, key string) {
	display = canon.Display(location)
	if display == "" {
		display = f.DefaultLocation
		if display == "" {
			display = DefaultLocation
		}
	}
	_, _, key = canon.Location(display)
	return display, key
}

// Find never fails: any provider problem degrades to mock listings with
// IsMockData set.
func (f *Finder) Find(ctx context.Context, location string) Result {
	display, key := f.Normalize(location)

	if res, ok := f.fromCache(ctx, display, key); ok {
		return res
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	// A recent failure for this location is answered from the generator
	// without another provider call or write-behind.
	if f.Cache != nil {
		if cooling, _ := f.Cache.Exists(ctx, missKey(key)); cooling {
			return f.mockResult(display, key)
		}
	}
	if f.Source == nil || !f.Source.Configured() {
		return f.fallback(ctx, display, key, "not_configured", gemini.ErrNotConfigured)
	}
	if f.Cache != nil {
		if ok, err := f.Cache.SetNX(ctx, lockKey(key), "1", maxDur(f.LockTTL, 45*time.Second)); err == nil && !ok {
			if res, ok := f.waitForCache(ctx, display, key); ok {
				return res
			}
		} else if err == nil {
			defer f.unlock(ctx, key)
		}
	}

	props, err := f.fetchAndStore(ctx, display, key)
	if err != nil {
		return f.fallback(ctx, display, key, gemini.Reason(err), err)
	}
	metrics.Searches.WithLabelValues(SourceProvider).Inc()
	return Result{
		Location:    display,
		LocationKey: key,
		Properties:  props,
		Source:      SourceProvider,
		FetchedAt:   f.clock(),
	}
}

// Refresh fetches location from the provider and replaces its cache entry.
// Unlike Find it reports provider errors and leaves an existing entry alone.
func (f *Finder) Refresh(ctx context.Context, location string) error {
	display, key := f.Normalize(location)
	if f.Source == nil || !f.Source.Configured() {
		return gemini.ErrNotConfigured
	}
	if f.Cache != nil {
		ok, err := f.Cache.SetNX(ctx, lockKey(key), "1", maxDur(f.LockTTL, 45*time.Second))
		if err != nil {
			return err
		}
		if !ok {
			return ErrBusy
		}
		defer f.unlock(ctx, key)
	}
	_, err := f.fetchAndStore(ctx, display, key)
	return err
}

func (f *Finder) fromCache(ctx context.Context, display, key string) (Result, bool) {
	if f.Cache == nil {
		return Result{}, false
	}
	var env cachedEnvelope
	ok, err := f.Cache.GetJSON(ctx, cacheKey(key), &env)
	if err != nil {
		f.log().Warn("search cache read failed", zap.String("location_key", key), zap.Error(err))
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}
	stale := f.clock().After(env.Meta.StaleAfter)
	if stale {
		metrics.CacheLookups.WithLabelValues("stale").Inc()
		if f.Refetch != nil {
			f.Refetch(display, key)
		}
	} else {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	}
	metrics.Searches.WithLabelValues(SourceCache).Inc()
	return Result{
		Location:    display,
		LocationKey: key,
		Properties:  env.Properties,
		Source:      SourceCache,
		Stale:       stale,
		FetchedAt:   env.Meta.LastFetch,
	}, true
}

// waitForCache polls while another request holds the fetch lock.
func (f *Finder) waitForCache(ctx context.Context, display, key string) (Result, bool) {
	wait := maxDur(f.LockWait, 20*time.Second)
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return Result{}, false
		case <-deadline.C:
			return Result{}, false
		case <-tick.C:
			if res, ok := f.fromCache(ctx, display, key); ok {
				return res, true
			}
			if held, _ := f.Cache.Exists(ctx, lockKey(key)); !held {
				return Result{}, false
			}
		}
	}
}

func (f *Finder) fetchAndStore(ctx context.Context, display, key string) ([]listing.Property, error) {
	fctx, cancel := context.WithTimeout(ctx, maxDur(f.FetchTimeout, 40*time.Second))
	defer cancel()

	start := time.Now()
	props, raw, err := f.Source.FindProperties(fctx, display)
	outcome := "ok"
	if err != nil {
		outcome = gemini.Reason(err)
	}
	metrics.ProviderDuration.WithLabelValues(gemini.Provider, outcome).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if props == nil {
		props = []listing.Property{}
	}

	if f.Cache != nil {
		now := f.clock()
		env := cachedEnvelope{Properties: props, Location: display}
		env.Meta.LastFetch = now
		env.Meta.StaleAfter = now.Add(maxDur(f.StaleAfter, 15*time.Minute))
		env.Meta.TTLSeconds = int(maxDur(f.CacheTTL, 6*time.Hour).Seconds())
		env.Meta.Provider = gemini.Provider
		if err := f.Cache.SetJSON(ctx, cacheKey(key), env, time.Duration(env.Meta.TTLSeconds)*time.Second); err != nil {
			f.log().Warn("search cache write failed", zap.String("location_key", key), zap.Error(err))
		}
		_ = f.Cache.Del(ctx, missKey(key))
	}
	f.writeBehind(ctx, gemini.Provider, display, key, raw, props)
	return props, nil
}

func (f *Finder) fallback(ctx context.Context, display, key, reason string, cause error) Result {
	metrics.ProviderFallbacks.WithLabelValues(reason).Inc()
	f.log().Warn("serving mock listings",
		zap.String("location", display),
		zap.String("reason", reason),
		zap.Error(cause))

	res := f.mockResult(display, key)
	if f.Cache != nil {
		if err := f.Cache.Set(ctx, missKey(key), reason, maxDur(f.NegativeTTL, 2*time.Minute)); err != nil {
			f.log().Warn("search miss key write failed", zap.String("location_key", key), zap.Error(err))
		}
	}
	f.writeBehind(ctx, mockdata.Provider, display, key, nil, res.Properties)
	return res
}

func (f *Finder) mockResult(display, key string) Result {
	metrics.Searches.WithLabelValues(SourceMock).Inc()
	return Result{
		Location:    display,
		LocationKey: key,
		Properties:  mockdata.Generate(display),
		IsMockData:  true,
		Source:      SourceMock,
		FetchedAt:   f.clock(),
	}
}

// writeBehind persists a served result set. It outlives the request so a
// client disconnect does not lose the write.
func (f *Finder) writeBehind(ctx context.Context, provider, display, key string, raw []byte, props []listing.Property) {
	if f.Writer == nil {
		return
	}
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := f.Writer.Write(wctx, provider, display, key, raw, props); err != nil {
		f.log().Warn("write-behind failed",
			zap.String("provider", provider),
			zap.String("location_key", key),
			zap.Error(err))
	}
}

func (f *Finder) unlock(ctx context.Context, key string) {
	_ = f.Cache.Del(context.WithoutCancel(ctx), lockKey(key))
}

func maxDur(a, b time.Duration) time.Duration {
	if a > 0 {
		return a
	}
	return b
}
