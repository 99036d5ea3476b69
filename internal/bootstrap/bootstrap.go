// Package bootstrap wires the shared components used by the API server and
// the hydrator job from a loaded Config.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/domus-api/gemini"
	"github.com/yourorg/domus-api/internal/auth"
	"github.com/yourorg/domus-api/internal/compare"
	"github.com/yourorg/domus-api/internal/config"
	"github.com/yourorg/domus-api/internal/events"
	"github.com/yourorg/domus-api/internal/finder"
	"github.com/yourorg/domus-api/internal/hydrator"
	"github.com/yourorg/domus-api/internal/prefs"
	"github.com/yourorg/domus-api/internal/redisx"
	"github.com/yourorg/domus-api/internal/refresh"
	"github.com/yourorg/domus-api/internal/search"
	"github.com/yourorg/domus-api/internal/store"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger

	Redis     *redisx.Client // nil when Redis is unreachable at startup
	Store     *store.Store   // nil without a Postgres DSN
	Gemini    *gemini.Client
	Events    events.Publisher
	Hydrator  *hydrator.Hydrator
	Indexer   *search.Indexer
	Refresher *refresh.Refresher
	Finder    *finder.Finder
	Issuer    *auth.Issuer
	Compare   *compare.Store
	Prefs     *prefs.Store
}

// New connects to the configured backends. Only a Postgres DSN that is set
// but unusable is fatal; a missing Gemini key, Redis or Elasticsearch
// degrades the service instead.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	rc := redisx.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := rc.Ping(pctx)
	cancel()
	if err != nil {
		log.Warn("redis unavailable, running without cache and session state",
			zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = rc.Close()
	} else {
		a.Redis = rc
		a.Compare = &compare.Store{Redis: rc}
		a.Prefs = &prefs.Store{Redis: rc, TTL: cfg.Auth.GuestTTL}
	}

	if cfg.Postgres.DSN != "" {
		st, err := store.Open(cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("store open: %w", err)
		}
		sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := st.Ping(sctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		if err := st.Migrate(sctx); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
		a.Store = st
	} else {
		log.Warn("PG_DSN not set, accounts and saved properties are disabled")
	}

	a.Gemini = gemini.NewClient(cfg.Gemini.APIKey, gemini.Options{
		BaseURL:           cfg.Gemini.BaseURL,
		Model:             cfg.Gemini.Model,
		Timeout:           cfg.Gemini.Timeout,
		RetryMax:          cfg.Gemini.RetryMax,
		RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
		Logger:            log.Named("gemini"),
	})
	if !a.Gemini.Configured() {
		log.Warn("GEMINI_API_KEY not set, serving mock listings only")
	}

	a.Events = events.NewInMemory(256)
	a.Hydrator = &hydrator.Hydrator{Pub: a.Events, Logger: log.Named("hydrator")}
	if a.Store != nil {
		a.Hydrator.Store = a.Store
	}

	a.Indexer = &search.Indexer{Pub: a.Events, Index: cfg.Elastic.Index, Logger: log.Named("indexer")}
	if len(cfg.Elastic.Addresses) > 0 {
		es, err := search.NewClient(cfg.Elastic.Addresses, cfg.Elastic.Username, cfg.Elastic.Password)
		if err != nil {
			return nil, err
		}
		a.Indexer.ES = es
	}

	a.Finder = &finder.Finder{
		Source:          a.Gemini,
		Cache:           a.Redis,
		Writer:          a.Hydrator,
		Logger:          log.Named("finder"),
		DefaultLocation: cfg.Search.DefaultLocation,
		CacheTTL:        cfg.Search.CacheTTL,
		StaleAfter:      cfg.Search.StaleAfter,
		NegativeTTL:     cfg.Search.NegativeTTL,
		FetchTimeout:    cfg.Gemini.Timeout + 10*time.Second,
	}
	a.Refresher = refresh.New(cfg.Search.RefreshQueue, cfg.Search.RefreshWorkers, func(ctx context.Context, j refresh.Job) {
		err := a.Finder.Refresh(ctx, j.Location)
		if err != nil && !errors.Is(err, finder.ErrBusy) {
			log.Warn("background refresh failed", zap.String("location_key", j.Key), zap.Error(err))
		}
	})
	a.Finder.Refetch = func(location, key string) {
		a.Refresher.Enqueue(refresh.Job{Key: key, Location: location})
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
		log.Warn("JWT_SECRET not set, using an ephemeral secret; sessions end on restart")
	}
	a.Issuer = auth.NewIssuer(secret, cfg.Auth.TokenTTL, cfg.Auth.GuestTTL)
	return a, nil
}

// Start launches background consumers. They stop when ctx is done.
func (a *App) Start(ctx context.Context) {
	if err := a.Indexer.EnsureIndex(ctx); err != nil {
		a.Logger.Warn("elasticsearch index setup failed", zap.Error(err))
	}
	go a.Indexer.Run(ctx)
}

// Close drains the refresh queue and releases connections.
func (a *App) Close() {
	a.Refresher.Close()
	if a.Store != nil {
		_ = a.Store.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	_ = a.Logger.Sync()
}
