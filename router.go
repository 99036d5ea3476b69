package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/yourorg/domus-api/http"
	"github.com/yourorg/domus-api/internal/bootstrap"
	"github.com/yourorg/domus-api/internal/logger"
)

func BuildRouter(a *bootstrap.App) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(a.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.Config.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(httprate.LimitByIP(a.Config.RateLimitPerMinute, 1*time.Minute)) // protect upstream quota
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"ok":       true,
			"provider": a.Gemini.Configured(),
			"redis":    a.Redis != nil,
			"postgres": a.Store != nil,
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Typed nils must not leak into the handlers' optional interfaces.
	var (
		props   httpapi.PropertyStore
		users   httpapi.UserStore
		saved   httpapi.SavedStore
		cmp     httpapi.CompareStore
		cmpDel  httpapi.CompareClearer
		prefs   httpapi.PrefsStore
		prefDel httpapi.SubjectCleaner
		history httpapi.HistoryRecorder
	)
	if a.Store != nil {
		props, users, saved = a.Store, a.Store, a.Store
	}
	if a.Compare != nil {
		cmp, cmpDel = a.Compare, a.Compare
	}
	if a.Prefs != nil {
		prefs, prefDel, history = a.Prefs, a.Prefs, a.Prefs
	}
	propDeps := httpapi.PropertiesDeps{Store: props, Search: a.Finder}

	r.Group(func(authed chi.Router) {
		authed.Use(httpapi.RequireSession(a.Issuer))
		httpapi.RegisterAuth(r, authed, httpapi.AuthDeps{
			Tokens:  a.Issuer,
			Users:   users,
			Prefs:   prefDel,
			Compare: cmpDel,
			Logger:  a.Logger,
		})
		httpapi.RegisterSearch(authed, httpapi.SearchDeps{Search: a.Finder, History: history, Logger: a.Logger})
		httpapi.RegisterProperties(authed, propDeps)
		httpapi.RegisterCompare(authed, httpapi.CompareDeps{Store: cmp, Properties: propDeps})
		httpapi.RegisterSaved(authed, httpapi.SavedDeps{Store: saved})
		httpapi.RegisterPrefs(authed, httpapi.PrefsDeps{Store: prefs})
		httpapi.RegisterHydrate(authed, httpapi.HydrateDeps{Queue: a.Refresher, Normalizer: a.Finder})
	})

	return r
}
