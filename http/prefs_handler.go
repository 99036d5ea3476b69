package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/domus-api/internal/prefs"
)

type PrefsStore interface {
	Get(ctx context.Context, subject string) (prefs.Preferences, error)
	Put(ctx context.Context, subject string, p prefs.Preferences) error
	History(ctx context.Context, subject string) ([]string, error)
	ClearHistory(ctx context.Context, subject string) error
}

type PrefsDeps struct {
	Store PrefsStore
}

// RegisterPrefs mounts preference and history routes. r must already
// require a session; guests keep theirs until the guest session expires.
func RegisterPrefs(r chi.Router, d PrefsDeps) {
	// /v1/me itself belongs to the account routes, so these are not mounted
	// as a subrouter.
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if d.Store == nil {
					writeError(w, req, http.StatusServiceUnavailable, "session_store_unavailable", "preferences need redis")
					return
				}
				next.ServeHTTP(w, req)
			})
		})

		r.Get("/v1/me/preferences", func(w http.ResponseWriter, req *http.Request) {
			p, err := d.Store.Get(req.Context(), subject(req))
			if err != nil {
				writeInternal(w, req, err)
				return
			}
			render.JSON(w, req, map[string]any{"ok": true, "preferences": p})
		})

		r.Put("/v1/me/preferences", func(w http.ResponseWriter, req *http.Request) {
			var p prefs.Preferences
			if err := decodeJSON(req, &p); err != nil {
				writeError(w, req, http.StatusBadRequest, "invalid_json", err.Error())
				return
			}
			if err := d.Store.Put(req.Context(), subject(req), p); err != nil {
				writeInternal(w, req, err)
				return
			}
			render.JSON(w, req, map[string]any{"ok": true, "preferences": p})
		})

		r.Get("/v1/me/history", func(w http.ResponseWriter, req *http.Request) {
			h, err := d.Store.History(req.Context(), subject(req))
			if err != nil {
				writeInternal(w, req, err)
				return
			}
			if h == nil {
				h = []string{}
			}
			render.JSON(w, req, map[string]any{"ok": true, "limit": prefs.HistoryLimit, "history": h})
		})

		r.Delete("/v1/me/history", func(w http.ResponseWriter, req *http.Request) {
			if err := d.Store.ClearHistory(req.Context(), subject(req)); err != nil {
				writeInternal(w, req, err)
				return
			}
			render.JSON(w, req, map[string]any{"ok": true, "history": []string{}})
		})
	})
}
