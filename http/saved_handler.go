package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/domus-api/internal/store"
)

type SavedStore interface {
	SaveProperty(ctx context.Context, email, propertyID string) error
	UnsaveProperty(ctx context.Context, email, propertyID string) error
	ToggleSaved(ctx context.Context, email, propertyID string) (bool, error)
	SavedProperties(ctx context.Context, email string) ([]store.SavedItem, error)
}

type SavedDeps struct {
	Store SavedStore
}

// RegisterSaved mounts the saved-properties routes. r must already require
// a session; every route additionally requires a logged-in user.
func RegisterSaved(r chi.Router, d SavedDeps) {
	r.Route("/v1/saved", func(r chi.Router) {
		r.Use(RequireUser)
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if d.Store == nil {
					writeStorageUnavailable(w, req)
					return
				}
				next.ServeHTTP(w, req)
			})
		})

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			items, err := d.Store.SavedProperties(req.Context(), userEmail(req))
			if err != nil {
				writeInternal(w, req, err)
				return
			}
			ids := make([]string, 0, len(items))
			for _, it := range items {
				ids = append(ids, it.ID)
			}
			render.JSON(w, req, map[string]any{"ok": true, "count": len(items), "ids": ids, "items": items})
		})

		r.Put("/{id}", func(w http.ResponseWriter, req *http.Request) {
			id, ok := savedID(w, req)
			if !ok {
				return
			}
			if err := d.Store.SaveProperty(req.Context(), userEmail(req), id); err != nil {
				writeInternal(w, req, err)
				return
			}
			render.JSON(w, req, map[string]any{"ok": true, "id": id, "saved": true})
		})

		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			id, ok := savedID(w, req)
			if !ok {
				return
			}
			if err := d.Store.UnsaveProperty(req.Context(), userEmail(req), id); err != nil {
				writeInternal(w, req, err)
				return
			}
			render.JSON(w, req, map[string]any{"ok": true, "id": id, "saved": false})
		})

		r.Post("/{id}/toggle", func(w http.ResponseWriter, req *http.Request) {
			id, ok := savedID(w, req)
			if !ok {
				return
			}
			saved, err := d.Store.ToggleSaved(req.Context(), userEmail(req), id)
			if err != nil {
				writeInternal(w, req, err)
				return
			}
			render.JSON(w, req, map[string]any{"ok": true, "id": id, "saved": saved})
		})
	})
}

func savedID(w http.ResponseWriter, req *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(req, "id"))
	if id == "" || len(id) > 256 {
		writeError(w, req, http.StatusBadRequest, "invalid_id", "property id must be 1-256 characters")
		return "", false
	}
	return id, true
}
