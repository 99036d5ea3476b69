package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/domus-api/internal/compare"
	"github.com/yourorg/domus-api/internal/listing"
)

type CompareStore interface {
	Load(ctx context.Context, subject string) (compare.List, error)
	Toggle(ctx context.Context, subject string, p listing.Property) (compare.List, compare.Outcome, error)
	Remove(ctx context.Context, subject, id string) (compare.List, error)
	Clear(ctx context.Context, subject string) error
}

type CompareDeps struct {
	Store      CompareStore
	Properties PropertiesDeps
}

// toggleRequest carries either the full listing, as a client holding search
// results would send it, or an id resolved server side.
type toggleRequest struct {
	Property *listing.Property `json:"property,omitempty"`
	ID       string            `json:"id,omitempty"`
	Location string            `json:"location,omitempty"`
}

func compareView(l compare.List) map[string]any {
	if l == nil {
		l = compare.List{}
	}
	return map[string]any{
		"ok":         true,
		"max":        compare.Max,
		"count":      len(l),
		"properties": l,
		"table":      l.Table(),
	}
}

// RegisterCompare mounts the comparison list routes. r must already require
// a session; guests may compare.
func RegisterCompare(r chi.Router, d CompareDeps) {
	r.Route("/v1/compare", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if d.Store == nil {
					writeError(w, req, http.StatusServiceUnavailable, "session_store_unavailable", "comparison lists need redis")
					return
				}
				next.ServeHTTP(w, req)
			})
		})

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			l, err := d.Store.Load(req.Context(), subject(req))
			if err != nil {
				writeInternal(w, req, err)
				return
			}
			render.JSON(w, req, compareView(l))
		})

		r.Post("/toggle", func(w http.ResponseWriter, req *http.Request) {
			var body toggleRequest
			if err := decodeJSON(req, &body); err != nil {
				writeError(w, req, http.StatusBadRequest, "invalid_json", err.Error())
				return
			}
			var p listing.Property
			switch {
			case body.Property != nil && strings.TrimSpace(body.Property.ID) != "":
				p = *body.Property
			case strings.TrimSpace(body.ID) != "":
				var err error
				p, err = d.Properties.lookup(req.Context(), strings.TrimSpace(body.ID), body.Location)
				if err != nil {
					d.Properties.writeLookupError(w, req, err)
					return
				}
			default:
				writeError(w, req, http.StatusBadRequest, "invalid_id", "property or id is required")
				return
			}

			l, outcome, err := d.Store.Toggle(req.Context(), subject(req), p)
			if errors.Is(err, compare.ErrFull) {
				writeError(w, req, http.StatusConflict, "compare_full", "You can only compare up to 3 properties at a time.")
				return
			}
			if err != nil {
				writeInternal(w, req, err)
				return
			}
			view := compareView(l)
			view["outcome"] = outcome
			view["id"] = p.ID
			render.JSON(w, req, view)
		})

		r.Delete("/{id}", func(w http.ResponseWriter, req *http.Request) {
			l, err := d.Store.Remove(req.Context(), subject(req), chi.URLParam(req, "id"))
			if err != nil {
				writeInternal(w, req, err)
				return
			}
			render.JSON(w, req, compareView(l))
		})

		r.Delete("/", func(w http.ResponseWriter, req *http.Request) {
			if err := d.Store.Clear(req.Context(), subject(req)); err != nil {
				writeInternal(w, req, err)
				return
			}
			render.JSON(w, req, compareView(nil))
		})
	})
}
