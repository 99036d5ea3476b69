package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/domus-api/internal/refresh"
)

type Enqueuer interface {
	Enqueue(j refresh.Job) bool
}

// LocationNormalizer maps free text to the display form and cache key used
// by the search cache.
type LocationNormalizer interface {
	Normalize(location string) (display, key string)
}

type HydrateDeps struct {
	Queue      Enqueuer
	Normalizer LocationNormalizer
}

// RegisterHydrate mounts POST /v1/hydrate, which queues a background refresh
// of one location's cached listings. r must already require a session.
func RegisterHydrate(r chi.Router, d HydrateDeps) {
	r.With(RequireUser).Post("/v1/hydrate", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Location string `json:"location"`
		}
		if err := decodeJSON(req, &body); err != nil {
			writeError(w, req, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		if strings.TrimSpace(body.Location) == "" {
			writeError(w, req, http.StatusBadRequest, "location_required", "location is required")
			return
		}
		display, key := d.Normalizer.Normalize(body.Location)
		queued := d.Queue.Enqueue(refresh.Job{Key: key, Location: display})
		render.Status(req, http.StatusAccepted)
		render.JSON(w, req, map[string]any{"ok": true, "location": display, "queued": queued})
	})
}
