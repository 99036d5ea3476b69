package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/yourorg/domus-api/internal/finder"
	"github.com/yourorg/domus-api/internal/listing"
)

// Searcher resolves a location to its listings. It never fails; provider
// problems surface as mock data.
type Searcher interface {
	Find(ctx context.Context, location string) finder.Result
}

// HistoryRecorder remembers searched locations per session subject.
type HistoryRecorder interface {
	AddSearch(ctx context.Context, subject, location string) error
}

type SearchDeps struct {
	Search  Searcher
	History HistoryRecorder
	Logger  *zap.Logger
}

type SearchRequest struct {
	Location string              `json:"location"`
	Filters  *listing.Filters    `json:"filters,omitempty"`
	Sort     *listing.SortConfig `json:"sort,omitempty"`
}

type SearchResponse struct {
	OK            bool               `json:"ok"`
	Location      string             `json:"location"`
	IsMockData    bool               `json:"isMockData"`
	Source        string             `json:"source"`
	Stale         bool               `json:"stale"`
	FetchedAt     time.Time          `json:"fetchedAt"`
	Total         int                `json:"total"`
	Count         int                `json:"count"`
	CurrencyCode  string             `json:"currencyCode"`
	Neighborhoods []string           `json:"neighborhoods"`
	Filters       listing.Filters    `json:"filters"`
	Sort          listing.SortConfig `json:"sort"`
	Properties    []listing.Property `json:"properties"`
}

// RegisterSearch mounts the search routes. r must already require a session.
func RegisterSearch(r chi.Router, d SearchDeps) {
	r.Post("/v1/properties/search", func(w http.ResponseWriter, req *http.Request) {
		// Omitted fields keep their defaults.
		f, s := listing.DefaultFilters(), listing.DefaultSort()
		body := SearchRequest{Filters: &f, Sort: &s}
		if err := decodeJSON(req, &body); err != nil {
			writeError(w, req, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
		if body.Filters == nil {
			f = listing.DefaultFilters()
		}
		if body.Sort == nil {
			s = listing.DefaultSort()
		}
		handleSearch(w, req, d, body.Location, f, s)
	})

	r.Get("/v1/properties/search", func(w http.ResponseWriter, req *http.Request) {
		f, s, err := parseSearchQuery(req)
		if err != nil {
			writeError(w, req, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}
		handleSearch(w, req, d, req.URL.Query().Get("location"), f, s)
	})
}

func parseSearchQuery(req *http.Request) (listing.Filters, listing.SortConfig, error) {
	q := req.URL.Query()
	f := listing.DefaultFilters()
	var errs []error

	parseInt := func(name string, dst *int) {
		if v := q.Get(name); v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, errors.New(name+" must be an integer"))
				return
			}
			*dst = i
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		p, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, errors.New("maxPrice must be an integer"))
		}
		f.MaxPrice = p
	}
	parseInt("minBeds", &f.MinBeds)
	parseInt("minBaths", &f.MinBaths)

	t, err := listing.ParseListingType(q.Get("type"))
	if err != nil {
		errs = append(errs, err)
	}
	f.Type = t

	if v := q.Get("verified"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, errors.New("verified must be a boolean"))
		}
		f.VerifiedOnly = b
	}
	for _, n := range q["neighborhood"] {
		for _, part := range strings.Split(n, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.Neighborhoods = append(f.Neighborhoods, part)
			}
		}
	}

	key, err := listing.ParseSortKey(q.Get("sort"))
	if err != nil {
		errs = append(errs, err)
	}
	dir, err := listing.ParseDirection(q.Get("dir"))
	if err != nil {
		errs = append(errs, err)
	}
	return f, listing.SortConfig{Key: key, Direction: dir}, errors.Join(errs...)
}

func handleSearch(w http.ResponseWriter, req *http.Request, d SearchDeps, location string, f listing.Filters, s listing.SortConfig) {
	if f.Type == "" {
		f.Type = listing.AnyType
	}
	if s.Key == "" {
		s.Key = listing.SortByPrice
	}
	if s.Direction == "" {
		s.Direction = listing.Asc
	}
	if err := errors.Join(f.Validate(), s.Validate()); err != nil {
		writeError(w, req, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}

	res := d.Search.Find(req.Context(), location)
	if d.History != nil && strings.TrimSpace(location) != "" {
		if err := d.History.AddSearch(req.Context(), subject(req), res.Location); err != nil && d.Logger != nil {
			d.Logger.Warn("search history write failed", zap.Error(err))
		}
	}

	props := listing.Apply(res.Properties, f, s)
	render.JSON(w, req, SearchResponse{
		OK:            true,
		Location:      res.Location,
		IsMockData:    res.IsMockData,
		Source:        res.Source,
		Stale:         res.Stale,
		FetchedAt:     res.FetchedAt,
		Total:         len(res.Properties),
		Count:         len(props),
		CurrencyCode:  listing.CurrencyCode(res.Properties),
		Neighborhoods: listing.Neighborhoods(res.Properties),
		Filters:       f,
		Sort:          s,
		Properties:    props,
	})
}
