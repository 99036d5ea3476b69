package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/domus-api/internal/listing"
	"github.com/yourorg/domus-api/internal/mortgage"
	"github.com/yourorg/domus-api/internal/store"
)

type PropertyStore interface {
	GetProperty(ctx context.Context, id string) (listing.Property, error)
	GetPropertyAt(ctx context.Context, locationKey, id string) (listing.Property, error)
}

type PropertiesDeps struct {
	Store  PropertyStore // optional
	Search Searcher
}

var errPropertyNotFound = errors.New("property not found")

// lookup finds a listing by id. Ids are only unique within one location, so
// when the caller names a location the match must come from that location's
// result set or its stored snapshot. Without one the latest stored listing
// with the id wins.
func (d PropertiesDeps) lookup(ctx context.Context, id, location string) (listing.Property, error) {
	if strings.TrimSpace(location) == "" {
		if d.Store == nil {
			return listing.Property{}, errPropertyNotFound
		}
		return storedProperty(d.Store.GetProperty(ctx, id))
	}
	if d.Search == nil {
		return listing.Property{}, errPropertyNotFound
	}
	res := d.Search.Find(ctx, location)
	if p, ok := listing.FindByID(res.Properties, id); ok {
		return p, nil
	}
	if d.Store == nil || res.LocationKey == "" {
		return listing.Property{}, errPropertyNotFound
	}
	return storedProperty(d.Store.GetPropertyAt(ctx, res.LocationKey, id))
}

func storedProperty(p listing.Property, err error) (listing.Property, error) {
	if errors.Is(err, store.ErrNotFound) {
		return listing.Property{}, errPropertyNotFound
	}
	return p, err
}

func (d PropertiesDeps) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errPropertyNotFound) {
		writeError(w, r, http.StatusNotFound, "not_found", "no property with that id; pass location= to look it up in a search")
		return
	}
	writeInternal(w, r, err)
}

// RegisterProperties mounts detail and mortgage routes. r must already
// require a session; detail additionally requires a logged-in user.
func RegisterProperties(r chi.Router, d PropertiesDeps) {
	r.With(RequireUser).Get("/v1/properties/{id}", func(w http.ResponseWriter, req *http.Request) {
		p, err := d.lookup(req.Context(), chi.URLParam(req, "id"), req.URL.Query().Get("location"))
		if err != nil {
			d.writeLookupError(w, req, err)
			return
		}
		render.JSON(w, req, map[string]any{"ok": true, "property": p})
	})

	r.Get("/v1/properties/{id}/mortgage", func(w http.ResponseWriter, req *http.Request) {
		p, err := d.lookup(req.Context(), chi.URLParam(req, "id"), req.URL.Query().Get("location"))
		if err != nil {
			d.writeLookupError(w, req, err)
			return
		}
		in, err := mortgageInput(req, p)
		if err != nil {
			writeError(w, req, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		quote, err := mortgage.Calculate(in)
		if err != nil {
			writeError(w, req, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		render.JSON(w, req, map[string]any{
			"ok":           true,
			"propertyId":   p.ID,
			"currencyCode": p.CurrencyCode,
			"quote":        quote,
		})
	})
}

func mortgageInput(req *http.Request, p listing.Property) (mortgage.Input, error) {
	q := req.URL.Query()
	in := mortgage.Defaults(p.PriceMinorUnits)
	if v := q.Get("downPayment"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return in, errors.New("downPayment must be a number")
		}
		in.DownPayment = f
	}
	if v := q.Get("rate"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return in, errors.New("rate must be a number")
		}
		in.RatePercent = f
	}
	if v := q.Get("years"); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return in, errors.New("years must be an integer")
		}
		in.Years = i
	}
	return in, nil
}
