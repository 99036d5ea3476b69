// Package search mirrors fetched listings into an Elasticsearch index.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"github.com/yourorg/domus-api/internal/events"
	"github.com/yourorg/domus-api/internal/listing"
	"github.com/yourorg/domus-api/internal/metrics"
)

const DefaultIndex = "properties"

const indexMapping = `{
  "mappings": {
    "properties": {
      "location":        {"type": "geo_point"},
      "location_key":    {"type": "keyword"},
      "provider":        {"type": "keyword"},
      "neighborhood":    {"type": "keyword"},
      "type":            {"type": "keyword"},
      "currencyCode":    {"type": "keyword"},
      "priceMinorUnits": {"type": "long"},
      "beds":            {"type": "integer"},
      "baths":           {"type": "integer"},
      "sqft":            {"type": "integer"},
      "verified":        {"type": "boolean"},
      "description":     {"type": "text"}
    }
  }
}`

// Indexer consumes ListingsFetched events. With a nil ES client it only logs
// them.
type Indexer struct {
	Pub    events.Publisher
	ES     *elasticsearch.Client
	Index  string
	Logger *zap.Logger
}

func NewClient(addresses []string, username, password string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{Addresses: addresses}
	if username != "" {
		cfg.Username = username
		cfg.Password = password
	}
	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return es, nil
}

func (i *Indexer) index() string {
	if i.Index == "" {
		return DefaultIndex
	}
	return i.Index
}

func (i *Indexer) log() *zap.Logger {
	if i.Logger == nil {
		return zap.NewNop()
	}
	return i.Logger
}

// EnsureIndex creates the index with its mapping if it does not exist.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	if i.ES == nil {
		return nil
	}
	res, err := i.ES.Indices.Exists([]string{i.index()}, i.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	res, err = i.ES.Indices.Create(i.index(),
		i.ES.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		i.ES.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 2048))
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("elasticsearch create index error: %s", res.Status())
	}
	return nil
}

func (i *Indexer) Run(ctx context.Context) {
	sub := i.Pub.SubscribeListingsFetched()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-sub:
			if err := i.Handle(ctx, evt); err != nil {
				i.log().Warn("indexer: event failed",
					zap.String("location_key", evt.LocationKey), zap.Error(err))
			}
		}
	}
}

type document struct {
	listing.Property
	LocationKey string   `json:"location_key"`
	Provider    string   `json:"provider"`
	Location    geoPoint `json:"location"`
}

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Handle indexes every listing of evt, keyed by listing id.
func (i *Indexer) Handle(ctx context.Context, evt events.ListingsFetched) error {
	if i.ES == nil {
		i.log().Info("indexer: listings fetched",
			zap.String("location_key", evt.LocationKey),
			zap.String("provider", evt.Provider),
			zap.Int("count", len(evt.Properties)))
		return nil
	}
	for _, p := range evt.Properties {
		doc, err := json.Marshal(document{
			Property:    p,
			LocationKey: evt.LocationKey,
			Provider:    evt.Provider,
			Location:    geoPoint{Lat: p.Lat, Lon: p.Lng},
		})
		if err != nil {
			return err
		}
		res, err := i.ES.Index(i.index(), bytes.NewReader(doc),
			i.ES.Index.WithDocumentID(p.ID),
			i.ES.Index.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("index %s: %w", p.ID, err)
		}
		failed := res.IsError()
		status := res.Status()
		res.Body.Close()
		if failed {
			return fmt.Errorf("index %s: %s", p.ID, status)
		}
		metrics.IndexedListings.Inc()
	}
	return nil
}
