// Package hydrator persists fresh search results and announces them to
// downstream consumers such as the search indexer.
package hydrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/yourorg/domus-api/internal/events"
	"github.com/yourorg/domus-api/internal/listing"
	"github.com/yourorg/domus-api/internal/store"
)

type SnapshotWriter interface {
	WriteSnapshotAndUpsert(ctx context.Context, in store.SnapshotInput) (store.SnapshotResult, error)
}

type Hydrator struct {
	Store  SnapshotWriter
	Pub    events.Publisher
	Logger *zap.Logger
}

func (h *Hydrator) Enabled() bool { return h != nil && (h.Store != nil || h.Pub != nil) }

// Write stores one result set and publishes a ListingsFetched event.
func (h *Hydrator) Write(ctx context.Context, provider, location, locationKey string, raw []byte, props []listing.Property) error {
	if !h.Enabled() {
		return nil
	}
	if h.Store != nil {
		res, err := h.Store.WriteSnapshotAndUpsert(ctx, store.SnapshotInput{
			Provider:    provider,
			LocationKey: locationKey,
			Payload:     raw,
			Properties:  props,
		})
		if err != nil {
			return err
		}
		if h.Logger != nil {
			h.Logger.Debug("result set stored",
				zap.String("provider", provider),
				zap.String("location_key", locationKey),
				zap.String("snapshot_id", res.SnapshotID),
				zap.Int("upserted", res.Upserted))
		}
	}
	if h.Pub != nil {
		h.Pub.PublishListingsFetched(ctx, events.ListingsFetched{
			Location:    location,
			LocationKey: locationKey,
			Provider:    provider,
			Properties:  props,
		})
	}
	return nil
}
