package events

import (
	"context"

	"github.com/yourorg/domus-api/internal/listing"
)

// ListingsFetched is published after a fresh result set for a location has
// been stored.
type ListingsFetched struct {
	Location    string
	LocationKey string
	Provider    string
	Properties  []listing.Property
}

type Publisher interface {
	PublishListingsFetched(ctx context.Context, evt ListingsFetched)
	SubscribeListingsFetched() <-chan ListingsFetched
}

type inMemory struct{ ch chan ListingsFetched }

// NewInMemory returns a buffered channel publisher. Publishing never blocks:
// events are dropped when the buffer is full.
func NewInMemory(buffer int) Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &inMemory{ch: make(chan ListingsFetched, buffer)}
}

func (m *inMemory) PublishListingsFetched(_ context.Context, evt ListingsFetched) {
	select {
	case m.ch <- evt:
	default:
	}
}

func (m *inMemory) SubscribeListingsFetched() <-chan ListingsFetched { return m.ch }
