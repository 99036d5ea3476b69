// Package mockdata produces the stand-in listings served when the generative
// source is unavailable. Output depends only on the location string.
package mockdata

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode/utf16"

	"github.com/yourorg/domus-api/internal/listing"
)

// Count is the number of listings generated per location.
const Count = 15

// Provider names the source in cache envelopes and snapshots.
const Provider = "mock"

var neighborhoods = []string{"Downtown", "Northside", "River Valley", "East End", "Westwood"}

type region struct {
	lat, lng   float64
	currency   string
	agentPhone string
}

var (
	ghana      = region{lat: 5.6037, lng: -0.1870, currency: "GHS", agentPhone: "233244123456"}
	losAngeles = region{lat: 34.0522, lng: -118.2437, currency: "USD", agentPhone: "14155552671"}
)

// Seed hashes s with h = h*31 + unit over its UTF-16 code units, wrapping at 32 bits.
func Seed(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(u)
	}
	return h
}

func regionFor(lower string) region {
	if strings.Contains(lower, "accra") || strings.Contains(lower, "ghana") {
		return ghana
	}
	return losAngeles
}

func splitLocation(location string) (city, state string) {
	city, state = location, ""
	if i := strings.IndexByte(location, ','); i >= 0 {
		city = location[:i]
		rest := location[i+1:]
		if j := strings.IndexByte(rest, ','); j >= 0 {
			rest = rest[:j]
		}
		state = strings.TrimSpace(rest)
	}
	if city == "" {
		city = "City"
	}
	if state == "" {
		state = "State"
	}
	return city, state
}

// Generate returns Count listings for location. The same location always
// yields the same listings.
func Generate(location string) []listing.Property {
	lower := strings.ToLower(location)
	seed := Seed(lower)
	reg := regionFor(lower)
	city, state := splitLocation(location)

	rng := rand.New(rand.NewPCG(uint64(uint32(seed)), uint64(uint32(seed))^0x9e3779b97f4a7c15))

	out := make([]listing.Property, 0, Count)
	for i := 0; i < Count; i++ {
		id := fmt.Sprintf("%d_%d", seed, i+1)
		price := int64(250_000 + rng.IntN(750_000))
		beds := 1 + rng.IntN(5)
		baths := 1 + rng.IntN(3)
		sqft := 900 + rng.IntN(2800)
		hasAgent := rng.Float64() > 0.3
		lat := reg.lat + (rng.Float64()-0.5)*0.1
		lng := reg.lng + (rng.Float64()-0.5)*0.1
		verified := rng.Float64() > 0.5
		hood := neighborhoods[i%len(neighborhoods)]

		typ := listing.ForSale
		if i%3 == 0 {
			typ = listing.ForRent
		}

		images := make([]string, 8)
		for j := range images {
			images[j] = fmt.Sprintf("https://picsum.photos/seed/%s_%d/800/600", id, j+1)
		}

		p := listing.Property{
			ID:              id,
			Address:         fmt.Sprintf("%d Main St, Apt %d", 123+i*7, i+1),
			City:            city,
			State:           state,
			Neighborhood:    hood,
			Lat:             lat,
			Lng:             lng,
			PriceMinorUnits: price * 100,
			CurrencyCode:    reg.currency,
			Beds:            beds,
			Baths:           baths,
			Sqft:            sqft,
			Type:            typ,
			Verified:        verified,
			Description: fmt.Sprintf("A beautiful %d bedroom, %d bathroom property in the %s neighborhood. "+
				"Features a modern kitchen and spacious living areas. Perfect for families or professionals.", beds, baths, hood),
			ImageURLs: images,
		}
		if hasAgent {
			p.AgentName = fmt.Sprintf("Agent #%d", i+1)
			p.AgentPhone = reg.agentPhone
			p.AgentEmail = fmt.Sprintf("agent%d@domus.co", i+1)
		}
		out = append(out, p)
	}
	return out
}
