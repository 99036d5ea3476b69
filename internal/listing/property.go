package listing

import "sort"

// ListingType is the transaction a listing is offered for.
type ListingType string

const (
	ForSale ListingType = "For Sale"
	ForRent ListingType = "For Rent"
	// AnyType is only meaningful as a filter value.
	AnyType ListingType = "Any"
)

// Property is a single listing as returned to clients. Prices are kept in
// minor units (cents, pesewas) of CurrencyCode.
type Property struct {
	ID              string      `json:"id"`
	Address         string      `json:"address"`
	City            string      `json:"city"`
	State           string      `json:"state"`
	Neighborhood    string      `json:"neighborhood"`
	Lat             float64     `json:"lat"`
	Lng             float64     `json:"lng"`
	PriceMinorUnits int64       `json:"priceMinorUnits"`
	CurrencyCode    string      `json:"currencyCode"`
	Beds            int         `json:"beds"`
	Baths           int         `json:"baths"`
	Sqft            int         `json:"sqft"`
	Type            ListingType `json:"type"`
	Verified        bool        `json:"verified"`
	Description     string      `json:"description"`
	ImageURLs       []string    `json:"imageUrls"`
	AgentName       string      `json:"agentName,omitempty"`
	AgentPhone      string      `json:"agentPhone,omitempty"`
	AgentEmail      string      `json:"agentEmail,omitempty"`
}

// Neighborhoods returns the distinct neighborhoods of all, sorted.
func Neighborhoods(all []Property) []string {
	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, p := range all {
		if p.Neighborhood == "" {
			continue
		}
		if _, ok := seen[p.Neighborhood]; ok {
			continue
		}
		seen[p.Neighborhood] = struct{}{}
		out = append(out, p.Neighborhood)
	}
	sort.Strings(out)
	return out
}

// CurrencyCode reports the currency of a result set, taken from its first listing.
func CurrencyCode(all []Property) string {
	if len(all) > 0 && all[0].CurrencyCode != "" {
		return all[0].CurrencyCode
	}
	return "USD"
}

// FindByID returns the listing with the given id.
func FindByID(all []Property, id string) (Property, bool) {
	for _, p := range all {
		if p.ID == id {
			return p, true
		}
	}
	return Property{}, false
}
