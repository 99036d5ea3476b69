package listing

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

// DefaultMaxPrice is the price ceiling, in major units, applied when a client
// does not send one.
const DefaultMaxPrice int64 = 1_000_000

var ErrInvalidFilter = errors.New("invalid filter")

// Filters narrows a result set. MaxPrice is expressed in major units of the
// result currency and compared against PriceMinorUnits/100.
type Filters struct {
	MaxPrice      int64       `json:"maxPrice"`
	MinBeds       int         `json:"minBeds"`
	MinBaths      int         `json:"minBaths"`
	Type          ListingType `json:"type"`
	VerifiedOnly  bool        `json:"verified"`
	Neighborhoods []string    `json:"neighborhoods"`
	Area          Polygon     `json:"area,omitempty"`
}

// DefaultFilters is the state a cleared filter panel returns to.
func DefaultFilters() Filters {
	return Filters{MaxPrice: DefaultMaxPrice, Type: AnyType}
}

// ParseListingType accepts the display names as well as the short forms
// clients tend to send in query strings.
func ParseListingType(s string) (ListingType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "all":
		return AnyType, nil
	case "for sale", "for_sale", "forsale", "sale", "buy":
		return ForSale, nil
	case "for rent", "for_rent", "forrent", "rent":
		return ForRent, nil
	default:
		return "", fmt.Errorf("%w: unknown listing type %q", ErrInvalidFilter, s)
	}
}

func (f Filters) Validate() error {
	var errs []error
	if f.MaxPrice < 0 {
		errs = append(errs, fmt.Errorf("%w: maxPrice must not be negative", ErrInvalidFilter))
	}
	if f.MinBeds < 0 {
		errs = append(errs, fmt.Errorf("%w: minBeds must not be negative", ErrInvalidFilter))
	}
	if f.MinBaths < 0 {
		errs = append(errs, fmt.Errorf("%w: minBaths must not be negative", ErrInvalidFilter))
	}
	switch f.Type {
	case "", AnyType, ForSale, ForRent:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown listing type %q", ErrInvalidFilter, f.Type))
	}
	if err := f.Area.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// maxMinorUnits converts the major-unit ceiling, saturating instead of overflowing.
func (f Filters) maxMinorUnits() int64 {
	if f.MaxPrice > math.MaxInt64/100 {
		return math.MaxInt64
	}
	return f.MaxPrice * 100
}

// Filter returns the listings of all that satisfy every active predicate, in
// their original order. all is never modified.
func Filter(all []Property, f Filters) []Property {
	maxMinor := f.maxMinorUnits()
	var area *compiledArea
	if f.Area.Active() {
		area = f.Area.compile()
	}
	out := make([]Property, 0, len(all))
	for _, p := range all {
		if p.PriceMinorUnits > maxMinor {
			continue
		}
		if f.MinBeds > 0 && p.Beds < f.MinBeds {
			continue
		}
		if f.MinBaths > 0 && p.Baths < f.MinBaths {
			continue
		}
		if f.Type != "" && f.Type != AnyType && p.Type != f.Type {
			continue
		}
		if f.VerifiedOnly && !p.Verified {
			continue
		}
		if len(f.Neighborhoods) > 0 && !slices.Contains(f.Neighborhoods, p.Neighborhood) {
			continue
		}
		if area != nil && !area.contains(p.Lat, p.Lng) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Apply runs the whole pipeline: filter, then sort.
func Apply(all []Property, f Filters, s SortConfig) []Property {
	return Sort(Filter(all, f), s)
}
