package listing

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type SortKey string

const (
	SortByPrice SortKey = "price"
	SortByBeds  SortKey = "beds"
	SortBySqft  SortKey = "sqft"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type SortConfig struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

func DefaultSort() SortConfig {
	return SortConfig{Key: SortByPrice, Direction: Asc}
}

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortByPrice, nil
	case SortByPrice, SortByBeds, SortBySqft:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown sort key %q", ErrInvalidFilter, s)
	}
}

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return Asc, nil
	case Asc, Desc:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown sort direction %q", ErrInvalidFilter, s)
	}
}

func (s SortConfig) Validate() error {
	if _, err := ParseSortKey(string(s.Key)); err != nil {
		return err
	}
	_, err := ParseDirection(string(s.Direction))
	return err
}

func (k SortKey) value(p Property) int64 {
	switch k {
	case SortByBeds:
		return int64(p.Beds)
	case SortBySqft:
		return int64(p.Sqft)
	default:
		return p.PriceMinorUnits
	}
}

// Sort returns a sorted copy of props. The sort is stable, so listings with
// equal keys keep their relative order.
func Sort(props []Property, s SortConfig) []Property {
	out := slices.Clone(props)
	key := s.Key
	if key == "" {
		key = SortByPrice
	}
	slices.SortStableFunc(out, func(a, b Property) int {
		c := cmp.Compare(key.value(a), key.value(b))
		if s.Direction == Desc {
			return -c
		}
		return c
	})
	return out
}
