// Package compare holds the side-by-side comparison list: at most Max
// listings, unique by id, in the order they were added.
package compare

import (
	"errors"
	"slices"

	"github.com/yourorg/domus-api/internal/listing"
)

const Max = 3

var ErrFull = errors.New("compare: list already holds 3 properties")

type Outcome string

const (
	Added   Outcome = "added"
	Removed Outcome = "removed"
)

type List []listing.Property

func (l List) Contains(id string) bool {
	return slices.ContainsFunc(l, func(p listing.Property) bool { return p.ID == id })
}

// Toggle removes p if it is listed and appends it otherwise. Adding to a
// full list returns ErrFull and the list unchanged.
func (l List) Toggle(p listing.Property) (List, Outcome, error) {
	if l.Contains(p.ID) {
		return l.Remove(p.ID), Removed, nil
	}
	if len(l) >= Max {
		return l, "", ErrFull
	}
	out := make(List, 0, len(l)+1)
	out = append(out, l...)
	return append(out, p), Added, nil
}

func (l List) Remove(id string) List {
	out := make(List, 0, len(l))
	for _, p := range l {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func (l List) IDs() []string {
	ids := make([]string, len(l))
	for i, p := range l {
		ids[i] = p.ID
	}
	return ids
}

// Row is one feature of the comparison view, with one value per listing.
type Row struct {
	Feature string `json:"feature"`
	Label   string `json:"label"`
	Values  []any  `json:"values"`
}

var features = []struct {
	key, label string
	value      func(listing.Property) any
}{
	{"price", "Price", func(p listing.Property) any { return p.PriceMinorUnits }},
	{"beds", "Bedrooms", func(p listing.Property) any { return p.Beds }},
	{"baths", "Bathrooms", func(p listing.Property) any { return p.Baths }},
	{"sqft", "Square Feet", func(p listing.Property) any { return p.Sqft }},
	{"type", "Listing Type", func(p listing.Property) any { return p.Type }},
	{"description", "Description", func(p listing.Property) any { return p.Description }},
}

// Table lays the list out feature by feature. Prices stay in minor units.
func (l List) Table() []Row {
	rows := make([]Row, 0, len(features))
	for _, f := range features {
		vals := make([]any, len(l))
		for i, p := range l {
			vals[i] = f.value(p)
		}
		rows = append(rows, Row{Feature: f.key, Label: f.label, Values: vals})
	}
	return rows
}
