package listing

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Polygon is a search area drawn on the map, as an open or closed ring of
// vertices. Fewer than three vertices means no area.
type Polygon []LatLng

func (p Polygon) Active() bool { return len(p) >= 3 }

func (p Polygon) Validate() error {
	if len(p) == 0 {
		return nil
	}
	if len(p) < 3 {
		return fmt.Errorf("%w: area needs at least 3 vertices, got %d", ErrInvalidFilter, len(p))
	}
	for i, v := range p {
		if v.Lat < -90 || v.Lat > 90 || v.Lng < -180 || v.Lng > 180 {
			return fmt.Errorf("%w: area vertex %d out of range", ErrInvalidFilter, i)
		}
	}
	return nil
}

// Contains reports whether the point lies inside the area or on its edge.
func (p Polygon) Contains(lat, lng float64) bool {
	if !p.Active() {
		return false
	}
	return p.compile().contains(lat, lng)
}

type compiledArea struct {
	ring  orb.Ring
	bound orb.Bound
}

func (p Polygon) compile() *compiledArea {
	ring := make(orb.Ring, 0, len(p)+1)
	for _, v := range p {
		ring = append(ring, orb.Point{v.Lng, v.Lat})
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return &compiledArea{ring: ring, bound: ring.Bound()}
}

func (a *compiledArea) contains(lat, lng float64) bool {
	pt := orb.Point{lng, lat}
	if !a.bound.Contains(pt) {
		return false
	}
	return planar.RingContains(a.ring, pt)
}
