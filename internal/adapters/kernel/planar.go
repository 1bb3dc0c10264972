// Package kernel implements the geometry primitives used by the buffer
// compositor.
package kernel

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DefaultSegments is the number of vertices per full circle on round caps.
const DefaultSegments = 64

// Planar works directly in the map's working projection. One kilometer
// maps to unitsPerKm working units.
type Planar struct {
	segments   int
	unitsPerKm float64
}

// NewPlanar creates a planar kernel. Non-positive arguments fall back to
// DefaultSegments and one unit per kilometer.
func NewPlanar(segments int, unitsPerKm float64) *Planar {
	if segments < 8 {
		segments = DefaultSegments
	}
	if unitsPerKm <= 0 {
		unitsPerKm = 1
	}
	return &Planar{segments: segments, unitsPerKm: unitsPerKm}
}

func (p *Planar) Buffer(g orb.Geometry, distanceKm float64) (orb.Polygon, error) {
	return offset(g, distanceKm*p.unitsPerKm, p.segments)
}

func (p *Planar) RingToPolyline(r orb.Ring) orb.LineString { return ringToPolyline(r) }

func (p *Planar) LineIntersect(l orb.LineString, r orb.Ring) []orb.Point {
	return lineIntersect(l, r)
}

func (p *Planar) NearestPoint(pt orb.Point, pts []orb.Point) (orb.Point, int) {
	return nearestPoint(pt, pts, planar.DistanceSquared)
}

func (p *Planar) Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b) / p.unitsPerKm
}

func (p *Planar) RotateAboutPivot(l orb.LineString, degrees float64, pivot orb.Point) orb.LineString {
	return rotate(l, degrees, pivot)
}
