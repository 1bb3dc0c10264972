package kernel

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/samirrijal/mapbuffer/internal/pkg/geospatial"
)

// Geodesic works on WGS84 longitude/latitude. Buffers and rotations run
// in web mercator, distances are great-circle distances.
type Geodesic struct {
	segments int
}

// NewGeodesic creates a geodesic kernel.
func NewGeodesic(segments int) *Geodesic {
	if segments < 8 {
		segments = DefaultSegments
	}
	return &Geodesic{segments: segments}
}

func (k *Geodesic) Buffer(g orb.Geometry, distanceKm float64) (orb.Polygon, error) {
	merc := project.Geometry(orb.Clone(g), project.WGS84.ToMercator)

	// mercator stretches lengths by 1/cos(lat) around the geometry.
	lat := g.Bound().Center().Lat()
	delta := distanceKm * 1000 / math.Cos(lat*math.Pi/180)

	poly, err := offset(merc, delta, k.segments)
	if err != nil {
		return nil, err
	}
	return project.Polygon(poly, project.Mercator.ToWGS84), nil
}

func (k *Geodesic) RingToPolyline(r orb.Ring) orb.LineString { return ringToPolyline(r) }

func (k *Geodesic) LineIntersect(l orb.LineString, r orb.Ring) []orb.Point {
	ml := project.LineString(l.Clone(), project.WGS84.ToMercator)
	mr := project.Ring(r.Clone(), project.WGS84.ToMercator)

	hits := lineIntersect(ml, mr)
	for i := range hits {
		hits[i] = project.Point(hits[i], project.Mercator.ToWGS84)
	}
	return hits
}

func (k *Geodesic) NearestPoint(pt orb.Point, pts []orb.Point) (orb.Point, int) {
	return nearestPoint(pt, pts, k.Distance)
}

func (k *Geodesic) Distance(a, b orb.Point) float64 {
	return geospatial.DistanceKm(a, b)
}

func (k *Geodesic) RotateAboutPivot(l orb.LineString, degrees float64, pivot orb.Point) orb.LineString {
	ml := project.LineString(l.Clone(), project.WGS84.ToMercator)
	mp := project.Point(pivot, project.WGS84.ToMercator)
	return project.LineString(rotate(ml, degrees, mp), project.Mercator.ToWGS84)
}
