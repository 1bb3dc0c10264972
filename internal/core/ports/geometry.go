package ports

import "github.com/paulmach/orb"

// GeometryKernel supplies the geometric primitives the buffer compositor
// is built on. Implementations are pure and safe for concurrent use.
type GeometryKernel interface {
	// Buffer returns the round-capped buffer of g at the given distance.
	Buffer(g orb.Geometry, distanceKm float64) (orb.Polygon, error)
	// RingToPolyline flattens a ring into a closed ordered point sequence.
	RingToPolyline(r orb.Ring) orb.LineString
	// LineIntersect returns the crossings of l with r, in the order of l's
	// segments and then r's edges.
	LineIntersect(l orb.LineString, r orb.Ring) []orb.Point
	// NearestPoint returns the closest of pts to p and its index. Ties go
	// to the lowest index. The index is -1 when pts is empty.
	NearestPoint(p orb.Point, pts []orb.Point) (orb.Point, int)
	// Distance returns the distance between a and b in kilometers.
	Distance(a, b orb.Point) float64
	// RotateAboutPivot rotates every vertex of l about pivot. Positive
	// degrees turn counter-clockwise.
	RotateAboutPivot(l orb.LineString, degrees float64, pivot orb.Point) orb.LineString
}
