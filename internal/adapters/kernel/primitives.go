package kernel

import (
	"math"

	"github.com/gogpu/gg"
	"github.com/paulmach/orb"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy/lineintersection"
	"github.com/twpayne/go-geom/xy/lineintersector"
)

func ringToPolyline(r orb.Ring) orb.LineString {
	out := make(orb.LineString, len(r), len(r)+1)
	copy(out, r)
	if len(out) > 0 && !out[0].Equal(out[len(out)-1]) {
		out = append(out, out[0])
	}
	return out
}

// lineIntersect reports the crossings of l with the edges of r, walking
// l's segments and, for each, the ring edges in order. A point shared by
// consecutive edges is reported once. Collinear overlaps are not crossings.
func lineIntersect(l orb.LineString, r orb.Ring) []orb.Point {
	edges := ringToPolyline(r)

	var hits []orb.Point
	for i := 0; i+1 < len(l); i++ {
		a, b := coord(l[i]), coord(l[i+1])
		for j := 0; j+1 < len(edges); j++ {
			res := lineintersector.LineIntersectsLine(lineintersector.RobustLineIntersector{},
				a, b, coord(edges[j]), coord(edges[j+1]))
			if res.Type() != lineintersection.PointIntersection {
				continue
			}
			c := res.Intersection()[0]
			pt := orb.Point{c.X(), c.Y()}
			if n := len(hits); n > 0 && hits[n-1].Equal(pt) {
				continue
			}
			hits = append(hits, pt)
		}
	}
	return hits
}

func coord(p orb.Point) geom.Coord { return geom.Coord{p[0], p[1]} }

func nearestPoint(p orb.Point, pts []orb.Point, dist func(a, b orb.Point) float64) (orb.Point, int) {
	best, bestD := -1, math.Inf(1)
	for i, q := range pts {
		if d := dist(p, q); d < bestD {
			best, bestD = i, d
		}
	}
	if best < 0 {
		return orb.Point{}, -1
	}
	return pts[best], best
}

// rotate turns every vertex of l about pivot, counter-clockwise for
// positive degrees.
func rotate(l orb.LineString, degrees float64, pivot orb.Point) orb.LineString {
	m := gg.Translate(pivot[0], pivot[1]).
		Multiply(gg.Rotate(degrees * math.Pi / 180)).
		Multiply(gg.Translate(-pivot[0], -pivot[1]))

	out := make(orb.LineString, len(l))
	for i, p := range l {
		q := m.TransformPoint(gg.Pt(p[0], p[1]))
		out[i] = orb.Point{q.X, q.Y}
	}
	return out
}
