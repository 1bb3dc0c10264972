package kernel

import (
	"errors"
	"fmt"
	"math"

	clipper "github.com/ctessum/go.clipper"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// offsetPrecision is how many integer steps one buffer distance spans
// once coordinates are scaled onto the clipper grid.
const offsetPrecision = 1e6

// maxGridCoord keeps scaled coordinates well inside clipper's 64-bit range.
const maxGridCoord = 1e15

var errEmptyBuffer = errors.New("buffer produced no polygon")

// grid maps float coordinates onto clipper's integer plane, relative to
// an origin so that large map coordinates keep their precision.
type grid struct {
	origin orb.Point
	scale  float64
}

func newGrid(g orb.Geometry, delta float64) (grid, error) {
	pts := points(g)
	if len(pts) == 0 {
		return grid{}, fmt.Errorf("cannot buffer empty %T", g)
	}
	origin := pts[0]
	extent := delta
	for _, p := range pts {
		extent = math.Max(extent, math.Abs(p[0]-origin[0])+delta)
		extent = math.Max(extent, math.Abs(p[1]-origin[1])+delta)
	}
	scale := offsetPrecision / delta
	if extent*scale > maxGridCoord {
		scale = maxGridCoord / extent
	}
	return grid{origin: origin, scale: scale}, nil
}

func (gr grid) path(pts []orb.Point, closed bool) clipper.Path {
	path := make(clipper.Path, 0, len(pts))
	for _, p := range pts {
		ip := &clipper.IntPoint{
			X: clipper.CInt(math.Round((p[0] - gr.origin[0]) * gr.scale)),
			Y: clipper.CInt(math.Round((p[1] - gr.origin[1]) * gr.scale)),
		}
		if n := len(path); n > 0 && *path[n-1] == *ip {
			continue
		}
		path = append(path, ip)
	}
	if closed && len(path) > 1 && *path[0] == *path[len(path)-1] {
		path = path[:len(path)-1]
	}
	return path
}

func (gr grid) ring(path clipper.Path) orb.Ring {
	r := make(orb.Ring, 0, len(path)+1)
	for _, ip := range path {
		r = append(r, orb.Point{
			float64(ip.X)/gr.scale + gr.origin[0],
			float64(ip.Y)/gr.scale + gr.origin[1],
		})
	}
	return append(r, r[0])
}

// offset buffers g by delta working units with round joins and caps.
// segments is the number of vertices used for a full circle. When the
// result falls apart into several polygons only the largest is kept,
// together with the holes that belong to it.
func offset(g orb.Geometry, delta float64, segments int) (orb.Polygon, error) {
	if !(delta > 0) || math.IsInf(delta, 0) {
		return nil, fmt.Errorf("invalid buffer distance %v", delta)
	}
	gr, err := newGrid(g, delta)
	if err != nil {
		return nil, err
	}

	co := clipper.NewClipperOffset()
	co.ArcTolerance = delta * gr.scale * (1 - math.Cos(math.Pi/float64(segments)))
	if err := addGeometry(co, gr, g); err != nil {
		return nil, err
	}

	paths := co.Execute(delta * gr.scale)
	if len(paths) == 0 {
		return nil, errEmptyBuffer
	}

	outer := 0
	for i, p := range paths {
		if math.Abs(clipper.Area(p)) > math.Abs(clipper.Area(paths[outer])) {
			outer = i
		}
	}
	if len(paths[outer]) < 3 {
		return nil, errEmptyBuffer
	}

	poly := orb.Polygon{gr.ring(paths[outer])}
	outerCCW := clipper.Orientation(paths[outer])
	outerRing := poly[0]
	for i, p := range paths {
		if i == outer || len(p) < 3 || clipper.Orientation(p) == outerCCW {
			continue
		}
		hole := gr.ring(p)
		if planar.RingContains(outerRing, hole[0]) {
			poly = append(poly, hole)
		}
	}
	return poly, nil
}

func addGeometry(co *clipper.ClipperOffset, gr grid, g orb.Geometry) error {
	switch v := g.(type) {
	case orb.Point:
		co.AddPath(gr.path([]orb.Point{v}, false), clipper.JtRound, clipper.EtOpenRound)
	case orb.MultiPoint:
		for _, p := range v {
			co.AddPath(gr.path([]orb.Point{p}, false), clipper.JtRound, clipper.EtOpenRound)
		}
	case orb.LineString:
		co.AddPath(gr.path(v, false), clipper.JtRound, clipper.EtOpenRound)
	case orb.MultiLineString:
		for _, ls := range v {
			co.AddPath(gr.path(ls, false), clipper.JtRound, clipper.EtOpenRound)
		}
	case orb.Ring:
		co.AddPath(gr.path(v, true), clipper.JtRound, clipper.EtClosedPolygon)
	case orb.Polygon:
		for _, r := range v {
			co.AddPath(gr.path(r, true), clipper.JtRound, clipper.EtClosedPolygon)
		}
	case orb.MultiPolygon:
		for _, poly := range v {
			for _, r := range poly {
				co.AddPath(gr.path(r, true), clipper.JtRound, clipper.EtClosedPolygon)
			}
		}
	default:
		return fmt.Errorf("cannot buffer %T", g)
	}
	return nil
}

func points(g orb.Geometry) []orb.Point {
	switch v := g.(type) {
	case orb.Point:
		return []orb.Point{v}
	case orb.MultiPoint:
		return v
	case orb.LineString:
		return v
	case orb.MultiLineString:
		var out []orb.Point
		for _, ls := range v {
			out = append(out, ls...)
		}
		return out
	case orb.Ring:
		return v
	case orb.Polygon:
		var out []orb.Point
		for _, r := range v {
			out = append(out, r...)
		}
		return out
	case orb.MultiPolygon:
		var out []orb.Point
		for _, p := range v {
			for _, r := range p {
				out = append(out, r...)
			}
		}
		return out
	}
	return nil
}
