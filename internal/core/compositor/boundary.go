package compositor

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/core/ports"
)

// anchor is a boundary vertex found by a probe.
type anchor struct {
	probe int // probe slot
	index int // offset into the ring the anchor was located on
	point orb.Point
}

// pair returns 0 for the start-left/end-left pair and 1 for the other one.
func (a anchor) pair() int { return a.probe / 2 }

// locateAnchors flattens the rounded ring and pins every probe to the
// boundary vertex nearest its first crossing.
func locateAnchors(k ports.GeometryKernel, ring orb.Ring, probes [4]orb.LineString) (orb.LineString, [4]anchor, error) {
	var anchors [4]anchor

	boundary := k.RingToPolyline(ring)
	pts := []orb.Point(boundary)
	if len(pts) < 4 {
		return nil, anchors, fmt.Errorf("%w: ring has %d vertices", domain.ErrBoundaryIntersectionMissing, len(pts))
	}

	for i, probe := range probes {
		hits := k.LineIntersect(probe, ring)
		if len(hits) == 0 {
			return nil, anchors, fmt.Errorf("%w: %s probe", domain.ErrBoundaryIntersectionMissing, probeNames[i])
		}
		pt, idx := k.NearestPoint(hits[0], pts)
		if idx < 0 {
			return nil, anchors, fmt.Errorf("%w: %s probe", domain.ErrBoundaryIntersectionMissing, probeNames[i])
		}
		anchors[i] = anchor{probe: i, index: idx, point: pt}
	}
	return boundary, anchors, nil
}

// relocate finds each anchor again on ring by exact coordinate match.
func relocate(ring orb.Ring, anchors [4]anchor) ([4]anchor, error) {
	var out [4]anchor
	for i, a := range anchors {
		idx := -1
		for j, p := range ring {
			if p.Equal(a.point) {
				idx = j
				break
			}
		}
		if idx < 0 {
			return out, fmt.Errorf("%w: %s point %v", domain.ErrBoundaryIndexNotFound, probeNames[a.probe], a.point)
		}
		out[i] = anchor{probe: a.probe, index: idx, point: a.point}
	}
	return out, nil
}
