package compositor

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
)

// capsule is a coarse round buffer of (0,0)-(0,10) at distance 1, walked
// counter-clockwise from the start-left anchor.
var capsule = []orb.Point{
	{1, 0}, {1, 10}, {0.7, 10.7}, {0, 11}, {-0.7, 10.7},
	{-1, 10}, {-1, 0}, {-0.7, -0.7}, {0, -1}, {0.7, -0.7},
}

var capsuleAnchors = map[orb.Point]int{
	{1, 0}:   probeStartLeft,
	{1, 10}:  probeEndLeft,
	{-1, 0}:  probeStartRight,
	{-1, 10}: probeEndRight,
}

// rotated returns the capsule starting at vertex k, closed, optionally
// walked clockwise.
func rotated(k int, reverse bool) orb.LineString {
	n := len(capsule)
	out := make(orb.LineString, 0, n+1)
	for i := 0; i < n; i++ {
		j := (k + i) % n
		if reverse {
			j = (k - i + n) % n
		}
		out = append(out, capsule[j])
	}
	return append(out, out[0])
}

func anchorsOn(p orb.LineString) [4]anchor {
	var a [4]anchor
	for i := 0; i < len(p)-1; i++ {
		if probe, ok := capsuleAnchors[p[i]]; ok {
			a[probe] = anchor{probe: probe, index: i, point: p[i]}
		}
	}
	return a
}

func TestRemoveCaps_EverySeam(t *testing.T) {
	for _, reverse := range []bool{false, true} {
		for k := range capsule {
			p := rotated(k, reverse)

			sorted, err := arrange(anchorsOn(p), len(p)-1, domain.ErrBoundaryIntersectionMissing)
			if err != nil {
				t.Fatalf("k=%d reverse=%v: unexpected error: %v", k, reverse, err)
			}
			flat := removeCaps(p, sorted)

			if !flat[0].Equal(flat[len(flat)-1]) {
				t.Fatalf("k=%d reverse=%v: flat ring not closed: %v", k, reverse, flat)
			}
			if len(flat) != 5 {
				t.Fatalf("k=%d reverse=%v: expected 4 corners, got %v", k, reverse, flat)
			}
			for _, pt := range flat {
				if _, ok := capsuleAnchors[pt]; !ok {
					t.Errorf("k=%d reverse=%v: cap vertex %v survived", k, reverse, pt)
				}
			}
		}
	}
}

func TestSideStrips_EverySeam(t *testing.T) {
	for _, reverse := range []bool{false, true} {
		for k := range capsule {
			p := rotated(k, reverse)
			anchors := anchorsOn(p)

			sorted, err := arrange(anchors, len(p)-1, domain.ErrBoundaryIntersectionMissing)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			flat := removeCaps(p, sorted)

			found, err := relocate(flat, anchors)
			if err != nil {
				t.Fatalf("k=%d reverse=%v: unexpected error: %v", k, reverse, err)
			}
			sorted, err = arrange(found, len(flat)-1, domain.ErrBoundaryIndexNotFound)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			right, left := sideStrips(flat, sorted)

			if len(right) != 2 || len(left) != 2 {
				t.Fatalf("k=%d reverse=%v: expected two-point strips, got right=%v left=%v", k, reverse, right, left)
			}
			for _, pt := range right {
				if pt[0] != 1 {
					t.Errorf("k=%d reverse=%v: right strip has %v", k, reverse, pt)
				}
			}
			for _, pt := range left {
				if pt[0] != -1 {
					t.Errorf("k=%d reverse=%v: left strip has %v", k, reverse, pt)
				}
			}
		}
	}
}

func TestArrange_SeamVertexSortsLast(t *testing.T) {
	a := [4]anchor{
		{probe: 0, index: 0},
		{probe: 1, index: 3},
		{probe: 2, index: 5},
		{probe: 3, index: 8},
	}
	sorted, err := arrange(a, 10, domain.ErrBoundaryIntersectionMissing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sorted[3].index != 10 || sorted[3].probe != 0 {
		t.Errorf("expected seam anchor last at 10, got %+v", sorted[3])
	}
	if sorted[0].index != 3 {
		t.Errorf("expected 3 first, got %d", sorted[0].index)
	}
}

func TestArrange_DuplicateIndex(t *testing.T) {
	a := [4]anchor{
		{probe: 0, index: 2},
		{probe: 1, index: 2},
		{probe: 2, index: 5},
		{probe: 3, index: 8},
	}
	for _, want := range []error{domain.ErrBoundaryIntersectionMissing, domain.ErrBoundaryIndexNotFound} {
		if _, err := arrange(a, 10, want); !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
	}
}

func TestCloseStrip_TieBreak(t *testing.T) {
	line := orb.LineString{{0, 0}, {0, 10}}
	// both strip ends are equally far from the line end
	strip := orb.LineString{{-5, 10}, {5, 10}}
	dist := func(a, b orb.Point) float64 {
		dx, dy := a[0]-b[0], a[1]-b[1]
		return dx*dx + dy*dy
	}

	strict := closeStrip(line, strip, dist, true)[0]
	if !strict[2].Equal(orb.Point{-5, 10}) {
		t.Errorf("strict: expected strip kept as is, got %v", strict)
	}
	loose := closeStrip(line, strip, dist, false)[0]
	if !loose[2].Equal(orb.Point{5, 10}) {
		t.Errorf("loose: expected strip reversed, got %v", loose)
	}
	if !loose[0].Equal(loose[len(loose)-1]) {
		t.Errorf("ring not closed: %v", loose)
	}
}
