package compositor_test

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/samirrijal/mapbuffer/internal/adapters/kernel"
	"github.com/samirrijal/mapbuffer/internal/core/compositor"
	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/core/ports"
)

const tol = 1e-4

func newCompositor() *compositor.Compositor {
	return compositor.New(kernel.NewPlanar(64, 1))
}

func near(a, b orb.Point) bool {
	return math.Abs(a[0]-b[0]) < tol && math.Abs(a[1]-b[1]) < tol
}

func closed(r orb.Ring) bool {
	return len(r) > 3 && r[0].Equal(r[len(r)-1])
}

var north = domain.Coordinates{{0, 0}, {0, 10}}

func TestBuild_AroundIsCapsule(t *testing.T) {
	poly, err := newCompositor().Build(north, 1, domain.ModeAround)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ring := poly[0]
	if !closed(ring) {
		t.Fatalf("ring not closed")
	}
	seg := orb.LineString(north)
	for _, p := range ring {
		d := planar.DistanceFromSegment(seg[0], seg[1], p)
		if math.Abs(d-1) > 1e-3 {
			t.Errorf("vertex %v is %.6f from the line, want 1", p, d)
		}
	}
	// round caps are approximated, so allow one arc step of slack
	b := ring.Bound()
	for i, got := range []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]} {
		want := []float64{-1, -1, 1, 11}[i]
		if math.Abs(got-want) > 2e-3 {
			t.Errorf("unexpected bound %v", b)
		}
	}
}

func TestBuild_FlatIsRectangle(t *testing.T) {
	poly, err := newCompositor().Build(north, 1, domain.ModeFlat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ring := poly[0]
	if !closed(ring) {
		t.Fatalf("ring not closed")
	}
	b := ring.Bound()
	if !near(b.Min, orb.Point{-1, 0}) || !near(b.Max, orb.Point{1, 10}) {
		t.Errorf("expected 2x10 rectangle, got bound %v", b)
	}
	for _, y := range []float64{0.5, 5, 9.5} {
		if !planar.RingContains(ring, orb.Point{0.99, y}) || !planar.RingContains(ring, orb.Point{-0.99, y}) {
			t.Errorf("width at y=%v is not 2", y)
		}
		if planar.RingContains(ring, orb.Point{1.01, y}) || planar.RingContains(ring, orb.Point{-1.01, y}) {
			t.Errorf("flat buffer wider than 2 at y=%v", y)
		}
	}
}

func TestBuild_SideStrips(t *testing.T) {
	c := newCompositor()

	tests := []struct {
		mode       domain.BufferMode
		head, tail orb.Point
	}{
		{domain.ModeLeft, orb.Point{-1, 10}, orb.Point{-1, 0}},
		{domain.ModeRight, orb.Point{1, 10}, orb.Point{1, 0}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			poly, err := c.Build(north, 1, tt.mode)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			ring := poly[0]
			if !closed(ring) {
				t.Fatalf("ring not closed: %v", ring)
			}
			// the ring starts with the line itself, in order
			if !ring[0].Equal(orb.Point{0, 0}) || !ring[1].Equal(orb.Point{0, 10}) {
				t.Errorf("ring does not start with the line: %v", ring[:2])
			}
			if !near(ring[2], tt.head) {
				t.Errorf("strip head = %v, want %v", ring[2], tt.head)
			}
			if !near(ring[len(ring)-2], tt.tail) {
				t.Errorf("strip tail = %v, want %v", ring[len(ring)-2], tt.tail)
			}
		})
	}
}

func TestCompose_SidesAreDisjoint(t *testing.T) {
	lines := []domain.Coordinates{
		north,
		{{0, 0}, {10, 0}},
		{{0, 0}, {0, 10}, {10, 10}},
		{{0, 0}, {5, 1}, {10, 0}},
	}
	c := newCompositor()
	for _, line := range lines {
		res, err := c.Compose(line, 1)
		if err != nil {
			t.Fatalf("line %v: unexpected error: %v", line, err)
		}
		for _, p := range []orb.Polygon{res.Flat, res.Left, res.Right} {
			if !closed(p[0]) {
				t.Fatalf("line %v: ring not closed", line)
			}
		}
		n := len(line)
		for _, p := range res.Left[0][n : len(res.Left[0])-1] {
			if planar.PolygonContains(res.Right, p) {
				t.Errorf("line %v: left vertex %v inside right polygon", line, p)
			}
		}
		for _, p := range res.Right[0][n : len(res.Right[0])-1] {
			if planar.PolygonContains(res.Left, p) {
				t.Errorf("line %v: right vertex %v inside left polygon", line, p)
			}
		}
		if math.Abs(planar.Area(res.Flat)) >= math.Abs(planar.Area(res.Around)) {
			t.Errorf("line %v: flat buffer not smaller than round buffer", line)
		}
	}
}

func TestCompose_MatchesBuild(t *testing.T) {
	c := newCompositor()
	res, err := c.Compose(north, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, mode := range domain.Modes() {
		want, _ := res.Get(mode)
		got, err := c.Build(north, 1, mode)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", mode, err)
		}
		if !orb.Equal(want, got) {
			t.Errorf("%s: Build and Compose disagree", mode)
		}
	}
}

type shape struct{ g orb.Geometry }

func (s shape) Geom() orb.Geometry { return s.g }

func TestBuild_LineHandle(t *testing.T) {
	h := domain.Handle{Shape: shape{orb.LineString(north)}}
	poly, err := newCompositor().Build(h, 1, domain.ModeRight)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !near(poly[0][2], orb.Point{1, 10}) {
		t.Errorf("unexpected right strip head %v", poly[0][2])
	}
}

func TestBuild_Errors(t *testing.T) {
	c := newCompositor()

	tests := []struct {
		name string
		in   domain.LineInput
		dist float64
		mode domain.BufferMode
		want error
	}{
		{"single coordinate", domain.Coordinates{{0, 0}}, 1, domain.ModeFlat, domain.ErrInvalidInputKind},
		{"empty handle", domain.Handle{}, 1, domain.ModeFlat, domain.ErrUnsupportedInputType},
		{"polygon handle", domain.Handle{Shape: shape{orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}}}, 1, domain.ModeFlat, domain.ErrUnsupportedInputType},
		{"nil input", nil, 1, domain.ModeFlat, domain.ErrUnsupportedInputType},
		{"unknown mode", north, 1, domain.BufferMode("diagonal"), domain.ErrUnknownBufferMode},
		{"missing mode", north, 1, "", domain.ErrMissingBufferMode},
		{"zero distance", north, 0, domain.ModeAround, domain.ErrBoundaryIntersectionMissing},
		{"line shorter than distance", domain.Coordinates{{0, 0}, {0, 0.5}}, 1, domain.ModeLeft, domain.ErrBoundaryIntersectionMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Build(tt.in, tt.dist, tt.mode)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNormalizeLine_Copies(t *testing.T) {
	in := domain.Coordinates{{0, 0}, {1, 1}}
	line, err := compositor.NormalizeLine(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line[0][0] = 99
	if in[0][0] != 0 {
		t.Error("normalized line aliases the input")
	}
}

// driftKernel answers NearestPoint with a point just off the boundary, so
// anchors can be placed but never found again on the flat ring.
type driftKernel struct {
	ports.GeometryKernel
}

func (k driftKernel) NearestPoint(p orb.Point, pts []orb.Point) (orb.Point, int) {
	pt, idx := k.GeometryKernel.NearestPoint(p, pts)
	return orb.Point{pt[0] + 1e-3, pt[1] + 1e-3}, idx
}

func TestBuild_AnchorsMissingFromFlatRing(t *testing.T) {
	c := compositor.New(driftKernel{kernel.NewPlanar(64, 1)})

	if _, err := c.Build(north, 1, domain.ModeFlat); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, mode := range []domain.BufferMode{domain.ModeLeft, domain.ModeRight} {
		if _, err := c.Build(north, 1, mode); !errors.Is(err, domain.ErrBoundaryIndexNotFound) {
			t.Errorf("%s: expected %v, got %v", mode, domain.ErrBoundaryIndexNotFound, err)
		}
	}
	if _, err := c.Compose(north, 1); !errors.Is(err, domain.ErrBoundaryIndexNotFound) {
		t.Errorf("compose: expected %v, got %v", domain.ErrBoundaryIndexNotFound, err)
	}
}

// signedDistance is the distance from v to the nearest segment of l,
// positive on the left of the walking direction.
func signedDistance(l orb.LineString, v orb.Point) float64 {
	best, sign := math.Inf(1), 1.0
	for i := 0; i+1 < len(l); i++ {
		a, b := l[i], l[i+1]
		d := planar.DistanceFromSegment(a, b, v)
		if d < best {
			best = d
			cross := (b[0]-a[0])*(v[1]-a[1]) - (b[1]-a[1])*(v[0]-a[0])
			sign = 1
			if cross < 0 {
				sign = -1
			}
		}
	}
	return sign * best
}

// bentLine builds a two-segment line from fuzz values: a heading, a
// segment length kept well above the distance, and a turn of at most 60
// degrees at the middle vertex.
func bentLine(heading, length, turn, dist float64) domain.Coordinates {
	heading = math.Mod(heading, 2*math.Pi)
	length = 3*dist + math.Mod(math.Abs(length), 50)
	turn = math.Mod(math.Abs(turn), 2*math.Pi/3) - math.Pi/3

	mid := orb.Point{length * math.Cos(heading), length * math.Sin(heading)}
	end := orb.Point{mid[0] + length*math.Cos(heading+turn), mid[1] + length*math.Sin(heading+turn)}
	return domain.Coordinates{{0, 0}, mid, end}
}

func FuzzCompose(f *testing.F) {
	f.Add(0.0, 10.0, 0.0, 1.0)
	f.Add(math.Pi/2, 5.0, 0.5, 1.0)
	f.Add(1.0, 20.0, 2.0, 0.5)
	f.Add(-2.5, 3.0, 1.9, 4.0)
	f.Add(4.0, 0.0, 0.1, 0.1)

	c := newCompositor()
	f.Fuzz(func(t *testing.T, heading, length, turn, dist float64) {
		for _, v := range []float64{heading, length, turn, dist} {
			if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 1e6 {
				t.Skip()
			}
		}
		dist = 0.1 + math.Mod(math.Abs(dist), 5)
		line := bentLine(heading, length, turn, dist)

		res, err := c.Compose(line, dist)
		if errors.Is(err, domain.ErrBoundaryIntersectionMissing) || errors.Is(err, domain.ErrBoundaryIndexNotFound) {
			t.Skip()
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !closed(res.Flat[0]) {
			t.Fatalf("flat ring not closed")
		}
		ls := orb.LineString(line)
		n := len(line)
		for _, side := range []struct {
			name string
			poly orb.Polygon
			sign float64
		}{
			{"left", res.Left, 1},
			{"right", res.Right, -1},
		} {
			ring := side.poly[0]
			if !closed(ring) {
				t.Fatalf("%s ring not closed", side.name)
			}
			for _, v := range ring[n : len(ring)-1] {
				if d := side.sign * signedDistance(ls, v); d < dist/2 {
					t.Fatalf("%s vertex %v on the wrong side (%.6f)", side.name, v, d)
				}
			}
		}

		flat := planar.Area(res.Flat)
		if sum := planar.Area(res.Left) + planar.Area(res.Right); math.Abs(sum-flat) > 0.05*flat {
			t.Errorf("left+right area %.6f, flat area %.6f", sum, flat)
		}
	})
}
