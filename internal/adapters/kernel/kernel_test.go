package kernel_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/samirrijal/mapbuffer/internal/adapters/kernel"
)

func approx(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestPlanar_RotateAboutPivot(t *testing.T) {
	k := kernel.NewPlanar(0, 0)
	line := orb.LineString{{0, 0}, {0, 10}}

	tests := []struct {
		name    string
		degrees float64
		pivot   orb.Point
		want    orb.Point // image of the second vertex
	}{
		{"ccw about start", 90, orb.Point{0, 0}, orb.Point{-10, 0}},
		{"cw about start", -90, orb.Point{0, 0}, orb.Point{10, 0}},
		{"half turn about end", 180, orb.Point{0, 10}, orb.Point{0, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := k.RotateAboutPivot(line, tt.degrees, tt.pivot)
			if len(got) != 2 {
				t.Fatalf("expected 2 points, got %d", len(got))
			}
			if !approx(got[1][0], tt.want[0], 1e-9) || !approx(got[1][1], tt.want[1], 1e-9) {
				t.Errorf("got %v, want %v", got[1], tt.want)
			}
		})
	}
	if line[1] != (orb.Point{0, 10}) {
		t.Error("rotation modified its input")
	}
}

func nearPt(a, b orb.Point) bool { return approx(a[0], b[0], 1e-9) && approx(a[1], b[1], 1e-9) }

func TestPlanar_LineIntersect(t *testing.T) {
	k := kernel.NewPlanar(0, 0)
	square := orb.Ring{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}}

	tests := []struct {
		name string
		line orb.LineString
		want []orb.Point
	}{
		{"single crossing", orb.LineString{{0, 0}, {5, 0}}, []orb.Point{{1, 0}}},
		// one segment: hits follow ring-edge order
		{"through both sides", orb.LineString{{-5, 0}, {5, 0}}, []orb.Point{{1, 0}, {-1, 0}}},
		// several segments: line order first
		{"two segments", orb.LineString{{0, 0}, {5, 0}, {5, 0.5}, {0, 0.5}}, []orb.Point{{1, 0}, {1, 0.5}}},
		{"outside", orb.LineString{{5, 5}, {6, 6}}, nil},
		// both touching edges report the shared corner once
		{"through a vertex", orb.LineString{{0, 0}, {3, 3}}, []orb.Point{{1, 1}}},
		{"along an edge", orb.LineString{{1, -0.5}, {1, 0.5}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := k.LineIntersect(tt.line, square)
			if len(hits) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, hits)
			}
			for i := range hits {
				if !nearPt(hits[i], tt.want[i]) {
					t.Errorf("hit %d: expected %v, got %v", i, tt.want[i], hits[i])
				}
			}
		})
	}
}

func TestPlanar_NearestPoint(t *testing.T) {
	k := kernel.NewPlanar(0, 0)
	pts := []orb.Point{{0, 0}, {2, 0}, {0, 2}, {2, 0}}

	p, idx := k.NearestPoint(orb.Point{1.9, 0.1}, pts)
	if idx != 1 || !p.Equal(orb.Point{2, 0}) {
		t.Errorf("expected first (2,0) at 1, got %v at %d", p, idx)
	}
	if _, idx := k.NearestPoint(orb.Point{1, 1}, nil); idx != -1 {
		t.Errorf("expected -1 for empty input, got %d", idx)
	}
}

func TestPlanar_Distance(t *testing.T) {
	k := kernel.NewPlanar(0, 1000)
	if d := k.Distance(orb.Point{0, 0}, orb.Point{3000, 4000}); !approx(d, 5, 1e-12) {
		t.Errorf("expected 5km, got %v", d)
	}
}

func TestPlanar_BufferPoint(t *testing.T) {
	k := kernel.NewPlanar(32, 1)
	poly, err := k.Buffer(orb.Point{10, 20}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ring := poly[0]
	if !ring[0].Equal(ring[len(ring)-1]) {
		t.Fatal("ring not closed")
	}
	if n := len(ring) - 1; n < 28 || n > 36 {
		t.Errorf("expected about 32 vertices, got %d", n)
	}
	for _, p := range ring {
		if d := planar.Distance(p, orb.Point{10, 20}); !approx(d, 2, 1e-5) {
			t.Errorf("vertex %v at distance %v, want 2", p, d)
		}
	}
}

func TestPlanar_BufferPolygon(t *testing.T) {
	k := kernel.NewPlanar(0, 1)
	square := orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}}

	poly, err := k.Buffer(square, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := poly.Bound()
	if !approx(b.Min[0], -1, 1e-5) || !approx(b.Max[1], 5, 1e-5) {
		t.Errorf("unexpected bound %v", b)
	}
	if !planar.PolygonContains(poly, orb.Point{-0.5, 2}) {
		t.Error("buffer does not grow the polygon")
	}
}

func TestPlanar_BufferRingWithHole(t *testing.T) {
	k := kernel.NewPlanar(0, 1)
	loop := orb.LineString{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}

	poly, err := k.Buffer(loop, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(poly) != 2 {
		t.Fatalf("expected outer ring and one hole, got %d rings", len(poly))
	}
	if planar.PolygonContains(poly, orb.Point{5, 5}) {
		t.Error("hole center reported inside")
	}
}

func TestPlanar_BufferInvalidDistance(t *testing.T) {
	k := kernel.NewPlanar(0, 1)
	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := k.Buffer(orb.Point{0, 0}, d); err == nil {
			t.Errorf("distance %v: expected error", d)
		}
	}
}

func TestGeodesic_BufferRadius(t *testing.T) {
	k := kernel.NewGeodesic(64)
	bilbao := orb.Point{-2.935, 43.263}

	poly, err := k.Buffer(bilbao, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range poly[0] {
		if d := k.Distance(bilbao, p); !approx(d, 1, 0.01) {
			t.Errorf("vertex %v is %.4fkm away, want 1km", p, d)
		}
	}
}

func TestGeodesic_RotateKeepsPivot(t *testing.T) {
	k := kernel.NewGeodesic(0)
	line := orb.LineString{{-2.93, 43.26}, {-2.93, 43.27}}

	got := k.RotateAboutPivot(line, -90, line[0])
	if !approx(got[0][0], line[0][0], 1e-9) || !approx(got[0][1], line[0][1], 1e-9) {
		t.Errorf("pivot moved to %v", got[0])
	}
	// a north-pointing line turned clockwise points east
	if got[1][0] <= line[0][0] || !approx(got[1][1], line[0][1], 1e-6) {
		t.Errorf("unexpected rotation result %v", got[1])
	}
	if d1, d2 := k.Distance(line[0], line[1]), k.Distance(got[0], got[1]); !approx(d1, d2, 1e-3) {
		t.Errorf("rotation changed length: %v vs %v", d1, d2)
	}
}
