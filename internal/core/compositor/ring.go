package compositor

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
)

// arrange sorts anchors by ring index. n is the index of the closing
// vertex: an anchor on vertex 0 sits on the seam and is moved to n so
// that it sorts last. Coinciding anchors are reported wrapped in fail.
func arrange(anchors [4]anchor, n int, fail error) ([4]anchor, error) {
	a := anchors
	byIndex := func(i, j int) bool { return a[i].index < a[j].index }

	sort.SliceStable(a[:], byIndex)
	if a[0].index == 0 {
		a[0].index = n
		sort.SliceStable(a[:], byIndex)
	}
	for i := 1; i < len(a); i++ {
		if a[i].index == a[i-1].index {
			return a, fmt.Errorf("%w: %s and %s probes meet at vertex %d",
				fail, probeNames[a[i-1].probe], probeNames[a[i].probe], a[i].index)
		}
	}
	return a, nil
}

// sideLeading reports whether the ring walk meets a whole side before
// the first cap, i.e. the two lowest anchors belong to the same pair.
func sideLeading(a [4]anchor) bool {
	return a[0].pair() == a[1].pair()
}

// removeCaps drops the rounded caps from the closed boundary p. Both
// deletion ranges are marked on the unmodified vertex list before the
// flat ring is assembled.
func removeCaps(p orb.LineString, a [4]anchor) orb.Ring {
	n := len(p) - 1
	drop := make([]bool, n)

	// mark flags the vertices strictly between from and to, walking
	// forward around the ring.
	mark := func(from, to int) {
		to %= n
		for i := (from + 1) % n; i != to; i = (i + 1) % n {
			drop[i] = true
		}
	}

	if sideLeading(a) {
		mark(a[1].index, a[2].index)
		mark(a[3].index, a[0].index)
	} else {
		mark(a[0].index, a[1].index)
		mark(a[2].index, a[3].index)
	}

	flat := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		if !drop[i] {
			flat = append(flat, p[i])
		}
	}
	return append(flat, flat[0])
}

// sideStrips cuts the two lateral strips out of the flat ring. right is
// the strip between the start-left/end-left anchors, left the other one.
func sideStrips(flat orb.Ring, a [4]anchor) (right, left orb.LineString) {
	var first, second orb.LineString
	var firstPair int

	if sideLeading(a) {
		first = arc(flat, a[0].index, a[1].index)
		second = arc(flat, a[2].index, a[3].index)
		firstPair = a[0].pair()
	} else {
		first = arc(flat, a[1].index, a[2].index)
		second = wrappedArc(flat, a[3].index, a[0].index)
		firstPair = a[1].pair()
	}

	if firstPair == 0 {
		return first, second
	}
	return second, first
}

// arc copies ring[from..to] inclusive.
func arc(ring orb.Ring, from, to int) orb.LineString {
	out := make(orb.LineString, 0, to-from+1)
	return append(out, ring[from:to+1]...)
}

// wrappedArc copies ring[from..end] followed by ring[1..to], skipping the
// duplicated closing vertex.
func wrappedArc(ring orb.Ring, from, to int) orb.LineString {
	out := make(orb.LineString, 0, len(ring)-from+to)
	out = append(out, ring[from:]...)
	return append(out, ring[1:to+1]...)
}

// closeStrip appends the strip to a copy of line and closes the ring on the
// line's first vertex. The strip is reversed first when its head lies
// farther from the line end than its tail; strict decides whether a tie
// also reverses it.
func closeStrip(line, strip orb.LineString, dist func(a, b orb.Point) float64, strict bool) orb.Polygon {
	end := line[len(line)-1]
	dFirst := dist(end, strip[0])
	dLast := dist(end, strip[len(strip)-1])

	s := strip.Clone()
	if dFirst > dLast || (!strict && dFirst == dLast) {
		s.Reverse()
	}

	ring := make(orb.Ring, 0, len(line)+len(s)+1)
	ring = append(ring, line...)
	ring = append(ring, s...)
	ring = append(ring, line[0])
	return orb.Polygon{ring}
}
