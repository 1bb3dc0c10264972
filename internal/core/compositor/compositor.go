// Package compositor derives flat, left-only and right-only buffers of a
// polyline from the round buffer produced by a geometry kernel.
package compositor

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/core/ports"
)

// Compositor is stateless; one value can serve concurrent calls.
type Compositor struct {
	kernel ports.GeometryKernel
}

// New creates a Compositor on top of the given kernel.
func New(kernel ports.GeometryKernel) *Compositor {
	return &Compositor{kernel: kernel}
}

// Result holds all four derived polygons of one line.
type Result struct {
	Around orb.Polygon
	Flat   orb.Polygon
	Left   orb.Polygon
	Right  orb.Polygon
}

// Get returns the polygon for mode.
func (r *Result) Get(mode domain.BufferMode) (orb.Polygon, error) {
	switch mode {
	case domain.ModeAround:
		return r.Around, nil
	case domain.ModeFlat:
		return r.Flat, nil
	case domain.ModeLeft:
		return r.Left, nil
	case domain.ModeRight:
		return r.Right, nil
	case "":
		return nil, domain.ErrMissingBufferMode
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBufferMode, mode)
	}
}

// Build returns the derived polygon for mode, running only the stages that
// mode needs.
func (c *Compositor) Build(in domain.LineInput, distanceKm float64, mode domain.BufferMode) (orb.Polygon, error) {
	if mode == "" {
		return nil, domain.ErrMissingBufferMode
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBufferMode, mode)
	}

	line, err := NormalizeLine(in)
	if err != nil {
		return nil, err
	}
	around, err := c.round(line, distanceKm)
	if err != nil {
		return nil, err
	}
	if mode == domain.ModeAround {
		return around, nil
	}

	st, err := c.flatten(line, around)
	if err != nil {
		return nil, err
	}
	if mode == domain.ModeFlat {
		return orb.Polygon{st.flat}, nil
	}

	right, left, err := c.sides(line, st)
	if err != nil {
		return nil, err
	}
	if mode == domain.ModeLeft {
		return left, nil
	}
	return right, nil
}

// Compose runs the full pipeline and returns every derived polygon.
func (c *Compositor) Compose(in domain.LineInput, distanceKm float64) (*Result, error) {
	line, err := NormalizeLine(in)
	if err != nil {
		return nil, err
	}
	around, err := c.round(line, distanceKm)
	if err != nil {
		return nil, err
	}
	st, err := c.flatten(line, around)
	if err != nil {
		return nil, err
	}
	right, left, err := c.sides(line, st)
	if err != nil {
		return nil, err
	}
	return &Result{Around: around, Flat: orb.Polygon{st.flat}, Left: left, Right: right}, nil
}

func (c *Compositor) round(line orb.LineString, distanceKm float64) (orb.Polygon, error) {
	poly, err := c.kernel.Buffer(line, distanceKm)
	if err != nil {
		return nil, fmt.Errorf("%w: buffer: %v", domain.ErrBoundaryIntersectionMissing, err)
	}
	if len(poly) == 0 || len(poly[0]) < 4 {
		return nil, fmt.Errorf("%w: empty buffer", domain.ErrBoundaryIntersectionMissing)
	}
	return poly, nil
}

// capState carries the anchors from cap removal into strip extraction.
type capState struct {
	anchors [4]anchor
	flat    orb.Ring
}

func (c *Compositor) flatten(line orb.LineString, around orb.Polygon) (*capState, error) {
	probes := buildProbes(c.kernel, line)

	boundary, anchors, err := locateAnchors(c.kernel, around[0], probes)
	if err != nil {
		return nil, err
	}
	sorted, err := arrange(anchors, len(boundary)-1, domain.ErrBoundaryIntersectionMissing)
	if err != nil {
		return nil, err
	}
	return &capState{anchors: anchors, flat: removeCaps(boundary, sorted)}, nil
}

func (c *Compositor) sides(line orb.LineString, st *capState) (right, left orb.Polygon, err error) {
	found, err := relocate(st.flat, st.anchors)
	if err != nil {
		return nil, nil, err
	}
	sorted, err := arrange(found, len(st.flat)-1, domain.ErrBoundaryIndexNotFound)
	if err != nil {
		return nil, nil, err
	}
	rightStrip, leftStrip := sideStrips(st.flat, sorted)

	right = closeStrip(line, rightStrip, c.kernel.Distance, true)
	left = closeStrip(line, leftStrip, c.kernel.Distance, false)
	return right, left, nil
}
