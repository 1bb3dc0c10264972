// Package render turns layer features into images and vector tiles.
package render

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/gogpu/gg"
	"github.com/paulmach/orb"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
)

// Preview draws a layer onto a PNG using the layer style. It implements
// ports.LayerRenderer.
type Preview struct {
	Background string
	Padding    float64
	PointSize  float64
}

// NewPreview returns a renderer with a white background.
func NewPreview() *Preview {
	return &Preview{Background: "#ffffff", Padding: 8, PointSize: 3}
}

// RenderPNG fits every feature of the layer into a width x height image,
// y axis pointing north. Buffers are drawn below lines and points.
func (p *Preview) RenderPNG(layer domain.Layer, features []domain.Feature, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	dc := gg.NewContext(width, height)
	defer dc.Close()
	dc.ClearWithColor(gg.Hex(p.Background))

	if len(features) > 0 {
		v := fitView(features, float64(width), float64(height), p.Padding)
		ordered := make([]domain.Feature, len(features))
		copy(ordered, features)
		sort.SliceStable(ordered, func(i, j int) bool { return drawOrder(ordered[i]) < drawOrder(ordered[j]) })
		for _, f := range ordered {
			if err := p.draw(dc, v, layer.Style, f.Geometry); err != nil {
				return nil, fmt.Errorf("draw feature %s: %w", f.ID, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawOrder(f domain.Feature) int {
	switch f.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return 0
	case orb.LineString, orb.MultiLineString:
		return 1
	}
	return 2
}

func (p *Preview) draw(dc *gg.Context, v view, style domain.Style, g orb.Geometry) error {
	switch g := g.(type) {
	case orb.Point:
		dc.DrawCircle(v.x(g[0]), v.y(g[1]), p.PointSize)
		dc.SetHexColor(style.Stroke)
		return dc.Fill()
	case orb.MultiPoint:
		for _, pt := range g {
			if err := p.draw(dc, v, style, pt); err != nil {
				return err
			}
		}
	case orb.LineString:
		v.trace(dc, g, false)
		dc.SetHexColor(style.Stroke)
		dc.SetLineWidth(style.Width)
		return dc.Stroke()
	case orb.MultiLineString:
		for _, ls := range g {
			if err := p.draw(dc, v, style, ls); err != nil {
				return err
			}
		}
	case orb.Polygon:
		for _, r := range g {
			v.trace(dc, orb.LineString(r), true)
		}
		dc.SetFillRule(gg.FillRuleEvenOdd)
		dc.SetHexColor(style.Fill)
		if err := dc.FillPreserve(); err != nil {
			return err
		}
		dc.SetHexColor(style.Stroke)
		dc.SetLineWidth(style.Width)
		return dc.Stroke()
	case orb.MultiPolygon:
		for _, poly := range g {
			if err := p.draw(dc, v, style, poly); err != nil {
				return err
			}
		}
	}
	return nil
}

// view maps geometry coordinates to pixels with a uniform scale.
type view struct {
	minX, maxY float64
	scale      float64
	offX, offY float64
}

func fitView(features []domain.Feature, w, h, pad float64) view {
	var b orb.Bound
	first := true
	for _, f := range features {
		if f.Geometry == nil {
			continue
		}
		fb := f.Geometry.Bound()
		if first {
			b, first = fb, false
			continue
		}
		b = b.Union(fb)
	}

	dx, dy := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
	availW, availH := math.Max(w-2*pad, 1), math.Max(h-2*pad, 1)
	scale := 1.0
	switch {
	case dx > 0 && dy > 0:
		scale = math.Min(availW/dx, availH/dy)
	case dx > 0:
		scale = availW / dx
	case dy > 0:
		scale = availH / dy
	}
	return view{
		minX:  b.Min[0],
		maxY:  b.Max[1],
		scale: scale,
		offX:  (w - dx*scale) / 2,
		offY:  (h - dy*scale) / 2,
	}
}

func (v view) x(x float64) float64 { return v.offX + (x-v.minX)*v.scale }
func (v view) y(y float64) float64 { return v.offY + (v.maxY-y)*v.scale }

func (v view) trace(dc *gg.Context, ls orb.LineString, closed bool) {
	for i, pt := range ls {
		if i == 0 {
			dc.MoveTo(v.x(pt[0]), v.y(pt[1]))
			continue
		}
		dc.LineTo(v.x(pt[0]), v.y(pt[1]))
	}
	if closed {
		dc.ClosePath()
	}
}
