// Package shapefile reads polylines from and writes buffer polygons to ESRI shapefiles.
package shapefile

import (
	"fmt"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// Line is one polyline part read from a shapefile.
type Line struct {
	Record     int
	Part       int
	Coords     orb.LineString
	Attributes map[string]string
}

// ReadLines returns every polyline part of the shapefile at path. Shapes
// that are not polylines and parts with fewer than two points are skipped.
func ReadLines(path string) ([]Line, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		// Field names are fixed-size, NUL padded.
		names[i] = strings.TrimRight(string(f.Name[:]), "\x00 ")
	}

	var out []Line
	for r.Next() {
		n, s := r.Shape()
		pl, ok := s.(*shp.PolyLine)
		if !ok {
			continue
		}
		attrs := make(map[string]string, len(names))
		for i, name := range names {
			attrs[name] = strings.Trim(r.ReadAttribute(n, i), "\x00 ")
		}
		for part, coords := range splitParts(pl.Parts, pl.Points) {
			if len(coords) < 2 {
				continue
			}
			out = append(out, Line{Record: n, Part: part, Coords: coords, Attributes: attrs})
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

func splitParts(parts []int32, points []shp.Point) []orb.LineString {
	if len(parts) == 0 {
		parts = []int32{0}
	}
	out := make([]orb.LineString, 0, len(parts))
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || int(end) > len(points) {
			continue
		}
		ls := make(orb.LineString, 0, end-start)
		for _, p := range points[start:end] {
			ls = append(ls, orb.Point{p.X, p.Y})
		}
		out = append(out, ls)
	}
	return out
}
