package shapefile

import (
	"fmt"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// Polygon is one derived buffer written to the output shapefile.
type Polygon struct {
	Record     int
	Part       int
	Mode       string
	DistanceKm float64
	Shape      orb.Polygon
}

const (
	fieldRecord = iota
	fieldPart
	fieldMode
	fieldDistance
)

// Writer writes buffer polygons with their source record, part, mode and
// distance as attributes.
type Writer struct {
	w    *shp.Writer
	rows int
}

// Create opens a new polygon shapefile at path, replacing any existing one.
func Create(path string) (*Writer, error) {
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	if err := w.SetFields([]shp.Field{
		shp.NumberField("RECORD", 10),
		shp.NumberField("PART", 6),
		shp.StringField("MODE", 8),
		shp.FloatField("DIST_KM", 16, 6),
	}); err != nil {
		w.Close()
		return nil, fmt.Errorf("set fields: %w", err)
	}
	return &Writer{w: w}, nil
}

// Write appends one polygon. Outer rings are written clockwise and holes
// counter-clockwise.
func (w *Writer) Write(p Polygon) error {
	if len(p.Shape) == 0 {
		return fmt.Errorf("record %d part %d: empty polygon", p.Record, p.Part)
	}
	parts := make([][]shp.Point, 0, len(p.Shape))
	for i, r := range p.Shape {
		want := orb.CW
		if i > 0 {
			want = orb.CCW
		}
		parts = append(parts, ringPoints(r, want))
	}
	poly := shp.Polygon(*shp.NewPolyLine(parts))
	row := int(w.w.Write(&poly))

	values := map[int]interface{}{
		fieldRecord:   p.Record,
		fieldPart:     p.Part,
		fieldMode:     p.Mode,
		fieldDistance: p.DistanceKm,
	}
	for field := fieldRecord; field <= fieldDistance; field++ {
		if err := w.w.WriteAttribute(row, field, values[field]); err != nil {
			return fmt.Errorf("record %d part %d: write attribute: %w", p.Record, p.Part, err)
		}
	}
	w.rows++
	return nil
}

// Rows returns how many polygons were written.
func (w *Writer) Rows() int { return w.rows }

// Close flushes the .shp, .shx and .dbf files.
func (w *Writer) Close() {
	w.w.Close()
}

func ringPoints(r orb.Ring, want orb.Orientation) []shp.Point {
	pts := make([]shp.Point, len(r))
	reverse := r.Orientation() != want
	for i, p := range r {
		j := i
		if reverse {
			j = len(r) - 1 - i
		}
		pts[j] = shp.Point{X: p[0], Y: p[1]}
	}
	return pts
}
