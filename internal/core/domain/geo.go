package domain

import "github.com/paulmach/orb"

// Geometric is implemented by anything that can hand out its geometry,
// such as a stored feature.
type Geometric interface {
	Geom() orb.Geometry
}

// LineInput is the input of a line buffer. It is either a raw coordinate
// sequence (Coordinates) or an opaque geometry handle (Handle).
type LineInput interface {
	isLineInput()
}

// PointInput is the input of a point buffer: a PointCoordinate or a Handle.
type PointInput interface {
	isPointInput()
}

// PolygonInput is the input of a polygon buffer: PolygonCoordinates or a Handle.
type PolygonInput interface {
	isPolygonInput()
}

// Coordinates is an ordered coordinate sequence in the working projection.
type Coordinates orb.LineString

func (Coordinates) isLineInput() {}

// PointCoordinate is a single coordinate.
type PointCoordinate orb.Point

func (PointCoordinate) isPointInput() {}

// PolygonCoordinates is a polygon given as rings, outer ring first.
type PolygonCoordinates orb.Polygon

func (PolygonCoordinates) isPolygonInput() {}

// Handle wraps a geometry owned by someone else.
type Handle struct {
	Shape Geometric
}

func (Handle) isLineInput()    {}
func (Handle) isPointInput()   {}
func (Handle) isPolygonInput() {}

// Bounds represents a bounding box in the working projection.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// BoundsOf returns the bounding box of g.
func BoundsOf(g orb.Geometry) Bounds {
	b := g.Bound()
	return Bounds{MinX: b.Min.X(), MinY: b.Min.Y(), MaxX: b.Max.X(), MaxY: b.Max.Y()}
}
