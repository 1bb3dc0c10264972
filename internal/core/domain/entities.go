package domain

import (
	"encoding/json"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Style is the drawing style of a layer.
type Style struct {
	Stroke string  `json:"stroke"`
	Fill   string  `json:"fill"`
	Width  float64 `json:"width"`
}

// DefaultStyle mirrors the blue outline used by the drawing tools.
var DefaultStyle = Style{Stroke: "#0099ff", Fill: "#0099ff33", Width: 2}

// Layer is a named, ordered container of features.
type Layer struct {
	ID        string    `json:"id"`
	ZIndex    int       `json:"z_index"`
	Visible   bool      `json:"visible"`
	Style     Style     `json:"style"`
	CreatedAt time.Time `json:"created_at"`
}

// NewLayer returns a visible layer with default style and z-index 1.
func NewLayer(id string) Layer {
	return Layer{ID: id, ZIndex: 1, Visible: true, Style: DefaultStyle, CreatedAt: time.Now().UTC()}
}

// FeatureKind tags what produced a feature.
type FeatureKind string

const (
	KindLine    FeatureKind = "line"
	KindPoint   FeatureKind = "point"
	KindPolygon FeatureKind = "polygon"
	KindBuffer  FeatureKind = "buffer"
)

// Feature is a geometry stored in a layer.
type Feature struct {
	ID         string
	LayerID    string
	Kind       FeatureKind
	Geometry   orb.Geometry
	Properties map[string]any
	CreatedAt  time.Time
}

// Geom implements Geometric, so a stored line can be buffered by reference.
func (f *Feature) Geom() orb.Geometry {
	if f == nil {
		return nil
	}
	return f.Geometry
}

// GeoJSON converts the feature into a GeoJSON feature.
func (f *Feature) GeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry)
	gf.ID = f.ID
	for k, v := range f.Properties {
		gf.Properties[k] = v
	}
	gf.Properties["layer_id"] = f.LayerID
	gf.Properties["kind"] = string(f.Kind)
	return gf
}

type featureJSON struct {
	ID         string            `json:"id"`
	LayerID    string            `json:"layer_id"`
	Kind       FeatureKind       `json:"kind"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]any    `json:"properties,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// MarshalJSON encodes the geometry as GeoJSON.
func (f Feature) MarshalJSON() ([]byte, error) {
	out := featureJSON{
		ID:         f.ID,
		LayerID:    f.LayerID,
		Kind:       f.Kind,
		Properties: f.Properties,
		CreatedAt:  f.CreatedAt,
	}
	if f.Geometry != nil {
		out.Geometry = geojson.NewGeometry(f.Geometry)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a feature written by MarshalJSON.
func (f *Feature) UnmarshalJSON(data []byte) error {
	var in featureJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*f = Feature{
		ID:         in.ID,
		LayerID:    in.LayerID,
		Kind:       in.Kind,
		Properties: in.Properties,
		CreatedAt:  in.CreatedAt,
	}
	if in.Geometry != nil {
		f.Geometry = in.Geometry.Geometry()
	}
	return nil
}

// LayerEventType names a layer mutation.
type LayerEventType string

const (
	EventLayerAdded     LayerEventType = "layer_added"
	EventLayerRemoved   LayerEventType = "layer_removed"
	EventLayerCleared   LayerEventType = "layer_cleared"
	EventLayerVisible   LayerEventType = "layer_visibility"
	EventFeatureAdded   LayerEventType = "feature_added"
	EventBufferComputed LayerEventType = "buffer_computed"
)

// LayerEvent is published whenever a layer changes.
type LayerEvent struct {
	Type    LayerEventType `json:"type"`
	LayerID string         `json:"layer_id"`
	Feature *Feature       `json:"feature,omitempty"`
	Visible *bool          `json:"visible,omitempty"`
	Time    time.Time      `json:"time"`
}
