package render

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/simplify"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
)

// MaxTileZoom bounds the zoom levels served as vector tiles.
const MaxTileZoom = 22

// ParseTile validates z/x/y tile coordinates.
func ParseTile(z, x, y int) (maptile.Tile, error) {
	if z < 0 || z > MaxTileZoom {
		return maptile.Tile{}, fmt.Errorf("zoom %d out of range [0, %d]", z, MaxTileZoom)
	}
	n := 1 << uint(z)
	if x < 0 || x >= n || y < 0 || y >= n {
		return maptile.Tile{}, fmt.Errorf("tile %d/%d/%d out of range", z, x, y)
	}
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(z)), nil
}

// Tile encodes the features of one layer as a Mapbox vector tile.
// Feature coordinates are read as WGS84 longitude/latitude.
func Tile(layerID string, features []domain.Feature, tile maptile.Tile) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	bound := tile.Bound()
	for i := range features {
		f := &features[i]
		if f.Geometry == nil || !f.Geometry.Bound().Intersects(bound) {
			continue
		}
		gf := f.GeoJSON()
		gf.Properties = tileProperties(gf.Properties)
		fc.Append(gf)
	}

	layers := mvt.NewLayers(map[string]*geojson.FeatureCollection{layerID: fc})
	layers.ProjectToTile(tile)
	layers.Clip(mvt.MapboxGLDefaultExtentBound)
	layers.Simplify(simplify.DouglasPeucker(1.0))
	layers.RemoveEmpty(1.0, 1.0)

	data, err := mvt.Marshal(layers)
	if err != nil {
		return nil, fmt.Errorf("encode tile %d/%d/%d: %w", tile.Z, tile.X, tile.Y, err)
	}
	return data, nil
}

// tileProperties keeps scalar values and JSON-encodes the rest, since
// vector tile values cannot nest.
func tileProperties(in geojson.Properties) geojson.Properties {
	out := make(geojson.Properties, len(in))
	for k, v := range in {
		switch v.(type) {
		case nil:
		case string, bool, float64, float32, int, int64, int32, uint, uint64, uint32:
			out[k] = v
		default:
			if b, err := json.Marshal(v); err == nil {
				out[k] = string(b)
			}
		}
	}
	return out
}
