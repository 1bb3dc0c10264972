package http

import (
	"context"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/core/usecases"
)

// featureRef points at a stored feature, so a line drawn earlier can be
// buffered by reference.
type featureRef struct {
	LayerID   string `json:"layer_id"`
	FeatureID string `json:"feature_id"`
}

type lineBufferBody struct {
	LayerID     string         `json:"layer_id"`
	Mode        string         `json:"mode"`
	DistanceKm  float64        `json:"distance_km"`
	Clear       bool           `json:"clear"`
	IncludeLine bool           `json:"include_line"`
	Coordinates orb.LineString `json:"coordinates"`
	Feature     *featureRef    `json:"feature"`
}

type pointBufferBody struct {
	LayerID     string      `json:"layer_id"`
	DistanceKm  float64     `json:"distance_km"`
	Clear       bool        `json:"clear"`
	Coordinates *orb.Point  `json:"coordinates"`
	Feature     *featureRef `json:"feature"`
}

type polygonBufferBody struct {
	LayerID     string      `json:"layer_id"`
	DistanceKm  float64     `json:"distance_km"`
	Clear       bool        `json:"clear"`
	Coordinates orb.Polygon `json:"coordinates"`
	Feature     *featureRef `json:"feature"`
}

type composeBody struct {
	DistanceKm  float64        `json:"distance_km"`
	Coordinates orb.LineString `json:"coordinates"`
	Feature     *featureRef    `json:"feature"`
}

var errNoGeometry = fmt.Errorf("%w: coordinates or feature is required", domain.ErrInvalidFeature)

// resolveRef loads a referenced feature as an opaque handle.
func resolveRef(ctx context.Context, layers *usecases.LayerService, ref *featureRef) (domain.Handle, error) {
	if ref.LayerID == "" || ref.FeatureID == "" {
		return domain.Handle{}, fmt.Errorf("%w: feature reference needs layer_id and feature_id", domain.ErrInvalidFeature)
	}
	f, err := layers.Feature(ctx, ref.LayerID, ref.FeatureID)
	if err != nil {
		return domain.Handle{}, err
	}
	return domain.Handle{Shape: f}, nil
}

func lineInput(ctx context.Context, layers *usecases.LayerService, coords orb.LineString, ref *featureRef) (domain.LineInput, error) {
	switch {
	case ref != nil:
		return resolveRef(ctx, layers, ref)
	case coords != nil:
		return domain.Coordinates(coords), nil
	}
	return nil, errNoGeometry
}

func pointInput(ctx context.Context, layers *usecases.LayerService, coords *orb.Point, ref *featureRef) (domain.PointInput, error) {
	switch {
	case ref != nil:
		return resolveRef(ctx, layers, ref)
	case coords != nil:
		return domain.PointCoordinate(*coords), nil
	}
	return nil, errNoGeometry
}

func polygonInput(ctx context.Context, layers *usecases.LayerService, coords orb.Polygon, ref *featureRef) (domain.PolygonInput, error) {
	switch {
	case ref != nil:
		return resolveRef(ctx, layers, ref)
	case coords != nil:
		return domain.PolygonCoordinates(coords), nil
	}
	return nil, errNoGeometry
}

// featureCollection renders features as a GeoJSON FeatureCollection.
func featureCollection(features []domain.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range features {
		fc.Append(features[i].GeoJSON())
	}
	return fc
}
