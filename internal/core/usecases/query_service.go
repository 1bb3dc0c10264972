package usecases

import (
	"context"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/pkg/geospatial"
)

// Relation is the spatial relation between two polygons.
type Relation string

const (
	RelationDisjoint   Relation = "disjoint"
	RelationIntersects Relation = "intersects"
	RelationAContainsB Relation = "a_contains_b"
	RelationBContainsA Relation = "b_contains_a"
)

// QueryService answers point-in-polygon and polygon relation queries.
type QueryService struct {
	layers *LayerService
}

// NewQueryService creates a new QueryService.
func NewQueryService(layers *LayerService) *QueryService {
	return &QueryService{layers: layers}
}

// IsPointIn reports whether pt lies inside poly. Points on the boundary
// count as inside.
func (s *QueryService) IsPointIn(pt orb.Point, poly orb.Polygon) bool {
	return planar.PolygonContains(poly, pt)
}

// InsidePoints returns the point features of a layer that fall inside poly.
func (s *QueryService) InsidePoints(ctx context.Context, layerID string, poly orb.Polygon) ([]domain.Feature, error) {
	if len(poly) == 0 {
		return nil, fmt.Errorf("%w: polygon has no rings", domain.ErrInvalidFeature)
	}
	features, err := s.layers.Features(ctx, layerID)
	if err != nil {
		return nil, err
	}
	var out []domain.Feature
	for _, f := range features {
		pt, ok := f.Geometry.(orb.Point)
		if ok && s.IsPointIn(pt, poly) {
			out = append(out, f)
		}
	}
	return out, nil
}

// Nearby is a point feature and its distance from a query center.
type Nearby struct {
	Feature    domain.Feature `json:"feature"`
	DistanceKm float64        `json:"distance_km"`
}

// NearbyPoints returns the point features of a layer within radiusKm of
// center, nearest first. Coordinates are read as WGS84 lon/lat.
func (s *QueryService) NearbyPoints(ctx context.Context, layerID string, center orb.Point, radiusKm float64, limit int) ([]Nearby, error) {
	if err := validateDistance(radiusKm); err != nil {
		return nil, err
	}
	features, err := s.layers.Features(ctx, layerID)
	if err != nil {
		return nil, err
	}
	box := geospatial.BoundAround(center, radiusKm)
	var out []Nearby
	for _, f := range features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok || !box.Contains(pt) {
			continue
		}
		if d := geospatial.DistanceKm(center, pt); d <= radiusKm {
			out = append(out, Nearby{Feature: f, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PolygonRelation classifies a and b by testing the outer ring vertices of
// each against the other polygon.
func (s *QueryService) PolygonRelation(a, b orb.Polygon) (Relation, error) {
	if len(a) == 0 || len(b) == 0 {
		return "", fmt.Errorf("%w: polygon has no rings", domain.ErrInvalidFeature)
	}
	anyA, allA := vertexContainment(a[0], b)
	anyB, allB := vertexContainment(b[0], a)

	switch {
	case !anyA && !anyB:
		return RelationDisjoint, nil
	case allB:
		return RelationAContainsB, nil
	case allA:
		return RelationBContainsA, nil
	default:
		return RelationIntersects, nil
	}
}

func vertexContainment(r orb.Ring, in orb.Polygon) (anyIn, allIn bool) {
	allIn = len(r) > 0
	for _, p := range r {
		if planar.PolygonContains(in, p) {
			anyIn = true
		} else {
			allIn = false
		}
	}
	return anyIn, allIn
}
