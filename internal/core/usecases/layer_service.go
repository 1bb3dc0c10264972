package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/core/ports"
	"github.com/samirrijal/mapbuffer/internal/pkg/metrics"
)

// LayerService manages layers and the features they hold.
type LayerService struct {
	layers    ports.LayerStore
	publisher ports.EventPublisher
}

// NewLayerService creates a new LayerService. publisher may be nil.
func NewLayerService(layers ports.LayerStore, publisher ports.EventPublisher) *LayerService {
	return &LayerService{layers: layers, publisher: publisher}
}

// AddLayer creates a layer. It fails with domain.ErrLayerExists when the
// id is taken. A zero ZIndex becomes 1.
func (s *LayerService) AddLayer(ctx context.Context, layer domain.Layer) (*domain.Layer, error) {
	if layer.ID == "" {
		return nil, fmt.Errorf("%w: layer id is required", domain.ErrInvalidLayer)
	}
	base := domain.NewLayer(layer.ID)
	if layer.ZIndex != 0 {
		base.ZIndex = layer.ZIndex
	}
	if layer.Style != (domain.Style{}) {
		base.Style = layer.Style
	}

	h, err := s.layers.AddLayer(ctx, base)
	if err != nil {
		return nil, err
	}
	metrics.LayersActive.Inc()
	publish(ctx, s.publisher, &domain.LayerEvent{Type: domain.EventLayerAdded, LayerID: layer.ID})

	l := h.Layer()
	return &l, nil
}

// GetLayer returns a single layer.
func (s *LayerService) GetLayer(ctx context.Context, id string) (*domain.Layer, error) {
	h, err := s.layers.GetLayer(ctx, id)
	if err != nil {
		return nil, err
	}
	l := h.Layer()
	return &l, nil
}

// ListLayers returns layers whose id contains idPart; an empty idPart
// matches every layer.
func (s *LayerService) ListLayers(ctx context.Context, idPart string) ([]domain.Layer, error) {
	hs, err := s.layers.ListLayers(ctx, idPart)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Layer, 0, len(hs))
	for _, h := range hs {
		out = append(out, h.Layer())
	}
	return out, nil
}

// RemoveLayer deletes a layer and its features.
func (s *LayerService) RemoveLayer(ctx context.Context, id string) error {
	if err := s.layers.RemoveLayer(ctx, id); err != nil {
		return err
	}
	metrics.LayersActive.Dec()
	publish(ctx, s.publisher, &domain.LayerEvent{Type: domain.EventLayerRemoved, LayerID: id})
	return nil
}

// RemoveLayers deletes every layer whose id contains idPart and returns
// how many were removed.
func (s *LayerService) RemoveLayers(ctx context.Context, idPart string) (int, error) {
	if idPart == "" {
		return 0, fmt.Errorf("%w: id filter is required", domain.ErrInvalidLayer)
	}
	hs, err := s.layers.ListLayers(ctx, idPart)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, h := range hs {
		err := s.RemoveLayer(ctx, h.Layer().ID)
		if errors.Is(err, domain.ErrLayerNotFound) {
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// SetLayerVisible shows or hides one layer.
func (s *LayerService) SetLayerVisible(ctx context.Context, id string, visible bool) error {
	h, err := s.layers.GetLayer(ctx, id)
	if err != nil {
		return err
	}
	return s.setVisible(ctx, h, visible)
}

// SetLayersVisible shows or hides every layer whose id contains idPart.
func (s *LayerService) SetLayersVisible(ctx context.Context, idPart string, visible bool) (int, error) {
	hs, err := s.layers.ListLayers(ctx, idPart)
	if err != nil {
		return 0, err
	}
	for i, h := range hs {
		if err := s.setVisible(ctx, h, visible); err != nil {
			return i, err
		}
	}
	return len(hs), nil
}

func (s *LayerService) setVisible(ctx context.Context, h ports.LayerHandle, visible bool) error {
	if err := h.SetVisible(ctx, visible); err != nil {
		return fmt.Errorf("set visibility of %s: %w", h.Layer().ID, err)
	}
	publish(ctx, s.publisher, &domain.LayerEvent{Type: domain.EventLayerVisible, LayerID: h.Layer().ID, Visible: &visible})
	return nil
}

// ClearLayer removes every feature from a layer but keeps the layer.
func (s *LayerService) ClearLayer(ctx context.Context, id string) error {
	h, err := s.layers.GetLayer(ctx, id)
	if err != nil {
		return err
	}
	if err := h.Clear(ctx); err != nil {
		return fmt.Errorf("clear layer %s: %w", id, err)
	}
	publish(ctx, s.publisher, &domain.LayerEvent{Type: domain.EventLayerCleared, LayerID: id})
	return nil
}

// ClearAll empties every layer and returns how many were cleared.
func (s *LayerService) ClearAll(ctx context.Context) (int, error) {
	hs, err := s.layers.ListLayers(ctx, "")
	if err != nil {
		return 0, err
	}
	for i, h := range hs {
		id := h.Layer().ID
		if err := h.Clear(ctx); err != nil {
			return i, fmt.Errorf("clear layer %s: %w", id, err)
		}
		publish(ctx, s.publisher, &domain.LayerEvent{Type: domain.EventLayerCleared, LayerID: id})
	}
	return len(hs), nil
}

// Features lists the features of a layer in insertion order.
func (s *LayerService) Features(ctx context.Context, layerID string) ([]domain.Feature, error) {
	h, err := s.layers.GetLayer(ctx, layerID)
	if err != nil {
		return nil, err
	}
	return h.Features(ctx)
}

// Feature returns one feature of a layer.
func (s *LayerService) Feature(ctx context.Context, layerID, featureID string) (*domain.Feature, error) {
	h, err := s.layers.GetLayer(ctx, layerID)
	if err != nil {
		return nil, err
	}
	return h.Feature(ctx, featureID)
}

// AddFeature stores a geometry in a layer, creating the layer when needed.
// The kind is derived from the geometry type.
func (s *LayerService) AddFeature(ctx context.Context, layerID string, g orb.Geometry, props map[string]any) (*domain.Feature, error) {
	kind, err := kindOf(g)
	if err != nil {
		return nil, err
	}
	h, err := getOrCreateLayer(ctx, s.layers, s.publisher, layerID)
	if err != nil {
		return nil, err
	}
	f, err := h.AddFeature(ctx, &domain.Feature{Kind: kind, Geometry: g, Properties: props})
	if err != nil {
		return nil, fmt.Errorf("add feature to %s: %w", layerID, err)
	}
	metrics.FeaturesAdded.WithLabelValues(string(kind)).Inc()
	publish(ctx, s.publisher, &domain.LayerEvent{Type: domain.EventFeatureAdded, LayerID: layerID, Feature: f})
	return f, nil
}

func kindOf(g orb.Geometry) (domain.FeatureKind, error) {
	switch v := g.(type) {
	case orb.Point:
		return domain.KindPoint, nil
	case orb.LineString:
		if len(v) < 2 {
			return "", fmt.Errorf("%w: line needs at least 2 coordinates", domain.ErrInvalidFeature)
		}
		return domain.KindLine, nil
	case orb.Polygon:
		if len(v) == 0 || len(v[0]) < 4 {
			return "", fmt.Errorf("%w: polygon outer ring needs at least 4 coordinates", domain.ErrInvalidFeature)
		}
		return domain.KindPolygon, nil
	case nil:
		return "", fmt.Errorf("%w: geometry is required", domain.ErrInvalidFeature)
	default:
		return "", fmt.Errorf("%w: unsupported geometry %s", domain.ErrInvalidFeature, g.GeoJSONType())
	}
}
