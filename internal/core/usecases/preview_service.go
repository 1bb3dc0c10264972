package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/core/ports"
	"github.com/samirrijal/mapbuffer/internal/pkg/metrics"
)

// Preview size limits in pixels.
const (
	DefaultPreviewSize = 512
	MinPreviewSize     = 16
	MaxPreviewSize     = 2048
)

// PreviewService renders layers to PNG. Only default-size previews are
// cached, and only when a cache is configured.
type PreviewService struct {
	layers   *LayerService
	renderer ports.LayerRenderer
	cache    ports.CacheService
	cacheTTL int
}

// NewPreviewService creates a new PreviewService. cache may be nil; when
// set, the caller must feed layer events to HandleLayerEvent so stale
// images are dropped.
func NewPreviewService(layers *LayerService, renderer ports.LayerRenderer, cache ports.CacheService, cacheTTL int) *PreviewService {
	if cacheTTL <= 0 {
		cacheTTL = 300
	}
	return &PreviewService{layers: layers, renderer: renderer, cache: cache, cacheTTL: cacheTTL}
}

// Render returns a PNG of the layer. A zero width or height uses
// DefaultPreviewSize.
func (s *PreviewService) Render(ctx context.Context, layerID string, width, height int) ([]byte, error) {
	if width == 0 {
		width = DefaultPreviewSize
	}
	if height == 0 {
		height = DefaultPreviewSize
	}
	if width < MinPreviewSize || width > MaxPreviewSize || height < MinPreviewSize || height > MaxPreviewSize {
		return nil, fmt.Errorf("%w: preview size must be between %d and %d pixels",
			domain.ErrInvalidLayer, MinPreviewSize, MaxPreviewSize)
	}

	cacheable := s.cache != nil && width == DefaultPreviewSize && height == DefaultPreviewSize
	if cacheable {
		if data, err := s.cache.Get(ctx, previewKey(layerID)); err == nil {
			metrics.CacheHits.WithLabelValues("preview").Inc()
			return data, nil
		}
		metrics.CacheMisses.WithLabelValues("preview").Inc()
	}

	layer, err := s.layers.GetLayer(ctx, layerID)
	if err != nil {
		return nil, err
	}
	features, err := s.layers.Features(ctx, layerID)
	if err != nil {
		return nil, err
	}
	data, err := s.renderer.RenderPNG(*layer, features, width, height)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", layerID, err)
	}

	if cacheable {
		if err := s.cache.Set(ctx, previewKey(layerID), data, s.cacheTTL); err != nil {
			slog.WarnContext(ctx, "preview cache write failed", "layer", layerID, "error", err)
		}
	}
	return data, nil
}

// HandleLayerEvent drops the cached preview of the layer an event touches.
func (s *PreviewService) HandleLayerEvent(ctx context.Context, event *domain.LayerEvent) error {
	if s.cache == nil || event == nil {
		return nil
	}
	err := s.cache.Delete(ctx, previewKey(event.LayerID))
	if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		return fmt.Errorf("invalidate preview %s: %w", event.LayerID, err)
	}
	return nil
}

func previewKey(layerID string) string {
	return "preview:" + layerID
}
