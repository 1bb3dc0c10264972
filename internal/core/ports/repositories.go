package ports

import (
	"context"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
)

// LayerStore owns the set of layers.
type LayerStore interface {
	// GetLayer returns domain.ErrLayerNotFound when id is unknown.
	GetLayer(ctx context.Context, id string) (LayerHandle, error)
	// AddLayer returns domain.ErrLayerExists when the id is taken.
	AddLayer(ctx context.Context, layer domain.Layer) (LayerHandle, error)
	// ListLayers returns layers whose id contains idPart, ordered by id.
	ListLayers(ctx context.Context, idPart string) ([]LayerHandle, error)
	RemoveLayer(ctx context.Context, id string) error
}

// LayerHandle is a live reference to one layer. Each call is atomic on
// its own; a Clear followed by AddFeature is not, use Replace instead.
type LayerHandle interface {
	Layer() domain.Layer
	Clear(ctx context.Context) error
	// AddFeature stores f, assigning ID, LayerID and CreatedAt when empty.
	AddFeature(ctx context.Context, f *domain.Feature) (*domain.Feature, error)
	// Replace removes every feature and stores fs in their place as one
	// step. Concurrent Replace calls never interleave.
	Replace(ctx context.Context, fs ...*domain.Feature) ([]*domain.Feature, error)
	Features(ctx context.Context) ([]domain.Feature, error)
	Feature(ctx context.Context, id string) (*domain.Feature, error)
	SetVisible(ctx context.Context, visible bool) error
}
