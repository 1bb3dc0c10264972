// Package memory keeps layers in process memory.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/core/ports"
)

// LayerStore is a ports.LayerStore backed by a map.
type LayerStore struct {
	mu     sync.RWMutex
	layers map[string]*layer
}

// NewLayerStore creates an empty store.
func NewLayerStore() *LayerStore {
	return &LayerStore{layers: make(map[string]*layer)}
}

func (s *LayerStore) GetLayer(_ context.Context, id string) (ports.LayerHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.layers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, id)
	}
	return l, nil
}

func (s *LayerStore) AddLayer(_ context.Context, meta domain.Layer) (ports.LayerHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.layers[meta.ID]; ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLayerExists, meta.ID)
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	l := &layer{meta: meta, index: make(map[string]int)}
	s.layers[meta.ID] = l
	return l, nil
}

func (s *LayerStore) ListLayers(_ context.Context, idPart string) ([]ports.LayerHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.layers))
	for id := range s.layers {
		if strings.Contains(id, idPart) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]ports.LayerHandle, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.layers[id])
	}
	return out, nil
}

func (s *LayerStore) RemoveLayer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.layers[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrLayerNotFound, id)
	}
	delete(s.layers, id)
	return nil
}

// layer serializes its own mutations.
type layer struct {
	mu       sync.RWMutex
	meta     domain.Layer
	features []domain.Feature
	index    map[string]int
}

func (l *layer) Layer() domain.Layer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.meta
}

func (l *layer) Clear(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.features = nil
	l.index = make(map[string]int)
	return nil
}

func (l *layer) AddFeature(_ context.Context, f *domain.Feature) (*domain.Feature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.add(f)
}

func (l *layer) Replace(_ context.Context, fs ...*domain.Feature) ([]*domain.Feature, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prevFeatures, prevIndex := l.features, l.index
	l.features = nil
	l.index = make(map[string]int)

	out := make([]*domain.Feature, 0, len(fs))
	for _, f := range fs {
		stored, err := l.add(f)
		if err != nil {
			l.features, l.index = prevFeatures, prevIndex
			return nil, err
		}
		out = append(out, stored)
	}
	return out, nil
}

// add stores a copy of f. l.mu must be held.
func (l *layer) add(f *domain.Feature) (*domain.Feature, error) {
	stored := *f
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.LayerID = l.meta.ID
	if _, ok := l.index[stored.ID]; ok {
		return nil, fmt.Errorf("feature %s already in layer %s", stored.ID, l.meta.ID)
	}
	l.index[stored.ID] = len(l.features)
	l.features = append(l.features, stored)
	return &stored, nil
}

func (l *layer) Features(context.Context) ([]domain.Feature, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Feature, len(l.features))
	copy(out, l.features)
	return out, nil
}

func (l *layer) Feature(_ context.Context, id string) (*domain.Feature, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s in layer %s", domain.ErrFeatureNotFound, id, l.meta.ID)
	}
	f := l.features[i]
	return &f, nil
}

func (l *layer) SetVisible(_ context.Context, visible bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.meta.Visible = visible
	return nil
}
