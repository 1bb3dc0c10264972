package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
)

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache { return &mockCache{data: make(map[string][]byte)} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.LayerEvent
	err    error
}

func (m *mockPublisher) PublishLayerEvent(ctx context.Context, ev *domain.LayerEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return m.err
}

func (m *mockPublisher) types() []domain.LayerEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.LayerEventType, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.Type
	}
	return out
}

// --- Mock LayerRenderer ---

type mockRenderer struct {
	calls    int
	renderFn func(layer domain.Layer, features []domain.Feature, w, h int) ([]byte, error)
}

func (m *mockRenderer) RenderPNG(layer domain.Layer, features []domain.Feature, w, h int) ([]byte, error) {
	m.calls++
	if m.renderFn != nil {
		return m.renderFn(layer, features, w, h)
	}
	return []byte("png"), nil
}
