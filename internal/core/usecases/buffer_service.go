package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/mapbuffer/internal/core/compositor"
	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/core/ports"
	"github.com/samirrijal/mapbuffer/internal/pkg/metrics"
	"github.com/samirrijal/mapbuffer/internal/pkg/telemetry"
)

// BufferLineRequest asks for one derived buffer of a line. IncludeLine
// also stores the normalized line as a feature ahead of its buffer.
type BufferLineRequest struct {
	LayerID       string
	Line          domain.LineInput
	Mode          domain.BufferMode
	DistanceKm    float64
	ClearPrevious bool
	IncludeLine   bool
}

// BufferPointRequest asks for the round buffer of a point.
type BufferPointRequest struct {
	LayerID       string
	Point         domain.PointInput
	DistanceKm    float64
	ClearPrevious bool
}

// BufferPolygonRequest asks for the outward buffer of a polygon.
type BufferPolygonRequest struct {
	LayerID       string
	Polygon       domain.PolygonInput
	DistanceKm    float64
	ClearPrevious bool
}

// BufferResult is delivered by BufferLineAsync.
type BufferResult struct {
	Feature *domain.Feature
	Err     error
}

// BufferService computes buffers and delivers them to layers.
type BufferService struct {
	layers    ports.LayerStore
	kernel    ports.GeometryKernel
	comp      *compositor.Compositor
	cache     ports.CacheService
	publisher ports.EventPublisher
	cacheTTL  int
}

// NewBufferService creates a new BufferService. cache and publisher may be nil.
func NewBufferService(
	layers ports.LayerStore,
	kernel ports.GeometryKernel,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	cacheTTL int,
) *BufferService {
	if cacheTTL <= 0 {
		cacheTTL = 600
	}
	return &BufferService{
		layers:    layers,
		kernel:    kernel,
		comp:      compositor.New(kernel),
		cache:     cache,
		publisher: publisher,
		cacheTTL:  cacheTTL,
	}
}

// BufferLine derives the requested buffer of a line and adds it to the
// target layer, creating the layer when needed. Nothing is added, and the
// layer is not cleared, when the buffer cannot be built.
func (s *BufferService) BufferLine(ctx context.Context, req BufferLineRequest) (f *domain.Feature, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanBufferLine, trace.WithAttributes(
		attribute.String("layer.id", req.LayerID),
		attribute.String("buffer.mode", string(req.Mode)),
		attribute.Float64("buffer.distance_km", req.DistanceKm),
	))
	start := time.Now()
	defer func() { s.observe(span, "line", string(req.Mode), start, err) }()

	if err := validateDistance(req.DistanceKm); err != nil {
		return nil, err
	}
	line, err := compositor.NormalizeLine(req.Line)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey("line", string(req.Mode), req.DistanceKm, line)
	poly, ok := s.cached(ctx, key)
	if !ok {
		poly, err = s.comp.Build(domain.Coordinates(line), req.DistanceKm, req.Mode)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, poly)
	}

	buffer := &domain.Feature{
		Kind:     domain.KindBuffer,
		Geometry: poly,
		Properties: map[string]any{
			"source":      string(domain.KindLine),
			"mode":        string(req.Mode),
			"distance_km": req.DistanceKm,
		},
	}
	if !req.IncludeLine {
		return s.deliver(ctx, req.LayerID, req.ClearPrevious, buffer)
	}
	return s.deliver(ctx, req.LayerID, req.ClearPrevious, &domain.Feature{
		Kind:       domain.KindLine,
		Geometry:   line,
		Properties: map[string]any{},
	}, buffer)
}

// BufferLineAsync runs BufferLine in the background. The returned channel
// yields exactly one result.
func (s *BufferService) BufferLineAsync(ctx context.Context, req BufferLineRequest) <-chan BufferResult {
	out := make(chan BufferResult, 1)
	go func() {
		defer close(out)
		f, err := s.BufferLine(ctx, req)
		out <- BufferResult{Feature: f, Err: err}
	}()
	return out
}

// BufferPoint adds the round buffer of a point to the target layer.
func (s *BufferService) BufferPoint(ctx context.Context, req BufferPointRequest) (f *domain.Feature, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanBufferPoint, trace.WithAttributes(
		attribute.String("layer.id", req.LayerID),
		attribute.Float64("buffer.distance_km", req.DistanceKm),
	))
	start := time.Now()
	defer func() { s.observe(span, "point", string(domain.ModeAround), start, err) }()

	if err := validateDistance(req.DistanceKm); err != nil {
		return nil, err
	}
	pt, err := resolvePoint(req.Point)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey("point", string(domain.ModeAround), req.DistanceKm, []orb.Point{pt})
	poly, ok := s.cached(ctx, key)
	if !ok {
		poly, err = s.kernel.Buffer(pt, req.DistanceKm)
		if err != nil {
			return nil, fmt.Errorf("buffer point: %w", err)
		}
		s.store(ctx, key, poly)
	}

	return s.deliver(ctx, req.LayerID, req.ClearPrevious, &domain.Feature{
		Kind:     domain.KindBuffer,
		Geometry: poly,
		Properties: map[string]any{
			"source":      string(domain.KindPoint),
			"distance_km": req.DistanceKm,
		},
	})
}

// BufferPolygon adds the outward buffer of a polygon to the target layer.
func (s *BufferService) BufferPolygon(ctx context.Context, req BufferPolygonRequest) (f *domain.Feature, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanBufferPolygon, trace.WithAttributes(
		attribute.String("layer.id", req.LayerID),
		attribute.Float64("buffer.distance_km", req.DistanceKm),
	))
	start := time.Now()
	defer func() { s.observe(span, "polygon", string(domain.ModeAround), start, err) }()

	if err := validateDistance(req.DistanceKm); err != nil {
		return nil, err
	}
	polygon, err := resolvePolygon(req.Polygon)
	if err != nil {
		return nil, err
	}

	var pts []orb.Point
	for _, r := range polygon {
		pts = append(pts, r...)
	}
	key := s.cacheKey("polygon", string(domain.ModeAround), req.DistanceKm, pts)
	poly, ok := s.cached(ctx, key)
	if !ok {
		poly, err = s.kernel.Buffer(polygon, req.DistanceKm)
		if err != nil {
			return nil, fmt.Errorf("buffer polygon: %w", err)
		}
		s.store(ctx, key, poly)
	}

	return s.deliver(ctx, req.LayerID, req.ClearPrevious, &domain.Feature{
		Kind:     domain.KindBuffer,
		Geometry: poly,
		Properties: map[string]any{
			"source":      string(domain.KindPolygon),
			"distance_km": req.DistanceKm,
		},
	})
}

// Compose returns all four derived polygons of a line without touching
// any layer.
func (s *BufferService) Compose(ctx context.Context, line domain.LineInput, distanceKm float64) (*compositor.Result, error) {
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanCompose)
	defer span.End()

	if err := validateDistance(distanceKm); err != nil {
		return nil, err
	}
	res, err := s.comp.Compose(line, distanceKm)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

// deliver gets or creates the layer and adds fs in order, swapping out
// the previous contents in one step when clear is set. The last feature is
// the buffer and is returned.
func (s *BufferService) deliver(ctx context.Context, layerID string, clear bool, fs ...*domain.Feature) (*domain.Feature, error) {
	h, err := getOrCreateLayer(ctx, s.layers, s.publisher, layerID)
	if err != nil {
		return nil, err
	}

	var added []*domain.Feature
	if clear {
		added, err = h.Replace(ctx, fs...)
		if err != nil {
			return nil, fmt.Errorf("replace contents of layer %s: %w", layerID, err)
		}
		publish(ctx, s.publisher, &domain.LayerEvent{Type: domain.EventLayerCleared, LayerID: layerID})
	} else {
		for _, f := range fs {
			a, err := h.AddFeature(ctx, f)
			if err != nil {
				return nil, fmt.Errorf("add %s to layer %s: %w", f.Kind, layerID, err)
			}
			added = append(added, a)
		}
	}

	for _, a := range added {
		metrics.FeaturesAdded.WithLabelValues(string(a.Kind)).Inc()
		typ := domain.EventFeatureAdded
		if a.Kind == domain.KindBuffer {
			typ = domain.EventBufferComputed
		}
		publish(ctx, s.publisher, &domain.LayerEvent{Type: typ, LayerID: layerID, Feature: a})
	}
	return added[len(added)-1], nil
}

func (s *BufferService) observe(span trace.Span, geometry, mode string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Debug("buffer failed", "geometry", geometry, "mode", mode, "error", err)
	}
	metrics.BuffersTotal.WithLabelValues(geometry, mode, outcome).Inc()
	metrics.BufferDuration.WithLabelValues(geometry, mode).Observe(time.Since(start).Seconds())
	span.End()
}

// cacheKey hashes the coordinates so that keys stay short for long lines.
func (s *BufferService) cacheKey(geometry, mode string, distanceKm float64, pts []orb.Point) string {
	h := sha256.New()
	var buf [8]byte
	for _, p := range pts {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(p[0]))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(p[1]))
		h.Write(buf[:])
	}
	return fmt.Sprintf("buffer:%s:%s:%g:%s", geometry, mode, distanceKm, hex.EncodeToString(h.Sum(nil)))
}

func (s *BufferService) cached(ctx context.Context, key string) (orb.Polygon, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			slog.WarnContext(ctx, "buffer cache read failed", "key", key, "error", err)
		}
		metrics.CacheMisses.WithLabelValues("buffer").Inc()
		return nil, false
	}
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, false
	}
	poly, ok := g.Geometry().(orb.Polygon)
	if !ok {
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("buffer").Inc()
	return poly, true
}

func (s *BufferService) store(ctx context.Context, key string, poly orb.Polygon) {
	if s.cache == nil {
		return
	}
	if data, err := geojson.NewGeometry(poly).MarshalJSON(); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			slog.WarnContext(ctx, "buffer cache write failed", "key", key, "error", err)
		}
	}
}

func validateDistance(d float64) error {
	if !(d > 0) || math.IsInf(d, 0) {
		return fmt.Errorf("%w: got %v", domain.ErrInvalidDistance, d)
	}
	return nil
}

func resolvePoint(in domain.PointInput) (orb.Point, error) {
	switch v := in.(type) {
	case domain.PointCoordinate:
		return orb.Point(v), nil
	case domain.Handle:
		if v.Shape != nil {
			if pt, ok := v.Shape.Geom().(orb.Point); ok {
				return pt, nil
			}
		}
	}
	return orb.Point{}, fmt.Errorf("%w: want a coordinate or a point handle", domain.ErrUnsupportedInputType)
}

func resolvePolygon(in domain.PolygonInput) (orb.Polygon, error) {
	var poly orb.Polygon
	switch v := in.(type) {
	case domain.PolygonCoordinates:
		poly = orb.Polygon(v)
	case domain.Handle:
		if v.Shape == nil {
			return nil, fmt.Errorf("%w: empty handle", domain.ErrUnsupportedInputType)
		}
		p, ok := v.Shape.Geom().(orb.Polygon)
		if !ok {
			return nil, fmt.Errorf("%w: handle holds %T, want a polygon", domain.ErrUnsupportedInputType, v.Shape.Geom())
		}
		poly = p
	default:
		return nil, fmt.Errorf("%w: want polygon rings or a polygon handle", domain.ErrUnsupportedInputType)
	}
	if len(poly) == 0 || len(poly[0]) < 4 {
		return nil, fmt.Errorf("%w: polygon outer ring needs at least 4 coordinates", domain.ErrInvalidInputKind)
	}
	return poly.Clone(), nil
}

// getOrCreateLayer tolerates a concurrent creator winning the race.
func getOrCreateLayer(ctx context.Context, layers ports.LayerStore, publisher ports.EventPublisher, id string) (ports.LayerHandle, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: layer id is required", domain.ErrInvalidLayer)
	}
	h, err := layers.GetLayer(ctx, id)
	if err == nil {
		return h, nil
	}
	if !errors.Is(err, domain.ErrLayerNotFound) {
		return nil, fmt.Errorf("get layer %s: %w", id, err)
	}

	h, err = layers.AddLayer(ctx, domain.NewLayer(id))
	if errors.Is(err, domain.ErrLayerExists) {
		return layers.GetLayer(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("add layer %s: %w", id, err)
	}
	metrics.LayersActive.Inc()
	publish(ctx, publisher, &domain.LayerEvent{Type: domain.EventLayerAdded, LayerID: id})
	return h, nil
}
