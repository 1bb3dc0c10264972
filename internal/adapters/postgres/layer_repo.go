package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/core/ports"
)

// pgForeignKeyViolation is raised when a feature targets a removed layer.
const pgForeignKeyViolation = "23503"

// LayerRepo implements ports.LayerStore.
type LayerRepo struct {
	db *DB
}

func NewLayerRepo(db *DB) *LayerRepo {
	return &LayerRepo{db: db}
}

func (r *LayerRepo) GetLayer(ctx context.Context, id string) (ports.LayerHandle, error) {
	var l domain.Layer
	var style []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, z_index, visible, style, created_at
		FROM layers WHERE id = $1
	`, id).Scan(&l.ID, &l.ZIndex, &l.Visible, &style, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(style, &l.Style); err != nil {
		return nil, fmt.Errorf("decode style of %s: %w", id, err)
	}
	return &layerHandle{db: r.db, meta: l}, nil
}

func (r *LayerRepo) AddLayer(ctx context.Context, l domain.Layer) (ports.LayerHandle, error) {
	style, err := json.Marshal(l.Style)
	if err != nil {
		return nil, err
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	tag, err := r.db.Pool.Exec(ctx, `
		INSERT INTO layers (id, z_index, visible, style, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, l.ID, l.ZIndex, l.Visible, style, l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrLayerExists, l.ID)
	}
	return &layerHandle{db: r.db, meta: l}, nil
}

func (r *LayerRepo) ListLayers(ctx context.Context, idPart string) ([]ports.LayerHandle, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, z_index, visible, style, created_at
		FROM layers WHERE strpos(id, $1) > 0 OR $1 = ''
		ORDER BY id
	`, idPart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.LayerHandle
	for rows.Next() {
		var l domain.Layer
		var style []byte
		if err := rows.Scan(&l.ID, &l.ZIndex, &l.Visible, &style, &l.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(style, &l.Style); err != nil {
			return nil, fmt.Errorf("decode style of %s: %w", l.ID, err)
		}
		out = append(out, &layerHandle{db: r.db, meta: l})
	}
	return out, rows.Err()
}

func (r *LayerRepo) RemoveLayer(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM layers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrLayerNotFound, id)
	}
	return nil
}

// layerHandle is a ports.LayerHandle over one row of layers. Statements
// run one at a time per handle; Replace also locks the row.
type layerHandle struct {
	db *DB

	mu   sync.Mutex
	meta domain.Layer
}

func (h *layerHandle) Layer() domain.Layer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.meta
}

func (h *layerHandle) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.db.Pool.Exec(ctx, `DELETE FROM features WHERE layer_id = $1`, h.meta.ID)
	return err
}

func (h *layerHandle) AddFeature(ctx context.Context, f *domain.Feature) (*domain.Feature, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.insert(ctx, h.db.Pool, f)
}

// Replace runs in one transaction. The layers row is locked first so that
// replacements from other handles and processes queue behind it.
func (h *layerHandle) Replace(ctx context.Context, fs ...*domain.Feature) ([]*domain.Feature, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*domain.Feature
	err := pgx.BeginFunc(ctx, h.db.Pool, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `SELECT id FROM layers WHERE id = $1 FOR UPDATE`, h.meta.ID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrLayerNotFound, h.meta.ID)
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM features WHERE layer_id = $1`, h.meta.ID); err != nil {
			return err
		}
		out = make([]*domain.Feature, 0, len(fs))
		for _, f := range fs {
			stored, err := h.insert(ctx, tx, f)
			if err != nil {
				return err
			}
			out = append(out, stored)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (h *layerHandle) insert(ctx context.Context, db execer, f *domain.Feature) (*domain.Feature, error) {
	stored := *f
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	stored.LayerID = h.meta.ID

	geom, err := geojson.NewGeometry(stored.Geometry).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	props := stored.Properties
	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("encode properties: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO features (id, layer_id, kind, geometry, properties, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, stored.ID, stored.LayerID, string(stored.Kind), geom, propsJSON, stored.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return nil, fmt.Errorf("%w: %s", domain.ErrLayerNotFound, h.meta.ID)
	}
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (h *layerHandle) Features(ctx context.Context) ([]domain.Feature, error) {
	rows, err := h.db.Pool.Query(ctx, `
		SELECT id, layer_id, kind, geometry, properties, created_at
		FROM features WHERE layer_id = $1
		ORDER BY seq
	`, h.meta.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Feature
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (h *layerHandle) Feature(ctx context.Context, id string) (*domain.Feature, error) {
	row := h.db.Pool.QueryRow(ctx, `
		SELECT id, layer_id, kind, geometry, properties, created_at
		FROM features WHERE layer_id = $1 AND id = $2
	`, h.meta.ID, id)
	f, err := scanFeature(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s in layer %s", domain.ErrFeatureNotFound, id, h.meta.ID)
	}
	return f, err
}

func (h *layerHandle) SetVisible(ctx context.Context, visible bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	tag, err := h.db.Pool.Exec(ctx, `UPDATE layers SET visible = $2 WHERE id = $1`, h.meta.ID, visible)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrLayerNotFound, h.meta.ID)
	}
	h.meta.Visible = visible
	return nil
}

func scanFeature(row pgx.Row) (*domain.Feature, error) {
	var f domain.Feature
	var kind string
	var geom, props []byte
	if err := row.Scan(&f.ID, &f.LayerID, &kind, &geom, &props, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Kind = domain.FeatureKind(kind)

	g, err := geojson.UnmarshalGeometry(geom)
	if err != nil {
		return nil, fmt.Errorf("decode geometry of %s: %w", f.ID, err)
	}
	f.Geometry = g.Geometry()

	if err := json.Unmarshal(props, &f.Properties); err != nil {
		return nil, fmt.Errorf("decode properties of %s: %w", f.ID, err)
	}
	return &f, nil
}
