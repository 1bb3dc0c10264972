package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/core/ports"
)

// publish is best effort: a broker outage never fails a layer mutation.
func publish(ctx context.Context, p ports.EventPublisher, ev *domain.LayerEvent) {
	if p == nil {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	if err := p.PublishLayerEvent(ctx, ev); err != nil {
		slog.Warn("publish layer event failed", "type", ev.Type, "layer", ev.LayerID, "error", err)
	}
}
