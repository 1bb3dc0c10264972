package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapbuffer/internal/adapters/postgres"
	"github.com/samirrijal/mapbuffer/internal/adapters/valkey"
	"github.com/samirrijal/mapbuffer/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers. NATS, DB and
// Cache are optional and only used by readiness checks and the WebSocket
// relay.
type Dependencies struct {
	Layers   *usecases.LayerService
	Buffers  *usecases.BufferService
	Queries  *usecases.QueryService
	Previews *usecases.PreviewService
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
	Version  string
}
