package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mapbuffer/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// 600 requests per minute per IP; buffering is CPU bound
	app.Use(limiter.New(limiter.Config{
		Max:        600,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", deps.Version)
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness, no timeout
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	with := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, requestTimeout)
	}

	// Layers. Bulk routes are registered before /:id.
	v1.Get("/layers", with(ListLayersHandler(deps)))
	v1.Post("/layers", with(CreateLayerHandler(deps)))
	v1.Delete("/layers", with(DeleteLayersHandler(deps)))
	v1.Put("/layers/visibility", with(SetLayersVisibilityHandler(deps)))
	v1.Post("/layers/clear", with(ClearAllLayersHandler(deps)))
	v1.Get("/layers/:id", with(GetLayerHandler(deps)))
	v1.Delete("/layers/:id", with(DeleteLayerHandler(deps)))
	v1.Put("/layers/:id/visibility", with(SetLayerVisibilityHandler(deps)))
	v1.Post("/layers/:id/clear", with(ClearLayerHandler(deps)))
	v1.Get("/layers/:id/bounds", with(LayerBoundsHandler(deps)))
	v1.Get("/layers/:id/features", with(ListFeaturesHandler(deps)))
	v1.Post("/layers/:id/features", with(AddFeatureHandler(deps)))
	v1.Get("/layers/:id/features/:fid", with(GetFeatureHandler(deps)))
	v1.Get("/layers/:id/nearby", with(NearbyPointsHandler(deps)))
	v1.Post("/layers/:id/queries/inside", with(InsidePointsHandler(deps)))
	v1.Get("/layers/:id/preview.png", with(PreviewHandler(deps)))
	v1.Get("/layers/:id/tiles/:z/:x/:y.mvt", with(TileHandler(deps)))

	// Buffers
	v1.Post("/buffers/line", with(BufferLineHandler(deps)))
	v1.Post("/buffers/point", with(BufferPointHandler(deps)))
	v1.Post("/buffers/polygon", with(BufferPolygonHandler(deps)))
	v1.Post("/buffers/compose", with(ComposeHandler(deps)))

	// Stateless queries
	v1.Post("/queries/point-in", with(PointInHandler(deps)))
	v1.Post("/queries/relation", with(PolygonRelationHandler(deps)))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
