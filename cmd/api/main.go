package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapbuffer/internal/adapters/http"
	"github.com/samirrijal/mapbuffer/internal/adapters/kernel"
	"github.com/samirrijal/mapbuffer/internal/adapters/memory"
	natsadapter "github.com/samirrijal/mapbuffer/internal/adapters/nats"
	"github.com/samirrijal/mapbuffer/internal/adapters/postgres"
	"github.com/samirrijal/mapbuffer/internal/adapters/render"
	"github.com/samirrijal/mapbuffer/internal/adapters/valkey"
	"github.com/samirrijal/mapbuffer/internal/core/ports"
	"github.com/samirrijal/mapbuffer/internal/core/usecases"
	"github.com/samirrijal/mapbuffer/internal/pkg/config"
	"github.com/samirrijal/mapbuffer/internal/pkg/logging"
	"github.com/samirrijal/mapbuffer/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("mapbuffer-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Geometry kernel
	var k ports.GeometryKernel
	switch cfg.Geometry.Kernel {
	case "geodesic":
		k = kernel.NewGeodesic(cfg.Geometry.CircleSegments)
	default:
		k = kernel.NewPlanar(cfg.Geometry.CircleSegments, cfg.Geometry.UnitsPerKm)
	}

	// Layer store
	var (
		store ports.LayerStore
		db    *postgres.DB
	)
	if cfg.Layers.Backend == "postgres" {
		db, err = postgres.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		store = postgres.NewLayerRepo(db)
		go reportPoolStats(ctx, db)
	} else {
		store = memory.NewLayerStore()
	}

	// Interfaces stay nil when a backend is off, never a nil pointer.
	var (
		cache     ports.CacheService
		valkeyC   *valkey.Cache
		publisher ports.EventPublisher
		natsConn  *nats.Conn
	)
	if cfg.Cache.Enabled {
		valkeyC, err = valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer valkeyC.Close()
			cache = valkeyC
		}
	}
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
		}

		// Raw connection for the WebSocket relay
		natsConn, err = natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer natsConn.Close()
		}
	}

	layerSvc := usecases.NewLayerService(store, publisher)
	bufferSvc := usecases.NewBufferService(store, k, cache, publisher, cfg.Cache.TTLSeconds)
	querySvc := usecases.NewQueryService(layerSvc)

	// Cached previews are only safe while layer events invalidate them.
	var (
		previewCache ports.CacheService
		sub          *natsadapter.Subscriber
	)
	if cache != nil && publisher != nil {
		sub, err = natsadapter.NewSubscriber(cfg.NATS.URL, cfg.NATS.Durable)
		if err != nil {
			slog.Warn("layer event subscriber unavailable, preview cache off", "error", err)
			sub = nil
		} else {
			defer sub.Close()
			previewCache = cache
		}
	}
	previewSvc := usecases.NewPreviewService(layerSvc, render.NewPreview(), previewCache, cfg.Cache.PreviewTTLSeconds)
	if sub != nil {
		if err := sub.SubscribeLayerEvents(ctx, previewSvc.HandleLayerEvent); err != nil {
			slog.Warn("subscribe layer events failed", "error", err)
		}
	}

	run(cfg, &http.Dependencies{
		Layers:   layerSvc,
		Buffers:  bufferSvc,
		Queries:  querySvc,
		Previews: previewSvc,
		NATS:     natsConn,
		DB:       db,
		Cache:    valkeyC,
		Version:  version,
	})
}

func run(cfg *config.Config, deps *http.Dependencies) {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    8 * 1024 * 1024, // large polygons
		AppName:      "MapBuffer API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", deps.Version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	t := time.NewTicker(15 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			db.ReportPoolStats()
		}
	}
}
