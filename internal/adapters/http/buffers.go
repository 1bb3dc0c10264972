package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
	"github.com/samirrijal/mapbuffer/internal/core/usecases"
)

// BufferLineHandler computes one derived buffer of a line and adds it to
// the target layer.
func BufferLineHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body lineBufferBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		mode, err := domain.ParseBufferMode(body.Mode)
		if err != nil {
			return respondError(c, err)
		}
		ctx := c.UserContext()
		line, err := lineInput(ctx, deps.Layers, body.Coordinates, body.Feature)
		if err != nil {
			return respondError(c, err)
		}

		f, err := deps.Buffers.BufferLine(ctx, usecases.BufferLineRequest{
			LayerID:       body.LayerID,
			Line:          line,
			Mode:          mode,
			DistanceKm:    body.DistanceKm,
			ClearPrevious: body.Clear,
			IncludeLine:   body.IncludeLine,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(f.GeoJSON())
	}
}

// BufferPointHandler computes the round buffer of a point.
func BufferPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body pointBufferBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		ctx := c.UserContext()
		pt, err := pointInput(ctx, deps.Layers, body.Coordinates, body.Feature)
		if err != nil {
			return respondError(c, err)
		}

		f, err := deps.Buffers.BufferPoint(ctx, usecases.BufferPointRequest{
			LayerID:       body.LayerID,
			Point:         pt,
			DistanceKm:    body.DistanceKm,
			ClearPrevious: body.Clear,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(f.GeoJSON())
	}
}

// BufferPolygonHandler computes the outward buffer of a polygon.
func BufferPolygonHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body polygonBufferBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		ctx := c.UserContext()
		poly, err := polygonInput(ctx, deps.Layers, body.Coordinates, body.Feature)
		if err != nil {
			return respondError(c, err)
		}

		f, err := deps.Buffers.BufferPolygon(ctx, usecases.BufferPolygonRequest{
			LayerID:       body.LayerID,
			Polygon:       poly,
			DistanceKm:    body.DistanceKm,
			ClearPrevious: body.Clear,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(f.GeoJSON())
	}
}

// ComposeHandler returns all four derived buffers of a line without
// storing them.
func ComposeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body composeBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		ctx := c.UserContext()
		line, err := lineInput(ctx, deps.Layers, body.Coordinates, body.Feature)
		if err != nil {
			return respondError(c, err)
		}

		res, err := deps.Buffers.Compose(ctx, line, body.DistanceKm)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			string(domain.ModeAround): geojson.NewGeometry(res.Around),
			string(domain.ModeFlat):   geojson.NewGeometry(res.Flat),
			string(domain.ModeLeft):   geojson.NewGeometry(res.Left),
			string(domain.ModeRight):  geojson.NewGeometry(res.Right),
		})
	}
}
