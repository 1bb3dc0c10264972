package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapbuffer/internal/adapters/render"
)

// PreviewHandler renders a layer to PNG.
func PreviewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		data, err := deps.Previews.Render(c.UserContext(), c.Params("id"), c.QueryInt("width", 0), c.QueryInt("height", 0))
		if err != nil {
			return respondError(c, err)
		}
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(data)
	}
}

// TileHandler serves a layer as a Mapbox vector tile.
func TileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		z, errZ := strconv.Atoi(c.Params("z"))
		x, errX := strconv.Atoi(c.Params("x"))
		y, errY := strconv.Atoi(c.Params("y"))
		if errZ != nil || errX != nil || errY != nil {
			return errBadRequest(c, "tile coordinates must be integers")
		}
		tile, err := render.ParseTile(z, x, y)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		id := c.Params("id")
		features, err := deps.Layers.Features(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		data, err := render.Tile(id, features, tile)
		if err != nil {
			return respondError(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/vnd.mapbox-vector-tile")
		return c.Send(data)
	}
}
