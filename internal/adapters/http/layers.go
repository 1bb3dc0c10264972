package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/mapbuffer/internal/core/domain"
)

type createLayerBody struct {
	ID     string        `json:"id"`
	ZIndex int           `json:"z_index"`
	Style  *domain.Style `json:"style"`
}

type visibilityBody struct {
	Visible *bool `json:"visible"`
}

// ListLayersHandler returns layers whose id contains ?q, paginated.
func ListLayersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		layers, err := deps.Layers.ListLayers(c.UserContext(), c.Query("q"))
		if err != nil {
			return respondError(c, err)
		}

		offset, limit := pageParams(c, 100, 500)
		pg := Pagination{Offset: offset, Limit: limit, Total: len(layers)}
		start, end := pageBounds(pg)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: layers[start:end], Pagination: pg})
	}
}

// CreateLayerHandler adds a new layer.
func CreateLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body createLayerBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		layer := domain.Layer{ID: body.ID, ZIndex: body.ZIndex}
		if body.Style != nil {
			layer.Style = *body.Style
		}
		created, err := deps.Layers.AddLayer(c.UserContext(), layer)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// GetLayerHandler returns a single layer.
func GetLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		layer, err := deps.Layers.GetLayer(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(layer)
	}
}

// DeleteLayerHandler removes a layer and its features.
func DeleteLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Layers.RemoveLayer(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DeleteLayersHandler removes every layer whose id contains ?q.
func DeleteLayersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("q")
		if q == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		n, err := deps.Layers.RemoveLayers(c.UserContext(), q)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"removed": n})
	}
}

// SetLayerVisibilityHandler shows or hides one layer.
func SetLayerVisibilityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body visibilityBody
		if err := c.BodyParser(&body); err != nil || body.Visible == nil {
			return errBadRequest(c, "visible is required")
		}
		id := c.Params("id")
		if err := deps.Layers.SetLayerVisible(c.UserContext(), id, *body.Visible); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"id": id, "visible": *body.Visible})
	}
}

// SetLayersVisibilityHandler shows or hides every layer whose id contains ?q.
func SetLayersVisibilityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body visibilityBody
		if err := c.BodyParser(&body); err != nil || body.Visible == nil {
			return errBadRequest(c, "visible is required")
		}
		n, err := deps.Layers.SetLayersVisible(c.UserContext(), c.Query("q"), *body.Visible)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"updated": n, "visible": *body.Visible})
	}
}

// ClearLayerHandler removes every feature from a layer.
func ClearLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Layers.ClearLayer(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ClearAllLayersHandler empties every layer.
func ClearAllLayersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n, err := deps.Layers.ClearAll(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"cleared": n})
	}
}

// LayerBoundsHandler returns the bounding box of every feature in a layer.
func LayerBoundsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		features, err := deps.Layers.Features(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		if len(features) == 0 {
			return errNotFound(c, "layer has no features")
		}
		all := make(orb.Collection, 0, len(features))
		for _, f := range features {
			all = append(all, f.Geometry)
		}
		return c.JSON(domain.BoundsOf(all))
	}
}

// ListFeaturesHandler returns a page of a layer as a GeoJSON FeatureCollection.
func ListFeaturesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		features, err := deps.Layers.Features(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}

		offset, limit := pageParams(c, 500, 5000)
		pg := Pagination{Offset: offset, Limit: limit, Total: len(features)}
		start, end := pageBounds(pg)
		SetLinkHeaders(c, pg)
		c.Set("X-Total-Count", strconv.Itoa(pg.Total))
		return c.JSON(featureCollection(features[start:end]))
	}
}

// GetFeatureHandler returns one feature as GeoJSON.
func GetFeatureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := deps.Layers.Feature(c.UserContext(), c.Params("id"), c.Params("fid"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(f.GeoJSON())
	}
}

// AddFeatureHandler stores a GeoJSON feature in a layer, creating the
// layer when needed.
func AddFeatureHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gf, err := geojson.UnmarshalFeature(c.Body())
		if err != nil {
			return errBadRequest(c, "body must be a GeoJSON feature")
		}
		f, err := deps.Layers.AddFeature(c.UserContext(), c.Params("id"), gf.Geometry, gf.Properties)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(f.GeoJSON())
	}
}
