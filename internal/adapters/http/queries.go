package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
)

type pointInBody struct {
	Point   *orb.Point  `json:"point"`
	Polygon orb.Polygon `json:"polygon"`
}

type relationBody struct {
	A orb.Polygon `json:"a"`
	B orb.Polygon `json:"b"`
}

type insideBody struct {
	Polygon orb.Polygon `json:"polygon"`
}

// PointInHandler reports whether a point lies inside a polygon.
func PointInHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body pointInBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if body.Point == nil || len(body.Polygon) == 0 {
			return errBadRequest(c, "point and polygon are required")
		}
		return c.JSON(fiber.Map{"inside": deps.Queries.IsPointIn(*body.Point, body.Polygon)})
	}
}

// PolygonRelationHandler classifies two polygons.
func PolygonRelationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body relationBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		rel, err := deps.Queries.PolygonRelation(body.A, body.B)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"relation": rel})
	}
}

// InsidePointsHandler returns the point features of a layer inside a polygon.
func InsidePointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body insideBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		features, err := deps.Queries.InsidePoints(c.UserContext(), c.Params("id"), body.Polygon)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(featureCollection(features))
	}
}

// NearbyPointsHandler returns point features within radius_km of lon/lat.
func NearbyPointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lon") == "" || c.Query("lat") == "" {
			return errBadRequest(c, "lon and lat are required")
		}
		lon := c.QueryFloat("lon", 0)
		lat := c.QueryFloat("lat", 0)
		if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
			return errBadRequest(c, "lon/lat out of range")
		}
		radius := c.QueryFloat("radius_km", 1)
		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 500 {
			limit = 50
		}

		nearby, err := deps.Queries.NearbyPoints(c.UserContext(), c.Params("id"), orb.Point{lon, lat}, radius, limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(nearby)
	}
}
