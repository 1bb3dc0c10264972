// Package geospatial holds spherical helpers for WGS84 lon/lat points.
package geospatial

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusKm is the mean Earth radius.
const EarthRadiusKm = 6371.0

const kmPerDegreeLat = 111.32

// DistanceKm returns the haversine great-circle distance between two lon/lat points.
func DistanceKm(a, b orb.Point) float64 {
	dLat := toRad(b.Lat() - a.Lat())
	dLon := toRad(b.Lon() - a.Lon())

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat()))*math.Cos(toRad(b.Lat()))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BoundAround returns a lon/lat box holding every point within radiusKm of
// center. Latitudes are clamped to the poles; when the box would reach a
// pole the full longitude range is returned.
func BoundAround(center orb.Point, radiusKm float64) orb.Bound {
	latDelta := radiusKm / kmPerDegreeLat
	minLat, maxLat := center.Lat()-latDelta, center.Lat()+latDelta
	if minLat <= -90 || maxLat >= 90 {
		return orb.Bound{
			Min: orb.Point{-180, math.Max(minLat, -90)},
			Max: orb.Point{180, math.Min(maxLat, 90)},
		}
	}
	lonDelta := radiusKm / (kmPerDegreeLat * math.Cos(toRad(center.Lat())))
	return orb.Bound{
		Min: orb.Point{center.Lon() - lonDelta, minLat},
		Max: orb.Point{center.Lon() + lonDelta, maxLat},
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
