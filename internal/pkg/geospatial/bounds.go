package geospatial

import "math"

// Box is a latitude/longitude rectangle in degrees. MinLon <= MaxLon always;
// boxes never wrap the antimeridian.
type Box struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// World covers every valid coordinate.
var World = Box{MinLat: -90, MinLon: -180, MaxLat: 90, MaxLon: 180}

// BoundingBoxes returns rectangles that together contain every point whose
// great-circle distance from (lat, lon) is at most radiusKm. A circle that
// crosses the antimeridian yields two boxes; one that reaches a pole spans
// all longitudes.
func BoundingBoxes(lat, lon, radiusKm float64) []Box {
	if radiusKm < 0 || math.IsNaN(radiusKm) {
		return nil
	}
	angular := radiusKm / EarthRadiusKm
	if angular >= math.Pi/2 {
		return []Box{World}
	}

	latDelta := toDeg(angular)
	minLat, maxLat := lat-latDelta, lat+latDelta
	if minLat <= -90 || maxLat >= 90 {
		return []Box{{
			MinLat: math.Max(minLat, -90),
			MinLon: -180,
			MaxLat: math.Min(maxLat, 90),
			MaxLon: 180,
		}}
	}

	ratio := math.Sin(angular) / math.Cos(toRad(lat))
	if ratio >= 1 {
		return []Box{{MinLat: minLat, MinLon: -180, MaxLat: maxLat, MaxLon: 180}}
	}
	lonDelta := toDeg(math.Asin(ratio))
	minLon, maxLon := lon-lonDelta, lon+lonDelta

	switch {
	case minLon < -180:
		return []Box{
			{MinLat: minLat, MinLon: minLon + 360, MaxLat: maxLat, MaxLon: 180},
			{MinLat: minLat, MinLon: -180, MaxLat: maxLat, MaxLon: maxLon},
		}
	case maxLon > 180:
		return []Box{
			{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: 180},
			{MinLat: minLat, MinLon: -180, MaxLat: maxLat, MaxLon: maxLon - 360},
		}
	}
	return []Box{{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}}
}

// Contains reports whether the point lies inside the box, edges included.
func (b Box) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}
