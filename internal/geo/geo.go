// Package geo does the distance math behind radius searches.
package geo

import "math"

const (
	EarthRadiusMeters = 6371008.8
	MetersPerMile     = 1609.344
)

type Point struct {
	Lat float64
	Lng float64
}

// Box is a lat/lng rectangle used to prefilter rows in SQL.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

func MilesToMeters(miles float64) float64 { return miles * MetersPerMile }

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLng := radians(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Within reports whether p lies within radius meters of center.
func Within(center, p Point, radius float64) bool {
	return Distance(center, p) <= radius
}

// BoundingBox returns a rectangle that contains every point within radius
// meters of center. Near the poles or across the antimeridian the longitude
// range widens to the full circle.
func BoundingBox(center Point, radius float64) Box {
	angular := radius / EarthRadiusMeters
	dLat := degrees(angular)
	box := Box{
		MinLat: math.Max(-90, center.Lat-dLat),
		MaxLat: math.Min(90, center.Lat+dLat),
		MinLng: -180,
		MaxLng: 180,
	}
	ratio := math.Sin(angular) / math.Cos(radians(center.Lat))
	if ratio >= 1 || ratio < 0 {
		return box
	}
	dLng := degrees(math.Asin(ratio))
	if center.Lng-dLng < -180 || center.Lng+dLng > 180 {
		return box
	}
	box.MinLng = center.Lng - dLng
	box.MaxLng = center.Lng + dLng
	return box
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }
