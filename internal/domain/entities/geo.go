package entities

import "math"

const earthRadiusMeters = 6371000.0

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Valid reports whether the location holds finite, in-range coordinates
func (l Location) Valid() bool {
	if math.IsNaN(l.Latitude) || math.IsInf(l.Latitude, 0) ||
		math.IsNaN(l.Longitude) || math.IsInf(l.Longitude, 0) {
		return false
	}
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// Rectangle is an axis-aligned lat/lon bounding box.
//
// Rectangles that cross the antimeridian are not handled specially;
// callers splitting the viewport are responsible for issuing two queries.
type Rectangle struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Valid reports whether every edge is finite and within coordinate range
func (r Rectangle) Valid() bool {
	corners := []Location{
		{Latitude: r.North, Longitude: r.East},
		{Latitude: r.South, Longitude: r.West},
	}
	for _, c := range corners {
		if !c.Valid() {
			return false
		}
	}
	return r.South <= r.North
}

// Contains reports whether the location falls within the rectangle
// (west <= lon <= east, south <= lat <= north)
func (r Rectangle) Contains(l Location) bool {
	return l.Latitude >= r.South && l.Latitude <= r.North &&
		l.Longitude >= r.West && l.Longitude <= r.East
}

// DistanceMeters computes the great-circle (haversine) distance between
// two locations in meters
func DistanceMeters(a, b Location) float64 {
	dLat := degreesToRadians(b.Latitude - a.Latitude)
	dLon := degreesToRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(a.Latitude))*math.Cos(degreesToRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
