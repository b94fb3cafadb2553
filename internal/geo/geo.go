package geo

import "math"

// earthRadiusMeters is the mean Earth radius used by the Haversine formula.
const earthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Distance computes the great-circle distance between two coordinates using
// the Haversine formula. Returns meters. Every spatial decision in the
// service (sorting, geofencing, dedup) goes through this one function.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := degreesToRadians(lat1)
	lat2Rad := degreesToRadians(lat2)
	deltaLat := degreesToRadians(lat2 - lat1)
	deltaLon := degreesToRadians(lon2 - lon1)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// DistanceBetween is Distance over two Points.
func DistanceBetween(a, b Point) float64 {
	return Distance(a.Lat, a.Lng, b.Lat, b.Lng)
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// BoundingBox is a geographic box in degree space.
type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Expand grows the box by buffer degrees on every side. Discovery expands the
// requested box (~0.01 degree, about 1.1 km) so venues sitting right on the
// edge of the viewport are not clipped out.
func (b BoundingBox) Expand(buffer float64) BoundingBox {
	return BoundingBox{
		North: b.North + buffer,
		South: b.South - buffer,
		East:  b.East + buffer,
		West:  b.West - buffer,
	}
}

// Contains reports whether the point falls inside the box.
func (b BoundingBox) Contains(p Point) bool {
	return p.Lat <= b.North && p.Lat >= b.South &&
		p.Lng <= b.East && p.Lng >= b.West
}
