package geo

import "github.com/umahmood/haversine"

// Point is a geographic coordinate pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Distance returns the great-circle distance between a and b in kilometers
// (haversine, Earth radius 6371 km). It returns nil when either endpoint is
// unknown; callers treat that as "no distance yet" rather than an error.
func Distance(a, b *Point) *float64 {
	if a == nil || b == nil {
		return nil
	}
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Lat, Lon: a.Lon},
		haversine.Coord{Lat: b.Lat, Lon: b.Lon},
	)
	return &km
}
