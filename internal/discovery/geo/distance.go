package geo

import (
	"math"

	"github.com/example/localmart/internal/discovery/domain"
)

const earthRadiusMiles = 3959.0

// DistanceMiles returns the great-circle distance between two coordinates
// using the haversine formula, rounded to one decimal place. It is symmetric
// and returns 0 for identical points. Coordinates are assumed valid; callers
// reject out-of-range input upstream.
func DistanceMiles(a, b domain.Coordinate) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dlat := toRadians(b.Lat - a.Lat)
	dlng := toRadians(b.Lng - a.Lng)

	sinDlat := math.Sin(dlat / 2)
	sinDlng := math.Sin(dlng / 2)
	h := sinDlat*sinDlat + math.Cos(lat1)*math.Cos(lat2)*sinDlng*sinDlng
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return math.Round(earthRadiusMiles*c*10) / 10
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
