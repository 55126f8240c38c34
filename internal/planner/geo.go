package planner

import "math"

// Earth related constants for geographical distance calculations.
const (
	earthRadiusMeters = 6371000.0
	degToRad          = math.Pi / 180.0
)

// haversineAngle returns the central angle in radians between two lat/lon
// points given in degrees. Multiplying by the earth radius yields meters;
// the clusterer compares the raw angle against eps/earthRadius instead.
func haversineAngle(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * degToRad
	lat2Rad := lat2 * degToRad
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// mercatorXY projects a lat/lon point (degrees) onto the spherical Mercator
// plane, in meters. Distances on this plane are distorted away from the
// equator but preserve nearest-neighbor relations at warehouse-network scale.
func mercatorXY(lat, lon float64) (x, y float64) {
	x = earthRadiusMeters * lon * degToRad
	y = earthRadiusMeters * math.Log(math.Tan(math.Pi/4+lat*degToRad/2))
	return x, y
}

func planarDistance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}
