// Package geo answers "which hospitals lie within radius R of point P".
// Distances are straight-line haversine; routing is out of scope.
package geo

import (
	"math"
	"sort"

	"hospital-access-backend/internal/errs"
	"hospital-access-backend/internal/model"
)

const earthRadiusKm = 6371

// MaxRadiusKm is the sanity cap on search radius. Clients adjust within
// [5, 200]; anything above the cap is rejected as invalid input.
const MaxRadiusKm = 500

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Nearby pairs a hospital with its computed distance from the origin.
type Nearby struct {
	Hospital   model.Hospital
	DistanceKm float64
}

// ValidateRadius rejects non-positive or absurdly large radii.
func ValidateRadius(radiusKm float64) error {
	if radiusKm <= 0 {
		return errs.Validation("radius must be positive, got %g", radiusKm)
	}
	if radiusKm > MaxRadiusKm {
		return errs.Validation("radius %g exceeds maximum %d km", radiusKm, MaxRadiusKm)
	}
	return nil
}

// Distance returns the haversine distance between two points in kilometers.
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

// FindNearby filters hospitals to those within radiusKm of origin, sorted
// ascending by distance. An empty result is not an error.
func FindNearby(hospitals []model.Hospital, origin Point, radiusKm float64) []Nearby {
	nearby := make([]Nearby, 0, len(hospitals))
	for _, h := range hospitals {
		d := Distance(origin, Point{Latitude: h.Latitude, Longitude: h.Longitude})
		if d <= radiusKm {
			nearby = append(nearby, Nearby{Hospital: h, DistanceKm: d})
		}
	}
	sort.Slice(nearby, func(i, j int) bool {
		if nearby[i].DistanceKm != nearby[j].DistanceKm {
			return nearby[i].DistanceKm < nearby[j].DistanceKm
		}
		return nearby[i].Hospital.ID < nearby[j].Hospital.ID
	})
	return nearby
}
