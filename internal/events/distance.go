package events

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"tripscan/internal/track"
)

const (
	// MeanEarthRadiusKm is the IUGG mean radius used for great-circle distance.
	MeanEarthRadiusKm = 6371.0088
	MilesPerKm        = 0.621371192
)

// DistanceMiles is the haversine distance between a and b in statute miles.
// orb computes on its equatorial radius; the result is rescaled to the mean
// radius.
func DistanceMiles(a, b track.Position) float64 {
	m := geo.DistanceHaversine(a.Point(), b.Point())
	km := m / orb.EarthRadius * MeanEarthRadiusKm
	return km * MilesPerKm
}
