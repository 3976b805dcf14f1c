// Package geo provides a DataSource over geographic coordinates, adapted
// from the teacher's geo-spatial index (originally a standalone grid-based
// point index) down to the one thing the clustering core needs: a distance
// function between two items.
package geo

import (
	"math"

	chutoro "github.com/leynos/chutoro-go"
	"github.com/leynos/chutoro-go/pkg/types"
)

// EarthRadiusKM is the Earth's radius in kilometers, used by the haversine
// formula below.
const EarthRadiusKM = 6371.0

// Coordinate is a geographic point: latitude and longitude in degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

func (c Coordinate) valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Source is a DataSource over a fixed slice of geographic coordinates,
// using great-circle (haversine) distance in kilometers.
type Source struct {
	name   string
	points []Coordinate
}

// NewSource builds a geo Source. Coordinates are not validated eagerly;
// an out-of-range coordinate surfaces as a DistanceError at query time.
func NewSource(name string, points []Coordinate) *Source {
	return &Source{name: name, points: points}
}

func (s *Source) Len() int { return len(s.points) }

func (s *Source) Name() string { return s.name }

func (s *Source) Distance(i, j types.ItemID) (float32, error) {
	p1, p2 := s.points[i], s.points[j]
	if !p1.valid() {
		return 0, &chutoro.DistanceError{Code: chutoro.DistanceErrorInvalidValue, Index: int(i), Source: s.name}
	}
	if !p2.valid() {
		return 0, &chutoro.DistanceError{Code: chutoro.DistanceErrorInvalidValue, Index: int(j), Source: s.name}
	}
	return float32(haversineDistance(p1, p2)), nil
}

func (s *Source) DistanceBatch(pairs []chutoro.Pair, out []float32) error {
	return chutoro.DistanceBatchDefault(s, pairs, out)
}

// haversineDistance calculates the great-circle distance between two points
// in kilometers, unchanged from the teacher's implementation.
func haversineDistance(p1, p2 Coordinate) float64 {
	lat1Rad := p1.Lat * math.Pi / 180
	lat2Rad := p2.Lat * math.Pi / 180
	deltaLat := (p2.Lat - p1.Lat) * math.Pi / 180
	deltaLng := (p2.Lng - p1.Lng) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKM * c
}
