package core

import (
	"math"

	"github.com/signalsfoundry/meshview/model"
)

// EarthRadiusKm is the mean Earth radius used for all spherical-earth
// geometry in the topology layer (kilometres).
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two coordinates
// in kilometres. Identical coordinates yield exactly 0.
func HaversineKm(a, b model.GeoCoordinates) float64 {
	if a.Latitude == b.Latitude && a.Longitude == b.Longitude {
		return 0
	}

	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// InitialBearingDeg returns the initial great-circle bearing from a to b
// in degrees, normalized to [0, 360). Coincident points yield 0.
func InitialBearingDeg(a, b model.GeoCoordinates) float64 {
	if a.Latitude == b.Latitude && a.Longitude == b.Longitude {
		return 0
	}

	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// GeoBounds is an axis-aligned lat/lon bounding box.
type GeoBounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// boundsEpsilonDeg pads degenerate (zero-extent) bounding boxes so
// projection never divides by zero.
const boundsEpsilonDeg = 0.0001

// BoundsOf computes the bounding box of the given coordinates, expanded
// by padFraction of its extent on each side. Single-point and
// single-line inputs are padded by a small fixed epsilon instead.
func BoundsOf(coords []model.GeoCoordinates, padFraction float64) GeoBounds {
	if len(coords) == 0 {
		return GeoBounds{MinLat: -boundsEpsilonDeg, MaxLat: boundsEpsilonDeg, MinLon: -boundsEpsilonDeg, MaxLon: boundsEpsilonDeg}
	}

	b := GeoBounds{
		MinLat: math.Inf(1), MaxLat: math.Inf(-1),
		MinLon: math.Inf(1), MaxLon: math.Inf(-1),
	}
	for _, c := range coords {
		b.MinLat = math.Min(b.MinLat, c.Latitude)
		b.MaxLat = math.Max(b.MaxLat, c.Latitude)
		b.MinLon = math.Min(b.MinLon, c.Longitude)
		b.MaxLon = math.Max(b.MaxLon, c.Longitude)
	}

	latPad := (b.MaxLat - b.MinLat) * padFraction
	if latPad == 0 {
		latPad = boundsEpsilonDeg
	}
	lonPad := (b.MaxLon - b.MinLon) * padFraction
	if lonPad == 0 {
		lonPad = boundsEpsilonDeg
	}
	b.MinLat -= latPad
	b.MaxLat += latPad
	b.MinLon -= lonPad
	b.MaxLon += lonPad
	return b
}

// Project maps a coordinate into a width×height viewport: longitude to
// X, latitude inverted to Y so north is at the top.
func (b GeoBounds) Project(c model.GeoCoordinates, width, height float64) (x, y float64) {
	lonRange := b.MaxLon - b.MinLon
	latRange := b.MaxLat - b.MinLat
	if lonRange <= 0 {
		lonRange = boundsEpsilonDeg
	}
	if latRange <= 0 {
		latRange = boundsEpsilonDeg
	}
	x = (c.Longitude - b.MinLon) / lonRange * width
	y = (1 - (c.Latitude-b.MinLat)/latRange) * height
	return x, y
}
