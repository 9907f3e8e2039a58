package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
	"routegen.busfleet.org/internal/models"
)

// earthRadiusInKm represents the mean radius of the Earth in kilometres.
//
// This value (6,371 km) is the Earth's volumetric mean radius, which is
// commonly used for general geospatial calculations and spherical approximations.
//
// Reference: NASA Planetary Fact Sheet – Earth
// https://nssdc.gsfc.nasa.gov/planetary/factsheet/earthfact.html
const earthRadiusInKm = 6371.0

// centroidCellLevel is the S2 level used to label cluster centroids (~5 km cells).
const centroidCellLevel = 11

// DistanceKm returns the great-circle distance between a and b in kilometres.
// s2.LatLng.Distance uses the haversine formula, so the result is symmetric,
// never negative and zero for identical points.
func DistanceKm(a, b models.Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lng)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return p1.Distance(p2).Radians() * earthRadiusInKm
}

// PathDistanceKm sums DistanceKm over consecutive points.
func PathDistanceKm(points []models.Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += DistanceKm(points[i-1], points[i])
	}
	return total
}

// IsFinite reports whether both coordinates are real numbers.
func IsFinite(p models.Point) bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) && !math.IsInf(p.Lat, 0) && !math.IsInf(p.Lng, 0)
}

// IsValidLatLon returns true if the given latitude and longitude values
// fall within the valid geographic coordinate bounds.
//
// Latitude must be between -90 and 90 degrees, and longitude must be
// between -180 and 180 degrees.
//
// Note: This function treats the coordinate (0,0) as invalid, even though it
// is a valid location in the Gulf of Guinea. Stop imports commonly use (0,0)
// as a placeholder for a missing coordinate.
func IsValidLatLon(lat, lon float64) bool {
	if lat == 0 && lon == 0 {
		return false
	}
	return s2.LatLngFromDegrees(lat, lon).IsValid()
}

// Centroid returns the arithmetic mean of the points in (lat, lng) space.
func Centroid(points []models.Point) models.Point {
	if len(points) == 0 {
		return models.Point{}
	}
	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	n := float64(len(points))
	return models.Point{Lat: sumLat / n, Lng: sumLng / n}
}

// CellToken returns a stable S2 cell token for the coordinate at the given level.
func CellToken(p models.Point, level int) string {
	ll := s2.LatLngFromDegrees(p.Lat, p.Lng)
	return s2.CellIDFromLatLng(ll).Parent(level).ToToken()
}

// CentroidCell labels a cluster centroid with its S2 cell token.
func CentroidCell(p models.Point) string {
	return CellToken(p, centroidCellLevel)
}

// BoundingBox defines the corners of a lat/lon box
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Contains checks whether the given latitude and longitude are within the bounding box
func (b *BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// ComputeBoundingBox computes the bounding box of the given stops.
func ComputeBoundingBox(stops []models.Stop) (BoundingBox, error) {
	if len(stops) == 0 {
		return BoundingBox{}, fmt.Errorf("no stops to compute bounding box")
	}

	bbox := BoundingBox{
		MinLat: math.MaxFloat64,
		MaxLat: -math.MaxFloat64,
		MinLon: math.MaxFloat64,
		MaxLon: -math.MaxFloat64,
	}
	for _, stop := range stops {
		bbox.MinLat = math.Min(bbox.MinLat, stop.Lat)
		bbox.MaxLat = math.Max(bbox.MaxLat, stop.Lat)
		bbox.MinLon = math.Min(bbox.MinLon, stop.Lng)
		bbox.MaxLon = math.Max(bbox.MaxLon, stop.Lng)
	}
	return bbox, nil
}
