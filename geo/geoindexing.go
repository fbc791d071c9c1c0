// Package geo finds points near a location, either by geohash cell or with
// an R-tree.
package geo

import (
	"errors"
	"math"
	"sort"
)

type Technique string

const (
	GeohashingTechnique Technique = "geohashing"
	RTreeTechnique      Technique = "rtree"
)

var ErrNoNearbyPoints = errors.New("no nearby points found after maximum retries")

// Point is a labelled coordinate.
type Point struct {
	ID  string
	Lat float64
	Lon float64
}

const (
	startPrecision = 6    // geohash cell of roughly 1.2 km
	startRadius    = 0.02 // degrees, roughly 2 km
)

// SearchNearbyWithRetries widens the search on each attempt until something
// is found: one geohash character shorter, or twice the R-tree radius.
// Results are ordered nearest first.
func SearchNearbyWithRetries(points []Point, lat, lon float64, technique Technique, maxRetries int) ([]Point, error) {
	if technique == "" {
		technique = GeohashingTechnique
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	var idx *Index
	if technique == RTreeTechnique {
		idx = NewIndex(points)
	}

	precision := uint(startPrecision)
	radius := startRadius
	var results []Point

	for i := 0; i < maxRetries; i++ {
		switch technique {
		case GeohashingTechnique:
			results = searchGeohash(points, lat, lon, precision)
		case RTreeTechnique:
			results = idx.Within(lat, lon, radius)
		default:
			return nil, errors.New("unsupported geo-indexing technique")
		}

		if len(results) > 0 {
			break
		}

		if precision > 1 {
			precision--
		}
		radius *= 2
	}

	if len(results) == 0 {
		return nil, ErrNoNearbyPoints
	}

	sort.SliceStable(results, func(i, j int) bool {
		return DistanceKm(lat, lon, results[i].Lat, results[i].Lon) < DistanceKm(lat, lon, results[j].Lat, results[j].Lon)
	})
	return results, nil
}

// DistanceKm is the great-circle distance between two coordinates.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
