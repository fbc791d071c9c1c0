package matching

import (
	"passenger-client/geo"
	"passenger-client/models"
)

// NearbyTrips returns the trips whose start location is near lat, lon,
// nearest first.
func NearbyTrips(trips []models.Trip, lat, lon float64, technique geo.Technique, maxRetries int) ([]models.Trip, error) {
	byID := make(map[string]models.Trip, len(trips))
	points := make([]geo.Point, 0, len(trips))
	for _, t := range trips {
		byID[t.ID] = t
		points = append(points, geo.Point{ID: t.ID, Lat: t.StartLocation.Latitude, Lon: t.StartLocation.Longitude})
	}

	hits, err := geo.SearchNearbyWithRetries(points, lat, lon, technique, maxRetries)
	if err != nil {
		return nil, err
	}

	out := make([]models.Trip, 0, len(hits))
	for _, h := range hits {
		out = append(out, byID[h.ID])
	}
	return out, nil
}
