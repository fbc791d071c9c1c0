package geo

import (
	"github.com/mmcloughlin/geohash"
)

// Encode coordinates into a geohash with specified precision.
func Encode(lat, lon float64, precision uint) string {
	return geohash.EncodeWithPrecision(lat, lon, precision)
}

// Neighbors returns the geohashes of the eight cells around hash.
func Neighbors(hash string) []string {
	return geohash.Neighbors(hash)
}

// searchGeohash returns the points whose cell at the given precision is the
// query cell or one of its neighbours.
func searchGeohash(points []Point, lat, lon float64, precision uint) []Point {
	cells := map[string]bool{Encode(lat, lon, precision): true}
	for _, n := range Neighbors(Encode(lat, lon, precision)) {
		cells[n] = true
	}
	var out []Point
	for _, p := range points {
		if cells[Encode(p.Lat, p.Lon, precision)] {
			out = append(out, p)
		}
	}
	return out
}
