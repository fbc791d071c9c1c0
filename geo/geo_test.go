package geo

import (
	"errors"
	"math"
	"testing"
)

var (
	colomboFort = Point{ID: "fort", Lat: 6.9344, Lon: 79.8428}
	colomboPet  = Point{ID: "pettah", Lat: 6.9366, Lon: 79.8500}
	kandy       = Point{ID: "kandy", Lat: 7.2906, Lon: 80.6337}
	galle       = Point{ID: "galle", Lat: 6.0535, Lon: 80.2210}
)

func ids(ps []Point) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestEncodePrefix(t *testing.T) {
	long := Encode(kandy.Lat, kandy.Lon, 8)
	short := Encode(kandy.Lat, kandy.Lon, 5)
	if len(long) != 8 || long[:5] != short {
		t.Errorf("Encode precision mismatch: %q vs %q", long, short)
	}
	if n := Neighbors(short); len(n) != 8 {
		t.Errorf("Neighbors returned %d cells", len(n))
	}
}

func TestSearchBothTechniques(t *testing.T) {
	points := []Point{kandy, colomboPet, galle, colomboFort}
	for _, tech := range []Technique{GeohashingTechnique, RTreeTechnique} {
		got, err := SearchNearbyWithRetries(points, 6.9350, 79.8430, tech, 4)
		if err != nil {
			t.Fatalf("%s: %v", tech, err)
		}
		if len(got) != 2 || got[0].ID != "fort" || got[1].ID != "pettah" {
			t.Errorf("%s: got %v, want [fort pettah]", tech, ids(got))
		}
	}
}

func TestSearchWidensOnRetry(t *testing.T) {
	points := []Point{kandy}
	// Peradeniya is about 5 km from Kandy: outside the first ring, inside a widened one.
	if _, err := SearchNearbyWithRetries(points, 7.2599, 80.5977, RTreeTechnique, 1); !errors.Is(err, ErrNoNearbyPoints) {
		t.Fatalf("single attempt err = %v", err)
	}
	got, err := SearchNearbyWithRetries(points, 7.2599, 80.5977, RTreeTechnique, 4)
	if err != nil || len(got) != 1 {
		t.Fatalf("widened search = %v, %v", ids(got), err)
	}
}

func TestUnsupportedTechnique(t *testing.T) {
	if _, err := SearchNearbyWithRetries([]Point{kandy}, 0, 0, "quadtree", 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestIndexNearest(t *testing.T) {
	idx := NewIndex([]Point{kandy, galle, colomboFort})
	if idx.Len() != 3 {
		t.Fatalf("Len = %d", idx.Len())
	}
	got := idx.Nearest(6.1, 80.2, 1)
	if len(got) != 1 || got[0].ID != "galle" {
		t.Errorf("Nearest = %v", ids(got))
	}
	if got := NewIndex(nil).Nearest(0, 0, 3); got != nil {
		t.Errorf("empty index returned %v", got)
	}
}

func TestDistanceKm(t *testing.T) {
	d := DistanceKm(colomboFort.Lat, colomboFort.Lon, kandy.Lat, kandy.Lon)
	if math.Abs(d-94) > 5 {
		t.Errorf("Colombo-Kandy = %.1f km, want about 94", d)
	}
	if DistanceKm(1, 1, 1, 1) != 0 {
		t.Error("zero distance")
	}
}
