package geo

import (
	"github.com/dhconnelly/rtreego"
)

// spatialPoint wraps a point to satisfy the rtreego.Spatial interface.
type spatialPoint struct {
	Point
	loc rtreego.Point
}

// Bounds returns a tiny box around the point.
func (p spatialPoint) Bounds() rtreego.Rect {
	return p.loc.ToRect(0.0001)
}

// Index is an R-tree over points. It is not safe for concurrent mutation.
type Index struct {
	tree *rtreego.Rtree
	size int
}

func NewIndex(points []Point) *Index {
	idx := &Index{tree: rtreego.NewTree(2, 25, 50)}
	for _, p := range points {
		idx.Insert(p)
	}
	return idx
}

func (idx *Index) Insert(p Point) {
	idx.tree.Insert(spatialPoint{Point: p, loc: rtreego.Point{p.Lat, p.Lon}})
	idx.size++
}

func (idx *Index) Len() int {
	return idx.size
}

// Within returns the points inside the square of half-width radius (degrees)
// around lat, lon.
func (idx *Index) Within(lat, lon, radius float64) []Point {
	hits := idx.tree.SearchIntersect(rtreego.Point{lat, lon}.ToRect(radius))
	return unwrap(hits)
}

// Nearest returns up to k points closest to lat, lon.
func (idx *Index) Nearest(lat, lon float64, k int) []Point {
	if k <= 0 || idx.size == 0 {
		return nil
	}
	return unwrap(idx.tree.NearestNeighbors(k, rtreego.Point{lat, lon}))
}

func unwrap(hits []rtreego.Spatial) []Point {
	out := make([]Point, 0, len(hits))
	for _, h := range hits {
		if sp, ok := h.(spatialPoint); ok {
			out = append(out, sp.Point)
		}
	}
	return out
}
