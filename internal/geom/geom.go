// Package geom holds the small geometry helpers the analytics packages share.
package geom

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Distance is the 3D Euclidean distance between two world positions.
func Distance(a, b r3.Vector) float64 { return a.Distance(b) }

// Distance2D is the planar distance between two heatmap points.
func Distance2D(a, b r2.Point) float64 { return a.Sub(b).Norm() }

// Speed is the magnitude of a velocity vector.
func Speed(v r3.Vector) float64 { return v.Norm() }

// Planar drops the z component.
func Planar(v r3.Vector) r2.Point { return r2.Point{X: v.X, Y: v.Y} }

// InBox reports whether p lies in r, bounds included.
func InBox(r r2.Rect, p r2.Point) bool { return r.ContainsPoint(p) }

// Bounds is the smallest rectangle covering points. Empty input gives an
// empty rect.
func Bounds(points []r2.Point) r2.Rect {
	if len(points) == 0 {
		return r2.EmptyRect()
	}
	return r2.RectFromPoints(points...)
}

// Mean is the centroid of points; the origin for empty input.
func Mean(points []r2.Point) r2.Point {
	if len(points) == 0 {
		return r2.Point{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return r2.Point{X: sx / n, Y: sy / n}
}

// StdDev is the root-mean-square distance of points from their centroid.
func StdDev(points []r2.Point) float64 {
	if len(points) < 2 {
		return 0
	}
	c := Mean(points)
	var sum float64
	for _, p := range points {
		d := p.Sub(c)
		sum += d.Dot(d)
	}
	return math.Sqrt(sum / float64(len(points)))
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Between reports lo <= v <= hi.
func Between(v, lo, hi float64) bool { return v >= lo && v <= hi }
