package sphere

import (
	"math"

	"github.com/golang/geo/r3"
)

// PoleThrough returns the pole of the great circle through a and b. Parallel
// or antiparallel inputs do not determine a plane, so a vector perpendicular
// to a is returned instead.
func PoleThrough(a, b r3.Vector) r3.Vector {
	c := a.Cross(b)
	if c.Norm2() < Epsilon {
		return Perpendicular(a)
	}
	return Normalize(c)
}

// PlaneThrough fits the plane through three points and returns its unit
// normal and signed distance from the origin. The normal is oriented so that
// at most one of the points has a negative projection onto it. ok is false
// for collinear input.
func PlaneThrough(p1, p2, p3 r3.Vector) (pole r3.Vector, d float64, ok bool) {
	n := p2.Sub(p1).Cross(p3.Sub(p1))
	if n.Norm2() < Epsilon {
		return r3.Vector{}, 0, false
	}
	n = Normalize(n)

	negative := 0
	for _, p := range []r3.Vector{p1, p2, p3} {
		if p.Dot(n) < 0 {
			negative++
		}
	}
	if negative >= 2 {
		n = n.Mul(-1)
	}
	return n, p1.Dot(n), true
}

// SameAxis reports whether a and b are parallel or antiparallel unit vectors.
func SameAxis(a, b r3.Vector) bool {
	return math.Abs(math.Abs(a.Dot(b))-1) < 1e-6
}
