// Package sphere holds the geometry of the unit sphere: orientation,
// polar coordinates, curve generators, snapping and spherical trigonometry.
//
// All vectors are r3.Vector values in a right-handed frame where x and y map
// to screen axes and z points toward the viewer. Functions are pure; they take
// their inputs explicitly and return freshly allocated results.
package sphere

import (
	"math"

	"github.com/golang/geo/r3"
)

// Epsilon guards normalisation and other near-zero denominators.
const Epsilon = 1e-10

// Normalize scales v to unit length. Vectors shorter than Epsilon are returned
// unchanged.
func Normalize(v r3.Vector) r3.Vector {
	n := v.Norm()
	if n < Epsilon {
		return v
	}
	return v.Mul(1 / n)
}

// Perpendicular returns a unit vector orthogonal to v, built by zeroing the
// smallest component of v and swapping the other two.
func Perpendicular(v r3.Vector) r3.Vector {
	ax, ay, az := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	var p r3.Vector
	switch {
	case ax <= ay && ax <= az:
		p = r3.Vector{X: 0, Y: -v.Z, Z: v.Y}
	case ay <= az:
		p = r3.Vector{X: v.Z, Y: 0, Z: -v.X}
	default:
		p = r3.Vector{X: -v.Y, Y: v.X, Z: 0}
	}
	return Normalize(p)
}

// Polar is a latitude/longitude pair in degrees.
//
// The polar axis is y: Theta is the elevation above the x/z plane and Phi is
// measured from +z toward +x in [0, 360).
type Polar struct {
	Theta float64 `json:"theta"`
	Phi   float64 `json:"phi"`
}

// ToPolar converts a unit vector to polar coordinates.
func ToPolar(v r3.Vector) Polar {
	theta := math.Asin(clamp(v.Y, -1, 1)) * 180 / math.Pi
	phi := math.Atan2(v.X, v.Z) * 180 / math.Pi
	if phi < 0 {
		phi += 360
	}
	return Polar{Theta: theta, Phi: phi}
}

// FromPolar is the inverse of ToPolar.
func FromPolar(p Polar) r3.Vector {
	theta := p.Theta * math.Pi / 180
	phi := p.Phi * math.Pi / 180
	return r3.Vector{
		X: math.Cos(theta) * math.Sin(phi),
		Y: math.Sin(theta),
		Z: math.Cos(theta) * math.Cos(phi),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
