package sphere

import (
	"math"

	"github.com/golang/geo/r3"
)

// Sample counts used by the interactive view and the exporter.
const (
	CircleSteps     = 200
	ArcSteps        = 200
	GridSteps       = 60
	ExportGridSteps = 128
	ExportArcSteps  = 64
)

// Basis returns an orthonormal pair spanning the plane orthogonal to pole.
// The first vector starts from pole × ẑ; poles within 0.99 of ẑ use x̂ instead.
func Basis(pole r3.Vector) (u, v r3.Vector) {
	seed := r3.Vector{X: 1}
	if math.Abs(pole.Z) < 0.99 {
		seed = r3.Vector{X: pole.Y, Y: -pole.X}
	}
	u = Normalize(pole.Cross(seed))
	v = Normalize(pole.Cross(u))
	return u, v
}

// GreatCircle samples the great circle orthogonal to pole. The result holds
// steps+1 points and its first and last samples coincide.
func GreatCircle(pole r3.Vector, steps int) []r3.Vector {
	u, v := Basis(pole)
	out := make([]r3.Vector, 0, steps+1)
	for i := 0; i <= steps; i++ {
		theta := float64(i) * 2 * math.Pi / float64(steps)
		out = append(out, u.Mul(math.Cos(theta)).Add(v.Mul(math.Sin(theta))))
	}
	return out
}

// SmallCircle samples the circle cut by the plane orthogonal to pole at signed
// distance d along it.
func SmallCircle(pole r3.Vector, d float64, steps int) []r3.Vector {
	u, v := Basis(pole)
	center := pole.Mul(d)
	radius := math.Sqrt(math.Max(0, 1-d*d))
	out := make([]r3.Vector, 0, steps+1)
	for i := 0; i <= steps; i++ {
		theta := float64(i) * 2 * math.Pi / float64(steps)
		p := u.Mul(radius * math.Cos(theta)).Add(v.Mul(radius * math.Sin(theta)))
		out = append(out, center.Add(p))
	}
	return out
}

// SmallCirclePoint returns the point at parameter theta on a small circle.
func SmallCirclePoint(pole r3.Vector, d, theta float64) r3.Vector {
	u, v := Basis(pole)
	radius := math.Sqrt(math.Max(0, 1-d*d))
	p := u.Mul(radius * math.Cos(theta)).Add(v.Mul(radius * math.Sin(theta)))
	return Normalize(pole.Mul(d).Add(p))
}

// Arc samples the minor geodesic from p1 to p2 with steps+1 points.
func Arc(p1, p2 r3.Vector, steps int) []r3.Vector {
	dot := clamp(p1.Dot(p2), -1, 1)
	tangent := arcTangent(p1, p2, dot)
	total := math.Acos(dot)

	out := make([]r3.Vector, 0, steps+1)
	for i := 0; i <= steps; i++ {
		theta := float64(i) * total / float64(steps)
		out = append(out, p1.Mul(math.Cos(theta)).Add(tangent.Mul(math.Sin(theta))))
	}
	return out
}

// arcTangent is the unit direction at p1 pointing along the geodesic to p2.
// For (anti)parallel endpoints any direction orthogonal to p1 is a geodesic,
// so the planar component of p1 rotated by 90° is used.
func arcTangent(p1, p2 r3.Vector, dot float64) r3.Vector {
	if math.Abs(dot) > 1-1e-5 {
		r := math.Hypot(p1.X, p1.Y)
		if r < Epsilon {
			return Perpendicular(p1)
		}
		return r3.Vector{X: -p1.Y / r, Y: p1.X / r}
	}
	return p2.Sub(p1.Mul(dot)).Mul(1 / math.Sqrt(1-dot*dot))
}

// Parallel samples the line of latitude lat (degrees) of the reference grid.
// The grid is drawn about the z axis.
func Parallel(lat float64, steps int) []r3.Vector {
	phi := lat * math.Pi / 180
	out := make([]r3.Vector, 0, steps+1)
	for i := 0; i <= steps; i++ {
		lon := float64(i) * 2 * math.Pi / float64(steps)
		out = append(out, r3.Vector{
			X: math.Cos(phi) * math.Cos(lon),
			Y: math.Cos(phi) * math.Sin(lon),
			Z: math.Sin(phi),
		})
	}
	return out
}

// Meridian samples the half great circle of longitude lon (degrees) from the
// south pole of the reference grid to its north pole.
func Meridian(lon float64, steps int) []r3.Vector {
	lambda := lon * math.Pi / 180
	out := make([]r3.Vector, 0, steps+1)
	for i := 0; i <= steps; i++ {
		lat := -math.Pi/2 + float64(i)*math.Pi/float64(steps)
		out = append(out, r3.Vector{
			X: math.Cos(lat) * math.Cos(lambda),
			Y: math.Cos(lat) * math.Sin(lambda),
			Z: math.Sin(lat),
		})
	}
	return out
}

// RotateAll applies the active rotation to every sample in place and returns
// the slice.
func RotateAll(r Rotation, pts []r3.Vector) []r3.Vector {
	for i, p := range pts {
		pts[i] = r.Active(p)
	}
	return pts
}
