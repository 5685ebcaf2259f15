package sphere

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// ArcDistance is the geodesic separation of two unit vectors.
func ArcDistance(a, b r3.Vector) s1.Angle {
	return s1.Angle(math.Acos(clamp(a.Dot(b), -1, 1))) * s1.Radian
}

// VertexAngle returns the angle opposite side a of a spherical triangle with
// sides a, b and c, using the spherical law of cosines. A triangle with a
// vanishing adjacent side has angle 0.
func VertexAngle(a, b, c s1.Angle) s1.Angle {
	sb, sc := math.Sin(b.Radians()), math.Sin(c.Radians())
	cos := 1.0
	if math.Abs(sb) > Epsilon && math.Abs(sc) > Epsilon {
		cos = (math.Cos(a.Radians()) - math.Cos(b.Radians())*math.Cos(c.Radians())) / (sb * sc)
	}
	return s1.Angle(math.Acos(clamp(cos, -1, 1))) * s1.Radian
}

// Triangle holds the sides and angles of a spherical triangle ABC. Side A is
// opposite vertex A.
type Triangle struct {
	Sides  [3]s1.Angle
	Angles [3]s1.Angle
}

// NewTriangle solves the spherical triangle with the given vertices.
func NewTriangle(pa, pb, pc r3.Vector) Triangle {
	a := ArcDistance(pb, pc)
	b := ArcDistance(pa, pc)
	c := ArcDistance(pa, pb)
	return Triangle{
		Sides: [3]s1.Angle{a, b, c},
		Angles: [3]s1.Angle{
			VertexAngle(a, b, c),
			VertexAngle(b, c, a),
			VertexAngle(c, a, b),
		},
	}
}

// Excess is A+B+C-180°.
func (t Triangle) Excess() s1.Angle {
	return t.Angles[0] + t.Angles[1] + t.Angles[2] - 180*s1.Degree
}
