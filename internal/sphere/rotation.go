package sphere

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Rotation is a unit quaternion orientation.
type Rotation struct {
	q quat.Number
}

// Identity returns the rotation that leaves every vector unchanged.
func Identity() Rotation {
	return Rotation{q: quat.Number{Real: 1}}
}

// FromQuaternion builds a rotation from raw components (w, x, y, z).
func FromQuaternion(w, x, y, z float64) Rotation {
	return Rotation{q: quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}}
}

// FromEuler builds a rotation from yaw, pitch and roll given in degrees.
func FromEuler(yaw, pitch, roll float64) Rotation {
	yaw, pitch, roll = yaw*math.Pi/180, pitch*math.Pi/180, roll*math.Pi/180
	cr, sr := math.Cos(roll/2), math.Sin(roll/2)
	cp, sp := math.Cos(pitch/2), math.Sin(pitch/2)
	cy, sy := math.Cos(yaw/2), math.Sin(yaw/2)

	return Rotation{q: quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}}
}

// FromAxisAngle builds a rotation of angle radians about axis. A zero-length
// axis yields the identity.
func FromAxisAngle(axis r3.Vector, angle float64) Rotation {
	n := axis.Norm()
	if n < Epsilon {
		return Identity()
	}
	axis = axis.Mul(1 / n)
	s := math.Sin(angle / 2)
	return Rotation{q: quat.Number{
		Real: math.Cos(angle / 2),
		Imag: axis.X * s,
		Jmag: axis.Y * s,
		Kmag: axis.Z * s,
	}}
}

// Between returns the shortest rotation carrying unit vector from onto to.
func Between(from, to r3.Vector) Rotation {
	axis := from.Cross(to)
	angle := math.Acos(clamp(from.Dot(to), -1, 1))
	if axis.Norm() < Epsilon {
		if angle < math.Pi/2 {
			return Identity()
		}
		axis = Perpendicular(from)
	}
	return FromAxisAngle(axis, angle)
}

// Mul returns the Hamilton product r·o. Applying the result is equivalent to
// applying o first and then r.
func (r Rotation) Mul(o Rotation) Rotation {
	return Rotation{q: quat.Mul(r.q, o.q)}
}

// Conj returns the conjugate (inverse) rotation.
func (r Rotation) Conj() Rotation {
	return Rotation{q: quat.Conj(r.q)}
}

// Components returns (w, x, y, z).
func (r Rotation) Components() (w, x, y, z float64) {
	return r.q.Real, r.q.Imag, r.q.Jmag, r.q.Kmag
}

// Active rotates p from object space into view space: q·p·q*.
func (r Rotation) Active(p r3.Vector) r3.Vector {
	return fromPure(quat.Mul(quat.Mul(r.q, pure(p)), quat.Conj(r.q)))
}

// Passive maps p from view space back into object space: q*·p·q.
func (r Rotation) Passive(p r3.Vector) r3.Vector {
	return fromPure(quat.Mul(quat.Mul(quat.Conj(r.q), pure(p)), r.q))
}

// Euler is the yaw/pitch/roll mirror of an orientation, in degrees.
type Euler struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// EulerDegrees recovers yaw, pitch and roll, each normalised into [0, 360).
func (r Rotation) EulerDegrees() Euler {
	w, x, y, z := r.Components()

	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z)) * 180 / math.Pi
	pitch := math.Asin(clamp(2*(w*y-z*x), -1, 1)) * 180 / math.Pi
	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y)) * 180 / math.Pi

	return Euler{
		Yaw:   wrapDegrees(yaw),
		Pitch: wrapDegrees(pitch),
		Roll:  wrapDegrees(roll),
	}
}

func wrapDegrees(a float64) float64 {
	a = math.Mod(a+360, 360)
	if a < 0 {
		a += 360
	}
	return a
}

func pure(p r3.Vector) quat.Number {
	return quat.Number{Imag: p.X, Jmag: p.Y, Kmag: p.Z}
}

func fromPure(q quat.Number) r3.Vector {
	return r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
}
