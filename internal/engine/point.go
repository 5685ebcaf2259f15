package engine

import (
	"github.com/golang/geo/r3"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/sphere"
)

// Point is a marker on the sphere. Absolute is its object-space position;
// Rotated is the same point seen through the current orientation. The polar
// pairs are restatements of the two vectors and are only ever recomputed
// together with them.
type Point struct {
	ID        string
	Absolute  r3.Vector
	Rotated   r3.Vector
	AbsPolar  sphere.Polar
	RotPolar  sphere.Polar
	Name      string
	Movable   bool
	Removable bool
	Hidden    bool
}

func newPoint(id string) *Point {
	return &Point{ID: id, Movable: true, Removable: true}
}

// NewPointAbsolute creates a point from an object-space vector.
func NewPointAbsolute(id string, v r3.Vector, rot sphere.Rotation) *Point {
	p := newPoint(id)
	p.setAbsolute(v, rot)
	return p
}

// NewPointRotated creates a point from a view-space vector, such as a click
// inside the rotated view.
func NewPointRotated(id string, v r3.Vector, rot sphere.Rotation) *Point {
	p := newPoint(id)
	p.Rotated = v
	p.RotPolar = sphere.ToPolar(v)
	p.Absolute = rot.Passive(v)
	p.AbsPolar = sphere.ToPolar(p.Absolute)
	return p
}

// MoveTo places a movable point at view-space position v. It reports whether
// the point moved.
func (p *Point) MoveTo(v r3.Vector, rot sphere.Rotation) bool {
	if !p.Movable {
		return false
	}
	p.Rotated = v
	p.RotPolar = sphere.ToPolar(v)
	p.Absolute = rot.Passive(v)
	p.AbsPolar = sphere.ToPolar(p.Absolute)
	return true
}

// Rotate re-derives the view-space position for a new orientation.
func (p *Point) Rotate(rot sphere.Rotation) {
	p.Rotated = rot.Active(p.Absolute)
	p.RotPolar = sphere.ToPolar(p.Rotated)
}

// Inverted returns the antipode of p with default flags and no name.
func (p *Point) Inverted(id string) *Point {
	q := newPoint(id)
	q.Absolute = p.Absolute.Mul(-1)
	q.Rotated = p.Rotated.Mul(-1)
	q.AbsPolar = sphere.ToPolar(q.Absolute)
	q.RotPolar = sphere.ToPolar(q.Rotated)
	return q
}

func (p *Point) setAbsolute(v r3.Vector, rot sphere.Rotation) {
	p.Absolute = v
	p.AbsPolar = sphere.ToPolar(v)
	p.Rotate(rot)
}
