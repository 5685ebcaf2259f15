package engine

import (
	"github.com/golang/geo/r3"
	"github.com/jbeda/geom"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/projection"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/sphere"
)

// ViewportToSphere maps a client position onto the front hemisphere, given
// the client rectangle of the sphere's disc. ok is false outside the disc.
func ViewportToSphere(c geom.Coord, bounds geom.Rect) (r3.Vector, bool) {
	w, h := bounds.Width(), bounds.Height()
	if w <= 0 || h <= 0 {
		return r3.Vector{}, false
	}
	n := geom.Coord{
		X: (c.X - bounds.Min.X - w/2) / w * 2,
		Y: (c.Y - bounds.Min.Y - h/2) / h * 2,
	}
	return projection.Unit.Unproject(n)
}

// Pick is the result of resolving a pointer position against the scene.
type Pick struct {
	// Existing is the ID of the hit point, empty for a miss.
	Existing string
	// Position is the view-space position under the pointer.
	Position r3.Vector
}

// Pick finds the front-facing point nearest to view-space position v within
// threshold (squared distance in the view plane).
func (s *Scene) Pick(v r3.Vector, threshold float64) Pick {
	best := threshold
	pick := Pick{Position: v}
	for _, p := range s.points {
		if p.Rotated.Z < 0 {
			continue
		}
		dx, dy := v.X-p.Rotated.X, v.Y-p.Rotated.Y
		if d := dx*dx + dy*dy; d <= best {
			best = d
			pick.Existing = p.ID
		}
	}
	return pick
}

func (e *Engine) pick(x, y float64) (Pick, bool) {
	v, ok := ViewportToSphere(geom.Coord{X: x, Y: y}, e.bounds)
	if !ok {
		return Pick{}, false
	}
	return e.scene.Pick(v, e.opts.PickThreshold), true
}

// CursorTarget resolves a position in the unit disc of the current view to
// the object-space point under it and the ID of the point a click there would
// pick. ok is false outside the disc.
func (e *Engine) CursorTarget(x, y float64) (v r3.Vector, hover string, ok bool) {
	view, ok := projection.Unit.Unproject(geom.Coord{X: x, Y: y})
	if !ok {
		return r3.Vector{}, "", false
	}
	return e.rotation.Passive(view), e.scene.Pick(view, e.opts.PickThreshold).Existing, true
}

func (e *Engine) snap(v r3.Vector, shift bool) r3.Vector {
	if !shift {
		return v
	}
	return sphere.SnapToGreatCircle(v, e.scene.RotatedPoles(), e.opts.SnapThreshold)
}

func (e *Engine) pointerDown(c PointerDown) error {
	switch c.Button {
	case ButtonPrimary:
		e.primaryDown(c)
	case ButtonSecondary:
		e.secondaryDown(c)
	case ButtonMiddle:
		e.rotating = true
		e.lastRotate = geom.Coord{X: c.X, Y: c.Y}
	}
	return nil
}

// primaryDown creates a point on empty sphere or toggles the selection of
// the hit point's group, grabbing it for dragging when it ends up selected.
func (e *Engine) primaryDown(c PointerDown) {
	pick, ok := e.pick(c.X, c.Y)
	if !ok {
		return
	}
	if pick.Existing == "" {
		p := e.scene.AddRotated(e.snap(pick.Position, c.Shift), e.rotation)
		e.scene.ToggleSelect(c.Shift, p.ID)
		return
	}
	p := e.scene.mustPoint(pick.Existing)
	if e.scene.ToggleSelectGroup(c.Shift, p.ID) && p.Movable {
		e.dragged = p.ID
	}
}

// secondaryDown toggles arcs between the hit point and every other selected
// point.
func (e *Engine) secondaryDown(c PointerDown) {
	if len(e.scene.selected) == 0 {
		return
	}
	pick, ok := e.pick(c.X, c.Y)
	if !ok || pick.Existing == "" {
		return
	}
	for _, id := range e.scene.Selected() {
		if id != pick.Existing {
			e.scene.ToggleArc(id, pick.Existing)
		}
	}
}

func (e *Engine) pointerMove(c PointerMove) {
	if e.dragged != "" {
		e.drag(c)
	}
	if e.rotating {
		e.rotateDrag(c)
	}
}

// drag moves the grabbed point under the pointer. Other members of its group
// follow by the same rotation.
func (e *Engine) drag(c PointerMove) {
	v, ok := ViewportToSphere(geom.Coord{X: c.X, Y: c.Y}, e.bounds)
	if !ok {
		return
	}
	p, ok := e.scene.Point(e.dragged)
	if !ok {
		e.dragged = ""
		return
	}
	from := p.Rotated
	if !p.MoveTo(e.snap(v, c.Shift), e.rotation) {
		return
	}
	delta := sphere.Between(from, p.Rotated)
	for _, id := range e.scene.GroupMembers(p.ID) {
		if id == p.ID {
			continue
		}
		m := e.scene.mustPoint(id)
		m.MoveTo(sphere.Normalize(delta.Active(m.Rotated)), e.rotation)
	}
	e.scene.Select(p.ID)
}

// rotateDrag turns the view: horizontal motion about the view's y axis,
// vertical motion about its x axis.
func (e *Engine) rotateDrag(c PointerMove) {
	s := e.opts.RotateSensitivity
	dx := (c.X - e.lastRotate.X) * s
	dy := -(c.Y - e.lastRotate.Y) * s

	rotY := sphere.FromAxisAngle(r3.Vector{X: 1}, dy)
	rotX := sphere.FromAxisAngle(r3.Vector{Y: 1}, dx)
	e.SetRotation(rotY.Mul(rotX).Mul(e.rotation))
	e.lastRotate = geom.Coord{X: c.X, Y: c.Y}
}
