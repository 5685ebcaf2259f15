package engine

import (
	"fmt"

	"github.com/golang/geo/r3"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/sphere"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/typeid"
)

// Arc joins two points by their minor geodesic.
type Arc struct {
	A, B string
}

type GreatCircle struct {
	Pole string
	Name string
}

type SmallCircle struct {
	Pole          string
	PlaneDistance float64
	Name          string
}

type Group struct {
	ID      string
	Members []string
}

// Scene owns the points and everything that refers to them. Points sit in an
// ordered slice; every other structure refers to them by their stable ID, so
// removing a point never rewrites a reference to a different point.
type Scene struct {
	points []*Point
	index  map[string]int

	arcs         []Arc
	greatCircles []*GreatCircle
	smallCircles []*SmallCircle

	groups   []*Group
	selected []string

	newID func() string
}

func NewScene() *Scene {
	return &Scene{
		index: make(map[string]int),
		newID: typeid.NewPointID,
	}
}

// --- Points ---

func (s *Scene) Len() int { return len(s.points) }

// Points returns the points in order. The slice must not be modified.
func (s *Scene) Points() []*Point { return s.points }

// At returns the point at position i.
func (s *Scene) At(i int) *Point { return s.points[i] }

// Point looks up a point by ID.
func (s *Scene) Point(id string) (*Point, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.points[i], true
}

// Index returns the current position of a point.
func (s *Scene) Index(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// mustPoint is for IDs taken from the scene's own structures. A miss means
// a reference outlived its point.
func (s *Scene) mustPoint(id string) *Point {
	i, ok := s.index[id]
	if !ok {
		panic(fmt.Sprintf("engine: dangling point reference %q", id))
	}
	return s.points[i]
}

// Add appends a point and returns its position.
func (s *Scene) Add(p *Point) int {
	s.index[p.ID] = len(s.points)
	s.points = append(s.points, p)
	return len(s.points) - 1
}

// AddAbsolute creates and appends a point from an object-space vector.
func (s *Scene) AddAbsolute(v r3.Vector, rot sphere.Rotation) *Point {
	p := NewPointAbsolute(s.newID(), v, rot)
	s.Add(p)
	return p
}

// AddRotated creates and appends a point from a view-space vector.
func (s *Scene) AddRotated(v r3.Vector, rot sphere.Rotation) *Point {
	p := NewPointRotated(s.newID(), v, rot)
	s.Add(p)
	return p
}

// Remove deletes a point. The last point takes over its position. Arcs and
// circles that depend on the point, its group membership and its selection
// are dropped in the same call. It reports whether the point existed.
func (s *Scene) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}

	last := len(s.points) - 1
	s.points[i] = s.points[last]
	s.points[last] = nil
	s.points = s.points[:last]
	delete(s.index, id)
	if i < last {
		s.index[s.points[i].ID] = i
	}

	arcs := s.arcs[:0]
	for _, a := range s.arcs {
		if a.A != id && a.B != id {
			arcs = append(arcs, a)
		}
	}
	s.arcs = arcs

	s.RemoveGreatCircle(id)
	s.RemoveSmallCircle(id)
	s.RemoveFromGroup(id)
	s.deselect(id)
	return true
}

// Rotate re-derives every point's view-space position.
func (s *Scene) Rotate(rot sphere.Rotation) {
	for _, p := range s.points {
		p.Rotate(rot)
	}
}

// --- Arcs ---

func (s *Scene) Arcs() []Arc { return s.arcs }

// ToggleArc adds the arc a-b, or removes it if it already exists in either
// direction. It reports whether the arc now exists.
func (s *Scene) ToggleArc(a, b string) bool {
	for i, arc := range s.arcs {
		if (arc.A == a && arc.B == b) || (arc.A == b && arc.B == a) {
			s.arcs = append(s.arcs[:i], s.arcs[i+1:]...)
			return false
		}
	}
	s.arcs = append(s.arcs, Arc{A: a, B: b})
	return true
}

// --- Circles ---

func (s *Scene) GreatCircles() []*GreatCircle { return s.greatCircles }

func (s *Scene) SmallCircles() []*SmallCircle { return s.smallCircles }

func (s *Scene) AddGreatCircle(pole string) *GreatCircle {
	gc := &GreatCircle{Pole: pole}
	s.greatCircles = append(s.greatCircles, gc)
	return gc
}

func (s *Scene) AddSmallCircle(pole string, d float64) *SmallCircle {
	sc := &SmallCircle{Pole: pole, PlaneDistance: d}
	s.smallCircles = append(s.smallCircles, sc)
	return sc
}

// GreatCircleWithPole returns the first great circle whose pole is id.
func (s *Scene) GreatCircleWithPole(id string) *GreatCircle {
	for _, gc := range s.greatCircles {
		if gc.Pole == id {
			return gc
		}
	}
	return nil
}

// SmallCircleWithPole returns the first small circle whose pole is id.
func (s *Scene) SmallCircleWithPole(id string) *SmallCircle {
	for _, sc := range s.smallCircles {
		if sc.Pole == id {
			return sc
		}
	}
	return nil
}

// RemoveGreatCircle drops every great circle whose pole is id.
func (s *Scene) RemoveGreatCircle(id string) {
	out := s.greatCircles[:0]
	for _, gc := range s.greatCircles {
		if gc.Pole != id {
			out = append(out, gc)
		}
	}
	s.greatCircles = out
}

// RemoveSmallCircle drops every small circle whose pole is id.
func (s *Scene) RemoveSmallCircle(id string) {
	out := s.smallCircles[:0]
	for _, sc := range s.smallCircles {
		if sc.Pole != id {
			out = append(out, sc)
		}
	}
	s.smallCircles = out
}

// ToggleGreatCircle adds a great circle about id or removes the existing one.
func (s *Scene) ToggleGreatCircle(id string) bool {
	if s.GreatCircleWithPole(id) != nil {
		s.RemoveGreatCircle(id)
		return false
	}
	s.AddGreatCircle(id)
	return true
}

// greatCirclePoleAlong returns the pole of a great circle parallel or
// antiparallel to axis.
func (s *Scene) greatCirclePoleAlong(axis r3.Vector) (string, bool) {
	for _, gc := range s.greatCircles {
		if sphere.SameAxis(axis, s.mustPoint(gc.Pole).Absolute) {
			return gc.Pole, true
		}
	}
	return "", false
}

func (s *Scene) smallCirclePoleAlong(axis r3.Vector) (string, bool) {
	for _, sc := range s.smallCircles {
		if sphere.SameAxis(axis, s.mustPoint(sc.Pole).Absolute) {
			return sc.Pole, true
		}
	}
	return "", false
}

// RotatedPoles returns the view-space poles of all great circles.
func (s *Scene) RotatedPoles() []r3.Vector {
	poles := make([]r3.Vector, len(s.greatCircles))
	for i, gc := range s.greatCircles {
		poles[i] = s.mustPoint(gc.Pole).Rotated
	}
	return poles
}

// --- Document conversion ---

// Document returns the index-based form of the scene.
func (s *Scene) Document() *document.Document {
	doc := document.NewEmptyDocument()
	for _, p := range s.points {
		doc.Points = append(doc.Points, document.Point{
			Position:  [3]float64{p.Absolute.X, p.Absolute.Y, p.Absolute.Z},
			Name:      p.Name,
			Movable:   p.Movable,
			Removable: p.Removable,
		})
	}
	for _, a := range s.arcs {
		doc.Arcs = append(doc.Arcs, document.Arc{s.index[a.A], s.index[a.B]})
	}
	for _, gc := range s.greatCircles {
		doc.GreatCircles = append(doc.GreatCircles, document.GreatCircle{Pole: s.index[gc.Pole], Name: gc.Name})
	}
	for _, sc := range s.smallCircles {
		doc.SmallCircles = append(doc.SmallCircles, document.SmallCircle{
			Pole:          s.index[sc.Pole],
			PlaneDistance: sc.PlaneDistance,
			Name:          sc.Name,
		})
	}
	return doc
}

// SceneFromDocument builds a scene from a validated document. Positions are
// normalised onto the sphere.
func SceneFromDocument(doc *document.Document, rot sphere.Rotation) *Scene {
	s := NewScene()
	ids := make([]string, len(doc.Points))
	for i, dp := range doc.Points {
		v := sphere.Normalize(r3.Vector{X: dp.Position[0], Y: dp.Position[1], Z: dp.Position[2]})
		p := s.AddAbsolute(v, rot)
		p.Name = dp.Name
		p.Movable = dp.Movable
		p.Removable = dp.Removable
		ids[i] = p.ID
	}
	for _, a := range doc.Arcs {
		s.arcs = append(s.arcs, Arc{A: ids[a[0]], B: ids[a[1]]})
	}
	for _, gc := range doc.GreatCircles {
		s.AddGreatCircle(ids[gc.Pole]).Name = gc.Name
	}
	for _, sc := range doc.SmallCircles {
		s.AddSmallCircle(ids[sc.Pole], sc.PlaneDistance).Name = sc.Name
	}
	return s
}
