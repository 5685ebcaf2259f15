package document

import "math"

// NewEmptyDocument returns a document with no content.
func NewEmptyDocument() *Document {
	return &Document{
		Points:       []Point{},
		Arcs:         []Arc{},
		GreatCircles: []GreatCircle{},
		SmallCircles: []SmallCircle{},
	}
}

// NewSampleDocument returns the octant triangle with its three bounding great
// circles and the parallel at 45° about the y axis.
func NewSampleDocument() *Document {
	s := math.Sqrt2 / 2
	return &Document{
		Points: []Point{
			{Position: [3]float64{1, 0, 0}, Name: "A", Movable: true, Removable: true},
			{Position: [3]float64{0, 1, 0}, Name: "B", Movable: true, Removable: true},
			{Position: [3]float64{0, 0, 1}, Name: "C", Movable: true, Removable: true},
			{Position: [3]float64{s, 0, s}, Name: "", Movable: true, Removable: true},
		},
		Arcs: []Arc{{0, 1}, {1, 2}, {2, 0}},
		GreatCircles: []GreatCircle{
			{Pole: 0, Name: "a"},
			{Pole: 2, Name: "c"},
		},
		SmallCircles: []SmallCircle{
			{Pole: 1, PlaneDistance: s, Name: "p"},
		},
	}
}
