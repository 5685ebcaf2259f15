package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var ErrInvalidDocument = errors.New("invalid document")

// Document is the persisted sphere. Every entry is serialised as a JSON array
// so files stay compact and compatible with earlier versions of the format:
//
//	{ "points": [[[x,y,z], name, movable, removable], ...],
//	  "arcs": [[a, b], ...],
//	  "great_circles": [[pole, name], ...],
//	  "small_circles": [[pole, plane_distance, name], ...] }
//
// Indices refer to positions in Points. Coordinates are object-space vectors.
type Document struct {
	Points       []Point       `json:"points"`
	Arcs         []Arc         `json:"arcs"`
	GreatCircles []GreatCircle `json:"great_circles"`
	SmallCircles []SmallCircle `json:"small_circles"`
}

type Point struct {
	Position  [3]float64
	Name      string
	Movable   bool
	Removable bool
}

type Arc [2]int

type GreatCircle struct {
	Pole int
	Name string
}

type SmallCircle struct {
	Pole          int
	PlaneDistance float64
	Name          string
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{p.Position, p.Name, p.Movable, p.Removable})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	return decodeTuple(data, &p.Position, &p.Name, &p.Movable, &p.Removable)
}

func (g GreatCircle) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{g.Pole, g.Name})
}

func (g *GreatCircle) UnmarshalJSON(data []byte) error {
	return decodeTuple(data, &g.Pole, &g.Name)
}

func (s SmallCircle) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{s.Pole, s.PlaneDistance, s.Name})
}

func (s *SmallCircle) UnmarshalJSON(data []byte) error {
	return decodeTuple(data, &s.Pole, &s.PlaneDistance, &s.Name)
}

// decodeTuple decodes a JSON array element by element into fields.
func decodeTuple(data []byte, fields ...interface{}) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != len(fields) {
		return fmt.Errorf("expected %d elements, got %d", len(fields), len(raw))
	}
	for i, f := range fields {
		if err := json.Unmarshal(raw[i], f); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// Parse decodes and validates a document. Nothing is returned unless the
// whole document is valid.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Marshal encodes the document. Empty collections are written as [].
func (d *Document) Marshal() ([]byte, error) {
	out := *d
	if out.Points == nil {
		out.Points = []Point{}
	}
	if out.Arcs == nil {
		out.Arcs = []Arc{}
	}
	if out.GreatCircles == nil {
		out.GreatCircles = []GreatCircle{}
	}
	if out.SmallCircles == nil {
		out.SmallCircles = []SmallCircle{}
	}
	return json.Marshal(out)
}

// Validate checks that every index is in range, every position is a finite
// non-zero vector and every plane distance lies in [-1, 1].
func (d *Document) Validate() error {
	n := len(d.Points)
	for i, p := range d.Points {
		var norm2 float64
		for _, c := range p.Position {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return fmt.Errorf("%w: point %d has non-finite coordinate", ErrInvalidDocument, i)
			}
			norm2 += c * c
		}
		if norm2 < 1e-20 {
			return fmt.Errorf("%w: point %d is the zero vector", ErrInvalidDocument, i)
		}
	}
	for i, a := range d.Arcs {
		if !inRange(a[0], n) || !inRange(a[1], n) {
			return fmt.Errorf("%w: arc %d references missing point", ErrInvalidDocument, i)
		}
	}
	for i, gc := range d.GreatCircles {
		if !inRange(gc.Pole, n) {
			return fmt.Errorf("%w: great circle %d references missing pole %d", ErrInvalidDocument, i, gc.Pole)
		}
	}
	for i, sc := range d.SmallCircles {
		if !inRange(sc.Pole, n) {
			return fmt.Errorf("%w: small circle %d references missing pole %d", ErrInvalidDocument, i, sc.Pole)
		}
		if math.IsNaN(sc.PlaneDistance) || sc.PlaneDistance < -1 || sc.PlaneDistance > 1 {
			return fmt.Errorf("%w: small circle %d plane distance %v outside [-1, 1]", ErrInvalidDocument, i, sc.PlaneDistance)
		}
	}
	return nil
}

func inRange(i, n int) bool {
	return i >= 0 && i < n
}
