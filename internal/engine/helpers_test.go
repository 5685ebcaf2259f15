package engine

import (
	"testing"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
)

const tol = 1e-9

func vecNear(a, b r3.Vector, eps float64) bool {
	return scalar.EqualWithinAbs(a.X, b.X, eps) &&
		scalar.EqualWithinAbs(a.Y, b.Y, eps) &&
		scalar.EqualWithinAbs(a.Z, b.Z, eps)
}

// engineWith returns an engine holding one removable, movable point per
// position, in order.
func engineWith(t *testing.T, positions ...[3]float64) (*Engine, []string) {
	t.Helper()
	doc := document.NewEmptyDocument()
	for _, p := range positions {
		doc.Points = append(doc.Points, document.Point{Position: p, Movable: true, Removable: true})
	}
	e := NewEngine(Options{})
	e.load(doc)
	ids := make([]string, len(positions))
	for i := range positions {
		ids[i] = e.scene.At(i).ID
	}
	return e, ids
}

func mustApply(t *testing.T, e *Engine, cmds ...Command) {
	t.Helper()
	for _, c := range cmds {
		if err := e.Apply(c); err != nil {
			t.Fatalf("Apply(%#v) error = %v", c, err)
		}
	}
}

func selectAll(e *Engine, ids ...string) {
	e.scene.ClearSelection()
	for _, id := range ids {
		e.scene.Select(id)
	}
}

func engineDoc(positions ...[3]float64) *document.Document {
	doc := document.NewEmptyDocument()
	for _, p := range positions {
		doc.Points = append(doc.Points, document.Point{Position: p, Movable: true, Removable: true})
	}
	return doc
}
