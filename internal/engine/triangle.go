package engine

import (
	"encoding/json"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/sphere"
)

// TriangleInfo reports the spherical triangle spanned by three selected
// points, in selection order. Sides[i] is opposite Points[i]. All values are
// degrees.
type TriangleInfo struct {
	Points [3]string  `json:"points"`
	Sides  [3]float64 `json:"sides"`
	Angles [3]float64 `json:"angles"`
	Excess float64    `json:"excess"`
}

// Triangle solves the triangle of the current selection. ok is false unless
// exactly three points are selected.
func (e *Engine) Triangle() (TriangleInfo, bool) {
	sel := e.scene.Selected()
	if len(sel) != 3 {
		return TriangleInfo{}, false
	}
	t := sphere.NewTriangle(
		e.scene.mustPoint(sel[0]).Absolute,
		e.scene.mustPoint(sel[1]).Absolute,
		e.scene.mustPoint(sel[2]).Absolute,
	)
	info := TriangleInfo{
		Points: [3]string{sel[0], sel[1], sel[2]},
		Excess: t.Excess().Degrees(),
	}
	for i := range 3 {
		info.Sides[i] = t.Sides[i].Degrees()
		info.Angles[i] = t.Angles[i].Degrees()
	}
	return info, true
}

// Rounded returns a copy with every value rounded to the given number of
// decimal places, for display.
func (t TriangleInfo) Rounded(prec int) TriangleInfo {
	for i := range 3 {
		t.Sides[i] = scalar.Round(t.Sides[i], prec)
		t.Angles[i] = scalar.Round(t.Angles[i], prec)
	}
	t.Excess = scalar.Round(t.Excess, prec)
	return t
}

// GetTriangle returns the selection's triangle as JSON, or "null".
func (e *Engine) GetTriangle() string {
	info, ok := e.Triangle()
	if !ok {
		return "null"
	}
	data, _ := json.Marshal(info.Rounded(4))
	return string(data)
}
