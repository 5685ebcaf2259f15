package projection

import (
	"math"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/jbeda/geom"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/sphere"
)

func TestSplitNoMixedSegments(t *testing.T) {
	r := sphere.FromEuler(20, 35, 50)
	curves := [][]r3.Vector{
		sphere.GreatCircle(r3.Vector{X: 1}, sphere.CircleSteps),
		sphere.GreatCircle(sphere.Normalize(r3.Vector{X: 1, Y: 1, Z: 1}), sphere.CircleSteps),
		sphere.SmallCircle(r3.Vector{Y: 1}, 0.4, sphere.CircleSteps),
		sphere.Arc(r3.Vector{X: 1}, r3.Vector{Z: -1}, sphere.ArcSteps),
		sphere.Meridian(60, sphere.GridSteps),
	}
	for ci, c := range curves {
		h := Split(sphere.RotateAll(r, c))
		check := func(segs [][]r3.Vector, front bool) {
			for _, seg := range segs {
				for i, p := range seg {
					if front && p.Z < 0 || !front && p.Z > 0 {
						t.Fatalf("curve %d: sample %v in wrong hemisphere", ci, p)
					}
					if i > 0 && seg[i-1].Z*p.Z < 0 {
						t.Fatalf("curve %d: unresolved sign change", ci)
					}
				}
			}
		}
		check(h.Front, true)
		check(h.Back, false)
	}
}

func TestSplitSeams(t *testing.T) {
	samples := []r3.Vector{
		{X: 0, Z: 1},
		{X: 0.5, Z: 0.5},
		{X: 1, Z: -0.5},
		{X: 1.5, Z: -1},
		{X: 2, Z: -0.5},
		{X: 2.5, Z: 0.5},
		{X: 3, Z: 1},
	}
	h := Split(samples)

	if len(h.Back) != 1 {
		t.Fatalf("back segments = %d, want 1", len(h.Back))
	}
	if len(h.Front) != 2 {
		t.Fatalf("front segments = %d, want 2", len(h.Front))
	}
	back := h.Back[0]
	if a, b := h.Front[0][len(h.Front[0])-1], back[0]; a != b {
		t.Errorf("seam mismatch: %v vs %v", a, b)
	}
	if a, b := back[len(back)-1], h.Front[1][0]; a != b {
		t.Errorf("seam mismatch: %v vs %v", a, b)
	}
	if !scalar.EqualWithinAbs(back[0].X, 0.75, 1e-12) || back[0].Z != 0 {
		t.Errorf("first crossing = %v", back[0])
	}
	if !scalar.EqualWithinAbs(h.Front[1][0].X, 2.25, 1e-12) {
		t.Errorf("second crossing = %v", h.Front[1][0])
	}
	if len(back) != 5 {
		t.Errorf("back segment has %d samples, want 5", len(back))
	}
}

func TestSplitAllFront(t *testing.T) {
	samples := sphere.SmallCircle(r3.Vector{Z: 1}, 0.5, 16)
	h := Split(samples)
	if len(h.Back) != 0 || len(h.Front) != 1 || len(h.Front[0]) != len(samples) {
		t.Errorf("unexpected split: %d front, %d back", len(h.Front), len(h.Back))
	}
	if got := Split(nil); len(got.Front)+len(got.Back) != 0 {
		t.Error("empty input produced segments")
	}
}

func TestCrossing(t *testing.T) {
	got := Crossing(r3.Vector{X: 0, Y: 0, Z: 1}, r3.Vector{X: 2, Y: 4, Z: -3})
	if !scalar.EqualWithinAbs(got.X, 0.5, 1e-12) || !scalar.EqualWithinAbs(got.Y, 1, 1e-12) || got.Z != 0 {
		t.Errorf("Crossing() = %v", got)
	}
}

func TestViewport(t *testing.T) {
	tests := []struct {
		name string
		vp   Viewport
		in   r3.Vector
		want geom.Coord
	}{
		{"interactive centre", Interactive, r3.Vector{Z: 1}, geom.Coord{X: 50, Y: 50}},
		{"interactive edge", Interactive, r3.Vector{X: 1}, geom.Coord{X: 75, Y: 50}},
		{"export edge", Export, r3.Vector{Y: -1}, geom.Coord{X: 300, Y: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vp.Project(tt.in); got != tt.want {
				t.Errorf("Project() = %v, want %v", got, tt.want)
			}
		})
	}

	p, ok := Interactive.Unproject(geom.Coord{X: 50, Y: 37.5})
	if !ok || !scalar.EqualWithinAbs(p.Y, -0.5, 1e-12) || !scalar.EqualWithinAbs(p.Z, math.Sqrt(0.75), 1e-12) {
		t.Errorf("Unproject() = %v, %v", p, ok)
	}
	if _, ok := Interactive.Unproject(geom.Coord{X: 80, Y: 50}); ok {
		t.Error("Unproject() outside disc reported ok")
	}

	b := Export.Bounds()
	if b.Width() != 500 || b.Height() != 500 || b.Min.X != 50 {
		t.Errorf("Bounds() = %+v", b)
	}
}

func TestPathData(t *testing.T) {
	got := PathData([][]geom.Coord{
		{{X: 1, Y: 2}, {X: 3, Y: 4}},
		{{X: 5, Y: 6}},
	})
	want := "M 1.00 2.00 L 3.00 4.00 M 5.00 6.00"
	if got != want {
		t.Errorf("PathData() = %q, want %q", got, want)
	}
	if PathData(nil) != "" {
		t.Error("empty path data not empty")
	}

	paths := Export.Paths([]r3.Vector{{Y: -1}, {X: 1}, {Z: -1}})
	if !strings.HasPrefix(PathData(paths.Front), "M 300.00 50.00 L 550.00 300.00") {
		t.Errorf("front path = %q", PathData(paths.Front))
	}
}
