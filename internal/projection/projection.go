// Package projection maps view-space curves on the unit sphere onto a 2-D
// canvas under an orthographic projection, splitting them into the parts in
// front of and behind the sphere's silhouette.
package projection

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/jbeda/geom"
)

// Viewport places the unit sphere on a canvas.
type Viewport struct {
	Radius float64
	Center geom.Coord
}

var (
	// Interactive is the 100x100 editing view.
	Interactive = Viewport{Radius: 25, Center: geom.Coord{X: 50, Y: 50}}
	// Export is the fixed-size 600x600 diagram.
	Export = Viewport{Radius: 250, Center: geom.Coord{X: 300, Y: 300}}
	// Unit maps the sphere onto the unit disc at the origin.
	Unit = Viewport{Radius: 1}
)

// Project maps a view-space vector to canvas coordinates, dropping depth.
func (v Viewport) Project(p r3.Vector) geom.Coord {
	return geom.Coord{X: p.X, Y: p.Y}.Times(v.Radius).Plus(v.Center)
}

// Unproject lifts a canvas coordinate onto the front hemisphere. ok is false
// outside the sphere's disc.
func (v Viewport) Unproject(c geom.Coord) (p r3.Vector, ok bool) {
	if v.Radius == 0 {
		return r3.Vector{}, false
	}
	n := c.Minus(v.Center).Times(1 / v.Radius)
	r2 := n.X*n.X + n.Y*n.Y
	if r2 > 1 {
		return r3.Vector{}, false
	}
	return r3.Vector{X: n.X, Y: n.Y, Z: math.Sqrt(1 - r2)}, true
}

// Bounds is the square enclosing the sphere's disc.
func (v Viewport) Bounds() geom.Rect {
	d := geom.Coord{X: v.Radius, Y: v.Radius}
	return geom.Rect{Min: v.Center.Minus(d), Max: v.Center.Plus(d)}
}

// Polyline projects every sample.
func (v Viewport) Polyline(samples []r3.Vector) []geom.Coord {
	out := make([]geom.Coord, len(samples))
	for i, p := range samples {
		out[i] = v.Project(p)
	}
	return out
}

// Paths is the projected form of Hemispheres.
type Paths struct {
	Front [][]geom.Coord
	Back  [][]geom.Coord
}

// Paths splits samples by hemisphere and projects every segment.
func (v Viewport) Paths(samples []r3.Vector) Paths {
	h := Split(samples)
	var p Paths
	for _, seg := range h.Front {
		p.Front = append(p.Front, v.Polyline(seg))
	}
	for _, seg := range h.Back {
		p.Back = append(p.Back, v.Polyline(seg))
	}
	return p
}

// PathData renders segments as SVG path data, one subpath per segment.
func PathData(segments [][]geom.Coord) string {
	var b strings.Builder
	for _, seg := range segments {
		for i, c := range seg {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			cmd := "L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&b, "%s %.2f %.2f", cmd, c.X, c.Y)
		}
	}
	return b.String()
}
