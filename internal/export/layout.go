// Package export renders a sphere document as a fixed-size diagram, either as
// SVG or as a PNG raster.
package export

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/jbeda/geom"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/projection"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/sphere"
)

const (
	Width  = 600
	Height = 600

	pointRadius      = 6
	namedPointRadius = 12
)

var (
	gridParallels = []float64{-60, -30, 0, 30, 60}
	gridMeridians = []float64{0, 30, 60, 90, 120, 150, 180, 210, 240, 270, 300, 330}
)

// Options controls what is drawn.
type Options struct {
	// Rotation orients the sphere. The zero value is the identity.
	Rotation sphere.Rotation
	Grid     bool
}

// Marker is a projected point.
type Marker struct {
	At    geom.Coord
	R     float64
	Back  bool
	Label string
}

// Label is a circle name placed near the silhouette.
type Label struct {
	At   geom.Coord
	Text string
	// Small marks small-circle labels, which use a lighter style.
	Small bool
	Back  bool
}

// Diagram is a document laid out on the export canvas, in drawing order.
type Diagram struct {
	Grid         []projection.Paths
	GreatCircles []projection.Paths
	SmallCircles []projection.Paths
	Arcs         []projection.Paths
	Sphere       projection.Viewport
	// Markers holds back-facing points first, then front-facing ones.
	Markers []Marker
	Labels  []Label
}

// Layout projects doc onto the export canvas. doc must be valid.
func Layout(doc *document.Document, opts Options) *Diagram {
	vp := projection.Export
	rot := opts.Rotation
	if rot == (sphere.Rotation{}) {
		rot = sphere.Identity()
	}

	abs := make([]r3.Vector, len(doc.Points))
	view := make([]r3.Vector, len(doc.Points))
	for i, p := range doc.Points {
		abs[i] = sphere.Normalize(r3.Vector{X: p.Position[0], Y: p.Position[1], Z: p.Position[2]})
		view[i] = rot.Active(abs[i])
	}

	d := &Diagram{Sphere: vp}
	if opts.Grid {
		for _, lat := range gridParallels {
			d.Grid = append(d.Grid, vp.Paths(sphere.RotateAll(rot, sphere.Parallel(lat, sphere.ExportGridSteps))))
		}
		for _, lon := range gridMeridians {
			d.Grid = append(d.Grid, vp.Paths(sphere.RotateAll(rot, sphere.Meridian(lon, sphere.ExportGridSteps))))
		}
	}

	for _, gc := range doc.GreatCircles {
		samples := sphere.GreatCircle(abs[gc.Pole], sphere.ExportGridSteps)
		d.GreatCircles = append(d.GreatCircles, vp.Paths(sphere.RotateAll(rot, samples)))
	}
	for _, sc := range doc.SmallCircles {
		samples := sphere.SmallCircle(abs[sc.Pole], sc.PlaneDistance, sphere.ExportGridSteps)
		d.SmallCircles = append(d.SmallCircles, vp.Paths(sphere.RotateAll(rot, samples)))
	}
	for _, a := range doc.Arcs {
		d.Arcs = append(d.Arcs, vp.Paths(sphere.Arc(view[a[0]], view[a[1]], sphere.ExportArcSteps)))
	}

	for _, back := range []bool{true, false} {
		for i, p := range doc.Points {
			if (view[i].Z < 0) != back {
				continue
			}
			r := float64(pointRadius)
			if p.Name != "" {
				r = namedPointRadius
			}
			d.Markers = append(d.Markers, Marker{At: vp.Project(view[i]), R: r, Back: back, Label: p.Name})
		}
	}

	canvas := geom.Rect{Max: geom.Coord{X: Width, Y: Height}}
	for _, gc := range doc.GreatCircles {
		if gc.Name == "" {
			continue
		}
		d.Labels = append(d.Labels, Label{
			At:   greatCircleLabel(vp, canvas, abs[gc.Pole], rot),
			Text: gc.Name,
		})
	}
	for _, sc := range doc.SmallCircles {
		if sc.Name == "" {
			continue
		}
		at, back := smallCircleLabel(vp, canvas, abs[sc.Pole], sc.PlaneDistance, rot)
		d.Labels = append(d.Labels, Label{At: at, Text: sc.Name, Small: true, Back: back})
	}
	return d
}

// greatCircleLabel sits just outside the frontmost of the circle's two basis
// points at θ = 0 and θ = π.
func greatCircleLabel(vp projection.Viewport, canvas geom.Rect, pole r3.Vector, rot sphere.Rotation) geom.Coord {
	u, _ := sphere.Basis(pole)
	best := rot.Active(u)
	if alt := rot.Active(u.Mul(-1)); alt.Z > best.Z {
		best = alt
	}
	return placeLabel(vp, canvas, best, 24, 120, 32)
}

// smallCircleLabel picks the candidate nearest the silhouette. back reports
// whether that candidate faces away from the viewer.
func smallCircleLabel(vp projection.Viewport, canvas geom.Rect, pole r3.Vector, d float64, rot sphere.Rotation) (geom.Coord, bool) {
	theta := math.Acos(math.Max(-1, math.Min(1, -d)))
	best := rot.Active(sphere.SmallCirclePoint(pole, d, theta))
	if alt := rot.Active(sphere.SmallCirclePoint(pole, d, math.Pi-theta)); math.Abs(alt.Z) < math.Abs(best.Z) {
		best = alt
	}
	return placeLabel(vp, canvas, best, 20, 80, 20), best.Z < 0
}

// placeLabel pushes the projection of p outwards by offset and clamps the
// result so a label of the given size stays on the canvas.
func placeLabel(vp projection.Viewport, canvas geom.Rect, p r3.Vector, offset, width, height float64) geom.Coord {
	at := vp.Project(p).Plus(geom.Coord{X: p.X, Y: p.Y}.Times(offset))
	return geom.Coord{
		X: clamp(at.X, canvas.Min.X+8, canvas.Max.X-width-8),
		Y: clamp(at.Y, canvas.Min.Y+height, canvas.Max.Y-8),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
