package export

import (
	"bufio"
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/projection"
)

const stylesheet = `
.sphere { fill: none; stroke: #bbb; stroke-width: 4; }
.arc { fill: none; stroke: #fbc02d; stroke-width: 4; }
.arc-back { fill: none; stroke: #fbc02d; stroke-width: 4; opacity: 0.4; }
.great-circle { fill: none; stroke: #00bcd4; stroke-width: 3; opacity: 0.9; }
.great-circle-back { fill: none; stroke: #00bcd4; stroke-width: 3; opacity: 0.4; }
.small-circle { fill: none; stroke: #e64a19; stroke-width: 3; opacity: 0.9; }
.small-circle-back { fill: none; stroke: #e64a19; stroke-width: 3; opacity: 0.4; }
.point { fill: #e53935; stroke: none; }
.point-back { fill: #e53935; stroke: none; opacity: 0.4; }
.label { fill: #fff; font-size: 28px; font-family: sans-serif; font-weight: bold; pointer-events: none; }
.label-back { fill: #fff; font-size: 28px; font-family: sans-serif; font-weight: bold; pointer-events: none; opacity: 0.4; }
.small-label { fill: #ffb74d; font-size: 18px; font-family: sans-serif; font-weight: 500; pointer-events: none; }
.small-label-back { fill: #ffb74d; font-size: 18px; font-family: sans-serif; font-weight: 500; pointer-events: none; opacity: 0.4; }
`

const (
	gridFront = `stroke="#fff" stroke-width="1" stroke-dasharray="6,6" opacity="0.18" fill="none"`
	gridBack  = `stroke="#fff" stroke-width="1" stroke-dasharray="6,6" opacity="0.08" fill="none"`
)

// SVG writes doc as a 600x600 SVG diagram.
func SVG(w io.Writer, doc *document.Document, opts Options) error {
	bw := bufio.NewWriter(w)
	writeSVG(bw, Layout(doc, opts))
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func writeSVG(w io.Writer, d *Diagram) {
	canvas := svg.New(w)
	canvas.Start(Width, Height, fmt.Sprintf(`viewBox="0 0 %d %d"`, Width, Height))
	canvas.Style("text/css", stylesheet)

	for _, p := range d.Grid {
		pathPair(canvas, p, gridFront, gridBack)
	}
	for _, p := range d.GreatCircles {
		pathPair(canvas, p, `class="great-circle"`, `class="great-circle-back"`)
	}
	for _, p := range d.SmallCircles {
		pathPair(canvas, p, `class="small-circle"`, `class="small-circle-back"`)
	}
	for _, p := range d.Arcs {
		pathPair(canvas, p, `class="arc"`, `class="arc-back"`)
	}

	c := d.Sphere.Center
	canvas.Circle(round(c.X), round(c.Y), round(d.Sphere.Radius), `class="sphere"`)

	for _, m := range d.Markers {
		class, label := "point", "label"
		if m.Back {
			class, label = "point-back", "label-back"
		}
		canvas.Circle(round(m.At.X), round(m.At.Y), round(m.R), `class="`+class+`"`)
		if m.Label != "" {
			canvas.Text(round(m.At.X+16), round(m.At.Y-12), m.Label, `class="`+label+`"`)
		}
	}

	for _, l := range d.Labels {
		class := "label"
		switch {
		case l.Small && l.Back:
			class = "small-label-back"
		case l.Small:
			class = "small-label"
		}
		canvas.Text(round(l.At.X), round(l.At.Y), l.Text, `class="`+class+`"`)
	}
	canvas.End()
}

// pathPair writes the back half of a curve under its front half.
func pathPair(canvas *svg.SVG, p projection.Paths, front, back string) {
	if len(p.Back) > 0 {
		canvas.Path(projection.PathData(p.Back), back)
	}
	if len(p.Front) > 0 {
		canvas.Path(projection.PathData(p.Front), front)
	}
}

func round(v float64) int {
	return int(math.Round(v))
}
