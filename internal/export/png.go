package export

import (
	"fmt"
	"io"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"github.com/jbeda/geom"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/projection"
)

// stroke is the raster equivalent of one stylesheet class.
type stroke struct {
	color gg.RGBA
	width float64
	alpha float64
	dash  []float64
}

var (
	sphereColor      = gg.Hex("#bbb")
	arcStrokeColor   = gg.Hex("#fbc02d")
	greatCircleInk   = gg.Hex("#00bcd4")
	smallCircleInk   = gg.Hex("#e64a19")
	pointInk         = gg.Hex("#e53935")
	labelInk         = gg.Hex("#fff")
	smallLabelInk    = gg.Hex("#ffb74d")
	gridFrontStroke  = stroke{color: labelInk, width: 1, alpha: 0.18, dash: []float64{6, 6}}
	gridBackStroke   = stroke{color: labelInk, width: 1, alpha: 0.08, dash: []float64{6, 6}}
	greatCircleFront = stroke{color: greatCircleInk, width: 3, alpha: 0.9}
	greatCircleBack  = stroke{color: greatCircleInk, width: 3, alpha: 0.4}
	smallCircleFront = stroke{color: smallCircleInk, width: 3, alpha: 0.9}
	smallCircleBack  = stroke{color: smallCircleInk, width: 3, alpha: 0.4}
	arcFront         = stroke{color: arcStrokeColor, width: 4, alpha: 1}
	arcBack          = stroke{color: arcStrokeColor, width: 4, alpha: 0.4}
)

var (
	fontOnce   sync.Once
	fontSource *text.FontSource
	fontErr    error
)

func labelFont() (*text.FontSource, error) {
	fontOnce.Do(func() {
		fontSource, fontErr = text.NewFontSource(goregular.TTF)
	})
	return fontSource, fontErr
}

// PNG writes doc as a 600x600 PNG with a transparent background.
func PNG(w io.Writer, doc *document.Document, opts Options) error {
	src, err := labelFont()
	if err != nil {
		return fmt.Errorf("load label font: %w", err)
	}

	dc := gg.NewContext(Width, Height)
	defer dc.Close()

	if err := drawDiagram(dc, src, Layout(doc, opts)); err != nil {
		return err
	}
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func drawDiagram(dc *gg.Context, src *text.FontSource, d *Diagram) error {
	for _, p := range d.Grid {
		if err := strokePair(dc, p, gridFrontStroke, gridBackStroke); err != nil {
			return err
		}
	}
	for _, p := range d.GreatCircles {
		if err := strokePair(dc, p, greatCircleFront, greatCircleBack); err != nil {
			return err
		}
	}
	for _, p := range d.SmallCircles {
		if err := strokePair(dc, p, smallCircleFront, smallCircleBack); err != nil {
			return err
		}
	}
	for _, p := range d.Arcs {
		if err := strokePair(dc, p, arcFront, arcBack); err != nil {
			return err
		}
	}

	dc.ClearPath()
	dc.DrawCircle(d.Sphere.Center.X, d.Sphere.Center.Y, d.Sphere.Radius)
	if err := strokeWith(dc, stroke{color: sphereColor, width: 4, alpha: 1}); err != nil {
		return fmt.Errorf("stroke sphere: %w", err)
	}

	large := src.Face(28)
	small := src.Face(18)
	for _, m := range d.Markers {
		alpha := 1.0
		if m.Back {
			alpha = 0.4
		}
		dc.ClearPath()
		dc.DrawCircle(m.At.X, m.At.Y, m.R)
		setInk(dc, pointInk, alpha)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("fill point: %w", err)
		}
		if m.Label != "" {
			dc.SetFont(large)
			setInk(dc, labelInk, alpha)
			dc.DrawString(m.Label, m.At.X+16, m.At.Y-12)
		}
	}

	for _, l := range d.Labels {
		alpha := 1.0
		if l.Back {
			alpha = 0.4
		}
		face, ink := large, labelInk
		if l.Small {
			face, ink = small, smallLabelInk
		}
		dc.SetFont(face)
		setInk(dc, ink, alpha)
		dc.DrawString(l.Text, l.At.X, l.At.Y)
	}
	return nil
}

func strokePair(dc *gg.Context, p projection.Paths, front, back stroke) error {
	if err := strokeSegments(dc, p.Back, back); err != nil {
		return err
	}
	return strokeSegments(dc, p.Front, front)
}

func strokeSegments(dc *gg.Context, segments [][]geom.Coord, s stroke) error {
	if len(segments) == 0 {
		return nil
	}
	dc.ClearPath()
	for _, seg := range segments {
		dc.NewSubPath()
		for i, c := range seg {
			if i == 0 {
				dc.MoveTo(c.X, c.Y)
			} else {
				dc.LineTo(c.X, c.Y)
			}
		}
	}
	if err := strokeWith(dc, s); err != nil {
		return fmt.Errorf("stroke path: %w", err)
	}
	return nil
}

func strokeWith(dc *gg.Context, s stroke) error {
	setInk(dc, s.color, s.alpha)
	dc.SetLineWidth(s.width)
	if len(s.dash) > 0 {
		dc.SetDash(s.dash...)
	} else {
		dc.ClearDash()
	}
	return dc.Stroke()
}

func setInk(dc *gg.Context, c gg.RGBA, alpha float64) {
	dc.SetRGBA(c.R, c.G, c.B, c.A*alpha)
}
