package export

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/jbeda/geom"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/projection"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/sphere"
)

func coordNear(a, b geom.Coord) bool {
	return scalar.EqualWithinAbs(a.X, b.X, 1e-9) && scalar.EqualWithinAbs(a.Y, b.Y, 1e-9)
}

func TestLayoutMarkersBackFirst(t *testing.T) {
	doc := &document.Document{
		Points: []document.Point{
			{Position: [3]float64{0, 0, 1}},
			{Position: [3]float64{0, 0, -1}, Name: "S"},
			{Position: [3]float64{0.6, 0, 0.8}, Name: "P"},
		},
	}
	d := Layout(doc, Options{})
	if len(d.Markers) != 3 {
		t.Fatalf("markers = %d, want 3", len(d.Markers))
	}
	if !d.Markers[0].Back || d.Markers[0].Label != "S" || d.Markers[0].R != namedPointRadius {
		t.Errorf("first marker = %+v, want the named back point", d.Markers[0])
	}
	if d.Markers[1].Back || d.Markers[1].R != pointRadius {
		t.Errorf("second marker = %+v, want the unnamed front point", d.Markers[1])
	}
	if !coordNear(d.Markers[2].At, geom.Coord{X: 450, Y: 300}) {
		t.Errorf("marker at %v, want (450, 300)", d.Markers[2].At)
	}
}

func TestLayoutRotation(t *testing.T) {
	doc := &document.Document{Points: []document.Point{{Position: [3]float64{1, 0, 0}}}}
	d := Layout(doc, Options{Rotation: sphere.FromEuler(90, 0, 0)})
	if !coordNear(d.Markers[0].At, geom.Coord{X: 300, Y: 550}) {
		t.Errorf("rotated marker at %v, want (300, 550)", d.Markers[0].At)
	}
}

func TestLayoutGrid(t *testing.T) {
	doc := document.NewEmptyDocument()
	if d := Layout(doc, Options{}); len(d.Grid) != 0 {
		t.Errorf("grid lines = %d without the grid option", len(d.Grid))
	}
	d := Layout(doc, Options{Grid: true})
	if len(d.Grid) != 5+12 {
		t.Errorf("grid lines = %d, want 17", len(d.Grid))
	}
}

func TestLayoutCurves(t *testing.T) {
	d := Layout(document.NewSampleDocument(), Options{})
	if len(d.GreatCircles) != 2 || len(d.SmallCircles) != 1 || len(d.Arcs) != 3 {
		t.Errorf("curves = %d/%d/%d, want 2/1/3", len(d.GreatCircles), len(d.SmallCircles), len(d.Arcs))
	}
	// The equator seen from above lies entirely on the silhouette or in front.
	eq := d.GreatCircles[1]
	if len(eq.Front) == 0 {
		t.Error("great circle about +z has no front part")
	}
}

func TestGreatCircleLabelPlacement(t *testing.T) {
	doc := &document.Document{
		Points:       []document.Point{{Position: [3]float64{0, 0, 1}}},
		GreatCircles: []document.GreatCircle{{Pole: 0, Name: "eq"}},
	}
	d := Layout(doc, Options{})
	if len(d.Labels) != 1 {
		t.Fatalf("labels = %+v", d.Labels)
	}
	l := d.Labels[0]
	if l.Small || l.Text != "eq" || !coordNear(l.At, geom.Coord{X: 300, Y: 574}) {
		t.Errorf("label = %+v, want eq at (300, 574)", l)
	}
}

func TestSmallCircleLabelSide(t *testing.T) {
	tests := []struct {
		name string
		pole [3]float64
		back bool
	}{
		{"front cap", [3]float64{0, 0, 1}, false},
		{"back cap", [3]float64{0, 0, -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &document.Document{
				Points:       []document.Point{{Position: tt.pole}},
				SmallCircles: []document.SmallCircle{{Pole: 0, PlaneDistance: 0.5, Name: "c"}},
			}
			d := Layout(doc, Options{})
			if len(d.Labels) != 1 || !d.Labels[0].Small || d.Labels[0].Back != tt.back {
				t.Errorf("labels = %+v, want one small label with back = %v", d.Labels, tt.back)
			}
		})
	}
}

func TestUnnamedCirclesHaveNoLabel(t *testing.T) {
	doc := &document.Document{
		Points:       []document.Point{{Position: [3]float64{0, 0, 1}}},
		GreatCircles: []document.GreatCircle{{Pole: 0}},
		SmallCircles: []document.SmallCircle{{Pole: 0, PlaneDistance: 0.2}},
	}
	if d := Layout(doc, Options{}); len(d.Labels) != 0 {
		t.Errorf("labels = %+v, want none", d.Labels)
	}
}

func TestPlaceLabelClamps(t *testing.T) {
	canvas := geom.Rect{Max: geom.Coord{X: Width, Y: Height}}
	tests := []struct {
		name string
		p    r3.Vector
		want geom.Coord
	}{
		{"right edge", r3.Vector{X: 1}, geom.Coord{X: 472, Y: 300}},
		{"top edge", r3.Vector{Y: -1}, geom.Coord{X: 300, Y: 32}},
		{"inside", r3.Vector{X: 0.6, Z: 0.8}, geom.Coord{X: 464.4, Y: 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := placeLabel(projection.Export, canvas, tt.p, 24, 120, 32)
			if !coordNear(got, tt.want) {
				t.Errorf("placeLabel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSVG(t *testing.T) {
	doc := document.NewSampleDocument()
	doc.Points[0].Name = "<A&B>"

	var buf bytes.Buffer
	if err := SVG(&buf, doc, Options{}); err != nil {
		t.Fatalf("SVG() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`width="600"`,
		`viewBox="0 0 600 600"`,
		`.great-circle {`,
		`class="great-circle"`,
		`class="small-circle"`,
		`class="arc"`,
		`class="sphere"`,
		`class="label"`,
		`&lt;A&amp;B&gt;`,
		`</svg>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SVG output missing %q", want)
		}
	}
	if strings.Contains(out, "stroke-dasharray") {
		t.Error("grid drawn without the grid option")
	}
	if got := strings.Count(out, "<circle"); got != 1+len(doc.Points) {
		t.Errorf("circles = %d, want sphere plus one per point", got)
	}
	if strings.Index(out, `class="sphere"`) < strings.Index(out, `class="arc"`) {
		t.Error("sphere outline should be drawn over the arcs")
	}

	buf.Reset()
	if err := SVG(&buf, doc, Options{Grid: true}); err != nil {
		t.Fatalf("SVG() error = %v", err)
	}
	if !strings.Contains(buf.String(), `stroke-dasharray="6,6"`) {
		t.Error("grid missing with the grid option")
	}
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := PNG(&buf, document.NewSampleDocument(), Options{Grid: true}); err != nil {
		t.Fatalf("PNG() error = %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != Width || b.Dy() != Height {
		t.Errorf("image size = %v, want %dx%d", b, Width, Height)
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions(url.Values{"yaw": {"90"}, "grid": {"true"}})
	if err != nil {
		t.Fatalf("ParseOptions() error = %v", err)
	}
	if !opts.Grid {
		t.Error("grid = false")
	}
	got := opts.Rotation.Active(r3.Vector{X: 1})
	if !scalar.EqualWithinAbs(got.Y, 1, 1e-9) {
		t.Errorf("yaw 90 maps x to %v", got)
	}

	for _, q := range []url.Values{
		{"pitch": {"steep"}},
		{"grid": {"sometimes"}},
		{"yaw": {"NaN"}},
		{"roll": {"-Inf"}},
		{"pitch": {"1e400"}},
	} {
		if _, err := ParseOptions(q); !errors.Is(err, ErrInvalidOption) {
			t.Errorf("ParseOptions(%v) error = %v, want ErrInvalidOption", q, err)
		}
	}
}

func TestHandler(t *testing.T) {
	h := NewHandler(1 << 20)
	sample, _ := document.NewSampleDocument().Marshal()

	tests := []struct {
		name        string
		handler     http.HandlerFunc
		target      string
		body        []byte
		status      int
		contentType string
	}{
		{"svg", h.ExportSVG, "/export/svg?grid=1&name=my%20sphere", sample, http.StatusOK, "image/svg+xml"},
		{"png", h.ExportPNG, "/export/png", sample, http.StatusOK, "image/png"},
		{"invalid document", h.ExportSVG, "/export/svg", []byte(`{"points":[[[0,0,0],"",true,true]]}`), http.StatusBadRequest, ""},
		{"invalid option", h.ExportSVG, "/export/svg?roll=x", sample, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.target, bytes.NewReader(tt.body))
			rec := httptest.NewRecorder()
			tt.handler(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.contentType != "" && rec.Header().Get("Content-Type") != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", rec.Header().Get("Content-Type"), tt.contentType)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/export/svg?name=my%20sphere", bytes.NewReader(sample))
	rec := httptest.NewRecorder()
	h.ExportSVG(rec, req)
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="my-sphere.svg"` {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestHandlerBodyLimit(t *testing.T) {
	h := NewHandler(16)
	sample, _ := document.NewSampleDocument().Marshal()
	req := httptest.NewRequest(http.MethodPost, "/export/svg", bytes.NewReader(sample))
	rec := httptest.NewRecorder()
	h.ExportSVG(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}
