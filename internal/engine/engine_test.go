package engine

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/sphere"
)

func TestScrollZoomClamps(t *testing.T) {
	tests := []struct {
		name   string
		deltas []float64
		want   float64
	}{
		{"scroll down zooms out", []float64{100}, 0.9},
		{"scroll up zooms in", []float64{-100}, 1.1},
		{"clamped high", []float64{-100000}, MaxZoom},
		{"clamped low", []float64{900, 900}, MinZoom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(Options{})
			for _, d := range tt.deltas {
				mustApply(t, e, Scroll{DeltaY: d})
			}
			if !scalar.EqualWithinAbs(e.Zoom(), tt.want, 1e-12) {
				t.Errorf("Zoom() = %v, want %v", e.Zoom(), tt.want)
			}
		})
	}
}

func TestViewBox(t *testing.T) {
	e := NewEngine(Options{})
	if got := e.ViewBox(); got != [4]float64{0, 0, 100, 100} {
		t.Errorf("ViewBox() = %v at zoom 1", got)
	}
	mustApply(t, e, SetZoom{Zoom: 2})
	if got := e.ViewBox(); got != [4]float64{25, 25, 50, 50} {
		t.Errorf("ViewBox() = %v at zoom 2", got)
	}
}

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Command
		wantErr error
	}{
		{"key", `{"kind":"key","key":"a","shift":true}`, Key{Key: "a", Shift: true}, nil},
		{"pointer down", `{"kind":"pointer.down","x":0.5,"y":-0.25,"button":2}`, PointerDown{X: 0.5, Y: -0.25, Button: ButtonSecondary}, nil},
		{"pointer up", `{"kind":"pointer.up"}`, PointerUp{}, nil},
		{"euler", `{"kind":"view.euler","yaw":10,"pitch":20,"roll":30}`, SetEuler{Yaw: 10, Pitch: 20, Roll: 30}, nil},
		{"flag", `{"kind":"point.flag","point":"pt_x","flag":"hidden","value":"on"}`, SetPointFlag{Point: "pt_x", Flag: "hidden", Value: "on"}, nil},
		{"new document", `{"kind":"document.new"}`, NewDocument{}, nil},
		{"unknown kind", `{"kind":"teleport"}`, nil, ErrUnknownCommand},
		{"missing kind", `{}`, nil, ErrUnknownCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand([]byte(tt.in))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DecodeCommand() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DecodeCommand() = %#v, want %#v", got, tt.want)
			}
		})
	}

	if _, err := DecodeCommand([]byte(`{"kind":"scroll","deltaY":"lots"}`)); err == nil {
		t.Error("DecodeCommand() with a mistyped field should fail")
	}
	if _, err := DecodeCommand([]byte(`not json`)); err == nil {
		t.Error("DecodeCommand() with malformed JSON should fail")
	}
}

func TestDecodeSetDisplay(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"kind":"view.display","grid":true}`))
	if err != nil {
		t.Fatalf("DecodeCommand() error = %v", err)
	}
	e := NewEngine(Options{})
	e.showHidden = true
	mustApply(t, e, cmd)
	if !e.ShowGrid() || !e.showHidden {
		t.Errorf("grid = %v, hidden = %v; absent fields must be left alone", e.ShowGrid(), e.showHidden)
	}
}

func TestParseFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"", false, false},
		{"on", true, false},
		{"off", false, false},
		{"true", true, false},
		{"false", false, false},
		{"1", true, false},
		{"0", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := ParseFlag(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFlag(%q) error = %v", tt.in, err)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrInvalidFlag) {
			t.Errorf("ParseFlag(%q) error = %v, want ErrInvalidFlag", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFlag(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetPointFlag(t *testing.T) {
	e, ids := engineWith(t, [3]float64{1, 0, 0})
	mustApply(t, e,
		SetPointFlag{Point: ids[0], Flag: "movable", Value: "false"},
		SetPointFlag{Point: ids[0], Flag: "hidden", Value: "on"},
	)
	p := e.scene.At(0)
	if p.Movable || !p.Hidden || !p.Removable {
		t.Errorf("flags = movable %v, hidden %v, removable %v", p.Movable, p.Hidden, p.Removable)
	}

	errTests := []struct {
		name string
		cmd  SetPointFlag
		want error
	}{
		{"unknown point", SetPointFlag{Point: "pt_gone", Flag: "hidden", Value: "on"}, ErrUnknownPoint},
		{"unknown flag", SetPointFlag{Point: ids[0], Flag: "sticky", Value: "on"}, ErrInvalidFlag},
		{"bad value", SetPointFlag{Point: ids[0], Flag: "hidden", Value: "yes please"}, ErrInvalidFlag},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			if err := e.Apply(tt.cmd); !errors.Is(err, tt.want) {
				t.Errorf("Apply() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRenamePoint(t *testing.T) {
	e, ids := engineWith(t, [3]float64{1, 0, 0})
	mustApply(t, e, RenamePoint{Point: ids[0], Name: "Sirius"})
	if e.scene.At(0).Name != "Sirius" {
		t.Errorf("name = %q", e.scene.At(0).Name)
	}
	if err := e.Apply(RenamePoint{Point: "pt_gone"}); !errors.Is(err, ErrUnknownPoint) {
		t.Errorf("Apply() error = %v, want ErrUnknownPoint", err)
	}
}

func TestGroupCommands(t *testing.T) {
	e, ids := engineWith(t, [3]float64{1, 0, 0}, [3]float64{0, 1, 0})
	selectAll(e, ids[0])
	if err := e.Apply(GroupSelected{}); !errors.Is(err, ErrSelectionTooSmall) {
		t.Errorf("Apply(GroupSelected) error = %v, want ErrSelectionTooSmall", err)
	}
	selectAll(e, ids...)
	mustApply(t, e, GroupSelected{})
	if len(e.scene.Groups()) != 1 {
		t.Fatalf("groups = %d, want 1", len(e.scene.Groups()))
	}
	mustApply(t, e, UngroupSelected{}, ClearSelection{})
	if len(e.scene.Groups()) != 0 || len(e.scene.Selected()) != 0 {
		t.Error("ungroup and clear should leave no groups and no selection")
	}
}

func TestLoadDocumentIsAllOrNothing(t *testing.T) {
	e := NewEngine(Options{})
	e.LoadSampleDocument()
	before, _ := e.GetDocument()

	bad := `{"points":[[[1,0,0],"A",true,true]],"arcs":[[0,4]],"great_circles":[],"small_circles":[]}`
	if err := e.LoadDocument([]byte(bad)); !errors.Is(err, document.ErrInvalidDocument) {
		t.Fatalf("LoadDocument() error = %v, want ErrInvalidDocument", err)
	}
	if after, _ := e.GetDocument(); after != before {
		t.Errorf("failed load changed the document:\n%s\n%s", before, after)
	}
}

func TestLoadDocumentResetsView(t *testing.T) {
	e, ids := engineWith(t, [3]float64{1, 0, 0})
	mustApply(t, e, SetEuler{Yaw: 40}, SetZoom{Zoom: 1.5})
	selectAll(e, ids[0])

	data, _ := document.NewSampleDocument().Marshal()
	if err := e.LoadDocument(data); err != nil {
		t.Fatalf("LoadDocument() error = %v", err)
	}
	if e.Scene().Len() != 4 || len(e.Scene().Selected()) != 0 {
		t.Errorf("points = %d, selection = %v", e.Scene().Len(), e.Scene().Selected())
	}
	if e.Euler() != (sphere.Euler{}) {
		t.Errorf("Euler() = %+v, want identity", e.Euler())
	}
	if e.Zoom() != 1.5 {
		t.Errorf("Zoom() = %v, loading keeps the zoom", e.Zoom())
	}

	mustApply(t, e, NewDocument{})
	if e.Scene().Len() != 0 || e.Zoom() != 1 {
		t.Errorf("after NewDocument: points = %d, zoom = %v", e.Scene().Len(), e.Zoom())
	}
}

func TestTriangleInfo(t *testing.T) {
	e := NewEngine(Options{})
	e.LoadSampleDocument()
	if _, ok := e.Triangle(); ok {
		t.Error("Triangle() with no selection should report ok = false")
	}
	if got := e.GetTriangle(); got != "null" {
		t.Errorf("GetTriangle() = %s, want null", got)
	}

	s := e.Scene()
	selectAll(e, s.At(0).ID, s.At(1).ID, s.At(2).ID)
	info, ok := e.Triangle()
	if !ok {
		t.Fatal("Triangle() ok = false with three selected")
	}
	for i := range 3 {
		if !scalar.EqualWithinAbs(info.Sides[i], 90, 1e-9) || !scalar.EqualWithinAbs(info.Angles[i], 90, 1e-9) {
			t.Errorf("octant side %d = %v, angle = %v; want 90, 90", i, info.Sides[i], info.Angles[i])
		}
	}
	if !scalar.EqualWithinAbs(info.Excess, 90, 1e-9) {
		t.Errorf("Excess = %v, want 90", info.Excess)
	}
	if info.Points != [3]string{s.At(0).ID, s.At(1).ID, s.At(2).ID} {
		t.Errorf("Points = %v, want selection order", info.Points)
	}

	var decoded TriangleInfo
	if err := json.Unmarshal([]byte(e.GetTriangle()), &decoded); err != nil {
		t.Fatalf("GetTriangle() is not JSON: %v", err)
	}
	if decoded.Excess != 90 {
		t.Errorf("rounded excess = %v, want 90", decoded.Excess)
	}
}

func TestState(t *testing.T) {
	e, ids := engineWith(t, [3]float64{1, 0, 0})
	selectAll(e, ids[0])
	mustApply(t, e, SetDisplay{Center: boolPtr(true)})

	var st State
	if err := json.Unmarshal([]byte(e.GetState()), &st); err != nil {
		t.Fatalf("GetState() is not JSON: %v", err)
	}
	if !st.ShowCenter || len(st.Selection) != 1 || st.Selection[0] != ids[0] || st.Quaternion[0] != 1 {
		t.Errorf("state = %+v", st)
	}
	if got := NewEngine(Options{}).GetSelection(); got != "[]" {
		t.Errorf("GetSelection() = %s, want []", got)
	}
}

func TestPointInfo(t *testing.T) {
	e, ids := engineWith(t, [3]float64{0, 0, 1}, [3]float64{1, 0, 0})
	mustApply(t, e, SetEuler{Yaw: 90})
	selectAll(e, ids...)
	mustApply(t, e, GroupSelected{})

	info, ok := e.PointInfo(ids[1])
	if !ok {
		t.Fatal("PointInfo() ok = false")
	}
	if info.Index != 1 || info.Group == "" || !info.Movable {
		t.Errorf("info = %+v", info)
	}
	if !scalar.EqualWithinAbs(info.Rotated[1], 1, 1e-9) {
		t.Errorf("rotated = %v, want +y after a 90° yaw", info.Rotated)
	}
	if _, ok := e.PointInfo("pt_gone"); ok {
		t.Error("PointInfo() of unknown point ok = true")
	}
}

func TestUnknownCommand(t *testing.T) {
	e := NewEngine(Options{})
	if err := e.Apply(nil); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Apply(nil) error = %v, want ErrUnknownCommand", err)
	}
}

func TestRenderLayers(t *testing.T) {
	e := NewEngine(Options{})
	e.LoadSampleDocument()
	cmds := e.CompileDrawCommands()

	if cmds[0].Op != "circle" || cmds[0].R != 25 || cmds[0].X != 50 {
		t.Errorf("first command = %+v, want the sphere disc", cmds[0])
	}
	last := cmds[len(cmds)-1]
	if last.Op != "text" || last.ObjectID != e.Scene().At(3).ID {
		t.Errorf("last command = %+v, want the last point's label", last)
	}

	circles := countOps(cmds, "circle")
	if circles != 1+e.Scene().Len() {
		t.Errorf("circle ops = %d, want disc plus one per point", circles)
	}
	// Two labelled great circles, one labelled small circle, four point labels.
	if got := countOps(cmds, "text"); got != 2+1+4 {
		t.Errorf("text ops = %d, want 7", got)
	}
	// Front and back halves of two great circles, one small circle and three arcs.
	if got := countOps(cmds, "path"); got != 2*(2+1+3) {
		t.Errorf("path ops = %d, want 12", got)
	}

	mustApply(t, e, SetDisplay{Grid: boolPtr(true), Center: boolPtr(true)})
	grid := e.CompileDrawCommands()
	if got := countOps(grid, "path") - countOps(cmds, "path"); got != 2*(11+12) {
		t.Errorf("grid paths = %d, want front and back of 23 lines", got)
	}
	if grid[len(grid)-1].ObjectID != last.ObjectID {
		t.Error("points should stay on top of the grid")
	}

	if !strings.HasPrefix(e.Render(), `[{"op":"circle"`) {
		t.Errorf("Render() = %.40s...", e.Render())
	}
}

func TestRenderHiddenPoints(t *testing.T) {
	e, ids := engineWith(t, [3]float64{0, 0, 1}, [3]float64{0, 0, -1})
	mustApply(t, e, SetPointFlag{Point: ids[0], Flag: "hidden", Value: "true"})

	if hasObject(e.CompileDrawCommands(), ids[0]) {
		t.Error("hidden point rendered")
	}
	selectAll(e, ids[0])
	if !hasObject(e.CompileDrawCommands(), ids[0]) {
		t.Error("selected hidden point should render")
	}
	e.scene.ClearSelection()
	mustApply(t, e, SetDisplay{Hidden: boolPtr(true)})
	if !hasObject(e.CompileDrawCommands(), ids[0]) {
		t.Error("hidden point should render with show hidden on")
	}

	for _, c := range e.CompileDrawCommands() {
		if c.Op == "circle" && c.ObjectID == ids[1] && c.Fill != "rgba(255, 0, 0, 0.4)" {
			t.Errorf("back point fill = %s, want faded", c.Fill)
		}
	}
}

func TestRenderDepthFade(t *testing.T) {
	e, ids := engineWith(t, [3]float64{0, 0, 1}, [3]float64{1, 0, 0}, [3]float64{0, 0, -1})
	want := map[string]string{
		ids[0]: "rgba(255, 0, 0, 1)",
		ids[1]: "rgba(255, 0, 0, 1)",
		ids[2]: "rgba(255, 0, 0, 0.4)",
	}
	for _, c := range e.CompileDrawCommands() {
		if w, ok := want[c.ObjectID]; ok && c.Op == "circle" && c.Fill != w {
			t.Errorf("point %s fill = %s, want %s", c.ObjectID, c.Fill, w)
		}
	}
}

func TestGreatCircleLabelPosition(t *testing.T) {
	e, ids := engineWith(t, [3]float64{0, 0, 1}, [3]float64{1, 0, 0})
	e.scene.AddGreatCircle(ids[0]).Name = "eq"
	e.scene.AddGreatCircle(ids[1]).Name = "m"

	var labels []DrawCommand
	for _, c := range e.CompileDrawCommands() {
		if c.Op == "text" && c.Text != "" {
			labels = append(labels, c)
		}
	}
	if len(labels) != 2 {
		t.Fatalf("labels = %+v", labels)
	}
	// A pole facing the viewer puts the label right of the disc.
	if labels[0].X != 73 || labels[0].Y != 48 {
		t.Errorf("label at (%v, %v), want (73, 48)", labels[0].X, labels[0].Y)
	}
	// Pole +x: the circle meets the silhouette at (0, -1).
	if !scalar.EqualWithinAbs(labels[1].X, 48, 1e-9) || !scalar.EqualWithinAbs(labels[1].Y, 23, 1e-9) {
		t.Errorf("label at (%v, %v), want (48, 23)", labels[1].X, labels[1].Y)
	}
}

func TestHitTest(t *testing.T) {
	e, ids := engineWith(t, [3]float64{0, 0, 1})
	if got := e.HitTest(0.01, 0); got != ids[0] {
		t.Errorf("HitTest() = %q, want %q", got, ids[0])
	}
	if got := e.HitTest(0.5, 0); got != "" {
		t.Errorf("HitTest() = %q, want miss", got)
	}
	if got := e.HitTest(5, 5); got != "" {
		t.Errorf("HitTest() outside the disc = %q", got)
	}
}

func countOps(cmds []DrawCommand, op string) int {
	n := 0
	for _, c := range cmds {
		if c.Op == op {
			n++
		}
	}
	return n
}

func hasObject(cmds []DrawCommand, id string) bool {
	for _, c := range cmds {
		if c.ObjectID == id {
			return true
		}
	}
	return false
}

func boolPtr(b bool) *bool { return &b }
