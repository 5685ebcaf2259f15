package engine

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/jbeda/geom"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/projection"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/sphere"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context
// whose view box is Engine.ViewBox().
type DrawCommand struct {
	Op          string        `json:"op"`                    // Operation: "path", "circle", "text"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	X           float64       `json:"x"`                     // Centre for "circle", anchor for "text"
	Y           float64       `json:"y"`                     // Canvas y grows downwards
	R           float64       `json:"r,omitempty"`           // Radius for "circle"
	Text        string        `json:"text,omitempty"`        // Label for "text"
	FontSize    float64       `json:"fontSize,omitempty"`    // Text is centred on X
	Bold        bool          `json:"bold,omitempty"`        // Bold text
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	Opacity     float64       `json:"opacity,omitempty"`     // Global alpha
	Dash        []float64     `json:"dash,omitempty"`        // Line dash pattern
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y].
type PathCommand []interface{}

const (
	greatCircleColor     = "lime"
	greatCircleBackColor = "rgba(0, 255, 0, 0.4)"
	smallCircleColor     = "cyan"
	smallCircleBackColor = "rgba(0, 255, 255, 0.4)"
	arcColor             = "#FFA500"
	arcBackColor         = "rgba(255, 165, 0, 0.4)"
	gridColor            = "#6B8E23"
	curveWidth           = 0.3
)

// CompileDrawCommands generates the draw command buffer for the current view.
// Commands are in painter's order (back to front).
func (e *Engine) CompileDrawCommands() []DrawCommand {
	vp := projection.Interactive
	commands := []DrawCommand{{
		Op:          "circle",
		X:           vp.Center.X,
		Y:           vp.Center.Y,
		R:           vp.Radius,
		Fill:        "rgba(0, 0, 0, 0.4)",
		Stroke:      "white",
		StrokeWidth: 0.2,
	}}

	if e.showGrid {
		commands = append(commands, e.compileGrid(vp)...)
	}
	if e.showCenter {
		commands = append(commands, DrawCommand{Op: "circle", X: vp.Center.X, Y: vp.Center.Y, R: 2, Fill: "blue"})
	}

	s := e.scene
	for _, gc := range s.greatCircles {
		pole := s.mustPoint(gc.Pole).Rotated
		commands = append(commands, curveCommands(vp, gc.Pole, sphere.GreatCircle(pole, sphere.CircleSteps),
			greatCircleColor, greatCircleBackColor)...)
	}
	for _, sc := range s.smallCircles {
		pole := s.mustPoint(sc.Pole).Rotated
		commands = append(commands, curveCommands(vp, sc.Pole, sphere.SmallCircle(pole, sc.PlaneDistance, sphere.CircleSteps),
			smallCircleColor, smallCircleBackColor)...)
	}

	for _, gc := range s.greatCircles {
		if gc.Name == "" {
			continue
		}
		at := greatCircleLabelAt(vp, s.mustPoint(gc.Pole).Rotated)
		commands = append(commands, DrawCommand{
			Op: "text", ObjectID: gc.Pole, X: at.X - 2, Y: at.Y - 2,
			Text: gc.Name, FontSize: 2, Bold: true, Fill: "white",
		})
	}
	for _, sc := range s.smallCircles {
		if sc.Name == "" {
			continue
		}
		pole := s.mustPoint(sc.Pole).Rotated
		at := vp.Project(pole)
		commands = append(commands, DrawCommand{
			Op: "text", ObjectID: sc.Pole, X: at.X, Y: at.Y + 3,
			Text: sc.Name, FontSize: 1.5, Fill: fmt.Sprintf("rgba(0, 255, 255, %g)", depthAlpha(pole)),
		})
	}

	for _, a := range s.arcs {
		p1, p2 := s.mustPoint(a.A).Rotated, s.mustPoint(a.B).Rotated
		commands = append(commands, curveCommands(vp, "", sphere.Arc(p1, p2, sphere.ArcSteps), arcColor, arcBackColor)...)
	}

	for _, p := range s.points {
		selected := s.IsSelected(p.ID)
		if p.Hidden && !e.showHidden && !selected {
			continue
		}
		at := vp.Project(p.Rotated)
		alpha := depthAlpha(p.Rotated)
		r := 0.6
		if selected {
			r = 1
		}
		commands = append(commands,
			DrawCommand{Op: "circle", ObjectID: p.ID, X: at.X, Y: at.Y, R: r, Fill: fmt.Sprintf("rgba(255, 0, 0, %g)", alpha)},
			DrawCommand{
				Op: "text", ObjectID: p.ID, X: at.X, Y: at.Y - 2,
				Text: p.Name, FontSize: 2, Bold: true, Fill: fmt.Sprintf("rgba(255, 255, 255, %g)", alpha),
			},
		)
	}
	return commands
}

// compileGrid draws the reference grid in the rotated frame: parallels every
// 30° and twelve meridians.
func (e *Engine) compileGrid(vp projection.Viewport) []DrawCommand {
	var commands []DrawCommand
	add := func(samples []r3.Vector) {
		paths := vp.Paths(sphere.RotateAll(e.rotation, samples))
		commands = append(commands,
			DrawCommand{Op: "path", Path: pathCommands(paths.Front), Stroke: gridColor, StrokeWidth: 0.15, Opacity: 0.3, Dash: []float64{0.5, 0.5}},
			DrawCommand{Op: "path", Path: pathCommands(paths.Back), Stroke: gridColor, StrokeWidth: 0.15, Opacity: 0.1, Dash: []float64{0.5, 0.5}},
		)
	}
	for lat := -150.0; lat <= 150; lat += 30 {
		add(sphere.Parallel(lat, sphere.GridSteps))
	}
	for lon := 0.0; lon < 360; lon += 30 {
		add(sphere.Meridian(lon, sphere.GridSteps))
	}
	return commands
}

// curveCommands emits the front and back halves of a sampled view-space curve.
func curveCommands(vp projection.Viewport, id string, samples []r3.Vector, front, back string) []DrawCommand {
	paths := vp.Paths(samples)
	return []DrawCommand{
		{Op: "path", ObjectID: id, Path: pathCommands(paths.Front), Stroke: front, StrokeWidth: curveWidth},
		{Op: "path", ObjectID: id, Path: pathCommands(paths.Back), Stroke: back, StrokeWidth: curveWidth},
	}
}

func pathCommands(segments [][]geom.Coord) []PathCommand {
	var out []PathCommand
	for _, seg := range segments {
		for i, c := range seg {
			op := "L"
			if i == 0 {
				op = "M"
			}
			out = append(out, PathCommand{op, c.X, c.Y})
		}
	}
	return out
}

// greatCircleLabelAt is where the circle crosses the silhouette, a quarter
// turn from the pole's projection. A pole facing the viewer puts the label to
// the right of the disc.
func greatCircleLabelAt(vp projection.Viewport, pole r3.Vector) geom.Coord {
	r := math.Hypot(pole.X, pole.Y)
	if r < 1e-5 {
		return geom.Coord{X: vp.Center.X + vp.Radius, Y: vp.Center.Y}
	}
	return vp.Project(r3.Vector{X: pole.Y / r, Y: -pole.X / r})
}

// depthAlpha dims what lies behind the sphere. The silhouette (z = 0) counts
// as front, matching the curve splitter.
func depthAlpha(v r3.Vector) float64 {
	if v.Z >= 0 {
		return 1
	}
	return 0.4
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// Render compiles and serializes the current view.
func (e *Engine) Render() string {
	out, _ := DrawCommandsToJSON(e.CompileDrawCommands())
	return out
}

// HitTest returns the ID of the front-facing point under the client position,
// or an empty string.
func (e *Engine) HitTest(x, y float64) string {
	pick, ok := e.pick(x, y)
	if !ok {
		return ""
	}
	return pick.Existing
}
