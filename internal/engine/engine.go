package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/jbeda/geom"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/sphere"
)

var (
	ErrNotRemovable   = errors.New("point is not removable")
	ErrUnknownPoint   = errors.New("unknown point")
	ErrInvalidFlag    = errors.New("invalid point flag")
	ErrUnknownCommand = errors.New("unknown command")
)

const (
	MinZoom = 0.5
	MaxZoom = 2.0
)

// Options tunes interaction. Zero fields take the defaults.
type Options struct {
	SnapThreshold     float64
	PickThreshold     float64
	RotateSensitivity float64
}

func DefaultOptions() Options {
	return Options{
		SnapThreshold:     0.05,
		PickThreshold:     0.002,
		RotateSensitivity: 0.005,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SnapThreshold > 0 {
		d.SnapThreshold = o.SnapThreshold
	}
	if o.PickThreshold > 0 {
		d.PickThreshold = o.PickThreshold
	}
	if o.RotateSensitivity > 0 {
		d.RotateSensitivity = o.RotateSensitivity
	}
	return d
}

// Engine owns the scene and the view. All mutation goes through Apply, one
// command at a time; callers that share an engine must serialise access.
type Engine struct {
	scene *Scene
	opts  Options

	// View state
	rotation sphere.Rotation
	euler    sphere.Euler
	zoom     float64

	showGrid   bool
	showHidden bool
	showCenter bool

	// Client rectangle of the sphere's disc, used to map pointer positions.
	bounds geom.Rect

	// Pointer state
	dragged    string
	rotating   bool
	lastRotate geom.Coord
}

// NewEngine creates an engine with an empty scene.
func NewEngine(opts Options) *Engine {
	return &Engine{
		scene:    NewScene(),
		opts:     opts.withDefaults(),
		rotation: sphere.Identity(),
		zoom:     1,
		bounds:   geom.Rect{Min: geom.Coord{X: -1, Y: -1}, Max: geom.Coord{X: 1, Y: 1}},
	}
}

// --- Commands (frontend → backend) ---

// LoadDocument replaces the scene with a persisted document. The orientation
// resets to identity and the selection is cleared. On error nothing changes.
func (e *Engine) LoadDocument(data []byte) error {
	doc, err := document.Parse(data)
	if err != nil {
		return err
	}
	e.load(doc)
	return nil
}

// Load replaces the scene with an already decoded document.
func (e *Engine) Load(doc *document.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	e.load(doc)
	return nil
}

// LoadSampleDocument loads the built-in sample.
func (e *Engine) LoadSampleDocument() {
	e.load(document.NewSampleDocument())
}

func (e *Engine) load(doc *document.Document) {
	e.rotation = sphere.Identity()
	e.euler = sphere.Euler{}
	e.scene = SceneFromDocument(doc, e.rotation)
	e.dragged = ""
	e.rotating = false
}

// NewDocument clears everything and resets the view.
func (e *Engine) NewDocument() {
	e.load(document.NewEmptyDocument())
	e.zoom = 1
}

// SetRotation replaces the orientation and re-derives every point.
func (e *Engine) SetRotation(rot sphere.Rotation) {
	e.rotation = rot
	e.euler = rot.EulerDegrees()
	e.scene.Rotate(rot)
}

// SetEuler sets the orientation from yaw, pitch and roll in degrees.
func (e *Engine) SetEuler(yaw, pitch, roll float64) {
	e.rotation = sphere.FromEuler(yaw, pitch, roll)
	e.euler = sphere.Euler{Yaw: yaw, Pitch: pitch, Roll: roll}
	e.scene.Rotate(e.rotation)
}

// SetZoom clamps z into [MinZoom, MaxZoom].
func (e *Engine) SetZoom(z float64) {
	if math.IsNaN(z) {
		return
	}
	e.zoom = math.Max(MinZoom, math.Min(MaxZoom, z))
}

// SetBounds records where the sphere's disc is drawn in client coordinates.
func (e *Engine) SetBounds(r geom.Rect) {
	if r.Width() > 0 && r.Height() > 0 {
		e.bounds = r
	}
}

// --- Queries (frontend ← backend) ---

func (e *Engine) Scene() *Scene { return e.scene }
func (e *Engine) Rotation() sphere.Rotation { return e.rotation }
func (e *Engine) Euler() sphere.Euler { return e.euler }
func (e *Engine) Zoom() float64 { return e.zoom }
func (e *Engine) ShowGrid() bool { return e.showGrid }
func (e *Engine) Document() *document.Document { return e.scene.Document() }

// ViewBox returns the zoomed view box (x, y, width, height) of the 100x100
// interactive canvas.
func (e *Engine) ViewBox() [4]float64 {
	size := 100 / e.zoom
	origin := 50 - 50/e.zoom
	return [4]float64{origin, origin, size, size}
}

// State is the view state reported to clients.
type State struct {
	Euler      sphere.Euler `json:"euler"`
	Quaternion [4]float64   `json:"quaternion"`
	Zoom       float64      `json:"zoom"`
	ViewBox    [4]float64   `json:"viewBox"`
	ShowGrid   bool         `json:"showGrid"`
	ShowHidden bool         `json:"showHidden"`
	ShowCenter bool         `json:"showCenter"`
	Selection  []string     `json:"selection"`
	Dragging   string       `json:"dragging,omitempty"`
	Rotating   bool         `json:"rotating"`
}

func (e *Engine) State() State {
	w, x, y, z := e.rotation.Components()
	sel := e.scene.Selected()
	if sel == nil {
		sel = []string{}
	}
	return State{
		Euler:      e.euler,
		Quaternion: [4]float64{w, x, y, z},
		Zoom:       e.zoom,
		ViewBox:    e.ViewBox(),
		ShowGrid:   e.showGrid,
		ShowHidden: e.showHidden,
		ShowCenter: e.showCenter,
		Selection:  sel,
		Dragging:   e.dragged,
		Rotating:   e.rotating,
	}
}

// GetState returns State as JSON.
func (e *Engine) GetState() string {
	data, _ := json.Marshal(e.State())
	return string(data)
}

// GetSelection returns the selected point IDs as JSON.
func (e *Engine) GetSelection() string {
	data, _ := json.Marshal(e.State().Selection)
	return string(data)
}

// GetDocument returns the persisted form of the scene as JSON.
func (e *Engine) GetDocument() (string, error) {
	data, err := e.scene.Document().Marshal()
	if err != nil {
		return "{}", fmt.Errorf("marshal document: %w", err)
	}
	return string(data), nil
}

// PointInfo describes a single point.
type PointInfo struct {
	ID        string       `json:"id"`
	Index     int          `json:"index"`
	Name      string       `json:"name"`
	Absolute  [3]float64   `json:"absolute"`
	Rotated   [3]float64   `json:"rotated"`
	AbsPolar  sphere.Polar `json:"absPolar"`
	RotPolar  sphere.Polar `json:"rotPolar"`
	Movable   bool         `json:"movable"`
	Removable bool         `json:"removable"`
	Hidden    bool         `json:"hidden"`
	Group     string       `json:"group,omitempty"`
}

func (e *Engine) PointInfo(id string) (PointInfo, bool) {
	p, ok := e.scene.Point(id)
	if !ok {
		return PointInfo{}, false
	}
	i, _ := e.scene.Index(id)
	info := PointInfo{
		ID:        p.ID,
		Index:     i,
		Name:      p.Name,
		Absolute:  [3]float64{p.Absolute.X, p.Absolute.Y, p.Absolute.Z},
		Rotated:   [3]float64{p.Rotated.X, p.Rotated.Y, p.Rotated.Z},
		AbsPolar:  p.AbsPolar,
		RotPolar:  p.RotPolar,
		Movable:   p.Movable,
		Removable: p.Removable,
		Hidden:    p.Hidden,
	}
	if g := e.scene.GroupOf(id); g != nil {
		info.Group = g.ID
	}
	return info, true
}
