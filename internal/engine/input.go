package engine

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jbeda/geom"
)

// CommandKind names a command on the wire.
type CommandKind string

const (
	KindPointerDown     CommandKind = "pointer.down"
	KindPointerMove     CommandKind = "pointer.move"
	KindPointerUp       CommandKind = "pointer.up"
	KindScroll          CommandKind = "scroll"
	KindKey             CommandKind = "key"
	KindSetEuler        CommandKind = "view.euler"
	KindSetZoom         CommandKind = "view.zoom"
	KindSetDisplay      CommandKind = "view.display"
	KindSetBounds       CommandKind = "view.bounds"
	KindSetPointFlag    CommandKind = "point.flag"
	KindRenamePoint     CommandKind = "point.rename"
	KindGroupSelected   CommandKind = "group.create"
	KindUngroupSelected CommandKind = "group.dissolve"
	KindClearSelection  CommandKind = "selection.clear"
	KindNewDocument     CommandKind = "document.new"
)

// Command is a single state change. Commands are applied by Engine.Apply.
type Command interface {
	Kind() CommandKind
}

type Button int

const (
	ButtonPrimary   Button = 0
	ButtonMiddle    Button = 1
	ButtonSecondary Button = 2
)

// PointerDown is a button press at client coordinates X, Y.
type PointerDown struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button Button  `json:"button"`
	Shift  bool    `json:"shift"`
}

// PointerMove drags the grabbed point or rotates the view.
type PointerMove struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Shift bool    `json:"shift"`
}

type PointerUp struct{}

// Scroll zooms by 1 - DeltaY/1000.
type Scroll struct {
	DeltaY float64 `json:"deltaY"`
}

// Key is a key press. Key holds the key name as reported by the browser,
// e.g. "Delete", "Escape", "Backspace" or a single character.
type Key struct {
	Key   string `json:"key"`
	Shift bool   `json:"shift"`
}

type SetEuler struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

type SetZoom struct {
	Zoom float64 `json:"zoom"`
}

// SetDisplay toggles overlays. Nil fields are left unchanged.
type SetDisplay struct {
	Grid   *bool `json:"grid,omitempty"`
	Hidden *bool `json:"hidden,omitempty"`
	Center *bool `json:"center,omitempty"`
}

// SetBounds is the client rectangle of the sphere's disc.
type SetBounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SetPointFlag sets one of "movable", "removable" or "hidden". Value is the
// raw form value and is parsed leniently.
type SetPointFlag struct {
	Point string `json:"point"`
	Flag  string `json:"flag"`
	Value string `json:"value"`
}

type RenamePoint struct {
	Point string `json:"point"`
	Name  string `json:"name"`
}

type GroupSelected struct{}
type UngroupSelected struct{}
type ClearSelection struct{}
type NewDocument struct{}

func (PointerDown) Kind() CommandKind     { return KindPointerDown }
func (PointerMove) Kind() CommandKind     { return KindPointerMove }
func (PointerUp) Kind() CommandKind       { return KindPointerUp }
func (Scroll) Kind() CommandKind          { return KindScroll }
func (Key) Kind() CommandKind             { return KindKey }
func (SetEuler) Kind() CommandKind        { return KindSetEuler }
func (SetZoom) Kind() CommandKind         { return KindSetZoom }
func (SetDisplay) Kind() CommandKind      { return KindSetDisplay }
func (SetBounds) Kind() CommandKind       { return KindSetBounds }
func (SetPointFlag) Kind() CommandKind    { return KindSetPointFlag }
func (RenamePoint) Kind() CommandKind     { return KindRenamePoint }
func (GroupSelected) Kind() CommandKind   { return KindGroupSelected }
func (UngroupSelected) Kind() CommandKind { return KindUngroupSelected }
func (ClearSelection) Kind() CommandKind  { return KindClearSelection }
func (NewDocument) Kind() CommandKind     { return KindNewDocument }

// DecodeCommand decodes {"kind": "...", ...fields}.
func DecodeCommand(data []byte) (Command, error) {
	var head struct {
		Kind CommandKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}

	switch head.Kind {
	case KindPointerDown:
		return decodeAs[PointerDown](data)
	case KindPointerMove:
		return decodeAs[PointerMove](data)
	case KindPointerUp:
		return PointerUp{}, nil
	case KindScroll:
		return decodeAs[Scroll](data)
	case KindKey:
		return decodeAs[Key](data)
	case KindSetEuler:
		return decodeAs[SetEuler](data)
	case KindSetZoom:
		return decodeAs[SetZoom](data)
	case KindSetDisplay:
		return decodeAs[SetDisplay](data)
	case KindSetBounds:
		return decodeAs[SetBounds](data)
	case KindSetPointFlag:
		return decodeAs[SetPointFlag](data)
	case KindRenamePoint:
		return decodeAs[RenamePoint](data)
	case KindGroupSelected:
		return GroupSelected{}, nil
	case KindUngroupSelected:
		return UngroupSelected{}, nil
	case KindClearSelection:
		return ClearSelection{}, nil
	case KindNewDocument:
		return NewDocument{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, head.Kind)
}

func decodeAs[T Command](data []byte) (Command, error) {
	var cmd T
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("decode %s: %w", cmd.Kind(), err)
	}
	return cmd, nil
}

// Apply runs one command to completion. When it returns, every derived field
// reflects the new state.
func (e *Engine) Apply(cmd Command) error {
	switch c := cmd.(type) {
	case PointerDown:
		return e.pointerDown(c)
	case PointerMove:
		e.pointerMove(c)
	case PointerUp:
		e.dragged = ""
		e.rotating = false
	case Scroll:
		e.SetZoom(e.zoom * (1 - c.DeltaY*0.001))
	case Key:
		return e.pressKey(c)
	case SetEuler:
		e.SetEuler(c.Yaw, c.Pitch, c.Roll)
	case SetZoom:
		e.SetZoom(c.Zoom)
	case SetDisplay:
		e.setDisplay(c)
	case SetBounds:
		e.SetBounds(c.rect())
	case SetPointFlag:
		return e.setPointFlag(c)
	case RenamePoint:
		return e.renamePoint(c)
	case GroupSelected:
		_, err := e.scene.GroupSelected()
		return err
	case UngroupSelected:
		e.scene.UngroupSelected()
	case ClearSelection:
		e.scene.ClearSelection()
	case NewDocument:
		e.NewDocument()
	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
	return nil
}

func (c SetBounds) rect() geom.Rect {
	return geom.Rect{
		Min: geom.Coord{X: c.Left, Y: c.Top},
		Max: geom.Coord{X: c.Left + c.Width, Y: c.Top + c.Height},
	}
}

func (e *Engine) setDisplay(c SetDisplay) {
	if c.Grid != nil {
		e.showGrid = *c.Grid
	}
	if c.Hidden != nil {
		e.showHidden = *c.Hidden
	}
	if c.Center != nil {
		e.showCenter = *c.Center
	}
}

func (e *Engine) setPointFlag(c SetPointFlag) error {
	p, ok := e.scene.Point(c.Point)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPoint, c.Point)
	}
	v, err := ParseFlag(c.Value)
	if err != nil {
		return err
	}
	switch c.Flag {
	case "movable":
		p.Movable = v
	case "removable":
		p.Removable = v
	case "hidden":
		p.Hidden = v
	default:
		return fmt.Errorf("%w: unknown flag %q", ErrInvalidFlag, c.Flag)
	}
	return nil
}

// ParseFlag reads a checkbox value. It accepts the strconv.ParseBool forms
// plus "on"/"off" and the empty string (false).
func ParseFlag(s string) (bool, error) {
	switch s {
	case "":
		return false, nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: value %q", ErrInvalidFlag, s)
	}
	return v, nil
}

func (e *Engine) renamePoint(c RenamePoint) error {
	p, ok := e.scene.Point(c.Point)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPoint, c.Point)
	}
	p.Name = c.Name
	return nil
}
