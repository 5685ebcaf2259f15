package engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/sphere"
)

// pressKey dispatches a key over the selection, most recently selected
// point first. Construction keys act on the selection as a whole and run at
// most once.
func (e *Engine) pressKey(k Key) error {
	sel := e.scene.Selected()
	for j := len(sel) - 1; j >= 0; j-- {
		id := sel[j]
		switch {
		case k.Key == "Delete":
			if !e.scene.mustPoint(id).Removable {
				return fmt.Errorf("%w: %s", ErrNotRemovable, id)
			}
			e.scene.Remove(id)
			if e.dragged == id {
				e.dragged = ""
			}
		case k.Key == "Escape":
			e.scene.ClearSelection()
			return nil
		case k.Key == "Backspace":
			e.backspace(id, k.Shift)
		case k.Key == ".":
			e.scene.ToggleGreatCircle(id)
		case k.Key == ">" && k.Shift:
			e.greatCircleThroughPair(sel)
			return nil
		case k.Key == ",":
			e.smallCircleThroughTriple(sel)
			return nil
		case k.Key == "<":
			e.smallCircleAboutPair(sel)
			return nil
		case k.Key == "/":
			inv := e.scene.mustPoint(id).Inverted(e.scene.newID())
			e.scene.Add(inv)
		case utf8.RuneCountInString(k.Key) == 1:
			e.typeChar(id, k.Key, k.Shift)
		}
	}
	return nil
}

// greatCircleThroughPair adds the great circle through the two selected
// points, or removes an existing great circle with the same axis.
func (e *Engine) greatCircleThroughPair(sel []string) {
	if len(sel) != 2 {
		return
	}
	a := e.scene.mustPoint(sel[0]).Absolute
	b := e.scene.mustPoint(sel[1]).Absolute
	pole := sphere.PoleThrough(a, b)

	if existing, ok := e.scene.greatCirclePoleAlong(pole); ok {
		e.scene.RemoveGreatCircle(existing)
		return
	}
	p := e.scene.AddAbsolute(pole, e.rotation)
	e.scene.AddGreatCircle(p.ID)
}

// smallCircleThroughTriple adds the small circle through the three selected
// points, or removes an existing small circle with the same axis. Collinear
// selections are ignored.
func (e *Engine) smallCircleThroughTriple(sel []string) {
	if len(sel) != 3 {
		return
	}
	pole, d, ok := sphere.PlaneThrough(
		e.scene.mustPoint(sel[0]).Absolute,
		e.scene.mustPoint(sel[1]).Absolute,
		e.scene.mustPoint(sel[2]).Absolute,
	)
	if !ok {
		return
	}
	if existing, ok := e.scene.smallCirclePoleAlong(pole); ok {
		e.scene.RemoveSmallCircle(existing)
		return
	}
	p := e.scene.AddAbsolute(pole, e.rotation)
	e.scene.AddSmallCircle(p.ID, d)
}

// smallCircleAboutPair toggles the small circle about the first selected
// point passing through the second.
func (e *Engine) smallCircleAboutPair(sel []string) {
	if len(sel) != 2 {
		return
	}
	pole := sel[0]
	if e.scene.SmallCircleWithPole(pole) != nil {
		e.scene.RemoveSmallCircle(pole)
		return
	}
	d := e.scene.mustPoint(pole).Absolute.Dot(e.scene.mustPoint(sel[1]).Absolute)
	e.scene.AddSmallCircle(pole, d)
}

// typeChar appends c to the point's name. With shift, a point that is the
// pole of a circle names the circle instead, with the letter case inverted.
func (e *Engine) typeChar(id, c string, shift bool) {
	if shift {
		if gc := e.scene.GreatCircleWithPole(id); gc != nil {
			gc.Name += toggleCase(c)
			return
		}
		if sc := e.scene.SmallCircleWithPole(id); sc != nil {
			sc.Name += toggleCase(c)
			return
		}
	}
	p := e.scene.mustPoint(id)
	p.Name += c
}

func (e *Engine) backspace(id string, shift bool) {
	if shift {
		if gc := e.scene.GreatCircleWithPole(id); gc != nil {
			gc.Name = dropLastRune(gc.Name)
			return
		}
		if sc := e.scene.SmallCircleWithPole(id); sc != nil {
			sc.Name = dropLastRune(sc.Name)
			return
		}
	}
	p := e.scene.mustPoint(id)
	p.Name = dropLastRune(p.Name)
}

func toggleCase(c string) string {
	if up := strings.ToUpper(c); up != c {
		return up
	}
	return strings.ToLower(c)
}

func dropLastRune(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeLastRuneInString(s)
	return s[:len(s)-size]
}
