package collab

import (
	"github.com/golang/geo/r3"
)

// CursorResolver maps a unit-disc cursor to the sphere point under it and the
// point it hovers. engine.Engine.CursorTarget satisfies it.
type CursorResolver func(x, y float64) (r3.Vector, string, bool)

// PresenceManager tracks the cursor of every client in a room. It is owned by
// the room goroutine.
type PresenceManager struct {
	cursors map[string]*PresencePayload // clientID -> presence
	resolve CursorResolver
}

func NewPresenceManager(resolve CursorResolver) *PresenceManager {
	return &PresenceManager{
		cursors: make(map[string]*PresencePayload),
		resolve: resolve,
	}
}

// Update records p for clientID and returns the stored copy with the sphere
// position and hovered point filled in.
func (pm *PresenceManager) Update(clientID string, p PresencePayload) *PresencePayload {
	p.Sphere, p.Hover = nil, ""
	if p.Cursor != nil && pm.resolve != nil {
		if v, hover, ok := pm.resolve(p.Cursor.X, p.Cursor.Y); ok {
			p.Sphere = &[3]float64{v.X, v.Y, v.Z}
			p.Hover = hover
		}
	}
	pm.cursors[clientID] = &p
	return &p
}

func (pm *PresenceManager) Remove(clientID string) {
	delete(pm.cursors, clientID)
}

// StateMessage lists every known cursor, or returns nil when there are none.
func (pm *PresenceManager) StateMessage() *Message {
	if len(pm.cursors) == 0 {
		return nil
	}
	all := make(map[string]*PresencePayload, len(pm.cursors))
	for id, p := range pm.cursors {
		all[id] = p
	}
	return newMessage(TypePresenceState, 0, PresenceStatePayload{Presences: all})
}
