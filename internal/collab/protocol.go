package collab

import (
	"encoding/json"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/engine"
)

type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Commands: the payload of TypeCommand is an engine wire command,
	// {"kind": "...", ...fields}.
	TypeCommand = "command"
	TypeAck     = "ack"
	TypeNack    = "nack"

	// Broadcast after every applied command
	TypeRender = "render"
	TypeState  = "state"

	// Persistence
	TypeSave  = "save"
	TypeSaved = "saved"

	// typeMalformed marks a frame the read pump could not decode. It never
	// goes on the wire; the room answers it with TypeError.
	typeMalformed = "malformed"
)

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`

	// Filled in by the server from Cursor. Sphere is the object-space point
	// under the cursor, so it stays put when the view rotates.
	Sphere *[3]float64 `json:"sphere,omitempty"`
	Hover  string      `json:"hover,omitempty"`
}

// CursorPos is a pointer position in the unit disc of the sender's view.
type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

// WelcomePayload is the full session state sent to a client when it joins.
type WelcomePayload struct {
	ClientID  string               `json:"clientId"`
	ServerSeq int64                `json:"serverSeq"`
	Document  json.RawMessage      `json:"document"`
	Render    []engine.DrawCommand `json:"render"`
	State     engine.State         `json:"state"`
}

// AckPayload confirms that the command with the client's Seq was applied.
type AckPayload struct {
	ClientSeq int64 `json:"clientSeq"`
	ServerSeq int64 `json:"serverSeq"`
}

// NackPayload reports a rejected command. Nothing changed.
type NackPayload struct {
	ClientSeq int64  `json:"clientSeq"`
	Reason    string `json:"reason"`
}

type RenderPayload struct {
	ServerSeq int64                `json:"serverSeq"`
	Commands  []engine.DrawCommand `json:"commands"`
}

type StatePayload struct {
	ServerSeq int64        `json:"serverSeq"`
	State     engine.State `json:"state"`
}

type SavedPayload struct {
	ServerSeq int64 `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
