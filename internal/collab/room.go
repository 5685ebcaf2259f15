package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/engine"
)

const saveTimeout = 10 * time.Second

// DocumentLoader returns the document a new room starts from.
type DocumentLoader func(ctx context.Context, projectID string) (*document.Document, error)

// DocumentSaver persists a room's document.
type DocumentSaver func(ctx context.Context, projectID string, doc *document.Document) error

type eventKind int

const (
	eventJoin eventKind = iota
	eventLeave
	eventMessage
)

type event struct {
	kind   eventKind
	client *Client
	msg    *Message
}

// Room is a live session on one project. The engine, the client set and the
// presence table are owned by the goroutine started in NewRoom; everything
// else talks to it through events, so commands are applied one at a time in
// arrival order.
type Room struct {
	projectID string
	engine    *engine.Engine
	save      DocumentSaver

	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
	serverSeq int64
	dirty     bool

	events chan event
	stop   chan struct{}
	done   chan struct{}
}

func NewRoom(projectID string, eng *engine.Engine, save DocumentSaver) *Room {
	r := &Room{
		projectID: projectID,
		engine:    eng,
		save:      save,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(eng.CursorTarget),
		events:    make(chan event, 64),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go r.run()
	return r
}

// deliver hands ev to the room goroutine. It reports false once the room has
// stopped.
func (r *Room) deliver(ev event) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.done:
		return false
	}
}

// Stop saves unsaved changes, disconnects the remaining clients and waits for
// the room goroutine to exit. Events already queued are applied first.
func (r *Room) Stop() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
	<-r.done
}

func (r *Room) run() {
	defer close(r.done)
	for {
		select {
		case ev := <-r.events:
			r.handle(ev)
		case <-r.stop:
			for {
				select {
				case ev := <-r.events:
					r.handle(ev)
				default:
					r.shutdown()
					return
				}
			}
		}
	}
}

func (r *Room) handle(ev event) {
	switch ev.kind {
	case eventJoin:
		r.join(ev.client)
	case eventLeave:
		r.leave(ev.client)
	case eventMessage:
		r.handleMessage(ev.client, ev.msg)
	}
}

func (r *Room) shutdown() {
	if r.dirty {
		r.persist()
	}
	for id, c := range r.clients {
		close(c.send)
		delete(r.clients, id)
	}
	slog.Info("room closed", "project", r.projectID)
}

func (r *Room) join(c *Client) {
	r.clients[c.ClientID] = c

	doc, err := r.engine.GetDocument()
	if err != nil {
		slog.Error("welcome document", "project", r.projectID, "error", err)
	}
	c.Send(newMessage(TypeWelcome, 0, WelcomePayload{
		ClientID:  c.ClientID,
		ServerSeq: r.serverSeq,
		Document:  json.RawMessage(doc),
		Render:    r.engine.CompileDrawCommands(),
		State:     r.engine.State(),
	}))

	// Send current presence state to new client
	if stateMsg := r.presence.StateMessage(); stateMsg != nil {
		c.Send(stateMsg)
	}

	r.broadcast(newMessage(TypePresenceJoin, 0, PresenceJoinPayload{
		ClientID:    c.ClientID,
		DisplayName: c.DisplayName,
	}), c.ClientID)

	slog.Info("client joined", "client", c.ClientID, "project", r.projectID)
}

func (r *Room) leave(c *Client) {
	if _, ok := r.clients[c.ClientID]; !ok {
		return
	}
	delete(r.clients, c.ClientID)
	close(c.send)
	r.presence.Remove(c.ClientID)

	r.broadcast(newMessage(TypePresenceLeave, 0, PresenceLeavePayload{ClientID: c.ClientID}), "")

	slog.Info("client left", "client", c.ClientID, "project", r.projectID)
}

func (r *Room) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeCommand:
		r.handleCommand(sender, msg)
	case TypeSave:
		r.handleSave(sender, msg)
	case TypePresenceUpdate:
		r.handlePresenceUpdate(sender, msg)
	case typeMalformed:
		sender.Send(&Message{Type: TypeError, Payload: msg.Payload})
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		sender.Send(newMessage(TypeError, msg.Seq, ErrorPayload{Message: "unknown message type " + msg.Type}))
	}
}

func (r *Room) handleCommand(sender *Client, msg *Message) {
	cmd, err := engine.DecodeCommand(msg.Payload)
	if err != nil {
		sender.Send(newMessage(TypeNack, msg.Seq, NackPayload{ClientSeq: msg.Seq, Reason: err.Error()}))
		return
	}

	// Each client maps pointer positions through its own disc rectangle.
	if b, ok := cmd.(engine.SetBounds); ok {
		sender.bounds = &b
		sender.Send(newMessage(TypeAck, msg.Seq, AckPayload{ClientSeq: msg.Seq, ServerSeq: r.serverSeq}))
		return
	}
	if isPointer(cmd.Kind()) {
		bounds := engine.SetBounds{Left: -1, Top: -1, Width: 2, Height: 2}
		if sender.bounds != nil {
			bounds = *sender.bounds
		}
		r.engine.Apply(bounds)
	}

	if err := r.engine.Apply(cmd); err != nil {
		sender.Send(newMessage(TypeNack, msg.Seq, NackPayload{ClientSeq: msg.Seq, Reason: err.Error()}))
		return
	}

	r.serverSeq++
	if changesDocument(cmd.Kind()) {
		r.dirty = true
	}

	sender.Send(newMessage(TypeAck, msg.Seq, AckPayload{ClientSeq: msg.Seq, ServerSeq: r.serverSeq}))
	r.broadcast(newMessage(TypeRender, 0, RenderPayload{
		ServerSeq: r.serverSeq,
		Commands:  r.engine.CompileDrawCommands(),
	}), "")
	r.broadcast(newMessage(TypeState, 0, StatePayload{
		ServerSeq: r.serverSeq,
		State:     r.engine.State(),
	}), "")
}

func (r *Room) handleSave(sender *Client, msg *Message) {
	if err := r.persist(); err != nil {
		sender.Send(newMessage(TypeError, msg.Seq, ErrorPayload{Message: "save failed"}))
		return
	}
	r.broadcast(newMessage(TypeSaved, 0, SavedPayload{ServerSeq: r.serverSeq}), "")
}

func (r *Room) persist() error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := r.save(ctx, r.projectID, r.engine.Document()); err != nil {
		slog.Error("save document", "project", r.projectID, "error", err)
		return err
	}
	r.dirty = false
	return nil
}

func (r *Room) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}
	presence.DisplayName = sender.DisplayName
	stored := r.presence.Update(sender.ClientID, presence)

	out := newMessage(TypePresenceUpdate, 0, stored)
	out.ClientID = sender.ClientID
	r.broadcast(out, sender.ClientID)
}

func (r *Room) broadcast(msg *Message, excludeClientID string) {
	for id, c := range r.clients {
		if id != excludeClientID {
			c.Send(msg)
		}
	}
}

func newMessage(typ string, seq int64, payload interface{}) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal payload", "type", typ, "error", err)
		data = []byte("null")
	}
	return &Message{Type: typ, Seq: seq, Payload: data}
}

func isPointer(k engine.CommandKind) bool {
	switch k {
	case engine.KindPointerDown, engine.KindPointerMove, engine.KindPointerUp:
		return true
	}
	return false
}

// changesDocument reports whether a command can alter what is saved. View
// commands only change the orientation, zoom or display flags.
func changesDocument(k engine.CommandKind) bool {
	switch k {
	case engine.KindScroll, engine.KindSetEuler, engine.KindSetZoom,
		engine.KindSetDisplay, engine.KindSetBounds, engine.KindClearSelection:
		return false
	}
	return true
}
