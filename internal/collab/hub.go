// Package collab runs live editing sessions over websockets. Every project
// with connected clients has one Room that owns the project's engine.
package collab

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/engine"
)

type registration struct {
	client *Client
	result chan error
}

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room // projectID -> room

	// members counts the clients of each room. Only the Run goroutine
	// touches it.
	members map[string]int

	load DocumentLoader
	save DocumentSaver
	opts engine.Options

	register   chan registration
	unregister chan *Client
	quit       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once
}

func NewHub(load DocumentLoader, save DocumentSaver, opts engine.Options) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		members:    make(map[string]int),
		load:       load,
		save:       save,
		opts:       opts,
		register:   make(chan registration),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case reg := <-h.register:
			reg.result <- h.addClient(reg.client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.quit:
			h.closeRooms()
			return
		}
	}
}

// Register adds client to its project's room, creating the room from the
// latest saved document if needed. When Register returns nil the client's
// welcome message is queued and later messages reach the room after it.
func (h *Hub) Register(ctx context.Context, client *Client) error {
	reg := registration{client: client, result: make(chan error, 1)}
	select {
	case h.register <- reg:
	case <-h.quit:
		return fmt.Errorf("hub stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-reg.result
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Stop closes every room, saving unsaved documents, and waits for Run to
// return.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
	<-h.stopped
}

func (h *Hub) addClient(client *Client) error {
	h.mu.RLock()
	room, ok := h.rooms[client.ProjectID]
	h.mu.RUnlock()

	if !ok {
		// Use a background context since this runs in the hub goroutine
		doc, err := h.load(context.Background(), client.ProjectID)
		if err != nil {
			return fmt.Errorf("load project %s: %w", client.ProjectID, err)
		}
		eng := engine.NewEngine(h.opts)
		if err := eng.Load(doc); err != nil {
			return fmt.Errorf("load project %s: %w", client.ProjectID, err)
		}

		room = NewRoom(client.ProjectID, eng, h.save)
		h.mu.Lock()
		h.rooms[client.ProjectID] = room
		h.mu.Unlock()
		slog.Info("room created", "project", client.ProjectID, "points", eng.Scene().Len())
	}

	if !room.deliver(event{kind: eventJoin, client: client}) {
		return fmt.Errorf("room %s closed", client.ProjectID)
	}
	h.members[client.ProjectID]++
	return nil
}

func (h *Hub) removeClient(client *Client) {
	h.mu.RLock()
	room, ok := h.rooms[client.ProjectID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.deliver(event{kind: eventLeave, client: client})
	h.members[client.ProjectID]--
	if h.members[client.ProjectID] > 0 {
		return
	}

	delete(h.members, client.ProjectID)
	h.mu.Lock()
	delete(h.rooms, client.ProjectID)
	h.mu.Unlock()
	room.Stop()
}

func (h *Hub) closeRooms() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]*Room)
	h.mu.Unlock()

	for id, room := range rooms {
		room.Stop()
		delete(h.members, id)
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	h.mu.RLock()
	room, ok := h.rooms[sender.ProjectID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	room.deliver(event{kind: eventMessage, client: sender, msg: msg})
}

// RoomCount returns the number of live rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
