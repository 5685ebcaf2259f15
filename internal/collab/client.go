package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/engine"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
	sendBuffer = 256
)

// Client is one websocket connection joined to a project room. The room
// goroutine is the only writer to send and the only one that closes it.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	DisplayName string
	ProjectID   string
	ClientID    string

	// bounds is the client's disc rectangle. Only the room goroutine
	// touches it.
	bounds *engine.SetBounds
}

func NewClient(hub *Hub, conn *websocket.Conn, displayName, projectID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		DisplayName: displayName,
		ProjectID:   projectID,
		ClientID:    clientID,
	}
}

// ReadPump forwards decoded frames to the client's room until the connection
// fails or closes, then unregisters the client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				slog.Debug("read error", "error", err, "client", c.ClientID)
			}
			return
		}
		c.hub.handleMessage(c, c.decode(data))
	}
}

// decode parses a frame and stamps it with the connection's identity. A frame
// that is not a message becomes an error reply for the sender.
func (c *Client) decode(data []byte) *Message {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("invalid message", "error", err, "client", c.ClientID)
		return newMessage(typeMalformed, 0, ErrorPayload{
			Message: fmt.Sprintf("malformed message: %v", err),
		})
	}
	msg.ClientID = c.ClientID
	msg.ProjectID = c.ProjectID
	return &msg
}

// WritePump drains send onto the connection and keeps it alive with pings.
// It returns when send is closed by the room or a write fails.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var err error
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			err = c.write(ctx, func(ctx context.Context) error {
				return c.conn.Write(ctx, websocket.MessageText, data)
			})
		case <-ticker.C:
			err = c.write(ctx, c.conn.Ping)
		case <-ctx.Done():
			return
		}
		if err != nil {
			slog.Debug("write error", "error", err, "client", c.ClientID)
			return
		}
	}
}

func (c *Client) write(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return fn(ctx)
}

// Send queues msg for the write pump. A client that cannot keep up loses
// messages rather than stalling its room.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "type", msg.Type, "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		slog.Warn("send buffer full, dropping message", "type", msg.Type, "client", c.ClientID)
	}
}
