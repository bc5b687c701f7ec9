package network

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/LockerGrid/server/internal/domain/locker"
	"github.com/MRamiBalles/LockerGrid/server/internal/grid"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Inbound command types.
const (
	CommandCreateGrid     = "CREATE_GRID"
	CommandSetLockerState = "SET_LOCKER_STATE"
	CommandSetRowState    = "SET_ROW_STATE"
)

// Command represents an incoming request from a view.
type Command struct {
	Type     string `json:"type"`
	Rows     int    `json:"rows,omitempty"`
	Columns  int    `json:"columns,omitempty"`
	LockerID int    `json:"locker_id,omitempty"`
	Row      int    `json:"row,omitempty"`
	State    string `json:"state,omitempty"`
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	actorID string
	// send is owned by the hub, which closes it on unregister.
	send chan []byte
	// replies carries per-client error messages; never closed.
	replies chan []byte
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn, actorID string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		actorID: actorID,
		send:    make(chan []byte, hub.tuning.ClientSendBuffer),
		replies: make(chan []byte, 8),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		close(c.send)
	}
}

func (c *Client) unregister() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.done:
	}
}

// enqueue is called from the hub loop only.
func (c *Client) enqueue(message []byte) {
	select {
	case c.send <- message:
		c.hub.metrics.RecordWSMessage(false)
	default:
		c.hub.logger.Warn("client send buffer full, dropping message", "actor", c.actorID)
	}
}

// ReadPump pumps commands from the websocket connection to the grid manager.
func (c *Client) ReadPump() {
	defer func() {
		c.unregister()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(c.hub.tuning.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("unexpected websocket close", "actor", c.actorID, "error", err)
				c.hub.metrics.RecordWSError()
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Warn("Failed to parse Command from WebSocket", "actor", c.actorID, "error", err)
			c.reply(fmt.Errorf("malformed command: %w", err))
			continue
		}

		if err := c.handleCommand(cmd); err != nil {
			c.reply(err)
		}
	}
}

func (c *Client) handleCommand(cmd Command) error {
	ctx := grid.WithActor(context.Background(), c.actorID)
	m := c.hub.manager

	switch cmd.Type {
	case CommandCreateGrid:
		_, err := m.CreateGrid(ctx, cmd.Rows, cmd.Columns)
		return err
	case CommandSetLockerState:
		state, err := locker.ParseState(cmd.State)
		if err != nil {
			return err
		}
		_, err = m.SetLockerState(ctx, cmd.LockerID, state)
		return err
	case CommandSetRowState:
		state, err := locker.ParseState(cmd.State)
		if err != nil {
			return err
		}
		_, err = m.SetRowState(ctx, cmd.Row, state)
		return err
	default:
		c.hub.logger.Warn("Unknown Command type", "type", cmd.Type, "actor", c.actorID)
		return fmt.Errorf("unknown command type %q", cmd.Type)
	}
}

func (c *Client) reply(err error) {
	payload, _ := json.Marshal(Message{Type: MessageError, Error: err.Error()})
	select {
	case c.replies <- payload:
	default:
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case message := <-c.replies:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
