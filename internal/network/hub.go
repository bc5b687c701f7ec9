package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/MRamiBalles/LockerGrid/server/internal/domain/locker"
	"github.com/MRamiBalles/LockerGrid/server/internal/events"
	"github.com/MRamiBalles/LockerGrid/server/internal/grid"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/config"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/logger"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/metrics"
)

// Outbound message types.
const (
	MessageGridUpdated = "GRID_UPDATED"
	MessageEvent       = "EVENT"
	MessageError       = "ERROR"
)

// Message is what the hub pushes to clients.
type Message struct {
	Type    string            `json:"type"`
	Grid    *locker.Grid      `json:"grid,omitempty"`
	Summary *locker.Summary   `json:"summary,omitempty"`
	Event   *events.GridEvent `json:"event,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	logger     *logger.Logger
	manager    *grid.Manager
	metrics    *metrics.Collector
	tuning     config.Tuning
}

// NewHub initializes a new WebSocket Hub serving the manager's grid.
func NewHub(manager *grid.Manager, log *logger.Logger, tuning config.Tuning) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, tuning.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     log.Named("hub"),
		manager:    manager,
		metrics:    metrics.Get(),
		tuning:     tuning,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down")
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.tuning.MaxClients > 0 && len(h.clients) >= h.tuning.MaxClients {
				h.mu.Unlock()
				h.logger.Warn("rejecting client, hub is full", "clients", h.tuning.MaxClients)
				close(client.send)
				continue
			}
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected", "actor", client.actorID)
			if snapshot, ok := h.gridMessage(); ok {
				client.enqueue(snapshot)
			}
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected", "actor", client.actorID)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					close(client.send)
					delete(h.clients, client)
					h.metrics.RecordWSConnection(-1)
					h.metrics.RecordWSError()
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) gridMessage() ([]byte, bool) {
	g := h.manager.Current()
	if g == nil {
		return nil, false
	}
	summary := locker.Summarize(g)
	payload, err := json.Marshal(Message{Type: MessageGridUpdated, Grid: g, Summary: &summary})
	if err != nil {
		h.logger.Error("Failed to serialize grid for WebSocket broadcast", "error", err)
		return nil, false
	}
	return payload, true
}

func (h *Hub) send(payload []byte) {
	select {
	case h.broadcast <- payload:
	case <-h.done:
	}
}

// BroadcastGrid sends the current grid to all connected clients.
func (h *Hub) BroadcastGrid() {
	if payload, ok := h.gridMessage(); ok {
		h.send(payload)
	}
}

// BroadcastEvent serializes a GridEvent and sends it to all connected clients.
func (h *Hub) BroadcastEvent(event events.GridEvent) {
	payload, err := json.Marshal(Message{Type: MessageEvent, Event: &event})
	if err != nil {
		h.logger.Error("Failed to serialize GridEvent for WebSocket broadcast", "error", err)
		return
	}
	h.send(payload)
}

// StartEventPoller spawns a goroutine that polls the EventLog and pushes new
// events, followed by the resulting grid, to the Hub. Commands arriving
// over HTTP and over WebSocket reach clients the same way.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog) {
	go func() {
		pollInterval := time.NewTicker(h.tuning.EventPollInterval)
		defer pollInterval.Stop()

		lastProcessedEvent := eventLog.Len()

		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				newEvents, next := eventLog.Tail(lastProcessedEvent)
				lastProcessedEvent = next
				if len(newEvents) == 0 {
					continue
				}
				for _, event := range newEvents {
					h.BroadcastEvent(event)
				}
				h.BroadcastGrid()
			}
		}
	}()
}
