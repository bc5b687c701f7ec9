package network

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/LockerGrid/server/internal/domain/locker"
	"github.com/MRamiBalles/LockerGrid/server/internal/events"
	"github.com/MRamiBalles/LockerGrid/server/internal/grid"
	"github.com/MRamiBalles/LockerGrid/server/internal/infra/storage"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/config"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/logger"
)

type liveServer struct {
	manager *grid.Manager
	hub     *Hub
	server  *httptest.Server
}

func startLiveServer(t *testing.T) *liveServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tuning := config.DefaultTuning()
	tuning.EventPollInterval = 10 * time.Millisecond

	el := events.NewEventLog(nil)
	m := grid.NewManager(storage.NewMemoryStore(), storage.DefaultKey, el, nil)
	hub := NewHub(m, logger.Discard(), tuning)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, el)

	api := &API{Manager: m, Hub: hub, EventLog: el}
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return &liveServer{manager: m, hub: hub, server: srv}
}

func (s *liveServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws?actor=ws-test"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (s *liveServer) waitForClients(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for s.hub.ClientCount() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d clients", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// readUntil reads messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", msgType, err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestCommandsOverWebSocket(t *testing.T) {
	s := startLiveServer(t)
	conn := s.dial(t)

	if err := conn.WriteJSON(Command{Type: CommandCreateGrid, Rows: 2, Columns: 3}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readUntil(t, conn, MessageGridUpdated)
	if msg.Grid == nil || len(msg.Grid.Lockers) != 6 {
		t.Fatalf("Expected 6-locker grid, got %+v", msg.Grid)
	}

	conn.WriteJSON(Command{Type: CommandSetRowState, Row: 1, State: "reserved"})
	for {
		msg = readUntil(t, conn, MessageGridUpdated)
		if msg.Grid.Lockers[4].State == locker.StateReserved {
			break
		}
	}
	if msg.Summary == nil || msg.Summary.Reserved != 3 {
		t.Errorf("Expected summary with 3 reserved, got %+v", msg.Summary)
	}
}

func TestNewClientReceivesCurrentGrid(t *testing.T) {
	s := startLiveServer(t)
	s.manager.CreateGrid(context.Background(), 1, 4)

	conn := s.dial(t)
	msg := readUntil(t, conn, MessageGridUpdated)
	if msg.Grid == nil || msg.Grid.Columns != 4 {
		t.Errorf("Expected current grid on connect, got %+v", msg.Grid)
	}
}

func TestHTTPCommandsReachWebSocketClients(t *testing.T) {
	s := startLiveServer(t)
	conn := s.dial(t)
	s.waitForClients(t, 1)

	s.manager.CreateGrid(grid.WithActor(context.Background(), "http"), 1, 1)
	msg := readUntil(t, conn, MessageEvent)
	if msg.Event == nil || msg.Event.Type != events.EventTypeGridCreated || msg.Event.ActorID != "http" {
		t.Errorf("Expected GRID_CREATED event from http, got %+v", msg.Event)
	}
}

func TestInvalidCommandsGetErrors(t *testing.T) {
	s := startLiveServer(t)
	conn := s.dial(t)

	conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
	if msg := readUntil(t, conn, MessageError); !strings.Contains(msg.Error, "malformed") {
		t.Errorf("Unexpected error message %q", msg.Error)
	}

	conn.WriteJSON(Command{Type: CommandCreateGrid, Rows: 0, Columns: 2})
	if msg := readUntil(t, conn, MessageError); !strings.Contains(msg.Error, "positive") {
		t.Errorf("Unexpected error message %q", msg.Error)
	}

	conn.WriteJSON(Command{Type: CommandCreateGrid, Rows: 4, Columns: 1 << 62})
	if msg := readUntil(t, conn, MessageError); !strings.Contains(msg.Error, "exceeds") {
		t.Errorf("Unexpected error message %q", msg.Error)
	}
	conn.WriteJSON(Command{Type: CommandSetRowState, Row: 0, State: "open"})

	conn.WriteJSON(Command{Type: "EXPLODE"})
	if msg := readUntil(t, conn, MessageError); !strings.Contains(msg.Error, "unknown command") {
		t.Errorf("Unexpected error message %q", msg.Error)
	}

	if s.manager.Current() != nil {
		t.Errorf("No grid should have been created")
	}
}
