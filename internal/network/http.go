package network

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/LockerGrid/server/internal/domain/locker"
	"github.com/MRamiBalles/LockerGrid/server/internal/events"
	"github.com/MRamiBalles/LockerGrid/server/internal/grid"
	"github.com/MRamiBalles/LockerGrid/server/internal/infra/storage"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/logger"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/metrics"
)

const defaultHistoryLimit = 50

// API serves the grid over HTTP and upgrades /ws to the hub.
type API struct {
	Manager  *grid.Manager
	Hub      *Hub
	EventLog *events.EventLog
	// Recap is optional; without it /api/history/recap answers 404.
	Recap   *storage.Reconstructor
	Metrics *metrics.Collector
	Logger  *logger.Logger

	upgrader websocket.Upgrader
}

// Handler builds the route table.
func (a *API) Handler() http.Handler {
	if a.Metrics == nil {
		a.Metrics = metrics.Get()
	}
	if a.Logger == nil {
		a.Logger = logger.Discard()
	}
	a.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true // Views are served from a separate dev origin
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/grid", a.getGrid)
	mux.HandleFunc("POST /api/grid", a.createGrid)
	mux.HandleFunc("PUT /api/lockers/{id}/state", a.setLockerState)
	mux.HandleFunc("GET /api/lockers/{id}/history", a.getLockerHistory)
	mux.HandleFunc("PUT /api/rows/{row}/state", a.setRowState)
	mux.HandleFunc("GET /api/summary", a.getSummary)
	mux.HandleFunc("GET /api/history", a.getHistory)
	mux.HandleFunc("GET /api/history/recap", a.getRecap)
	mux.HandleFunc("GET /metrics", a.Metrics.Handler())
	mux.HandleFunc("GET /metrics/prometheus", a.Metrics.PrometheusHandler())
	if a.Hub != nil {
		mux.HandleFunc("GET /ws", a.serveWs)
	}
	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// actorFor picks the actor id from the X-Actor header or the client address.
func actorFor(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	if actor := r.URL.Query().Get("actor"); actor != "" {
		return actor
	}
	return r.RemoteAddr
}

func (a *API) commandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, locker.ErrInvalidDimensions), errors.Is(err, locker.ErrInvalidState):
		writeError(w, http.StatusBadRequest, err)
	default:
		a.Logger.Error("command failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to persist grid"))
	}
}

func (a *API) getGrid(w http.ResponseWriter, r *http.Request) {
	g := a.Manager.Current()
	if g == nil {
		writeError(w, http.StatusNotFound, errors.New("no grid has been created"))
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (a *API) createGrid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rows    int `json:"rows"`
		Columns int `json:"columns"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid payload"))
		return
	}

	g, err := a.Manager.CreateGrid(grid.WithActor(r.Context(), actorFor(r)), req.Rows, req.Columns)
	if err != nil {
		a.commandError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

type stateRequest struct {
	State string `json:"state"`
}

func decodeState(r *http.Request) (locker.State, error) {
	var req stateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", errors.New("invalid payload")
	}
	return locker.ParseState(req.State)
}

func (a *API) setLockerState(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("locker id must be an integer"))
		return
	}
	state, err := decodeState(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	g, err := a.Manager.SetLockerState(grid.WithActor(r.Context(), actorFor(r)), id, state)
	if err != nil {
		a.commandError(w, err)
		return
	}
	a.respondGrid(w, g)
}

func (a *API) setRowState(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.Atoi(r.PathValue("row"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("row must be an integer"))
		return
	}
	state, err := decodeState(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	g, err := a.Manager.SetRowState(grid.WithActor(r.Context(), actorFor(r)), row, state)
	if err != nil {
		a.commandError(w, err)
		return
	}
	a.respondGrid(w, g)
}

// respondGrid answers a state command. Commands against a missing grid are
// accepted as no-ops, so the body is null in that case.
func (a *API) respondGrid(w http.ResponseWriter, g *locker.Grid) {
	writeJSON(w, http.StatusOK, g)
}

func (a *API) getSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, locker.Summarize(a.Manager.Current()))
}

func historyLimit(r *http.Request) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		return n
	}
	return defaultHistoryLimit
}

func (a *API) getHistory(w http.ResponseWriter, r *http.Request) {
	if a.EventLog == nil {
		writeJSON(w, http.StatusOK, []events.GridEvent{})
		return
	}
	limit := historyLimit(r)
	offset := a.EventLog.Len() - limit
	recent := a.EventLog.Since(offset)
	if recent == nil {
		recent = []events.GridEvent{}
	}
	writeJSON(w, http.StatusOK, recent)
}

func (a *API) getLockerHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("locker id must be an integer"))
		return
	}
	history := []events.GridEvent{}
	if a.EventLog != nil {
		history = append(history, a.EventLog.GetByLocker(id)...)
	}
	writeJSON(w, http.StatusOK, history)
}

func (a *API) getRecap(w http.ResponseWriter, r *http.Request) {
	if a.Recap == nil {
		writeError(w, http.StatusNotFound, errors.New("history is not persisted by this store"))
		return
	}
	recap, err := a.Recap.Recap(r.Context(), historyLimit(r))
	if err != nil {
		a.Logger.Error("failed to build recap", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to load history"))
		return
	}
	writeJSON(w, http.StatusOK, recap)
}

// serveWs handles websocket requests from the peer.
func (a *API) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.Warn("Failed to upgrade websocket connection", "error", err)
		a.Metrics.RecordWSError()
		return
	}

	client := NewClient(a.Hub, conn, actorFor(r))
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
