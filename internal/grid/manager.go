package grid

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MRamiBalles/LockerGrid/server/internal/domain/locker"
	"github.com/MRamiBalles/LockerGrid/server/internal/events"
	"github.com/MRamiBalles/LockerGrid/server/internal/infra/storage"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/logger"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/metrics"
)

// Manager is the Grid State Manager. It is safe for concurrent use; commands
// are applied one at a time in arrival order.
type Manager struct {
	mu       sync.RWMutex
	grid     *locker.Grid
	store    storage.KeyValue
	key      string
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
}

// NewManager creates a manager persisting under key. eventLog may be nil.
func NewManager(store storage.KeyValue, key string, eventLog *events.EventLog, log *logger.Logger) *Manager {
	if key == "" {
		key = storage.DefaultKey
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{
		store:    store,
		key:      key,
		eventLog: eventLog,
		logger:   log.Named("grid"),
		metrics:  metrics.Get(),
	}
}

// Current returns a copy of the owned grid, or nil when none exists.
func (m *Manager) Current() *locker.Grid {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.grid.Clone()
}

// Restore loads the persisted grid and adopts it. It reports whether a
// grid was found.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	g, ok, err := m.Load(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		m.logger.Info("no saved grid found")
		return false, nil
	}

	m.mu.Lock()
	m.grid = g
	m.mu.Unlock()
	m.logger.Info("restored grid", "rows", g.Rows, "columns", g.Columns)
	return true, nil
}

// Load reads the stored snapshot. Absent or malformed data yields ok=false
// with a nil error; only storage failures are returned.
func (m *Manager) Load(ctx context.Context) (*locker.Grid, bool, error) {
	data, ok, err := m.store.Get(ctx, m.key)
	if err != nil {
		return nil, false, fmt.Errorf("grid: load: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	g, err := locker.Decode(data)
	if err != nil {
		m.logger.Warn("discarding malformed saved grid", "key", m.key, "error", err)
		return nil, false, nil
	}
	return g, true, nil
}

// Save writes g as a complete snapshot.
func (m *Manager) Save(ctx context.Context, g *locker.Grid) error {
	data, err := locker.Encode(g)
	if err != nil {
		return fmt.Errorf("grid: save: %w", err)
	}

	start := time.Now()
	err = m.store.Set(ctx, m.key, data)
	m.metrics.RecordStoreWrite(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("grid: save: %w", err)
	}
	return nil
}

// CreateGrid replaces the current grid with a new all-closed one.
// Invalid dimensions return locker.ErrInvalidDimensions and leave the
// current grid and the store untouched.
func (m *Manager) CreateGrid(ctx context.Context, rows, columns int) (*locker.Grid, error) {
	g, err := locker.NewGrid(rows, columns)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.commit(ctx, g); err != nil {
		return nil, err
	}

	m.record(ctx, events.GridEvent{
		Type:    events.EventTypeGridCreated,
		Rows:    rows,
		Columns: columns,
	})
	return g.Clone(), nil
}

// SetLockerState sets one locker. It is a no-op when there is no grid or
// the id does not exist.
func (m *Manager) SetLockerState(ctx context.Context, lockerID int, state locker.State) (*locker.Grid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.grid.Has(lockerID) {
		m.logger.Debug("ignoring state change for unknown locker", "locker_id", lockerID)
		return m.grid.Clone(), nil
	}

	next := locker.WithLockerState(m.grid, lockerID, state)
	if err := m.commit(ctx, next); err != nil {
		return nil, err
	}

	m.record(ctx, events.GridEvent{
		Type:     events.EventTypeLockerStateChanged,
		LockerID: lockerID,
		State:    string(state),
	})
	return next.Clone(), nil
}

// SetRowState sets every locker of a zero-based row. Rows outside the grid
// are a no-op.
func (m *Manager) SetRowState(ctx context.Context, row int, state locker.State) (*locker.Grid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.grid.RowIDs(row)) == 0 {
		m.logger.Debug("ignoring state change for unknown row", "row", row)
		return m.grid.Clone(), nil
	}

	next := locker.WithRowState(m.grid, row, state)
	if err := m.commit(ctx, next); err != nil {
		return nil, err
	}

	m.record(ctx, events.GridEvent{
		Type:  events.EventTypeRowStateChanged,
		Row:   row,
		State: string(state),
	})
	return next.Clone(), nil
}

// commit persists next and adopts it. Caller holds m.mu.
func (m *Manager) commit(ctx context.Context, next *locker.Grid) error {
	if err := m.Save(ctx, next); err != nil {
		m.logger.Error("failed to persist grid", "error", err)
		return err
	}
	m.grid = next
	return nil
}

func (m *Manager) record(ctx context.Context, e events.GridEvent) {
	e.ActorID = ActorFromContext(ctx)
	m.metrics.RecordCommand(string(e.Type))
	m.logger.Event(string(e.Type), e.ActorID, describe(e))

	if m.eventLog == nil {
		return
	}
	if _, err := m.eventLog.Append(e); err != nil {
		m.logger.Warn("failed to persist event", "type", e.Type, "error", err)
	}
}

func describe(e events.GridEvent) string {
	switch e.Type {
	case events.EventTypeGridCreated:
		return fmt.Sprintf("%dx%d", e.Rows, e.Columns)
	case events.EventTypeLockerStateChanged:
		return fmt.Sprintf("locker %d -> %s", e.LockerID, e.State)
	default:
		return fmt.Sprintf("row %d -> %s", e.Row, e.State)
	}
}
