// Package test - scenarios.go
// Acceptance scenarios for the Grid State Manager, runnable against any
// storage backend from cmd/test-runner or from go test.
package test

import (
	"context"
	"fmt"

	"github.com/MRamiBalles/LockerGrid/server/internal/domain/locker"
	"github.com/MRamiBalles/LockerGrid/server/internal/events"
	"github.com/MRamiBalles/LockerGrid/server/internal/grid"
	"github.com/MRamiBalles/LockerGrid/server/internal/infra/storage"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/logger"
)

// StoreFactory returns a fresh, empty store for one scenario.
type StoreFactory func() (storage.Store, error)

// TestResult captures the outcome of each scenario.
type TestResult struct {
	ScenarioName string
	Passed       bool
	Reason       string
}

// AcceptanceSuite runs the grid scenarios.
type AcceptanceSuite struct {
	newStore StoreFactory
	logger   *logger.Logger
	results  []TestResult
}

// NewAcceptanceSuite creates the harness. A nil factory uses memory stores.
func NewAcceptanceSuite(newStore StoreFactory, log *logger.Logger) *AcceptanceSuite {
	if newStore == nil {
		newStore = func() (storage.Store, error) { return storage.NewMemoryStore(), nil }
	}
	if log == nil {
		log = logger.Discard()
	}
	return &AcceptanceSuite{
		newStore: newStore,
		logger:   log,
		results:  make([]TestResult, 0),
	}
}

type scenario struct {
	name string
	run  func(ctx context.Context, store storage.Store) error
}

func (s *AcceptanceSuite) scenarios() []scenario {
	return []scenario{
		{"create 2x3 numbers lockers row-major", scenarioCreate},
		{"set locker 4 open", scenarioSetLocker},
		{"set row 1 reserved", scenarioSetRow},
		{"out of range commands are no-ops", scenarioOutOfRange},
		{"invalid dimensions create nothing", scenarioInvalidDimensions},
		{"grid survives manager restart", scenarioRestart},
		{"malformed snapshot loads as absent", scenarioMalformed},
	}
}

// RunTest executes every scenario with its own store.
func (s *AcceptanceSuite) RunTest(ctx context.Context) {
	for _, sc := range s.scenarios() {
		result := TestResult{ScenarioName: sc.name, Passed: true}

		store, err := s.newStore()
		if err != nil {
			result.Passed = false
			result.Reason = fmt.Sprintf("open store: %v", err)
		} else {
			if err := sc.run(ctx, store); err != nil {
				result.Passed = false
				result.Reason = err.Error()
			}
			store.Close()
		}

		if result.Passed {
			s.logger.Info("scenario passed", "name", sc.name)
		} else {
			s.logger.Warn("scenario failed", "name", sc.name, "reason", result.Reason)
		}
		s.results = append(s.results, result)
	}
}

// GetResults returns the outcome of the last run.
func (s *AcceptanceSuite) GetResults() []TestResult {
	return s.results
}

func newManager(store storage.KeyValue) *grid.Manager {
	return grid.NewManager(store, storage.DefaultKey, events.NewEventLog(nil), nil)
}

func expectStates(g *locker.Grid, want map[int]locker.State) error {
	for id, state := range want {
		if got := g.Lockers[id].State; got != state {
			return fmt.Errorf("locker %d is %s, want %s", id, got, state)
		}
	}
	return nil
}

func scenarioCreate(ctx context.Context, store storage.Store) error {
	g, err := newManager(store).CreateGrid(ctx, 2, 3)
	if err != nil {
		return err
	}
	if len(g.Lockers) != 6 {
		return fmt.Errorf("got %d lockers, want 6", len(g.Lockers))
	}
	for row, want := range [][]int{{1, 2, 3}, {4, 5, 6}} {
		ids := g.RowIDs(row)
		for i := range want {
			if ids[i] != want[i] {
				return fmt.Errorf("row %d ids %v, want %v", row, ids, want)
			}
		}
	}
	return expectStates(g, map[int]locker.State{
		1: locker.StateClosed, 2: locker.StateClosed, 3: locker.StateClosed,
		4: locker.StateClosed, 5: locker.StateClosed, 6: locker.StateClosed,
	})
}

func scenarioSetLocker(ctx context.Context, store storage.Store) error {
	m := newManager(store)
	if _, err := m.CreateGrid(ctx, 2, 3); err != nil {
		return err
	}
	g, err := m.SetLockerState(ctx, 4, locker.StateOpen)
	if err != nil {
		return err
	}
	return expectStates(g, map[int]locker.State{
		1: locker.StateClosed, 2: locker.StateClosed, 3: locker.StateClosed,
		4: locker.StateOpen, 5: locker.StateClosed, 6: locker.StateClosed,
	})
}

func scenarioSetRow(ctx context.Context, store storage.Store) error {
	m := newManager(store)
	if _, err := m.CreateGrid(ctx, 2, 3); err != nil {
		return err
	}
	m.SetLockerState(ctx, 4, locker.StateOpen)
	g, err := m.SetRowState(ctx, 1, locker.StateReserved)
	if err != nil {
		return err
	}
	return expectStates(g, map[int]locker.State{
		1: locker.StateClosed, 2: locker.StateClosed, 3: locker.StateClosed,
		4: locker.StateReserved, 5: locker.StateReserved, 6: locker.StateReserved,
	})
}

func scenarioOutOfRange(ctx context.Context, store storage.Store) error {
	m := newManager(store)
	before, err := m.CreateGrid(ctx, 2, 3)
	if err != nil {
		return err
	}
	m.SetLockerState(ctx, 0, locker.StateOpen)
	m.SetLockerState(ctx, 7, locker.StateOpen)
	m.SetRowState(ctx, 2, locker.StateReserved)
	m.SetRowState(ctx, -1, locker.StateReserved)
	if !m.Current().Equal(before) {
		return fmt.Errorf("grid changed")
	}
	return nil
}

func scenarioInvalidDimensions(ctx context.Context, store storage.Store) error {
	m := newManager(store)
	if _, err := m.CreateGrid(ctx, 0, 5); err == nil {
		return fmt.Errorf("expected an error for 0x5")
	}
	if m.Current() != nil {
		return fmt.Errorf("grid was created")
	}
	if _, ok, _ := store.Get(ctx, storage.DefaultKey); ok {
		return fmt.Errorf("snapshot was written")
	}
	return nil
}

func scenarioRestart(ctx context.Context, store storage.Store) error {
	first := newManager(store)
	if _, ok, _ := first.Load(ctx); ok {
		return fmt.Errorf("fresh store reported a saved grid")
	}
	first.CreateGrid(ctx, 3, 3)
	first.SetRowState(ctx, 2, locker.StateOpen)
	want := first.Current()

	second := newManager(store)
	if ok, err := second.Restore(ctx); err != nil || !ok {
		return fmt.Errorf("restore: ok=%t err=%v", ok, err)
	}
	if !second.Current().Equal(want) {
		return fmt.Errorf("restored grid differs from saved grid")
	}
	return nil
}

func scenarioMalformed(ctx context.Context, store storage.Store) error {
	if err := store.Set(ctx, storage.DefaultKey, []byte(`{"rows":"two"}`)); err != nil {
		return err
	}
	g, ok, err := newManager(store).Load(ctx)
	if err != nil {
		return err
	}
	if ok || g != nil {
		return fmt.Errorf("malformed snapshot was accepted")
	}
	return nil
}
