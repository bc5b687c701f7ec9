// Package storage - reconstructor.go
// Rebuilds the grid from the event history: grid = f(events).
package storage

import (
	"context"
	"fmt"

	"github.com/MRamiBalles/LockerGrid/server/internal/domain/locker"
	"github.com/MRamiBalles/LockerGrid/server/internal/events"
)

// Reconstructor rebuilds grid state from the event log.
// This is used for:
// 1. Recovery when the snapshot key was lost
// 2. Auditing a snapshot against its history
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new state reconstructor.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// Rebuild replays every stored event. It returns nil when no grid was
// ever created.
func (r *Reconstructor) Rebuild(ctx context.Context) (*locker.Grid, error) {
	history, err := r.eventRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return Replay(history)
}

// Replay folds events into a grid. Events before the first GRID_CREATED
// are ignored, as are events with unknown types.
func Replay(history []LockerEvent) (*locker.Grid, error) {
	var g *locker.Grid
	for _, e := range history {
		switch events.EventType(e.EventType) {
		case events.EventTypeGridCreated:
			next, err := locker.NewGrid(e.Rows, e.Columns)
			if err != nil {
				return nil, fmt.Errorf("event %s: %w", e.ID, err)
			}
			g = next
		case events.EventTypeLockerStateChanged:
			state, err := locker.ParseState(e.State)
			if err != nil {
				return nil, fmt.Errorf("event %s: %w", e.ID, err)
			}
			g = locker.WithLockerState(g, e.LockerID, state)
		case events.EventTypeRowStateChanged:
			state, err := locker.ParseState(e.State)
			if err != nil {
				return nil, fmt.Errorf("event %s: %w", e.ID, err)
			}
			g = locker.WithRowState(g, e.Row, state)
		}
	}
	return g, nil
}

// RecapEvent is a simplified event for the history view.
type RecapEvent struct {
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"` // Human-readable description
}

// Recap renders the last limit events as human-readable lines.
func (r *Reconstructor) Recap(ctx context.Context, limit int) ([]RecapEvent, error) {
	history, err := r.eventRepo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	recap := make([]RecapEvent, 0, len(history))
	for _, e := range history {
		recap = append(recap, RecapEvent{
			Timestamp: e.Timestamp.Format("2006-01-02 15:04:05"),
			EventType: e.EventType,
			Summary:   summarize(e),
		})
	}
	return recap, nil
}

func summarize(e LockerEvent) string {
	switch events.EventType(e.EventType) {
	case events.EventTypeGridCreated:
		return fmt.Sprintf("%s created a %dx%d grid", e.ActorID, e.Rows, e.Columns)
	case events.EventTypeLockerStateChanged:
		return fmt.Sprintf("%s set locker %d to %s", e.ActorID, e.LockerID, e.State)
	case events.EventTypeRowStateChanged:
		return fmt.Sprintf("%s set row %d to %s", e.ActorID, e.Row, e.State)
	default:
		return e.EventType
	}
}
