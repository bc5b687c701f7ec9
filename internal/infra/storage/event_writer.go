package storage

import (
	"context"

	"github.com/MRamiBalles/LockerGrid/server/internal/events"
)

// EventWriter persists domain events through an EventRepository.
// It satisfies events.EventPersister.
type EventWriter struct {
	repo EventRepository
}

func NewEventWriter(repo EventRepository) *EventWriter {
	return &EventWriter{repo: repo}
}

// Append translates a domain event to its stored form.
func (w *EventWriter) Append(e events.GridEvent) error {
	return w.repo.Append(context.Background(), ToLockerEvent(e))
}

// ToLockerEvent maps a domain event to the history row.
func ToLockerEvent(e events.GridEvent) LockerEvent {
	return LockerEvent{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		EventType: string(e.Type),
		ActorID:   e.ActorID,
		Rows:      e.Rows,
		Columns:   e.Columns,
		LockerID:  e.LockerID,
		Row:       e.Row,
		State:     e.State,
	}
}
