// Package events provides the append-only history of grid commands.
// Every applied command is recorded here and fanned out to live clients.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a grid event.
type EventType string

const (
	EventTypeGridCreated        EventType = "GRID_CREATED"
	EventTypeLockerStateChanged EventType = "LOCKER_STATE_CHANGED"
	EventTypeRowStateChanged    EventType = "ROW_STATE_CHANGED"
)

// GridEvent represents an immutable record of an applied command.
type GridEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	ActorID   string    `json:"actor_id"` // Who issued the command
	Rows      int       `json:"rows,omitempty"`
	Columns   int       `json:"columns,omitempty"`
	LockerID  int       `json:"locker_id,omitempty"`
	Row       int       `json:"row"`
	State     string    `json:"state,omitempty"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GridEvent) error
}

// DefaultRetention is how many recent events NewEventLog keeps in memory.
const DefaultRetention = 10_000

// EventLog is the in-memory append-only log of grid events, optionally
// written through to a persister. Only the newest retain events stay in
// memory; offsets count every event ever appended.
type EventLog struct {
	mu        sync.RWMutex
	events    []GridEvent
	dropped   int
	retain    int
	persister EventPersister
}

// NewEventLog creates a new event log keeping DefaultRetention events.
// persister may be nil.
func NewEventLog(persister EventPersister) *EventLog {
	return NewEventLogWithRetention(persister, DefaultRetention)
}

// NewEventLogWithRetention keeps at most retain events in memory.
// retain <= 0 keeps everything.
func NewEventLogWithRetention(persister EventPersister, retain int) *EventLog {
	return &EventLog{
		events:    make([]GridEvent, 0),
		retain:    retain,
		persister: persister,
	}
}

// Append adds a new event to the log, assigning an ID and timestamp when
// missing. The returned error comes from the persister; the event is kept
// in memory regardless.
func (el *EventLog) Append(event GridEvent) (GridEvent, error) {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	if el.retain > 0 && len(el.events) > el.retain {
		// Trimmed in batches of min(retain/4, 1024).
		if over := len(el.events) - el.retain; over >= el.retain/4 || over >= 1024 {
			kept := make([]GridEvent, el.retain)
			copy(kept, el.events[over:])
			el.events = kept
			el.dropped += over
		}
	}
	el.mu.Unlock()

	if el.persister != nil {
		if err := el.persister.Append(event); err != nil {
			return event, err
		}
	}
	return event, nil
}

// Len returns the number of events appended so far, including those no
// longer held in memory.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.dropped + len(el.events)
}

// Since returns a copy of the events appended after the first offset ones.
// Events already trimmed from memory are skipped.
func (el *EventLog) Since(offset int) []GridEvent {
	out, _ := el.Tail(offset)
	return out
}

// Tail is Since plus the offset to pass on the next call.
func (el *EventLog) Tail(offset int) ([]GridEvent, int) {
	el.mu.RLock()
	defer el.mu.RUnlock()
	next := el.dropped + len(el.events)
	i := offset - el.dropped
	if i < 0 {
		i = 0
	}
	if i >= len(el.events) {
		return nil, next
	}
	out := make([]GridEvent, len(el.events)-i)
	copy(out, el.events[i:])
	return out, next
}

// GetByLocker returns all events that targeted a specific locker.
func (el *EventLog) GetByLocker(lockerID int) []GridEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GridEvent
	for _, e := range el.events {
		if e.Type == EventTypeLockerStateChanged && e.LockerID == lockerID {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns the events still held in memory, oldest first.
func (el *EventLog) Replay() []GridEvent {
	return el.Since(0)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
