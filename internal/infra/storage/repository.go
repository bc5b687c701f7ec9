// Package storage provides the persistence layer for the locker server.
// This package implements the repository pattern to keep the domain pure.
package storage

import (
	"context"
	"errors"
	"time"
)

// DefaultKey is the fixed key the grid snapshot lives under.
const DefaultKey = "locker_grid"

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("storage: store is closed")

// KeyValue is the persistence interface the grid manager depends on.
// Values are complete snapshots; there is no incremental update.
type KeyValue interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
}

// Store is a KeyValue backend that owns resources.
type Store interface {
	KeyValue
	Close() error
}

// LockerEvent mirrors the domain event structure for persistence.
// The domain package should NOT import this; use interfaces instead.
type LockerEvent struct {
	ID        string    `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	EventType string    `json:"event_type" db:"event_type"`
	ActorID   string    `json:"actor_id" db:"actor_id"`
	Rows      int       `json:"rows,omitempty" db:"grid_rows"`
	Columns   int       `json:"columns,omitempty" db:"grid_columns"`
	LockerID  int       `json:"locker_id,omitempty" db:"locker_id"`
	Row       int       `json:"row" db:"row_index"`
	State     string    `json:"state,omitempty" db:"state"`
}

// EventRepository defines the interface for grid history persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event LockerEvent) error

	// List retrieves all events in the order they were appended.
	List(ctx context.Context) ([]LockerEvent, error)

	// Recent retrieves the last limit events, oldest first.
	Recent(ctx context.Context, limit int) ([]LockerEvent, error)

	// ByLocker retrieves the events that touched one locker directly.
	ByLocker(ctx context.Context, lockerID int) ([]LockerEvent, error)
}
