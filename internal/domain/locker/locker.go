// Package locker defines the domain entities for a grid of physical lockers.
// This package is PURE and must NOT import any infrastructure packages.
package locker

import (
	"errors"
	"fmt"
)

// State is the occupancy state of a single locker.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateReserved State = "reserved"
)

// States lists every valid state in display order.
var States = []State{StateOpen, StateClosed, StateReserved}

var (
	// ErrInvalidDimensions is returned when a grid is requested with a
	// non-positive row or column count.
	ErrInvalidDimensions = errors.New("locker: rows and columns must be positive")
	// ErrInvalidState is returned by ParseState for unknown values.
	ErrInvalidState = errors.New("locker: invalid state")
)

// ParseState converts user input into a State.
func ParseState(raw string) (State, error) {
	switch s := State(raw); s {
	case StateClosed, StateOpen, StateReserved:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidState, raw)
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	_, err := ParseState(string(s))
	return err == nil
}

// Locker is one addressable cell of the grid.
type Locker struct {
	ID    int   `json:"id"`
	State State `json:"state"`
}
