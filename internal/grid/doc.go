// Package grid owns the locker grid for a session.
//
// The Manager holds the single current grid, applies commands through the
// pure functions in the locker package and writes a complete JSON snapshot
// to a storage.KeyValue after every change. Callers only ever receive
// copies of the grid.
package grid
