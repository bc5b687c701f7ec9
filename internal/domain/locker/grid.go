package locker

import "fmt"

// Grid is the complete set of lockers plus its dimensions.
// Lockers are numbered 1..Rows*Columns in row-major order.
type Grid struct {
	Rows    int            `json:"rows"`
	Columns int            `json:"columns"`
	Lockers map[int]Locker `json:"lockers"`
}

// LockerID returns the row-major id of the locker at (row, column).
// row and column are zero-based.
func LockerID(row, column, columns int) int {
	return row*columns + column + 1
}

// Position is the inverse of LockerID.
func Position(id, columns int) (row, column int) {
	return (id - 1) / columns, (id - 1) % columns
}

// MaxLockers caps rows*columns for a single grid.
const MaxLockers = 100_000

// checkDimensions rejects non-positive sizes and grids larger than
// MaxLockers. The product is never computed before the bound holds.
func checkDimensions(rows, columns int) error {
	if rows <= 0 || columns <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, rows, columns)
	}
	if rows > MaxLockers/columns {
		return fmt.Errorf("%w: %dx%d exceeds %d lockers", ErrInvalidDimensions, rows, columns, MaxLockers)
	}
	return nil
}

// NewGrid creates a grid with every locker closed.
func NewGrid(rows, columns int) (*Grid, error) {
	if err := checkDimensions(rows, columns); err != nil {
		return nil, err
	}

	g := &Grid{
		Rows:    rows,
		Columns: columns,
		Lockers: make(map[int]Locker, rows*columns),
	}
	for id := 1; id <= rows*columns; id++ {
		g.Lockers[id] = Locker{ID: id, State: StateClosed}
	}
	return g, nil
}

// Clone returns a deep copy of the grid. A nil grid clones to nil.
func (g *Grid) Clone() *Grid {
	if g == nil {
		return nil
	}
	out := &Grid{
		Rows:    g.Rows,
		Columns: g.Columns,
		Lockers: make(map[int]Locker, len(g.Lockers)),
	}
	for id, l := range g.Lockers {
		out.Lockers[id] = l
	}
	return out
}

// Equal reports structural equality.
func (g *Grid) Equal(other *Grid) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.Rows != other.Rows || g.Columns != other.Columns || len(g.Lockers) != len(other.Lockers) {
		return false
	}
	for id, l := range g.Lockers {
		if o, ok := other.Lockers[id]; !ok || o != l {
			return false
		}
	}
	return true
}

// Validate checks the dimension and numbering invariants.
func (g *Grid) Validate() error {
	if g == nil {
		return fmt.Errorf("locker: nil grid")
	}
	if err := checkDimensions(g.Rows, g.Columns); err != nil {
		return err
	}
	if want := g.Rows * g.Columns; len(g.Lockers) != want {
		return fmt.Errorf("locker: grid has %d lockers, want %d", len(g.Lockers), want)
	}
	for id, l := range g.Lockers {
		if id < 1 || id > g.Rows*g.Columns {
			return fmt.Errorf("locker: id %d out of range", id)
		}
		if l.ID != id {
			return fmt.Errorf("locker: entry %d carries id %d", id, l.ID)
		}
		if !l.State.Valid() {
			return fmt.Errorf("%w: locker %d has %q", ErrInvalidState, id, l.State)
		}
	}
	return nil
}

// Has reports whether id belongs to the grid.
func (g *Grid) Has(id int) bool {
	if g == nil {
		return false
	}
	_, ok := g.Lockers[id]
	return ok
}

// RowIDs returns the ids of the lockers in row, or nil when row is out of range.
func (g *Grid) RowIDs(row int) []int {
	if g == nil || row < 0 || row >= g.Rows {
		return nil
	}
	ids := make([]int, 0, g.Columns)
	for col := 0; col < g.Columns; col++ {
		ids = append(ids, LockerID(row, col, g.Columns))
	}
	return ids
}

// WithLockerState returns a copy of g with one locker set to state.
// A nil grid or an unknown id leaves the grid unchanged.
func WithLockerState(g *Grid, id int, state State) *Grid {
	if !g.Has(id) {
		return g
	}
	out := g.Clone()
	l := out.Lockers[id]
	l.State = state
	out.Lockers[id] = l
	return out
}

// WithRowState returns a copy of g with every locker in row set to state.
// Rows outside [0, Rows) leave the grid unchanged, and ids missing from
// the map are never created.
func WithRowState(g *Grid, row int, state State) *Grid {
	ids := g.RowIDs(row)
	if len(ids) == 0 {
		return g
	}
	out := g.Clone()
	for _, id := range ids {
		l, ok := out.Lockers[id]
		if !ok {
			continue
		}
		l.State = state
		out.Lockers[id] = l
	}
	return out
}

// Summary counts lockers per state.
type Summary struct {
	Total    int `json:"total"`
	Open     int `json:"open"`
	Closed   int `json:"closed"`
	Reserved int `json:"reserved"`
}

// Summarize tallies the grid. A nil grid yields a zero summary.
func Summarize(g *Grid) Summary {
	var s Summary
	if g == nil {
		return s
	}
	for _, l := range g.Lockers {
		s.Total++
		switch l.State {
		case StateOpen:
			s.Open++
		case StateClosed:
			s.Closed++
		case StateReserved:
			s.Reserved++
		}
	}
	return s
}
