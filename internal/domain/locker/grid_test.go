package locker

import (
	"errors"
	"strings"
	"testing"
)

func TestNewGridNumbering(t *testing.T) {
	for _, dims := range [][2]int{{1, 1}, {2, 3}, {3, 2}, {5, 7}} {
		rows, cols := dims[0], dims[1]
		g, err := NewGrid(rows, cols)
		if err != nil {
			t.Fatalf("NewGrid(%d,%d): %v", rows, cols, err)
		}
		if len(g.Lockers) != rows*cols {
			t.Errorf("Expected %d lockers, got %d", rows*cols, len(g.Lockers))
		}
		for id := 1; id <= rows*cols; id++ {
			l, ok := g.Lockers[id]
			if !ok {
				t.Fatalf("Missing locker %d in %dx%d grid", id, rows, cols)
			}
			if l.ID != id || l.State != StateClosed {
				t.Errorf("Locker %d: got %+v", id, l)
			}
		}
		if err := g.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	}
}

func TestNewGridRejectsNonPositive(t *testing.T) {
	for _, dims := range [][2]int{{0, 3}, {3, 0}, {-1, 2}, {0, 0}} {
		g, err := NewGrid(dims[0], dims[1])
		if !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("NewGrid(%d,%d): expected ErrInvalidDimensions, got %v", dims[0], dims[1], err)
		}
		if g != nil {
			t.Errorf("NewGrid(%d,%d): expected nil grid", dims[0], dims[1])
		}
	}
}

func TestNewGridRejectsOversized(t *testing.T) {
	for _, dims := range [][2]int{{4, 1 << 62}, {1 << 62, 4}, {1 << 32, 1 << 32}, {50000, 50000}, {MaxLockers + 1, 1}} {
		g, err := NewGrid(dims[0], dims[1])
		if !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("NewGrid(%d,%d): expected ErrInvalidDimensions, got %v", dims[0], dims[1], err)
		}
		if g != nil {
			t.Errorf("NewGrid(%d,%d): expected nil grid", dims[0], dims[1])
		}
	}

	g, err := NewGrid(1, MaxLockers)
	if err != nil {
		t.Fatalf("NewGrid(1,%d): %v", MaxLockers, err)
	}
	if len(g.Lockers) != MaxLockers {
		t.Errorf("Expected %d lockers, got %d", MaxLockers, len(g.Lockers))
	}
}

func TestLockerIDBijection(t *testing.T) {
	const rows, cols = 4, 6
	seen := make(map[int]bool)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			id := LockerID(r, c, cols)
			if id < 1 || id > rows*cols {
				t.Fatalf("id %d out of range for (%d,%d)", id, r, c)
			}
			if seen[id] {
				t.Fatalf("id %d produced twice", id)
			}
			seen[id] = true
			if gr, gc := Position(id, cols); gr != r || gc != c {
				t.Errorf("Position(%d) = (%d,%d), want (%d,%d)", id, gr, gc, r, c)
			}
		}
	}
	if len(seen) != rows*cols {
		t.Errorf("Expected %d distinct ids, got %d", rows*cols, len(seen))
	}
}

func TestWithLockerState(t *testing.T) {
	g, _ := NewGrid(2, 3)
	next := WithLockerState(g, 4, StateOpen)

	if next.Lockers[4].State != StateOpen {
		t.Errorf("Expected locker 4 open, got %s", next.Lockers[4].State)
	}
	for id := 1; id <= 6; id++ {
		if id != 4 && next.Lockers[id].State != StateClosed {
			t.Errorf("Locker %d changed to %s", id, next.Lockers[id].State)
		}
	}
	if next.Rows != 2 || next.Columns != 3 {
		t.Errorf("Dimensions changed: %dx%d", next.Rows, next.Columns)
	}
	if g.Lockers[4].State != StateClosed {
		t.Errorf("Input grid was mutated")
	}
}

func TestWithLockerStateNoOp(t *testing.T) {
	g, _ := NewGrid(2, 3)
	for _, id := range []int{0, -1, 7, 100} {
		if got := WithLockerState(g, id, StateOpen); !got.Equal(g) {
			t.Errorf("id %d: expected unchanged grid", id)
		}
	}
	if got := WithLockerState(nil, 1, StateOpen); got != nil {
		t.Errorf("Expected nil for nil grid, got %+v", got)
	}
}

func TestWithRowState(t *testing.T) {
	g, _ := NewGrid(2, 3)
	next := WithRowState(g, 1, StateReserved)

	for _, id := range []int{4, 5, 6} {
		if next.Lockers[id].State != StateReserved {
			t.Errorf("Expected locker %d reserved, got %s", id, next.Lockers[id].State)
		}
	}
	for _, id := range []int{1, 2, 3} {
		if next.Lockers[id].State != StateClosed {
			t.Errorf("Row 0 locker %d changed to %s", id, next.Lockers[id].State)
		}
	}
}

func TestWithRowStateOutOfRange(t *testing.T) {
	g, _ := NewGrid(2, 3)
	for _, row := range []int{-1, 2, 10} {
		next := WithRowState(g, row, StateReserved)
		if !next.Equal(g) {
			t.Errorf("row %d: expected unchanged grid", row)
		}
		if len(next.Lockers) != 6 {
			t.Errorf("row %d: map grew to %d entries", row, len(next.Lockers))
		}
	}
	if got := WithRowState(nil, 0, StateOpen); got != nil {
		t.Errorf("Expected nil for nil grid")
	}
}

func TestWithRowStateSkipsMissingIDs(t *testing.T) {
	g, _ := NewGrid(2, 2)
	delete(g.Lockers, 4)

	next := WithRowState(g, 1, StateOpen)
	if _, ok := next.Lockers[4]; ok {
		t.Errorf("Missing locker 4 was created")
	}
	if next.Lockers[3].State != StateOpen {
		t.Errorf("Expected locker 3 open, got %s", next.Lockers[3].State)
	}
}

func TestParseState(t *testing.T) {
	for _, s := range States {
		got, err := ParseState(string(s))
		if err != nil || got != s {
			t.Errorf("ParseState(%q) = %q, %v", s, got, err)
		}
	}
	for _, raw := range []string{"", "OPEN", "broken"} {
		if _, err := ParseState(raw); !errors.Is(err, ErrInvalidState) {
			t.Errorf("ParseState(%q): expected ErrInvalidState, got %v", raw, err)
		}
	}
}

func TestSummarize(t *testing.T) {
	g, _ := NewGrid(2, 3)
	g = WithRowState(g, 0, StateReserved)
	g = WithLockerState(g, 5, StateOpen)

	s := Summarize(g)
	want := Summary{Total: 6, Open: 1, Closed: 2, Reserved: 3}
	if s != want {
		t.Errorf("Summarize = %+v, want %+v", s, want)
	}
	if Summarize(nil) != (Summary{}) {
		t.Errorf("Expected zero summary for nil grid")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	g, _ := NewGrid(3, 4)
	g = WithLockerState(g, 7, StateOpen)
	g = WithRowState(g, 2, StateReserved)

	data, err := Encode(g)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `"7":{"id":7,"state":"open"}`) {
		t.Errorf("Unexpected wire format: %s", data)
	}

	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !back.Equal(g) {
		t.Errorf("Round trip mismatch:\nwant %+v\ngot  %+v", g, back)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":      `{{{`,
		"string key":    `{"rows":1,"columns":1,"lockers":{"a":{"id":1,"state":"open"}}}`,
		"wrong count":   `{"rows":2,"columns":2,"lockers":{"1":{"id":1,"state":"open"}}}`,
		"id mismatch":   `{"rows":1,"columns":1,"lockers":{"1":{"id":2,"state":"open"}}}`,
		"unknown state": `{"rows":1,"columns":1,"lockers":{"1":{"id":1,"state":"broken"}}}`,
		"zero rows":     `{"rows":0,"columns":1,"lockers":{}}`,
		"overflow":      `{"rows":4,"columns":4611686018427387904,"lockers":{}}`,
		"too large":     `{"rows":1000,"columns":1000,"lockers":{}}`,
		"null":          `null`,
	}
	for name, raw := range cases {
		if _, err := Decode([]byte(raw)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
