package events

import (
	"errors"
	"testing"
)

type recordingPersister struct {
	got []GridEvent
	err error
}

func (p *recordingPersister) Append(e GridEvent) error {
	p.got = append(p.got, e)
	return p.err
}

func TestAppendAssignsIdentity(t *testing.T) {
	el := NewEventLog(nil)
	e, err := el.Append(GridEvent{Type: EventTypeGridCreated, Rows: 2, Columns: 3})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if e.ID == "" || e.Timestamp.IsZero() {
		t.Errorf("Expected ID and timestamp to be set, got %+v", e)
	}
	if el.Len() != 1 {
		t.Errorf("Expected 1 event, got %d", el.Len())
	}
}

func TestAppendWritesThrough(t *testing.T) {
	p := &recordingPersister{}
	el := NewEventLog(p)
	el.Append(GridEvent{Type: EventTypeLockerStateChanged, LockerID: 4, State: "open"})

	if len(p.got) != 1 || p.got[0].LockerID != 4 {
		t.Errorf("Expected persister to receive locker 4 event, got %+v", p.got)
	}
}

func TestAppendKeepsEventOnPersistError(t *testing.T) {
	boom := errors.New("disk full")
	el := NewEventLog(&recordingPersister{err: boom})

	if _, err := el.Append(GridEvent{Type: EventTypeRowStateChanged}); !errors.Is(err, boom) {
		t.Errorf("Expected persister error, got %v", err)
	}
	if el.Len() != 1 {
		t.Errorf("Expected event kept in memory")
	}
}

func TestSinceAndByLocker(t *testing.T) {
	el := NewEventLog(nil)
	el.Append(GridEvent{Type: EventTypeGridCreated, Rows: 2, Columns: 3})
	el.Append(GridEvent{Type: EventTypeLockerStateChanged, LockerID: 4, State: "open"})
	el.Append(GridEvent{Type: EventTypeLockerStateChanged, LockerID: 2, State: "reserved"})

	if got := el.Since(1); len(got) != 2 || got[0].LockerID != 4 {
		t.Errorf("Since(1) = %+v", got)
	}
	if got := el.Since(3); got != nil {
		t.Errorf("Since(3) expected nil, got %+v", got)
	}
	if got := el.GetByLocker(2); len(got) != 1 || got[0].State != "reserved" {
		t.Errorf("GetByLocker(2) = %+v", got)
	}

	replay := el.Replay()
	replay[0].Rows = 99
	if el.Replay()[0].Rows != 2 {
		t.Errorf("Replay must return a copy")
	}
}

func TestRetentionBoundsMemory(t *testing.T) {
	el := NewEventLogWithRetention(nil, 4)
	for i := 1; i <= 20; i++ {
		el.Append(GridEvent{Type: EventTypeLockerStateChanged, LockerID: i, State: "open"})
	}

	if el.Len() != 20 {
		t.Errorf("Expected Len to count every append, got %d", el.Len())
	}
	kept := el.Replay()
	if len(kept) > 4 || kept[len(kept)-1].LockerID != 20 {
		t.Errorf("Expected at most 4 newest events, got %+v", kept)
	}

	got, next := el.Tail(0)
	if next != 20 || len(got) != len(kept) {
		t.Errorf("Tail(0) = %d events, next %d", len(got), next)
	}
	if got := el.Since(18); len(got) != 2 || got[0].LockerID != 19 {
		t.Errorf("Since(18) = %+v", got)
	}
	if got, next := el.Tail(20); got != nil || next != 20 {
		t.Errorf("Tail(20) = %+v, %d", got, next)
	}
}

func TestZeroRetentionKeepsEverything(t *testing.T) {
	el := NewEventLogWithRetention(nil, 0)
	for i := 0; i < 50; i++ {
		el.Append(GridEvent{Type: EventTypeRowStateChanged, Row: i})
	}
	if len(el.Replay()) != 50 {
		t.Errorf("Expected 50 events kept, got %d", len(el.Replay()))
	}
}
