package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MRamiBalles/LockerGrid/server/internal/domain/locker"
	"github.com/MRamiBalles/LockerGrid/server/internal/events"
)

func seedHistory(t *testing.T, repo EventRepository) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 1, 29, 10, 0, 0, 0, time.UTC)
	history := []LockerEvent{
		{ID: "e1", EventType: string(events.EventTypeGridCreated), ActorID: "admin", Rows: 2, Columns: 3},
		{ID: "e2", EventType: string(events.EventTypeLockerStateChanged), ActorID: "admin", LockerID: 4, State: "open"},
		{ID: "e3", EventType: string(events.EventTypeRowStateChanged), ActorID: "admin", Row: 0, State: "reserved"},
	}
	for i, e := range history {
		e.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append %s: %v", e.ID, err)
		}
	}
}

func TestReconstructorRebuild(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "lockers.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	seedHistory(t, s.Events)

	g, err := NewReconstructor(s.Events).Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	want, _ := locker.NewGrid(2, 3)
	want = locker.WithLockerState(want, 4, locker.StateOpen)
	want = locker.WithRowState(want, 0, locker.StateReserved)
	if !g.Equal(want) {
		t.Errorf("Rebuilt grid mismatch:\nwant %+v\ngot  %+v", want, g)
	}
}

func TestReconstructorRecap(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "lockers.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	seedHistory(t, s.Events)

	recap, err := NewReconstructor(s.Events).Recap(context.Background(), 2)
	if err != nil {
		t.Fatalf("Recap: %v", err)
	}
	if len(recap) != 2 {
		t.Fatalf("Expected 2 recap lines, got %d", len(recap))
	}
	if !strings.Contains(recap[0].Summary, "locker 4 to open") {
		t.Errorf("Unexpected first line: %q", recap[0].Summary)
	}
	if !strings.Contains(recap[1].Summary, "row 0 to reserved") {
		t.Errorf("Unexpected second line: %q", recap[1].Summary)
	}
}

func TestByLocker(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "lockers.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	seedHistory(t, s.Events)

	got, err := s.Events.ByLocker(context.Background(), 4)
	if err != nil {
		t.Fatalf("ByLocker: %v", err)
	}
	if len(got) != 1 || got[0].ID != "e2" {
		t.Errorf("Expected event e2, got %+v", got)
	}
}

func TestReplayIgnoresChangesBeforeCreate(t *testing.T) {
	g, err := Replay([]LockerEvent{
		{ID: "x", EventType: string(events.EventTypeLockerStateChanged), LockerID: 1, State: "open"},
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if g != nil {
		t.Errorf("Expected no grid, got %+v", g)
	}
}
