package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MRamiBalles/LockerGrid/server/internal/events"
)

func TestEventWriterFeedsReconstructor(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "lockers.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	el := events.NewEventLog(NewEventWriter(s.Events))
	steps := []events.GridEvent{
		{Type: events.EventTypeGridCreated, ActorID: "admin", Rows: 2, Columns: 2},
		{Type: events.EventTypeLockerStateChanged, ActorID: "admin", LockerID: 3, State: "open"},
		{Type: events.EventTypeRowStateChanged, ActorID: "admin", Row: 0, State: "reserved"},
	}
	for _, e := range steps {
		if _, err := el.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	stored, err := s.Events.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(stored) != 3 || stored[2].Row != 0 || stored[2].State != "reserved" {
		t.Fatalf("Unexpected stored history %+v", stored)
	}

	g, err := NewReconstructor(s.Events).Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if g.Lockers[1].State != "reserved" || g.Lockers[3].State != "open" || g.Lockers[4].State != "closed" {
		t.Errorf("Unexpected rebuilt grid %+v", g.Lockers)
	}
}
