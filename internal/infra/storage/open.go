package storage

import (
	"fmt"

	"github.com/MRamiBalles/LockerGrid/server/internal/platform/config"
)

// Opened is the result of Open: the snapshot store plus the history
// repository when the backend provides one.
type Opened struct {
	Store  Store
	Events EventRepository
}

// Open builds the backend selected by cfg.Driver.
func Open(cfg config.StoreConfig) (*Opened, error) {
	switch cfg.Driver {
	case "sqlite":
		s, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		out := &Opened{Store: s}
		if cfg.History {
			out.Events = s.Events
		}
		return out, nil
	case "bolt":
		s, err := OpenBolt(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &Opened{Store: s}, nil
	case "gdata":
		s, err := OpenGdata(cfg.AppName)
		if err != nil {
			return nil, err
		}
		return &Opened{Store: s}, nil
	case "memory":
		return &Opened{Store: NewMemoryStore()}, nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}
