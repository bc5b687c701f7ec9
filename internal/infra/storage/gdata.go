package storage

import (
	"context"
	"fmt"

	"github.com/quasilyte/gdata/v2"
)

// gdataObject groups every key the server writes.
const gdataObject = "lockers"

// GdataStore persists snapshots in the per-application data directory
// managed by gdata. Under GOOS=js it maps to the browser's localStorage.
type GdataStore struct {
	m *gdata.Manager
}

// OpenGdata opens the data area for appName.
func OpenGdata(appName string) (*GdataStore, error) {
	m, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gdata storage: %w", err)
	}
	return &GdataStore{m: m}, nil
}

func (s *GdataStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if !s.m.ObjectPropExists(gdataObject, key) {
		return nil, false, nil
	}
	data, err := s.m.LoadObjectProp(gdataObject, key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return data, true, nil
}

func (s *GdataStore) Set(_ context.Context, key string, value []byte) error {
	if err := s.m.SaveObjectProp(gdataObject, key, value); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Close is a no-op; gdata holds no open handles.
func (s *GdataStore) Close() error {
	return nil
}
