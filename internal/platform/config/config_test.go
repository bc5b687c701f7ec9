package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lockers.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Expected default addr :8080, got %s", cfg.Addr)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.Key != "locker_grid" {
		t.Errorf("Unexpected store defaults: %+v", cfg.Store)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, `
addr: ":9000"
store:
  driver: bolt
  path: /tmp/lockers.bolt
tuning:
  event_poll_interval: 1s
  client_send_buffer: 32
`)
	t.Setenv("LOCKERS_ADDR", ":9100")
	t.Setenv("LOCKERS_TUNING_CLIENT_SEND_BUFFER", "12")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9100" {
		t.Errorf("Expected env to override addr, got %s", cfg.Addr)
	}
	if cfg.Store.Driver != "bolt" || cfg.Store.Path != "/tmp/lockers.bolt" {
		t.Errorf("Expected YAML store settings, got %+v", cfg.Store)
	}
	if cfg.Tuning.EventPollInterval != time.Second {
		t.Errorf("Expected 1s poll interval, got %v", cfg.Tuning.EventPollInterval)
	}
	if cfg.Tuning.ClientSendBuffer != 12 {
		t.Errorf("Expected env client buffer 12, got %d", cfg.Tuning.ClientSendBuffer)
	}
	if cfg.Tuning.BroadcastBuffer != DefaultTuning().BroadcastBuffer {
		t.Errorf("Expected default broadcast buffer to survive, got %d", cfg.Tuning.BroadcastBuffer)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("LOCKERS_STORE_DRIVER", "etcd")
	if _, err := Load(""); err == nil {
		t.Fatal("Expected error for unknown driver")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestValidateEmptyKey(t *testing.T) {
	cfg := Default()
	cfg.Store.Key = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("Expected error for empty key")
	}
}

func TestLoadEventRetention(t *testing.T) {
	t.Setenv("LOCKERS_TUNING_EVENT_RETENTION", "500")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tuning.EventRetention != 500 {
		t.Errorf("Expected retention 500, got %d", cfg.Tuning.EventRetention)
	}

	cfg.Tuning.EventRetention = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for negative retention")
	}
}
