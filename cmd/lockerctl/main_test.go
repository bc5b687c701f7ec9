package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/MRamiBalles/LockerGrid/server/internal/platform/config"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/logger"
)

func TestCommandsPersistBetweenRuns(t *testing.T) {
	color.NoColor = true
	cfg := config.StoreConfig{
		Driver:  "sqlite",
		Path:    filepath.Join(t.TempDir(), "lockers.db"),
		Key:     "locker_grid",
		History: true,
	}
	ctx := context.Background()

	steps := [][]string{
		{"create", "2", "3"},
		{"set", "4", "open"},
		{"row", "0", "reserved"},
	}
	for _, args := range steps {
		var out bytes.Buffer
		if err := run(ctx, cfg, logger.Discard(), args, &out); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	var out bytes.Buffer
	if err := run(ctx, cfg, logger.Discard(), []string{"summary"}, &out); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "total=6 open=1 closed=2 reserved=3" {
		t.Errorf("Unexpected summary: %q", got)
	}
}

func TestRejectsBadInput(t *testing.T) {
	cfg := config.StoreConfig{Driver: "memory", Key: "locker_grid"}
	ctx := context.Background()

	cases := [][]string{
		nil,
		{"create", "0", "5"},
		{"create", "x", "5"},
		{"set", "1", "ajar"},
		{"row", "1"},
		{"explode"},
	}
	for _, args := range cases {
		if err := run(ctx, cfg, logger.Discard(), args, &bytes.Buffer{}); err == nil {
			t.Errorf("Expected error for %v", args)
		}
	}
}

func TestShowWithoutGrid(t *testing.T) {
	cfg := config.StoreConfig{Driver: "memory", Key: "locker_grid"}
	var out bytes.Buffer
	if err := run(context.Background(), cfg, logger.Discard(), []string{"show"}, &out); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != "no grid" {
		t.Errorf("Unexpected output: %q", out.String())
	}
}
