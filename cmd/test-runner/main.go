// Package main - test-runner
// Runs the grid acceptance scenarios against a chosen storage backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/MRamiBalles/LockerGrid/server/internal/infra/storage"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/logger"
	"github.com/MRamiBalles/LockerGrid/server/test"
)

func main() {
	driver := flag.String("driver", "memory", "Store driver: memory, sqlite or bolt")
	flag.Parse()

	factory, cleanup, err := storeFactory(*driver)
	if err != nil {
		color.Red("%v", err)
		os.Exit(2)
	}
	defer cleanup()

	fmt.Println("LOCKER GRID - ACCEPTANCE SUITE")
	fmt.Println("==============================")
	fmt.Printf("Driver: %s\n", *driver)

	suite := test.NewAcceptanceSuite(factory, logger.NewLogger())
	suite.RunTest(context.Background())

	passed, failed := 0, 0
	for _, r := range suite.GetResults() {
		if r.Passed {
			passed++
			color.Green("  PASS %s", r.ScenarioName)
		} else {
			failed++
			color.Red("  FAIL %s: %s", r.ScenarioName, r.Reason)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("   Passed: %d\n", passed)
	fmt.Printf("   Failed: %d\n", failed)

	if failed > 0 {
		cleanup()
		os.Exit(1)
	}
}

func storeFactory(driver string) (test.StoreFactory, func(), error) {
	switch driver {
	case "memory":
		return nil, func() {}, nil
	case "sqlite", "bolt":
		dir, err := os.MkdirTemp("", "locker-scenarios-")
		if err != nil {
			return nil, nil, err
		}
		n := 0
		factory := func() (storage.Store, error) {
			n++
			path := filepath.Join(dir, fmt.Sprintf("scenario-%d.db", n))
			if driver == "sqlite" {
				return storage.OpenSQLite(path)
			}
			return storage.OpenBolt(path)
		}
		return factory, func() { os.RemoveAll(dir) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown driver %q", driver)
	}
}
