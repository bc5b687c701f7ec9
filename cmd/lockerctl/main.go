// Package main - lockerctl
// Local command line client that edits the grid directly in the store,
// without going through a running server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/MRamiBalles/LockerGrid/server/internal/domain/locker"
	"github.com/MRamiBalles/LockerGrid/server/internal/events"
	"github.com/MRamiBalles/LockerGrid/server/internal/grid"
	"github.com/MRamiBalles/LockerGrid/server/internal/infra/storage"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/config"
	"github.com/MRamiBalles/LockerGrid/server/internal/platform/logger"
)

const usage = `usage: lockerctl [flags] <command> [args]

commands:
  create ROWS COLUMNS   replace the grid with a new all-closed grid
  set ID STATE          set one locker (open, closed, reserved)
  row ROW STATE         set every locker in a zero-based row
  show                  print the grid
  summary               print per-state counts
`

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	driver := flag.String("driver", "", "Override the store driver")
	path := flag.String("path", "", "Override the store path")
	actor := flag.String("actor", "lockerctl", "Actor recorded in history")
	verbose := flag.Bool("v", false, "Log at debug level")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage); flag.PrintDefaults() }
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		color.Red("config: %v", err)
		os.Exit(2)
	}
	if *driver != "" {
		cfg.Store.Driver = *driver
	}
	if *path != "" {
		cfg.Store.Path = *path
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logger.New(logger.Options{Name: "lockerctl", Level: level, Output: os.Stderr})

	ctx := grid.WithActor(context.Background(), *actor)
	if err := run(ctx, cfg.Store, log, flag.Args(), os.Stdout); err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.StoreConfig, log *logger.Logger, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}

	opened, err := storage.Open(cfg)
	if err != nil {
		return err
	}
	defer opened.Store.Close()

	var persister events.EventPersister
	if opened.Events != nil {
		persister = storage.NewEventWriter(opened.Events)
	}
	m := grid.NewManager(opened.Store, cfg.Key, events.NewEventLog(persister), log)
	if _, err := m.Restore(ctx); err != nil {
		return err
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "create":
		nums, err := ints(rest, 2)
		if err != nil {
			return err
		}
		g, err := m.CreateGrid(ctx, nums[0], nums[1])
		if err != nil {
			return err
		}
		printGrid(out, g)
	case "set":
		id, state, err := intAndState(rest)
		if err != nil {
			return err
		}
		g, err := m.SetLockerState(ctx, id, state)
		if err != nil {
			return err
		}
		printGrid(out, g)
	case "row":
		row, state, err := intAndState(rest)
		if err != nil {
			return err
		}
		g, err := m.SetRowState(ctx, row, state)
		if err != nil {
			return err
		}
		printGrid(out, g)
	case "show":
		printGrid(out, m.Current())
	case "summary":
		s := locker.Summarize(m.Current())
		fmt.Fprintf(out, "total=%d open=%d closed=%d reserved=%d\n", s.Total, s.Open, s.Closed, s.Reserved)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
	return nil
}

func ints(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	out := make([]int, n)
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("argument %q is not a number", a)
		}
		out[i] = v
	}
	return out, nil
}

func intAndState(args []string) (int, locker.State, error) {
	if len(args) != 2 {
		return 0, "", fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	nums, err := ints(args[:1], 1)
	if err != nil {
		return 0, "", err
	}
	state, err := locker.ParseState(args[1])
	if err != nil {
		return 0, "", err
	}
	return nums[0], state, nil
}

var stateColor = map[locker.State]*color.Color{
	locker.StateOpen:     color.New(color.FgGreen),
	locker.StateClosed:   color.New(color.FgRed),
	locker.StateReserved: color.New(color.FgYellow),
}

func printGrid(out io.Writer, g *locker.Grid) {
	if g == nil {
		fmt.Fprintln(out, "no grid")
		return
	}
	for row := 0; row < g.Rows; row++ {
		cells := make([]string, 0, g.Columns)
		for _, id := range g.RowIDs(row) {
			l := g.Lockers[id]
			label := fmt.Sprintf("%3d %-8s", id, l.State)
			if c, ok := stateColor[l.State]; ok {
				label = c.Sprint(label)
			}
			cells = append(cells, label)
		}
		fmt.Fprintln(out, strings.Join(cells, " "))
	}
}
