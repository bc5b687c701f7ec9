// Package main - agitator
// Load generator: many concurrent clients spamming grid commands over WebSocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/LockerGrid/server/internal/domain/locker"
	"github.com/MRamiBalles/LockerGrid/server/internal/network"
)

// Config for the agitator
type Config struct {
	ServerURL      string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	Rows           int
	Columns        int
}

// Stats tracks what the clients sent and what the hub pushed back.
type Stats struct {
	lockerCmds  atomic.Int64
	rowCmds     atomic.Int64
	gridUpdates atomic.Int64
	events      atomic.Int64
	serverErrs  atomic.Int64
	failures    atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
}

func (s *Stats) sent() int64 {
	return s.lockerCmds.Load() + s.rowCmds.Load()
}

func (s *Stats) observe(d time.Duration) {
	s.mu.Lock()
	s.latencies = append(s.latencies, d)
	s.mu.Unlock()
}

// Results is written to stress_test_results.json.
type Results struct {
	LockerCommands int64   `json:"locker_commands"`
	RowCommands    int64   `json:"row_commands"`
	GridUpdates    int64   `json:"grid_updates"`
	Events         int64   `json:"events"`
	ServerErrors   int64   `json:"server_errors"`
	Failures       int64   `json:"client_failures"`
	Throughput     float64 `json:"commands_per_sec"`
	WriteP50       string  `json:"write_p50"`
	WriteP95       string  `json:"write_p95"`
	WriteMax       string  `json:"write_max"`
	Clients        int     `json:"clients"`
	Grid           string  `json:"grid"`
	Duration       string  `json:"duration"`
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	numClients := flag.Int("clients", 50, "Number of concurrent clients")
	interval := flag.Duration("interval", 100*time.Millisecond, "Command interval per client")
	duration := flag.Duration("duration", 60*time.Second, "Test duration")
	rows := flag.Int("rows", 10, "Rows of the grid created before the run")
	columns := flag.Int("columns", 10, "Columns of the grid created before the run")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		Rows:           *rows,
		Columns:        *columns,
	}

	fmt.Println("=========================================")
	fmt.Println("AGITATOR - Locker grid stress test")
	fmt.Println("=========================================")
	fmt.Printf("Server: %s\n", config.ServerURL)
	fmt.Printf("Clients: %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Printf("Grid: %dx%d\n", config.Rows, config.Columns)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		color.Yellow("\nInterrupt received, stopping...")
		cancel()
	}()

	if err := createGrid(ctx, config); err != nil {
		color.Red("Failed to create grid: %v", err)
		os.Exit(1)
	}

	stats := runStressTest(ctx, config)
	printResults(stats, config)
}

func dial(ctx context.Context, serverURL, actor string) (*websocket.Conn, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("actor", actor)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	return conn, err
}

func createGrid(ctx context.Context, config Config) error {
	conn, err := dial(ctx, config.ServerURL, "agitator")
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.WriteJSON(network.Command{
		Type:    network.CommandCreateGrid,
		Rows:    config.Rows,
		Columns: config.Columns,
	})
}

func runStressTest(ctx context.Context, config Config) *Stats {
	stats := &Stats{latencies: make([]time.Duration, 0, 10000)}

	var wg sync.WaitGroup
	fmt.Println("\nStarting clients...")
	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Printf("All %d clients started\n\n", config.NumClients)

	go func() {
		progress := time.NewTicker(5 * time.Second)
		defer progress.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-progress.C:
				fmt.Printf("Progress: commands=%d grid_updates=%d errors=%d\n",
					stats.sent(), stats.gridUpdates.Load(), stats.serverErrs.Load()+stats.failures.Load())
			}
		}
	}()

	wg.Wait()
	return stats
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	actor := fmt.Sprintf("AGITATOR_%03d", clientID)

	conn, err := dial(ctx, config.ServerURL, actor)
	if err != nil {
		log.Printf("%s: connection failed: %v", actor, err)
		stats.failures.Add(1)
		return
	}
	defer conn.Close()

	go func() {
		for {
			var msg network.Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case network.MessageGridUpdated:
				stats.gridUpdates.Add(1)
			case network.MessageEvent:
				stats.events.Add(1)
			case network.MessageError:
				stats.serverErrs.Add(1)
			}
		}
	}()

	pace := time.NewTicker(config.ActionInterval)
	defer pace.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pace.C:
			cmd := randomCommand(config)
			start := time.Now()
			if err := conn.WriteJSON(cmd); err != nil {
				stats.failures.Add(1)
				return
			}
			stats.observe(time.Since(start))
			if cmd.Type == network.CommandSetRowState {
				stats.rowCmds.Add(1)
			} else {
				stats.lockerCmds.Add(1)
			}
		}
	}
}

// randomCommand picks a row command one time in ten.
func randomCommand(config Config) network.Command {
	state := string(locker.States[rand.Intn(len(locker.States))])
	if rand.Intn(10) == 0 {
		return network.Command{Type: network.CommandSetRowState, Row: rand.Intn(config.Rows), State: state}
	}
	return network.Command{
		Type:     network.CommandSetLockerState,
		LockerID: rand.Intn(config.Rows*config.Columns) + 1,
		State:    state,
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}

func printResults(stats *Stats, config Config) {
	stats.mu.Lock()
	sorted := append([]time.Duration(nil), stats.latencies...)
	stats.mu.Unlock()
	slices.Sort(sorted)

	res := Results{
		LockerCommands: stats.lockerCmds.Load(),
		RowCommands:    stats.rowCmds.Load(),
		GridUpdates:    stats.gridUpdates.Load(),
		Events:         stats.events.Load(),
		ServerErrors:   stats.serverErrs.Load(),
		Failures:       stats.failures.Load(),
		Throughput:     float64(stats.sent()) / config.TestDuration.Seconds(),
		WriteP50:       percentile(sorted, 0.50).String(),
		WriteP95:       percentile(sorted, 0.95).String(),
		Clients:        config.NumClients,
		Grid:           fmt.Sprintf("%dx%d", config.Rows, config.Columns),
		Duration:       config.TestDuration.String(),
	}
	if len(sorted) > 0 {
		res.WriteMax = sorted[len(sorted)-1].String()
	}

	fmt.Println("\n=========================================")
	fmt.Println("STRESS TEST RESULTS")
	fmt.Println("=========================================")
	fmt.Printf("Locker commands:  %d\n", res.LockerCommands)
	fmt.Printf("Row commands:     %d\n", res.RowCommands)
	fmt.Printf("Grid updates:     %d\n", res.GridUpdates)
	fmt.Printf("Events received:  %d\n", res.Events)
	fmt.Printf("Server errors:    %d\n", res.ServerErrors)
	fmt.Printf("Client failures:  %d\n", res.Failures)
	fmt.Printf("Throughput:       %.2f cmd/sec\n", res.Throughput)
	fmt.Printf("Write latency:    p50=%s p95=%s max=%s\n", res.WriteP50, res.WriteP95, res.WriteMax)

	sent := stats.sent()
	errRate := float64(res.ServerErrors+res.Failures) / float64(sent+1)
	fmt.Println("-----------------------------------------")
	switch {
	case sent == 0:
		color.Red("FAILED: no commands were sent")
	case res.GridUpdates == 0:
		color.Red("FAILED: hub never broadcast a grid")
	case errRate == 0:
		color.Green("PASSED: grid kept up with the load")
	case errRate < 0.05:
		color.Yellow("WARNING: %.2f%% of commands failed", errRate*100)
	default:
		color.Red("FAILED: %.2f%% of commands failed", errRate*100)
	}

	data, _ := json.MarshalIndent(res, "", "  ")
	if err := os.WriteFile("stress_test_results.json", data, 0644); err != nil {
		color.Red("Failed to save results: %v", err)
		return
	}
	fmt.Println("Results saved to stress_test_results.json")
}
