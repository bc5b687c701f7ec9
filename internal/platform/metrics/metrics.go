// Package metrics provides observability for the locker server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Command metrics
	commands   map[string]*int64
	commandsMu sync.RWMutex

	// Store metrics
	StoreWrites      int64
	StoreWriteLatSum int64 // nanoseconds
	StoreWriteLatMax int64
	StoreWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		commands:  make(map[string]*int64),
		StartTime: time.Now(),
	}
}

// Global collector instance
var collector = NewCollector()

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordCommand counts one applied grid command.
func (c *Collector) RecordCommand(commandType string) {
	c.commandsMu.RLock()
	counter, ok := c.commands[commandType]
	c.commandsMu.RUnlock()
	if !ok {
		c.commandsMu.Lock()
		if counter, ok = c.commands[commandType]; !ok {
			counter = new(int64)
			c.commands[commandType] = counter
		}
		c.commandsMu.Unlock()
	}
	atomic.AddInt64(counter, 1)
}

// CommandCount returns how many commands of a type were applied.
func (c *Collector) CommandCount(commandType string) int64 {
	c.commandsMu.RLock()
	defer c.commandsMu.RUnlock()
	if counter, ok := c.commands[commandType]; ok {
		return atomic.LoadInt64(counter)
	}
	return 0
}

// RecordStoreWrite records a snapshot write.
func (c *Collector) RecordStoreWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.StoreWrites, 1)
	atomic.AddInt64(&c.StoreWriteLatSum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.StoreWriteLatMax) {
		atomic.StoreInt64(&c.StoreWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.StoreWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

func (c *Collector) commandSnapshot() map[string]int64 {
	c.commandsMu.RLock()
	defer c.commandsMu.RUnlock()
	out := make(map[string]int64, len(c.commands))
	for k, v := range c.commands {
		out[k] = atomic.LoadInt64(v)
	}
	return out
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	writes := atomic.LoadInt64(&c.StoreWrites)

	var writeAvg float64
	if writes > 0 {
		writeAvg = float64(atomic.LoadInt64(&c.StoreWriteLatSum)) / float64(writes) / 1e6 // ms
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"commands": c.commandSnapshot(),

		"store": map[string]interface{}{
			"writes":           writes,
			"avg_write_lat_ms": writeAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.StoreWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.StoreWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		commands := c.commandSnapshot()
		types := make([]string, 0, len(commands))
		for k := range commands {
			types = append(types, k)
		}
		sort.Strings(types)

		fmt.Fprintf(w, "# HELP lockers_commands_total Applied grid commands\n")
		fmt.Fprintf(w, "# TYPE lockers_commands_total counter\n")
		for _, k := range types {
			fmt.Fprintf(w, "lockers_commands_total{type=%q} %d\n", k, commands[k])
		}
		fmt.Fprintln(w)

		fmt.Fprintf(w, "# HELP lockers_store_writes_total Snapshot writes\n")
		fmt.Fprintf(w, "# TYPE lockers_store_writes_total counter\n")
		fmt.Fprintf(w, "lockers_store_writes_total %d\n\n", atomic.LoadInt64(&c.StoreWrites))

		fmt.Fprintf(w, "# HELP lockers_store_write_errors_total Failed snapshot writes\n")
		fmt.Fprintf(w, "# TYPE lockers_store_write_errors_total counter\n")
		fmt.Fprintf(w, "lockers_store_write_errors_total %d\n\n", atomic.LoadInt64(&c.StoreWriteErrors))

		fmt.Fprintf(w, "# HELP lockers_store_write_latency_max_ms Maximum snapshot write latency\n")
		fmt.Fprintf(w, "# TYPE lockers_store_write_latency_max_ms gauge\n")
		fmt.Fprintf(w, "lockers_store_write_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.StoreWriteLatMax))/1e6)

		fmt.Fprintf(w, "# HELP lockers_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE lockers_ws_connections gauge\n")
		fmt.Fprintf(w, "lockers_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP lockers_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE lockers_ws_messages_total counter\n")
		fmt.Fprintf(w, "lockers_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "lockers_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
