// Package observability provides per-run statistics for collection invocations.
package observability

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Counter names recorded by the pipeline.
const (
	CounterEvents      = "events"
	CounterAccounts    = "accounts"
	CounterRows        = "rows"
	CounterAPICalls    = "api_calls"
	CounterChunkErrors = "chunk_errors"
)

// RunStats tracks counters for one invocation. Each invocation creates its
// own instance; there is no process-global state to leak between runs.
type RunStats struct {
	mu       sync.RWMutex
	counters map[string]int64
	started  time.Time
}

// NewRunStats creates a statistics tracker for a single run.
func NewRunStats() *RunStats {
	return &RunStats{
		counters: make(map[string]int64),
		started:  time.Now(),
	}
}

// Incr increments a counter by one. O(1) and thread-safe.
func (s *RunStats) Incr(name string) {
	s.Add(name, 1)
}

// Add increments a counter by n.
func (s *RunStats) Add(name string, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name] += n
}

// Get returns the current value of a counter.
func (s *RunStats) Get(name string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[name]
}

// Snapshot returns a copy of all counters.
func (s *RunStats) Snapshot() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]int64, len(s.counters))
	for name, value := range s.counters {
		snapshot[name] = value
	}
	return snapshot
}

// Summary renders the counters as a single log-friendly line, sorted by
// counter name, with the elapsed run time appended.
func (s *RunStats) Summary() string {
	snapshot := s.Snapshot()

	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names)+1)
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, snapshot[name]))
	}
	parts = append(parts, fmt.Sprintf("elapsed=%s", time.Since(s.started).Round(time.Millisecond)))
	return strings.Join(parts, " ")
}
