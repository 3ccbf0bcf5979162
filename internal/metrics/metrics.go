// Package metrics tracks per-session counters: iterations, tool usage,
// violations, and transport retries.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics is a concurrency-safe counter set for one session.
type Metrics struct {
	mu        sync.Mutex
	iters     int
	toolCalls map[string]int
	violation int
	retries   int
	start     time.Time
}

// New creates an empty Metrics with the clock started.
func New() *Metrics {
	return &Metrics{toolCalls: make(map[string]int), start: time.Now()}
}

func (m *Metrics) RecordToolCall(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolCalls[name]++
}

func (m *Metrics) RecordViolation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.violation++
}

func (m *Metrics) RecordRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retries++
}

func (m *Metrics) IncrementIteration() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.iters++
}

// Iterations returns the iteration counter.
func (m *Metrics) Iterations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.iters
}

// Summary returns a snapshot of all counters.
func (m *Metrics) Summary() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make(map[string]int, len(m.toolCalls))
	for name, count := range m.toolCalls {
		calls[name] = count
	}
	return map[string]any{
		"iterations": m.iters,
		"tool_calls": calls,
		"violations": m.violation,
		"retries":    m.retries,
		"elapsed_s":  time.Since(m.start).Seconds(),
	}
}

// Display renders the counters for the end-of-session summary.
func (m *Metrics) Display() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := []string{
		fmt.Sprintf("Iterations : %d", m.iters),
		fmt.Sprintf("Violations : %d", m.violation),
		fmt.Sprintf("Retries    : %d", m.retries),
		fmt.Sprintf("Elapsed    : %.1fs", time.Since(m.start).Seconds()),
		"Tool calls :",
	}
	names := make([]string, 0, len(m.toolCalls))
	for name := range m.toolCalls {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %s: %d", name, m.toolCalls[name]))
	}
	return strings.Join(lines, "\n")
}
