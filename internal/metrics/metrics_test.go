package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()
	m.IncrementIteration()
	m.IncrementIteration()
	m.RecordViolation()
	m.RecordRetry()
	m.RecordToolCall("write")
	m.RecordToolCall("write")
	m.RecordToolCall("bash")

	assert.Equal(t, 2, m.Iterations())

	summary := m.Summary()
	assert.Equal(t, 2, summary["iterations"])
	assert.Equal(t, 1, summary["violations"])
	assert.Equal(t, 1, summary["retries"])
	assert.Equal(t, map[string]int{"write": 2, "bash": 1}, summary["tool_calls"])

	display := m.Display()
	assert.Contains(t, display, "Iterations : 2")
	assert.Contains(t, display, "bash: 1")
	assert.Contains(t, display, "write: 2")
}
