// Package tool maps the closed set of tool names to implementations and
// dispatches model-issued calls through the policy and security gates. Every
// failure mode surfaces as a structured error result; nothing in this package
// panics or returns a Go error to the orchestrator.
package tool

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	// BashTimeout bounds one shell invocation.
	BashTimeout = 30 * time.Second
	// MaxBashOutput caps captured shell output in bytes.
	MaxBashOutput = 10000
	// MaxReadBytes caps file content returned by the read tool.
	MaxReadBytes = 50000
	// MaxGrepMatches caps matches returned by the grep tool.
	MaxGrepMatches = 50
	// MaxGlobResults caps paths returned by the glob tool.
	MaxGlobResults = 100
)

// Truncate cuts s at limit bytes, backing up to a rune boundary so the result
// stays valid UTF-8.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// Result is the structured payload every tool returns. Error results carry a
// single "error" key; success shapes are tool-specific.
type Result map[string]any

// IsError reports whether the result is an error payload.
func (r Result) IsError() bool {
	_, ok := r["error"]
	return ok
}

func errResult(format string, args ...any) Result {
	return Result{"error": fmt.Sprintf(format, args...)}
}
