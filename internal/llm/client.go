package llm

import (
	"context"
	"errors"
)

// Sentinel errors surfaced by transport implementations.
var (
	// ErrUnreachable is returned when the endpoint cannot be contacted
	// after all retry attempts.
	ErrUnreachable = errors.New("model endpoint unreachable")

	// ErrStreamStalled is returned when a stream produces no data within
	// the configured chunk timeout.
	ErrStreamStalled = errors.New("stream stalled: no data within chunk timeout")

	// ErrStreamClosed is returned by Next after the final response has
	// been delivered or Close has been called.
	ErrStreamClosed = errors.New("stream closed")
)

// StreamEvent is one element of a streamed completion: either an incremental
// content delta or the terminal full response. Exactly one event per stream
// carries a non-nil Response, and it is always the last.
type StreamEvent struct {
	Delta    string
	Response *Response
}

// Stream is a polled handle over an in-flight streamed completion. Next
// blocks at most a short poll interval at a time so the caller observes
// context cancellation promptly instead of blocking on the socket.
type Stream interface {
	// Next returns the next event. After the event carrying the final
	// Response, subsequent calls return ErrStreamClosed.
	Next(ctx context.Context) (StreamEvent, error)

	// Close releases the underlying connection. Safe to call twice.
	Close()
}

// Completer issues completion requests against a model backend.
type Completer interface {
	// Complete performs a blocking, non-streamed completion.
	Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (*Response, error)

	// StartStream begins a streamed completion. The returned Stream yields
	// content deltas and is terminated by exactly one final Response.
	StartStream(ctx context.Context, messages []Message, tools []ToolDefinition) (Stream, error)
}
