package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults for the Ollama transport. The chunk timeout bounds how long a
// stream may go silent before the call fails.
const (
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 1 * time.Second
	DefaultChunkTimeout = 120 * time.Second
	DefaultPollInterval = 100 * time.Millisecond

	streamBufferSize = 32
	maxScanTokenSize = 1024 * 1024
)

// StatusError is a non-retryable HTTP failure from the chat endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat endpoint returned status %d: %s", e.Code, e.Body)
}

// Options configures an Ollama client. Zero values fall back to defaults.
type Options struct {
	MaxRetries   int
	RetryDelay   time.Duration
	ChunkTimeout time.Duration
	PollInterval time.Duration
	HTTPTimeout  time.Duration
	Logger       *zap.Logger
}

// Client talks to an Ollama-compatible /api/chat endpoint.
type Client struct {
	baseURL      string
	model        string
	httpc        *http.Client
	maxRetries   int
	retryDelay   time.Duration
	chunkTimeout time.Duration
	pollInterval time.Duration
	log          *zap.Logger
}

// NewClient creates a transport client for the given endpoint and model.
func NewClient(baseURL, model string, opts Options) *Client {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.ChunkTimeout == 0 {
		opts.ChunkTimeout = DefaultChunkTimeout
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		model:        model,
		httpc:        &http.Client{Timeout: opts.HTTPTimeout},
		maxRetries:   opts.MaxRetries,
		retryDelay:   opts.RetryDelay,
		chunkTimeout: opts.ChunkTimeout,
		pollInterval: opts.PollInterval,
		log:          opts.Logger,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// SetModel switches the model used for subsequent requests. In-flight
// streams keep the model they started with.
func (c *Client) SetModel(name string) { c.model = name }

// Wire types for the /api/chat protocol. Streamed responses are a sequence
// of line-delimited chatChunk objects, the last carrying done=true.
type chatRequest struct {
	Model    string           `json:"model"`
	Messages []Message        `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream"`
}

type wireToolCall struct {
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type wireMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls"`
}

type chatChunk struct {
	Message wireMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error"`
}

// Complete sends a blocking, non-streamed completion request.
func (c *Client) Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (*Response, error) {
	resp, err := c.connect(ctx, messages, tools, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var chunk chatChunk
	if err := json.NewDecoder(resp.Body).Decode(&chunk); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}
	if chunk.Error != "" {
		return nil, fmt.Errorf("chat endpoint error: %s", chunk.Error)
	}
	return &Response{
		Content:   chunk.Message.Content,
		ToolCalls: parseToolCalls(chunk.Message.ToolCalls),
	}, nil
}

// StartStream begins a streamed completion. A single worker goroutine reads
// the response body and pushes events into a bounded channel; the caller
// consumes them through Stream.Next, which polls so cancellation stays
// observable between reads.
func (c *Client) StartStream(ctx context.Context, messages []Message, tools []ToolDefinition) (Stream, error) {
	resp, err := c.connect(ctx, messages, tools, true)
	if err != nil {
		return nil, err
	}

	s := &chatStream{
		body:         resp.Body,
		events:       make(chan StreamEvent, streamBufferSize),
		errc:         make(chan error, 1),
		done:         make(chan struct{}),
		chunkTimeout: c.chunkTimeout,
		pollInterval: c.pollInterval,
	}
	go s.readLoop()
	return s, nil
}

// connect performs the HTTP POST with the retry policy: connection-level
// failures and 5xx responses retry up to maxRetries with a fixed delay; 4xx
// fails immediately, except a 400 on a tool-enabled request, which is retried
// once with tools omitted (the model does not support structured calling).
func (c *Client) connect(ctx context.Context, messages []Message, tools []ToolDefinition, stream bool) (*http.Response, error) {
	toolsDropped := false
	attempt := 0
	var lastErr error

	for {
		body, err := json.Marshal(chatRequest{
			Model:    c.model,
			Messages: messages,
			Tools:    tools,
			Stream:   stream,
		})
		if err != nil {
			return nil, fmt.Errorf("marshaling chat request: %w", err)
		}

		resp, err := c.post(ctx, body)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err

		case resp.StatusCode == http.StatusOK:
			return resp, nil

		case resp.StatusCode == http.StatusBadRequest && len(tools) > 0 && !toolsDropped:
			// The model rejected structured tool calling. Degrade to a
			// plain request; the text extractor picks up the slack.
			drainClose(resp)
			c.log.Debug("tool-enabled request rejected, retrying without tools")
			toolsDropped = true
			tools = nil
			continue

		case resp.StatusCode >= 500:
			lastErr = &StatusError{Code: resp.StatusCode, Body: readSnippet(resp)}
			drainClose(resp)

		default:
			statusErr := &StatusError{Code: resp.StatusCode, Body: readSnippet(resp)}
			drainClose(resp)
			return nil, statusErr
		}

		attempt++
		if attempt > c.maxRetries {
			return nil, fmt.Errorf("%w: %d attempts failed, last error: %v", ErrUnreachable, attempt, lastErr)
		}
		c.log.Debug("retrying chat request",
			zap.Int("attempt", attempt),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.httpc.Do(req)
}

func readSnippet(resp *http.Response) string {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return strings.TrimSpace(string(b))
}

func drainClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

// parseToolCalls converts wire tool calls, decoding string-encoded argument
// payloads. Undecodable arguments are preserved under a "raw" key rather
// than dropped.
func parseToolCalls(calls []wireToolCall) []ToolCall {
	out := make([]ToolCall, 0, len(calls))
	for _, tc := range calls {
		out = append(out, ToolCall{
			Name:      tc.Function.Name,
			Arguments: decodeArguments(tc.Function.Arguments),
		})
	}
	return out
}

func decodeArguments(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		return m
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			return m
		}
		return map[string]any{"raw": s}
	}
	return map[string]any{"raw": string(raw)}
}

// chatStream implements Stream over a line-delimited response body.
type chatStream struct {
	body   io.ReadCloser
	events chan StreamEvent
	errc   chan error
	done   chan struct{}

	chunkTimeout time.Duration
	pollInterval time.Duration

	closeOnce sync.Once
}

// readLoop runs on the worker goroutine. It parses one JSON chunk per line,
// forwards content deltas, and finishes with the accumulated full response.
func (s *chatStream) readLoop() {
	defer close(s.events)

	var content strings.Builder
	var toolCalls []ToolCall

	scanner := bufio.NewScanner(s.body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk chatChunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			s.errc <- fmt.Errorf("chat endpoint error: %s", chunk.Error)
			return
		}

		if chunk.Message.Content != "" {
			content.WriteString(chunk.Message.Content)
			if !s.send(StreamEvent{Delta: chunk.Message.Content}) {
				return
			}
		}
		// Tool calls arrive on the terminal message.
		toolCalls = append(toolCalls, parseToolCalls(chunk.Message.ToolCalls)...)

		if chunk.Done {
			s.send(StreamEvent{Response: &Response{
				Content:   content.String(),
				ToolCalls: toolCalls,
			}})
			return
		}
	}

	if err := scanner.Err(); err != nil {
		select {
		case s.errc <- err:
		default:
		}
		return
	}
	// Body ended without a done marker: treat what we have as final.
	s.send(StreamEvent{Response: &Response{
		Content:   content.String(),
		ToolCalls: toolCalls,
	}})
}

func (s *chatStream) send(ev StreamEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Next polls the event channel with a short interval so the caller can
// observe ctx cancellation between polls. If no event arrives within the
// chunk timeout the stream is failed with ErrStreamStalled.
func (s *chatStream) Next(ctx context.Context) (StreamEvent, error) {
	deadline := time.Now().Add(s.chunkTimeout)
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return StreamEvent{}, ctx.Err()
		case ev, ok := <-s.events:
			if !ok {
				select {
				case err := <-s.errc:
					s.Close()
					return StreamEvent{}, err
				default:
					s.Close()
					return StreamEvent{}, ErrStreamClosed
				}
			}
			return ev, nil
		case <-time.After(s.pollInterval):
			if time.Now().After(deadline) {
				s.Close()
				return StreamEvent{}, ErrStreamStalled
			}
		}
	}
}

// Close terminates the worker and releases the connection.
func (s *chatStream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.body.Close()
	})
}
