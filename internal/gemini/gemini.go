// Package gemini is the cloud-backed completion provider, used when a local
// endpoint is not available. It degrades streaming to a single buffered
// delta; the turn loop buffers per-iteration output anyway, so the
// difference is not user-visible.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"minarai/internal/llm"
)

var (
	// ErrNoCandidates is returned when the API responds without content.
	ErrNoCandidates = errors.New("no candidates in response")
	// ErrContentBlocked is returned when safety filters blocked the reply.
	ErrContentBlocked = errors.New("content blocked by safety filters")
)

// generativeClient is the slice of the SDK surface the provider needs.
type generativeClient interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type sdkClient struct {
	client *genai.Client
}

func (c *sdkClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, config)
}

// Client implements llm.Completer against the Gemini API.
type Client struct {
	client generativeClient
	model  string
}

// NewClient creates a Client with the official SDK.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Client{client: &sdkClient{client: sdk}, model: model}, nil
}

// Complete issues one request and returns the full response.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (*llm.Response, error) {
	system, contents := toContents(messages)
	config := &genai.GenerateContentConfig{
		SafetySettings: blockNothing(),
		Tools:          toTools(tools),
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(system)},
		}
	}

	resp, err := c.client.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	return fromResponse(resp)
}

// StartStream satisfies llm.Completer by completing eagerly and replaying
// the result as a one-delta stream.
func (c *Client) StartStream(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Stream, error) {
	resp, err := c.Complete(ctx, messages, tools)
	if err != nil {
		return nil, err
	}
	return &bufferedStream{response: resp}, nil
}

type bufferedStream struct {
	response *llm.Response
	step     int
}

func (s *bufferedStream) Next(_ context.Context) (llm.StreamEvent, error) {
	switch {
	case s.step == 0 && s.response.Content != "":
		s.step = 1
		return llm.StreamEvent{Delta: s.response.Content}, nil
	case s.step <= 1:
		s.step = 2
		return llm.StreamEvent{Response: s.response}, nil
	default:
		return llm.StreamEvent{}, llm.ErrStreamClosed
	}
}

func (s *bufferedStream) Close() {}
