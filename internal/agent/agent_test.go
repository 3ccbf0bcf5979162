package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minarai/internal/llm"
	"minarai/internal/metrics"
	"minarai/internal/policy"
	"minarai/internal/security"
	"minarai/internal/tool"
	"minarai/internal/validate"
)

type mockCompleter struct {
	completeFunc    func(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (*llm.Response, error)
	startStreamFunc func(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Stream, error)
}

func (m *mockCompleter) Complete(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (*llm.Response, error) {
	return m.completeFunc(ctx, messages, tools)
}

func (m *mockCompleter) StartStream(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Stream, error) {
	if m.startStreamFunc != nil {
		return m.startStreamFunc(ctx, messages, tools)
	}
	resp, err := m.completeFunc(ctx, messages, tools)
	if err != nil {
		return nil, err
	}
	return &mockStream{response: resp}, nil
}

// mockStream yields the response content as one delta, then the terminal
// response.
type mockStream struct {
	response *llm.Response
	step     int
}

func (s *mockStream) Next(ctx context.Context) (llm.StreamEvent, error) {
	switch s.step {
	case 0:
		s.step++
		if s.response.Content == "" {
			return llm.StreamEvent{Response: s.response}, nil
		}
		return llm.StreamEvent{Delta: s.response.Content}, nil
	case 1:
		s.step++
		return llm.StreamEvent{Response: s.response}, nil
	default:
		return llm.StreamEvent{}, llm.ErrStreamClosed
	}
}

func (s *mockStream) Close() {}

type recordingSession struct {
	events []string
}

func (s *recordingSession) Append(eventType string, _ map[string]any) {
	s.events = append(s.events, eventType)
}

type agentFixture struct {
	agent   *Agent
	metrics *metrics.Metrics
	session *recordingSession
	workdir string
}

func newAgent(t *testing.T, mode policy.Mode, completer llm.Completer, opts Options) *agentFixture {
	t.Helper()
	gate, err := security.NewGate(t.TempDir())
	require.NoError(t, err)
	profile, err := policy.NewProfile(mode)
	require.NoError(t, err)
	engine := policy.NewEngine(profile)
	registry := tool.NewRegistry(gate, engine, nil)
	validator := validate.New(profile)
	sess := &recordingSession{}
	m := metrics.New()
	return &agentFixture{
		agent:   New(completer, engine, registry, validator, sess, m, opts),
		metrics: m,
		session: sess,
		workdir: gate.Root(),
	}
}

func textResponse(content string) *llm.Response {
	return &llm.Response{Content: content}
}

func TestRunTurnScopeRejection(t *testing.T) {
	called := false
	completer := &mockCompleter{
		completeFunc: func(context.Context, []llm.Message, []llm.ToolDefinition) (*llm.Response, error) {
			called = true
			return textResponse("should not happen"), nil
		},
	}
	f := newAgent(t, policy.ModePythonBasic, completer, Options{})

	out := f.agent.RunTurn(context.Background(), "write me a kubernetes operator")
	assert.Contains(t, out, "outside the supported scope")
	assert.Contains(t, out, "Requests outside these domains cannot be fulfilled.")
	assert.False(t, called, "the model must not be contacted on scope rejection")
	assert.Equal(t, 0, f.metrics.Iterations())
}

func TestRunTurnPlainResponse(t *testing.T) {
	completer := &mockCompleter{
		completeFunc: func(context.Context, []llm.Message, []llm.ToolDefinition) (*llm.Response, error) {
			return textResponse("Functions group reusable logic."), nil
		},
	}
	f := newAgent(t, policy.ModePythonBasic, completer, Options{})

	out := f.agent.RunTurn(context.Background(), "what is a function?")
	assert.Equal(t, "Functions group reusable logic.", out)
	assert.Equal(t, 1, f.metrics.Iterations())

	msgs := f.agent.Messages()
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Equal(t, llm.RoleAssistant, msgs[len(msgs)-1].Role)
}

func TestRunTurnNudgeLimit(t *testing.T) {
	codeBlock := "Here you go:\n```python\nprint('hi')\n```"
	var nudgesSeen int
	completer := &mockCompleter{
		completeFunc: func(_ context.Context, messages []llm.Message, _ []llm.ToolDefinition) (*llm.Response, error) {
			last := messages[len(messages)-1]
			if strings.Contains(last.Content, "no tool was used") {
				nudgesSeen++
			}
			return textResponse(codeBlock), nil
		},
	}
	f := newAgent(t, policy.ModePythonBasic, completer, Options{MaxIterations: 10})

	out := f.agent.RunTurn(context.Background(), "print hi")

	// Exactly two nudges; the third code-block response goes to the
	// validator instead, and a fenced python block passes validation.
	assert.Equal(t, 2, nudgesSeen)
	assert.Equal(t, codeBlock, out)
	assert.Equal(t, 3, f.metrics.Iterations())
}

func TestRunTurnIterationCapReturnsFallback(t *testing.T) {
	const maxIterations = 5
	completer := &mockCompleter{
		completeFunc: func(context.Context, []llm.Message, []llm.ToolDefinition) (*llm.Response, error) {
			return textResponse("import requests\nrequests.get('x')"), nil
		},
	}
	f := newAgent(t, policy.ModePythonBasic, completer, Options{MaxIterations: maxIterations})

	out := f.agent.RunTurn(context.Background(), "fetch a url for me")
	assert.Contains(t, out, FallbackResponse)
	assert.Equal(t, maxIterations, f.metrics.Iterations())
	// Violations surface as educational feedback ahead of the fallback.
	assert.Contains(t, out, "Learning point")
}

func TestRunTurnExecutesTaggedWriteCall(t *testing.T) {
	step := 0
	completer := &mockCompleter{
		completeFunc: func(_ context.Context, messages []llm.Message, _ []llm.ToolDefinition) (*llm.Response, error) {
			step++
			if step == 1 {
				return textResponse("<function=write><parameter=path>hello.py</parameter>" +
					"<parameter=content>print('hello')</parameter></function>"), nil
			}
			// The loop feeds tool results back as a synthetic user message.
			last := messages[len(messages)-1]
			assert.Equal(t, llm.RoleUser, last.Role)
			assert.Contains(t, last.Content, "Tool results:")
			assert.Contains(t, last.Content, "already saved")
			return textResponse("Saved. Want me to run it?"), nil
		},
	}
	f := newAgent(t, policy.ModePythonBasic, completer, Options{})

	out := f.agent.RunTurn(context.Background(), "write hello world")
	assert.Equal(t, "Saved. Want me to run it?", out)

	summary := f.metrics.Summary()
	assert.Equal(t, map[string]int{"write": 1}, summary["tool_calls"])
}

func TestRunTurnStructuredToolCall(t *testing.T) {
	step := 0
	completer := &mockCompleter{
		completeFunc: func(context.Context, []llm.Message, []llm.ToolDefinition) (*llm.Response, error) {
			step++
			if step == 1 {
				return &llm.Response{ToolCalls: []llm.ToolCall{{
					Name:      "bash",
					Arguments: map[string]any{"command": "echo done"},
				}}}, nil
			}
			return textResponse("It printed done."), nil
		},
	}
	f := newAgent(t, policy.ModePythonBasic, completer, Options{})

	out := f.agent.RunTurn(context.Background(), "run echo")
	assert.Equal(t, "It printed done.", out)
}

func TestRunTurnTranscriptAlternatesRoles(t *testing.T) {
	// One turn through all three retry paths: a nudge, a tool call, and a
	// validation correction. Each assistant message must be answered by
	// exactly one user message, except the terminating one.
	step := 0
	completer := &mockCompleter{
		completeFunc: func(context.Context, []llm.Message, []llm.ToolDefinition) (*llm.Response, error) {
			step++
			switch step {
			case 1:
				return textResponse("```python\nprint('hi')\n```"), nil
			case 2:
				return &llm.Response{ToolCalls: []llm.ToolCall{{
					Name:      "bash",
					Arguments: map[string]any{"command": "echo hi"},
				}}}, nil
			case 3:
				return textResponse("import requests\nrequests.get('example')"), nil
			default:
				return textResponse("All set."), nil
			}
		},
	}
	f := newAgent(t, policy.ModePythonBasic, completer, Options{MaxIterations: 10})

	out := f.agent.RunTurn(context.Background(), "write hello and run it")
	assert.Contains(t, out, "All set.")

	msgs := f.agent.Messages()
	roles := make([]string, len(msgs))
	for i, m := range msgs {
		roles[i] = m.Role
	}
	assert.Equal(t, []string{
		llm.RoleSystem,
		llm.RoleUser,      // the turn input
		llm.RoleAssistant, // code block without a tool
		llm.RoleUser,      // nudge
		llm.RoleAssistant, // bash tool call
		llm.RoleUser,      // tool results
		llm.RoleAssistant, // blocked import
		llm.RoleUser,      // correction
		llm.RoleAssistant, // final response
	}, roles)

	for i, m := range msgs {
		if m.Role != llm.RoleAssistant || i == len(msgs)-1 {
			continue
		}
		assert.Equal(t, llm.RoleUser, msgs[i+1].Role,
			"assistant message at %d must be followed by a user message", i)
	}
	assert.Equal(t, llm.RoleAssistant, msgs[len(msgs)-1].Role)
	assert.Contains(t, msgs[3].Content, "no tool was used")
	assert.Contains(t, msgs[5].Content, "Tool results:")
}

func TestRunTurnPassesOnlyAllowedToolDefs(t *testing.T) {
	completer := &mockCompleter{
		completeFunc: func(_ context.Context, _ []llm.Message, tools []llm.ToolDefinition) (*llm.Response, error) {
			for _, td := range tools {
				assert.NotEqual(t, "bash", td.Function.Name)
			}
			assert.Len(t, tools, 5)
			return textResponse("ok"), nil
		},
	}
	f := newAgent(t, policy.ModeWebBasic, completer, Options{})
	f.agent.RunTurn(context.Background(), "make a page")
}

func TestRunTurnTransportFailure(t *testing.T) {
	completer := &mockCompleter{
		completeFunc: func(context.Context, []llm.Message, []llm.ToolDefinition) (*llm.Response, error) {
			return nil, llm.ErrUnreachable
		},
	}
	f := newAgent(t, policy.ModePythonBasic, completer, Options{})

	out := f.agent.RunTurn(context.Background(), "hello there friend")
	assert.Contains(t, out, "could not be reached")
}

func TestRunTurnResearchLogging(t *testing.T) {
	completer := &mockCompleter{
		completeFunc: func(context.Context, []llm.Message, []llm.ToolDefinition) (*llm.Response, error) {
			return textResponse("hi"), nil
		},
	}

	quiet := newAgent(t, policy.ModePythonBasic, completer, Options{})
	quiet.agent.RunTurn(context.Background(), "say hi please")
	assert.Equal(t, []string{"turn_complete"}, quiet.session.events)

	research := newAgent(t, policy.ModePythonBasic, completer, Options{Research: true})
	research.agent.RunTurn(context.Background(), "say hi please")
	assert.Contains(t, research.session.events, "user")
	assert.Contains(t, research.session.events, "llm_response")
}

func TestRunTurnStreamEvents(t *testing.T) {
	step := 0
	completer := &mockCompleter{
		completeFunc: func(context.Context, []llm.Message, []llm.ToolDefinition) (*llm.Response, error) {
			step++
			if step == 1 {
				return textResponse("<function=write><parameter=path>hi.py</parameter>" +
					"<parameter=content>print('hi')</parameter></function>"), nil
			}
			return textResponse("All saved."), nil
		},
	}
	f := newAgent(t, policy.ModePythonBasic, completer, Options{})

	var texts []string
	var statuses []string
	var codeWrites []CodeWriteEvent
	for ev := range f.agent.RunTurnStream(context.Background(), "write hi") {
		switch e := ev.(type) {
		case TextEvent:
			texts = append(texts, string(e))
		case StatusEvent:
			statuses = append(statuses, e.Kind)
		case CodeWriteEvent:
			codeWrites = append(codeWrites, e)
		}
	}

	assert.Equal(t, []string{"All saved."}, texts)
	assert.Equal(t, []string{"thinking", "tool_start", "tool_done", "thinking"}, statuses)
	require.Len(t, codeWrites, 1)
	assert.Equal(t, "hi.py", codeWrites[0].Path)
	assert.Equal(t, "python", codeWrites[0].Lang)
}

func TestRunTurnStreamScopeRejection(t *testing.T) {
	completer := &mockCompleter{
		completeFunc: func(context.Context, []llm.Message, []llm.ToolDefinition) (*llm.Response, error) {
			t.Error("model must not be contacted")
			return nil, llm.ErrUnreachable
		},
	}
	f := newAgent(t, policy.ModePythonBasic, completer, Options{})

	var texts []string
	for ev := range f.agent.RunTurnStream(context.Background(), "solidity smart contract") {
		if text, ok := ev.(TextEvent); ok {
			texts = append(texts, string(text))
		}
	}
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "outside the supported scope")
}

func TestRunTurnStreamIterationCap(t *testing.T) {
	completer := &mockCompleter{
		completeFunc: func(context.Context, []llm.Message, []llm.ToolDefinition) (*llm.Response, error) {
			return textResponse("import requests"), nil
		},
	}
	f := newAgent(t, policy.ModePythonBasic, completer, Options{MaxIterations: 3})

	var texts []string
	for ev := range f.agent.RunTurnStream(context.Background(), "do the thing with code") {
		if text, ok := ev.(TextEvent); ok {
			texts = append(texts, string(text))
		}
	}
	require.NotEmpty(t, texts)
	assert.Equal(t, FallbackResponse, texts[0])
	assert.Equal(t, 3, f.metrics.Iterations())
}

func TestSetSystemPromptReplacesIndexZero(t *testing.T) {
	completer := &mockCompleter{
		completeFunc: func(context.Context, []llm.Message, []llm.ToolDefinition) (*llm.Response, error) {
			return textResponse("ok"), nil
		},
	}
	f := newAgent(t, policy.ModePythonBasic, completer, Options{})
	before := len(f.agent.Messages())
	f.agent.SetSystemPrompt("updated")
	assert.Equal(t, before, len(f.agent.Messages()))
	assert.Equal(t, "updated", f.agent.Messages()[0].Content)
}
