// Package agent runs the turn loop: user input through policy, model calls,
// tool execution, and validation to a final response.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"minarai/internal/llm"
	"minarai/internal/policy"
	"minarai/internal/tool"
	"minarai/internal/validate"
)

// DefaultMaxIterations bounds model calls within one turn.
const DefaultMaxIterations = 50

// FallbackResponse is returned when a turn exhausts its iteration budget.
const FallbackResponse = "(Max iterations reached. Please simplify your request.)"

const maxNudgesPerTurn = 2

const toolNudge = "Your response contains a code block, but no tool was used.\n" +
	"Always save code to a file with the write tool.\n" +
	"Call the write function instead of showing code as text."

const toolNudgeAfterWrite = "The code is already saved to a file with the write tool.\n" +
	"There is no need to repeat it in your reply. Do not use markdown code blocks (```).\n" +
	"Write only a short explanation of what is new (2-3 bullet points) and ask " +
	"whether to run it."

// Session records turn events. The agent never depends on how they persist.
type Session interface {
	Append(eventType string, data map[string]any)
}

// Metrics is the counter sink the agent reports into.
type Metrics interface {
	RecordViolation()
	RecordRetry()
	RecordToolCall(name string)
	IncrementIteration()
}

// Agent orchestrates one chat session. It owns the transcript; all mutation
// happens on the goroutine driving RunTurn or RunTurnStream.
type Agent struct {
	llm       llm.Completer
	engine    *policy.Engine
	registry  *tool.Registry
	validator *validate.Validator
	session   Session
	metrics   Metrics
	logger    *zap.Logger

	maxIterations int
	research      bool

	messages    []llm.Message
	eduMessages []string
}

// Options adjusts agent behavior.
type Options struct {
	MaxIterations int
	// Research enables detailed event logging to the session.
	Research bool
	Logger   *zap.Logger
}

// New creates an Agent with the system prompt for the engine's mode already
// installed at transcript index 0.
func New(
	completer llm.Completer,
	engine *policy.Engine,
	registry *tool.Registry,
	validator *validate.Validator,
	session Session,
	metrics Metrics,
	opts Options,
) *Agent {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Agent{
		llm:           completer,
		engine:        engine,
		registry:      registry,
		validator:     validator,
		session:       session,
		metrics:       metrics,
		logger:        opts.Logger,
		maxIterations: opts.MaxIterations,
		research:      opts.Research,
		messages: []llm.Message{
			{Role: llm.RoleSystem, Content: engine.SystemPrompt()},
		},
	}
}

// SetSystemPrompt replaces the system message in place. Index 0 is the only
// transcript position ever rewritten.
func (a *Agent) SetSystemPrompt(prompt string) {
	a.messages[0] = llm.Message{Role: llm.RoleSystem, Content: prompt}
}

// Messages returns the transcript, for session resume.
func (a *Agent) Messages() []llm.Message { return a.messages }

// RestoreMessages replaces the transcript, for session resume.
func (a *Agent) RestoreMessages(messages []llm.Message) {
	if len(messages) > 0 {
		a.messages = messages
	}
}

// RunTurn processes one user turn and returns the final response text.
func (a *Agent) RunTurn(ctx context.Context, userInput string) string {
	a.eduMessages = nil
	nudges := 0
	writeUsed := false

	if scope := a.engine.CheckScope(userInput); !scope.Allowed {
		a.log("scope_rejection", map[string]any{"input": userInput, "reason": scope.Reason})
		return scopeRejection(scope.Reason)
	}

	a.messages = append(a.messages, llm.Message{Role: llm.RoleUser, Content: userInput})
	a.log("user", map[string]any{"content": userInput})

	finalResponse := FallbackResponse
	for i := 0; i < a.maxIterations; i++ {
		a.metrics.IncrementIteration()

		response, err := a.llm.Complete(ctx, a.messages, a.filteredToolDefs())
		if err != nil {
			a.logger.Warn("model call failed", zap.Error(err))
			return transportFailure(err)
		}
		a.recoverTextToolCalls(response)
		a.log("llm_response", map[string]any{
			"content": response.Content, "tools": len(response.ToolCalls),
		})

		if !response.HasToolCalls() {
			if hasCodeBlock(response.Content) && nudges < maxNudgesPerTurn {
				nudges++
				a.nudge(response.Content, writeUsed, nudges)
				continue
			}
			if !a.validateResponse(response.Content) {
				continue
			}
			finalResponse = response.Content
			a.messages = append(a.messages, llm.Message{Role: llm.RoleAssistant, Content: finalResponse})
			break
		}

		a.messages = append(a.messages, llm.Message{Role: llm.RoleAssistant, Content: response.Content})
		results := a.executeTools(ctx, response.ToolCalls)
		if containsWrite(response.ToolCalls) {
			writeUsed = true
		}
		a.appendToolResults(response.ToolCalls, results)
		a.validateWrittenContent(response.ToolCalls, results)
	}

	a.session.Append("turn_complete", map[string]any{"response_length": len(finalResponse)})
	return a.prependEducation(finalResponse)
}

// RunTurnStream processes one user turn, emitting events as work progresses.
// The returned channel closes when the turn ends. Model text is buffered per
// iteration and released only after validation passes.
func (a *Agent) RunTurnStream(ctx context.Context, userInput string) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		a.runTurnStream(ctx, userInput, events)
	}()
	return events
}

func (a *Agent) runTurnStream(ctx context.Context, userInput string, events chan<- Event) {
	a.eduMessages = nil
	nudges := 0
	writeUsed := false

	emit := func(ev Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if scope := a.engine.CheckScope(userInput); !scope.Allowed {
		a.log("scope_rejection", map[string]any{"input": userInput, "reason": scope.Reason})
		emit(TextEvent(scopeRejection(scope.Reason)))
		return
	}

	a.messages = append(a.messages, llm.Message{Role: llm.RoleUser, Content: userInput})
	a.log("user", map[string]any{"content": userInput})

	finalResponse := ""
	completed := false
	for i := 0; i < a.maxIterations && !completed; i++ {
		a.metrics.IncrementIteration()
		if !emit(StatusEvent{Kind: "thinking"}) {
			return
		}

		response, chunks, err := a.streamOnce(ctx)
		if err != nil {
			a.logger.Warn("model call failed", zap.Error(err))
			emit(TextEvent(transportFailure(err)))
			return
		}
		if response == nil {
			continue
		}
		if a.recoverTextToolCalls(response) {
			chunks = nil
			if response.Content != "" {
				chunks = []string{response.Content}
			}
		}
		a.log("llm_response", map[string]any{
			"content": response.Content, "tools": len(response.ToolCalls),
		})

		if !response.HasToolCalls() {
			if hasCodeBlock(response.Content) && nudges < maxNudgesPerTurn {
				nudges++
				a.nudge(response.Content, writeUsed, nudges)
				continue
			}
			if !a.validateResponse(response.Content) {
				continue
			}
			for _, chunk := range chunks {
				if !emit(TextEvent(chunk)) {
					return
				}
			}
			finalResponse = response.Content
			a.messages = append(a.messages, llm.Message{Role: llm.RoleAssistant, Content: finalResponse})
			completed = true
			continue
		}

		// Write responses often echo the code in text; the follow-up
		// iteration provides the clean explanation, so that text is not
		// shown.
		hasWrite := containsWrite(response.ToolCalls)
		if !hasWrite {
			for _, chunk := range chunks {
				if !emit(TextEvent(chunk)) {
					return
				}
			}
		}
		a.messages = append(a.messages, llm.Message{Role: llm.RoleAssistant, Content: response.Content})

		if !emit(StatusEvent{Kind: "tool_start", Detail: toolNames(response.ToolCalls)}) {
			return
		}
		results := a.executeTools(ctx, response.ToolCalls)
		emit(StatusEvent{Kind: "tool_done"})

		if hasWrite {
			writeUsed = true
		}
		a.appendToolResults(response.ToolCalls, results)
		a.validateWrittenContent(response.ToolCalls, results)

		for idx, tc := range response.ToolCalls {
			if (tc.Name == "write" || tc.Name == "edit") && !results[idx].IsError() {
				path := tc.StringArg("path")
				content := tc.StringArg("content")
				if path != "" && content != "" {
					if !emit(CodeWriteEvent{Path: path, Content: content, Lang: langFromPath(path)}) {
						return
					}
				}
			}
		}
	}

	if !completed {
		emit(TextEvent(FallbackResponse))
		finalResponse = FallbackResponse
	}
	a.session.Append("turn_complete", map[string]any{"response_length": len(finalResponse)})

	if len(a.eduMessages) > 0 {
		emit(TextEvent("\n\n" + strings.Join(a.eduMessages, "\n\n")))
	}
}

// streamOnce drives one streamed completion to its terminal response,
// buffering content deltas.
func (a *Agent) streamOnce(ctx context.Context) (*llm.Response, []string, error) {
	stream, err := a.llm.StartStream(ctx, a.messages, a.filteredToolDefs())
	if err != nil {
		return nil, nil, err
	}
	defer stream.Close()

	var chunks []string
	for {
		event, err := stream.Next(ctx)
		if err != nil {
			if errors.Is(err, llm.ErrStreamClosed) {
				return nil, chunks, nil
			}
			return nil, nil, err
		}
		if event.Delta != "" {
			chunks = append(chunks, event.Delta)
		}
		if event.Response != nil {
			return event.Response, chunks, nil
		}
	}
}

// recoverTextToolCalls parses text-embedded tool calls when the structured
// channel was empty. Reports whether the content changed.
func (a *Agent) recoverTextToolCalls(response *llm.Response) bool {
	if response.HasToolCalls() || response.Content == "" {
		return false
	}
	calls, cleaned := extractTextToolCalls(response.Content)
	if len(calls) == 0 {
		return false
	}
	response.ToolCalls = calls
	response.Content = cleaned
	return true
}

func (a *Agent) nudge(content string, writeUsed bool, count int) {
	a.log("nudge", map[string]any{"reason": "code_block_without_tool", "count": count})
	a.messages = append(a.messages, llm.Message{Role: llm.RoleAssistant, Content: content})
	msg := toolNudge
	if writeUsed {
		msg = toolNudgeAfterWrite
	}
	a.messages = append(a.messages, llm.Message{Role: llm.RoleUser, Content: msg})
}

// validateResponse checks final response text. On failure it appends the
// correction exchange to the transcript and reports false.
func (a *Agent) validateResponse(content string) bool {
	validation := a.validator.Validate(content, "response.py")
	if validation.Valid {
		return true
	}
	a.log("violation", map[string]any{"violations": violationData(validation.Violations)})
	a.metrics.RecordViolation()
	a.metrics.RecordRetry()
	if feedback := validate.Feedback(validation.Violations); feedback != "" {
		a.eduMessages = append(a.eduMessages, feedback)
	}
	correction := validate.CorrectionPrompt(validation.Violations, string(a.engine.Profile().Mode))
	a.messages = append(a.messages,
		llm.Message{Role: llm.RoleAssistant, Content: content},
		llm.Message{Role: llm.RoleUser, Content: correction},
	)
	return false
}

func (a *Agent) executeTools(ctx context.Context, calls []llm.ToolCall) []tool.Result {
	results := make([]tool.Result, 0, len(calls))
	for _, tc := range calls {
		a.metrics.RecordToolCall(tc.Name)
		a.log("tool_call", map[string]any{"name": tc.Name, "args": tc.Arguments})
		result := a.registry.Execute(ctx, tc.Name, tc.Arguments)
		a.log("tool_result", map[string]any{"name": tc.Name, "result": truncateResult(result)})
		results = append(results, result)
	}
	return results
}

// appendToolResults feeds tool output back as a single synthetic user
// message.
func (a *Agent) appendToolResults(calls []llm.ToolCall, results []tool.Result) {
	summary, err := json.Marshal(results)
	if err != nil {
		summary = []byte(fmt.Sprintf("%v", results))
	}
	msg := "Tool results:\n" + string(summary)
	if containsWrite(calls) {
		msg += writeReminder(calls, results)
	}
	a.messages = append(a.messages, llm.Message{Role: llm.RoleUser, Content: msg})
}

// validateWrittenContent records violations in written code for metrics; it
// does not fail the tool call retroactively.
func (a *Agent) validateWrittenContent(calls []llm.ToolCall, results []tool.Result) {
	for idx, tc := range calls {
		if tc.Name != "write" && tc.Name != "edit" {
			continue
		}
		if results[idx].IsError() {
			continue
		}
		content := tc.StringArg("content")
		if content == "" {
			continue
		}
		if vr := a.validator.Validate(content, tc.StringArg("path")); !vr.Valid {
			a.log("violation", map[string]any{"violations": violationData(vr.Violations)})
			a.metrics.RecordViolation()
		}
	}
}

func (a *Agent) filteredToolDefs() []llm.ToolDefinition {
	allowed := make(map[string]bool)
	for _, name := range a.registry.Available() {
		allowed[name] = true
	}
	return llm.FilterDefinitions(llm.ToolDefinitions(), allowed)
}

func (a *Agent) prependEducation(response string) string {
	if len(a.eduMessages) == 0 {
		return response
	}
	return strings.Join(a.eduMessages, "\n\n") + "\n\n---\n\n" + response
}

func (a *Agent) log(eventType string, data map[string]any) {
	if a.research {
		a.session.Append(eventType, data)
	}
}

func scopeRejection(reason string) string {
	return "Sorry, this request is outside the supported scope.\n\n" + reason
}

func transportFailure(err error) string {
	return fmt.Sprintf(
		"The model endpoint could not be reached: %v\n"+
			"Check that the server is running and the model is installed.", err)
}

func writeReminder(calls []llm.ToolCall, results []tool.Result) string {
	var paths []string
	for idx, tc := range calls {
		if tc.Name != "write" && tc.Name != "edit" {
			continue
		}
		if p, ok := results[idx]["path"].(string); ok && p != "" {
			paths = append(paths, "`"+p+"`")
		}
	}
	target := "the file"
	if len(paths) > 0 {
		target = strings.Join(paths, ", ")
	}
	return fmt.Sprintf(
		"\n\n[Important] The code is already saved to %s. "+
			"Do not include code in your reply (``` is forbidden). "+
			"Write only a short explanation (2-3 bullet points) and ask whether "+
			"to run it. Do not mention tool names (write, read, bash, etc.) in "+
			"the reply.", target)
}

func containsWrite(calls []llm.ToolCall) bool {
	for _, tc := range calls {
		if tc.Name == "write" || tc.Name == "edit" {
			return true
		}
	}
	return false
}

func toolNames(calls []llm.ToolCall) string {
	names := make([]string, len(calls))
	for i, tc := range calls {
		names[i] = tc.Name
	}
	return strings.Join(names, ", ")
}

func violationData(violations []validate.Violation) []map[string]string {
	out := make([]map[string]string, len(violations))
	for i, v := range violations {
		out[i] = map[string]string{"rule": v.Rule, "detail": v.Detail}
	}
	return out
}

func truncateResult(result tool.Result) map[string]any {
	const limit = 500
	out := make(map[string]any, len(result))
	for k, v := range result {
		if s, ok := v.(string); ok && len(s) > limit {
			out[k] = tool.Truncate(s, limit) + "..."
			continue
		}
		out[k] = v
	}
	return out
}
