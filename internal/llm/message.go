package llm

// Message roles as used on the wire. The first message of a conversation is
// always the system message; it is the only message ever replaced in place.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation entry.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolCall is a structured tool invocation requested by the model, either via
// the native tool-calling channel or recovered from free-form text.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// StringArg returns the named argument as a string, or "" if absent or not a
// string. Tool arguments arrive untyped from the wire.
func (tc ToolCall) StringArg(key string) string {
	if v, ok := tc.Arguments[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Response is a complete model reply: accumulated text content plus any
// structured tool calls.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the model requested any tool invocations.
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}
