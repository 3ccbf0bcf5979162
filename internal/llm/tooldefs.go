package llm

// ToolDefinition describes a callable tool in the wire format the chat API
// expects ({"type":"function","function":{...}}).
type ToolDefinition struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef is the function half of a tool definition.
type FunctionDef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

// Schema is a minimal JSON-schema object for tool parameters.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes a single tool parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

func funcDef(name, description string, props map[string]Property, required ...string) ToolDefinition {
	return ToolDefinition{
		Type: "function",
		Function: FunctionDef{
			Name:        name,
			Description: description,
			Parameters: Schema{
				Type:       "object",
				Properties: props,
				Required:   required,
			},
		},
	}
}

// ToolDefinitions returns the closed set of tool definitions exposed to the
// model. The registry dispatches on the same six names.
func ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		funcDef("bash",
			"Execute a shell command. Use this to run code: `python file.py`. "+
				"You MUST use this tool to execute code, never guess or fabricate output.",
			map[string]Property{
				"command": {Type: "string", Description: "The command to run"},
			}, "command"),
		funcDef("read",
			"Read file contents. Use this to check existing files before editing.",
			map[string]Property{
				"path": {Type: "string", Description: "File path to read"},
			}, "path"),
		funcDef("write",
			"Create or overwrite a file. You MUST use this tool to save code, "+
				"never output code as plain text in your response.",
			map[string]Property{
				"path":    {Type: "string", Description: "File path"},
				"content": {Type: "string", Description: "File content"},
			}, "path", "content"),
		funcDef("edit",
			"Replace text in an existing file. "+
				"Use this for small modifications to code you already wrote.",
			map[string]Property{
				"path":       {Type: "string", Description: "File path"},
				"old_string": {Type: "string", Description: "Text to find"},
				"new_string": {Type: "string", Description: "Replacement text"},
			}, "path", "old_string", "new_string"),
		funcDef("grep",
			"Search file contents with regex",
			map[string]Property{
				"pattern": {Type: "string", Description: "Regex pattern"},
				"path":    {Type: "string", Description: "Directory to search"},
			}, "pattern"),
		funcDef("glob",
			"Find files matching a glob pattern",
			map[string]Property{
				"pattern": {Type: "string", Description: "Glob pattern"},
			}, "pattern"),
	}
}

// FilterDefinitions returns only the definitions whose names appear in
// allowed. Order is preserved.
func FilterDefinitions(defs []ToolDefinition, allowed map[string]bool) []ToolDefinition {
	out := make([]ToolDefinition, 0, len(defs))
	for _, d := range defs {
		if allowed[d.Function.Name] {
			out = append(out, d)
		}
	}
	return out
}
