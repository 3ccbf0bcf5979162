package agent

import (
	"path/filepath"
	"strings"
)

// Event is emitted by RunTurnStream. The UI renders each variant with a type
// switch.
type Event interface {
	isEvent()
}

// TextEvent is a chunk of user-visible response text.
type TextEvent string

func (TextEvent) isEvent() {}

// StatusEvent drives the UI spinner.
type StatusEvent struct {
	Kind   string // "thinking" | "tool_start" | "tool_done"
	Detail string
}

func (StatusEvent) isEvent() {}

// CodeWriteEvent is emitted after a successful write or edit so the UI can
// render the saved code with highlighting.
type CodeWriteEvent struct {
	Path    string
	Content string
	Lang    string
}

func (CodeWriteEvent) isEvent() {}

var extLang = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".html": "html",
	".css":  "css",
	".json": "json",
	".sh":   "bash",
	".yml":  "yaml",
	".yaml": "yaml",
}

func langFromPath(path string) string {
	if lang, ok := extLang[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "python"
}
