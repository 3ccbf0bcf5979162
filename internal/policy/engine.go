package policy

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Verdict is the result of a policy predicate.
type Verdict struct {
	Allowed bool
	Reason  string
}

// Engine evaluates user requests and tool calls against the active profile.
// All checks are pure predicates.
type Engine struct {
	profile *Profile
}

// NewEngine creates an Engine for the given profile.
func NewEngine(profile *Profile) *Engine {
	return &Engine{profile: profile}
}

// Profile returns the active profile.
func (e *Engine) Profile() *Profile { return e.profile }

// CheckTool reports whether the named tool is permitted in the current mode.
func (e *Engine) CheckTool(name string) Verdict {
	if !e.profile.AllowsTool(name) {
		return Verdict{
			Allowed: false,
			Reason: fmt.Sprintf(
				"tool %q is not allowed in mode %q. Allowed: %s",
				name, e.profile.Mode, joinSorted(e.profile.AllowedTools),
			),
		}
	}
	return Verdict{Allowed: true}
}

// CheckExtension reports whether the file's extension is permitted for the
// current language family. Files without an extension pass.
func (e *Engine) CheckExtension(filename string) Verdict {
	ext := filepath.Ext(filename)
	if ext != "" && !e.profile.AllowedExtensions[ext] {
		return Verdict{
			Allowed: false,
			Reason: fmt.Sprintf(
				"extension %q is forbidden in mode %q. Allowed: %s",
				ext, e.profile.Mode, joinSorted(e.profile.AllowedExtensions),
			),
		}
	}
	return Verdict{Allowed: true}
}

// Keyword heuristic for requests that are clearly outside every supported
// domain.
var outOfScopeKeywords = []string{
	"rust", "golang", "kotlin", "swift", "c++",
	"c#", "ruby", "php", "perl", "scala", "haskell",
	"elixir", "dart", "flutter", "react native",
	"terraform", "kubernetes", "docker", "ansible",
	"blockchain", "solidity", "web3",
}

// CheckScope rejects user requests that clearly fall outside the supported
// domains.
func (e *Engine) CheckScope(userMessage string) Verdict {
	lowered := strings.ToLower(userMessage)
	if mentionsJavaNotJavascript(lowered) {
		return Verdict{Allowed: false, Reason: ScopeDescription}
	}
	for _, kw := range outOfScopeKeywords {
		if strings.Contains(lowered, kw) {
			return Verdict{Allowed: false, Reason: ScopeDescription}
		}
	}
	return Verdict{Allowed: true}
}

// SystemPrompt returns the full system prompt for the active mode:
// conversation rules, the mode's base prompt, tool usage rules, and the
// global constraints.
func (e *Engine) SystemPrompt() string {
	return buildSystemPrompt(e.profile)
}

// "java" is out of scope but "javascript" is not, so every occurrence of
// "java" must be checked for a "script" suffix. The regexp package has no
// lookahead, hence the manual scan.
func mentionsJavaNotJavascript(lowered string) bool {
	for i := 0; ; {
		idx := strings.Index(lowered[i:], "java")
		if idx < 0 {
			return false
		}
		pos := i + idx
		rest := lowered[pos+len("java"):]
		if !strings.HasPrefix(rest, "script") {
			return true
		}
		i = pos + len("java")
	}
}

func joinSorted(set map[string]bool) string {
	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)
	return strings.Join(items, ", ")
}
