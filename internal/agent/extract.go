package agent

import (
	"regexp"
	"strings"

	"minarai/internal/llm"
)

// Models that ignore the structured tool-calling channel tend to emit tool
// calls as plain text in one of three shapes. Extraction tries each format in
// order and strips every span of a format that produced at least one call.
//
//  1. Tagged blocks: <function=write><parameter=path>a.py</parameter></function>
//  2. Object literals: write({ path: "a.py", content: "x = 1" })
//  3. Positional writes: write("a.py", "x = 1"), tried only when nothing else
//     matched, with an optional prefix such as py5.write(...).
var (
	taggedCallPattern = regexp.MustCompile(`(?s)<function=(\w+)>(.*?)</function>`)
	taggedParamPattern = regexp.MustCompile(`(?s)<parameter=(\w+)>(.*?)</parameter>`)

	objectCallPattern = regexp.MustCompile(`(?s)(\w+)\(\s*\{(.*?)\}\s*\)`)
	objectKVPattern   = regexp.MustCompile(`(?s)(\w+)\s*:\s*(?:"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)')`)

	positionalWritePattern = regexp.MustCompile(
		`(?s)(?:\w+\.)?write\(\s*(?:"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)')\s*,\s*(?:"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)')\s*\)`)
)

var knownTools = map[string]bool{
	"bash": true, "read": true, "write": true,
	"edit": true, "grep": true, "glob": true,
}

// extractTextToolCalls recovers tool calls embedded as plain text and returns
// them together with the text with those fragments removed.
func extractTextToolCalls(text string) ([]llm.ToolCall, string) {
	var calls []llm.ToolCall
	var matched []*regexp.Regexp

	for _, m := range taggedCallPattern.FindAllStringSubmatch(text, -1) {
		args := make(map[string]any)
		for _, pm := range taggedParamPattern.FindAllStringSubmatch(m[2], -1) {
			args[pm[1]] = pm[2]
		}
		calls = append(calls, llm.ToolCall{Name: m[1], Arguments: args})
	}
	if len(calls) > 0 {
		matched = append(matched, taggedCallPattern)
	}

	objectMatched := false
	for _, idx := range objectCallPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[idx[2]:idx[3]]
		if !knownTools[name] {
			continue
		}
		body := text[idx[4]:idx[5]]
		args := make(map[string]any)
		for _, kv := range objectKVPattern.FindAllStringSubmatchIndex(body, -1) {
			key := body[kv[2]:kv[3]]
			args[key] = unescape(groupAt(body, kv, 2, 3))
		}
		if len(args) > 0 {
			calls = append(calls, llm.ToolCall{Name: name, Arguments: args})
			objectMatched = true
		}
	}
	if objectMatched {
		matched = append(matched, objectCallPattern)
	}

	if len(calls) == 0 {
		found := false
		for _, idx := range positionalWritePattern.FindAllStringSubmatchIndex(text, -1) {
			path := unescape(groupAt(text, idx, 1, 2))
			content := unescape(groupAt(text, idx, 3, 4))
			calls = append(calls, llm.ToolCall{
				Name:      "write",
				Arguments: map[string]any{"path": path, "content": content},
			})
			found = true
		}
		if found {
			matched = append(matched, positionalWritePattern)
		}
	}

	cleaned := text
	for _, pattern := range matched {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	return calls, strings.TrimSpace(cleaned)
}

// groupAt returns the text of the first of two alternative capture groups
// that participated in the match. Groups a and b are 1-based group numbers;
// exactly one of them matches because they come from a "..."|'...'
// alternation.
func groupAt(s string, idx []int, a, b int) string {
	if idx[2*a] >= 0 {
		return s[idx[2*a]:idx[2*a+1]]
	}
	if idx[2*b] >= 0 {
		return s[idx[2*b]:idx[2*b+1]]
	}
	return ""
}

func unescape(s string) string {
	return strings.NewReplacer(
		`\n`, "\n",
		`\t`, "\t",
		`\"`, `"`,
		`\'`, "'",
	).Replace(s)
}

var codeBlockPattern = regexp.MustCompile("```\\w*\n")

func hasCodeBlock(text string) bool {
	return codeBlockPattern.MatchString(text)
}
