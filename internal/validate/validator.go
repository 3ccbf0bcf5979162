// Package validate inspects generated code artifacts and enforces the active
// mode's constraints: line limits, language isolation, import allow-lists,
// and forbidden patterns. Checks never short-circuit; the caller always gets
// the full violation list.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"minarai/internal/policy"
)

const (
	// DefaultMaxLines caps a single generated artifact.
	DefaultMaxLines = 50
	// DefaultMaxFiles caps how many artifacts one response may produce.
	DefaultMaxFiles = 1
)

// Violation is a single named rule failure.
type Violation struct {
	Rule   string
	Detail string
}

// Result aggregates all violations for one validation pass.
type Result struct {
	Valid      bool
	Violations []Violation
}

func (r *Result) add(rule, detail string) {
	r.Violations = append(r.Violations, Violation{Rule: rule, Detail: detail})
	r.Valid = false
}

// Validator checks code artifacts against a mode profile.
type Validator struct {
	profile  *policy.Profile
	maxLines int
	maxFiles int
}

// New creates a Validator with the default limits.
func New(profile *policy.Profile) *Validator {
	return &Validator{profile: profile, maxLines: DefaultMaxLines, maxFiles: DefaultMaxFiles}
}

// WithLimits overrides the line and file caps.
func (v *Validator) WithLimits(maxLines, maxFiles int) *Validator {
	v.maxLines = maxLines
	v.maxFiles = maxFiles
	return v
}

// Validate runs every check on a single code artifact.
func (v *Validator) Validate(code, filename string) Result {
	result := Result{Valid: true}
	v.checkLineCount(code, &result)
	v.checkLanguageIsolation(code, filename, &result)
	if v.profile.Language == policy.LangPython {
		v.checkImports(code, &result)
	}
	v.checkForbiddenPatterns(code, &result)
	return result
}

// ValidateBatch validates a set of filename to code pairs.
func (v *Validator) ValidateBatch(files map[string]string) Result {
	result := Result{Valid: true}
	if len(files) > v.maxFiles {
		result.add("max_files",
			fmt.Sprintf("Generated %d files, limit is %d", len(files), v.maxFiles))
	}
	for name, code := range files {
		r := v.Validate(code, name)
		if !r.Valid {
			result.Valid = false
			result.Violations = append(result.Violations, r.Violations...)
		}
	}
	return result
}

func (v *Validator) checkLineCount(code string, result *Result) {
	count := strings.Count(code, "\n") + 1
	if count > v.maxLines {
		result.add("max_lines",
			fmt.Sprintf("%d lines exceeds limit of %d", count, v.maxLines))
	}
}

func (v *Validator) checkLanguageIsolation(code, filename string, result *Result) {
	switch v.profile.Language {
	case policy.LangPython:
		if containsHTML(code) {
			result.add("language_isolation", "HTML detected in Python mode")
		}
		if containsJavaScript(code) {
			result.add("language_isolation", "JavaScript detected in Python mode")
		}
	case policy.LangWeb:
		if containsPython(code) && !isWebFile(filename) {
			result.add("language_isolation", "Python detected in web mode")
		}
	}
}

func (v *Validator) checkImports(code string, result *Result) {
	for _, imp := range extractImports(code) {
		topLevel, _, _ := strings.Cut(imp, ".")
		if !v.profile.AllowsImport(imp) && !v.profile.AllowsImport(topLevel) {
			result.add("forbidden_import",
				fmt.Sprintf("Import '%s' not allowed in this mode", imp))
		}
	}
}

var (
	urlPattern        = regexp.MustCompile(`https?://`)
	installPattern    = regexp.MustCompile(`(pip|npm|yarn)\s+install`)
	osSystemPattern   = regexp.MustCompile(`\bos\.system\s*\(`)
	subprocessPattern = regexp.MustCompile(`\bsubprocess\.`)
)

func (v *Validator) checkForbiddenPatterns(code string, result *Result) {
	if urlPattern.MatchString(code) {
		result.add("no_external_api", "URL/API reference detected")
	}
	if installPattern.MatchString(code) {
		result.add("no_install", "Package installation detected")
	}
	if osSystemPattern.MatchString(code) {
		result.add("no_os_system", "os.system() call detected")
	}
	if subprocessPattern.MatchString(code) {
		result.add("no_subprocess", "subprocess usage detected")
	}
}

func isWebFile(filename string) bool {
	return strings.HasSuffix(filename, ".html") ||
		strings.HasSuffix(filename, ".js") ||
		strings.HasSuffix(filename, ".css")
}

// Each family detector requires at least two independent signal matches so a
// single incidental token cannot cause a false positive.

var htmlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<!DOCTYPE\b`),
	regexp.MustCompile(`(?i)<html\b`),
	regexp.MustCompile(`(?i)<(head|body)\b`),
	regexp.MustCompile(`(?i)<div\b`),
	regexp.MustCompile(`(?i)<(script|style)\b`),
}

var jsPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bdocument\.(getElementById|querySelector|createElement)\b`),
	regexp.MustCompile(`\bconsole\.log\b`),
	regexp.MustCompile(`\bwindow\.`),
	regexp.MustCompile(`\baddEventListener\b`),
	regexp.MustCompile(`\bfunction\s+\w+\s*\(`),
}

var pythonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^def\s+\w+\s*\(`),
	regexp.MustCompile(`(?m)^class\s+\w+`),
	regexp.MustCompile(`(?m)^import\s+\w+`),
	regexp.MustCompile(`(?m)^from\s+\w+\s+import`),
	regexp.MustCompile(`\bprint\s*\(`),
}

func countSignals(code string, patterns []*regexp.Regexp) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(code) {
			n++
		}
	}
	return n
}

func containsHTML(code string) bool       { return countSignals(code, htmlPatterns) >= 2 }
func containsJavaScript(code string) bool { return countSignals(code, jsPatterns) >= 2 }
func containsPython(code string) bool     { return countSignals(code, pythonPatterns) >= 2 }
