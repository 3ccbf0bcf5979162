package validate

import (
	"fmt"
	"strings"
)

// CorrectionPrompt builds the message that re-steers the model after a
// validation failure.
func CorrectionPrompt(violations []Violation, modeName string) string {
	var details strings.Builder
	for _, v := range violations {
		fmt.Fprintf(&details, "  - [%s] %s\n", v.Rule, v.Detail)
	}
	return fmt.Sprintf(
		"Your previous response violated these rules:\n%s\n"+
			"You are in '%s' mode. Please regenerate your response "+
			"strictly following all constraints. Do NOT mix languages. "+
			"Do NOT use forbidden imports or APIs.",
		details.String(), modeName,
	)
}

// Learning notes shown to the user when generated code breaks a rule.
var violationLessons = map[string]string{
	"language_isolation": "📝 Learning point: language separation\n" +
		"Each language has its place. Python mode uses only Python; web mode " +
		"uses only HTML/JS.\n" +
		"→ Even inside one project, splitting files by language and role is a good habit.",
	"forbidden_import": "📝 Learning point: import restrictions\n" +
		"This mode limits which libraries you can use. Real projects follow the " +
		"same principle: import only what you need.\n" +
		"→ Unnecessary dependencies cause bugs and security risk.",
	"max_lines": "📝 Learning point: keeping code short\n" +
		"Long code is hard to read and hides bugs.\n" +
		"→ Split work into functions; each function should do one thing.",
	"no_external_api": "📝 Learning point: network safety\n" +
		"Reaching out to external APIs and URLs carries security risk.\n" +
		"→ Start by learning to work with local data.",
	"no_install": "📝 Learning point: package management\n" +
		"Installing packages deserves care.\n" +
		"→ Use only trusted packages and pin their versions.",
	"no_os_system": "📝 Learning point: shelling out is dangerous\n" +
		"os.system() runs shell commands directly.\n" +
		"→ Check whether the standard library can do the same job.",
	"no_subprocess": "📝 Learning point: subprocess risk\n" +
		"subprocess runs external commands; passing user input through it " +
		"risks command injection.\n" +
		"→ Prefer a library solution where one exists.",
	"max_files": "📝 Learning point: incremental development\n" +
		"Build one file at a time rather than many at once.\n" +
		"→ Make something small work, then extend it step by step.",
}

// Feedback produces the user-facing explanation for a violation list,
// deduplicated by rule in first-occurrence order.
func Feedback(violations []Violation) string {
	var lessons []string
	seen := make(map[string]bool)
	for _, v := range violations {
		if seen[v.Rule] {
			continue
		}
		seen[v.Rule] = true
		if lesson, ok := violationLessons[v.Rule]; ok {
			lessons = append(lessons, lesson)
		}
	}
	return strings.Join(lessons, "\n\n")
}
