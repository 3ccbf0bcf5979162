package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minarai/internal/policy"
)

func newValidator(t *testing.T, mode policy.Mode) *Validator {
	t.Helper()
	p, err := policy.NewProfile(mode)
	require.NoError(t, err)
	return New(p)
}

func rules(r Result) []string {
	out := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		out[i] = v.Rule
	}
	return out
}

func TestValidateImportAllowList(t *testing.T) {
	v := newValidator(t, policy.ModePythonBasic)

	r := v.Validate("import math", "x.py")
	assert.True(t, r.Valid)
	assert.Empty(t, r.Violations)

	r = v.Validate("import requests", "x.py")
	assert.False(t, r.Valid)
	assert.Contains(t, rules(r), "forbidden_import")
}

func TestValidateDottedImportUsesTopLevel(t *testing.T) {
	v := newValidator(t, policy.ModePandas)

	r := v.Validate("import matplotlib.pyplot as plt", "plot.py")
	assert.True(t, r.Valid)

	r = v.Validate("from sklearn.linear_model import LinearRegression", "ml.py")
	assert.False(t, r.Valid)
}

func TestValidateLineCount(t *testing.T) {
	v := newValidator(t, policy.ModePythonBasic)

	short := strings.Repeat("x = 1\n", 49) + "x = 1"
	assert.True(t, v.Validate(short, "x.py").Valid)

	long := strings.Repeat("x = 1\n", 50) + "x = 1"
	r := v.Validate(long, "x.py")
	assert.False(t, r.Valid)
	assert.Contains(t, rules(r), "max_lines")
}

func TestValidateLanguageIsolationPythonMode(t *testing.T) {
	v := newValidator(t, policy.ModePythonBasic)

	// One incidental token is not enough to flag.
	r := v.Validate(`print("<div>hello</div>")`, "x.py")
	assert.True(t, r.Valid)

	html := "<!DOCTYPE html>\n<html><body>hi</body></html>"
	r = v.Validate(html, "x.py")
	assert.False(t, r.Valid)
	assert.Contains(t, rules(r), "language_isolation")

	js := "function greet() {\n  console.log('hi');\n}"
	r = v.Validate(js, "x.py")
	assert.False(t, r.Valid)
}

func TestValidateLanguageIsolationWebMode(t *testing.T) {
	v := newValidator(t, policy.ModeWebBasic)

	py := "def main():\n    print('hello')\n"
	r := v.Validate(py, "script.txt")
	assert.False(t, r.Valid)
	assert.Contains(t, rules(r), "language_isolation")

	// Web filenames are exempt even when the heuristic fires.
	r = v.Validate(py, "app.js")
	for _, rule := range rules(r) {
		assert.NotEqual(t, "language_isolation", rule)
	}
}

func TestValidateForbiddenPatterns(t *testing.T) {
	v := newValidator(t, policy.ModePythonBasic)

	r := v.Validate(`data = fetch("https://api.example.com")`, "x.py")
	assert.Contains(t, rules(r), "no_external_api")

	r = v.Validate("# run: pip install requests", "x.py")
	assert.Contains(t, rules(r), "no_install")

	r = v.Validate(`os.system("ls")`, "x.py")
	assert.Contains(t, rules(r), "no_os_system")

	r = v.Validate("subprocess.run(['ls'])", "x.py")
	assert.Contains(t, rules(r), "no_subprocess")
}

func TestValidateChecksDoNotShortCircuit(t *testing.T) {
	v := newValidator(t, policy.ModePythonBasic)

	code := "import requests\n" +
		`requests.get("https://example.com")` + "\n" +
		strings.Repeat("x = 1\n", 60)
	r := v.Validate(code, "x.py")
	assert.False(t, r.Valid)
	got := rules(r)
	assert.Contains(t, got, "max_lines")
	assert.Contains(t, got, "forbidden_import")
	assert.Contains(t, got, "no_external_api")
}

func TestValidateBatch(t *testing.T) {
	v := newValidator(t, policy.ModePythonBasic)

	r := v.ValidateBatch(map[string]string{
		"a.py": "import math",
		"b.py": "import json",
	})
	assert.False(t, r.Valid)
	assert.Contains(t, rules(r), "max_files")
}

func TestExtractImports(t *testing.T) {
	code := "import math, random\n" +
		"import numpy as np\n" +
		"from collections import Counter\n" +
		"# import commented_out\n" +
		"\"\"\"\nimport inside_docstring\n\"\"\"\n"
	got := extractImports(code)
	assert.Equal(t, []string{"collections", "math", "numpy", "random"}, got)
}

func TestExtractImportsIndentedFallbackStillFound(t *testing.T) {
	code := "def f():\n    import socket\n"
	got := extractImports(code)
	assert.Contains(t, got, "socket")
}

func TestCorrectionPrompt(t *testing.T) {
	violations := []Violation{
		{Rule: "max_lines", Detail: "60 lines exceeds limit of 50"},
		{Rule: "forbidden_import", Detail: "Import 'requests' not allowed in this mode"},
	}
	prompt := CorrectionPrompt(violations, "python_basic")
	assert.Contains(t, prompt, "[max_lines]")
	assert.Contains(t, prompt, "[forbidden_import]")
	assert.Contains(t, prompt, "'python_basic' mode")
}

func TestFeedbackDeduplicatesByRule(t *testing.T) {
	violations := []Violation{
		{Rule: "forbidden_import", Detail: "Import 'requests' not allowed in this mode"},
		{Rule: "forbidden_import", Detail: "Import 'socket' not allowed in this mode"},
		{Rule: "max_lines", Detail: "60 lines exceeds limit of 50"},
	}
	fb := Feedback(violations)
	assert.Equal(t, 1, strings.Count(fb, "import restrictions"))
	assert.Contains(t, fb, "keeping code short")

	assert.Empty(t, Feedback(nil))
}
