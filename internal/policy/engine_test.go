package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, mode Mode) *Engine {
	t.Helper()
	p, err := NewProfile(mode)
	require.NoError(t, err)
	return NewEngine(p)
}

func TestNewProfileUnknownMode(t *testing.T) {
	_, err := NewProfile(Mode("fortran"))
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestCheckToolPerMode(t *testing.T) {
	python := newEngine(t, ModePythonBasic)
	web := newEngine(t, ModeWebBasic)

	assert.True(t, python.CheckTool("bash").Allowed)
	assert.True(t, python.CheckTool("write").Allowed)

	v := web.CheckTool("bash")
	assert.False(t, v.Allowed)
	assert.Contains(t, v.Reason, "not allowed in mode")
	assert.True(t, web.CheckTool("write").Allowed)

	v = python.CheckTool("rm")
	assert.False(t, v.Allowed)
}

func TestCheckExtension(t *testing.T) {
	python := newEngine(t, ModePythonBasic)
	web := newEngine(t, ModeAFrame)

	assert.True(t, python.CheckExtension("hello.py").Allowed)
	assert.False(t, python.CheckExtension("index.html").Allowed)
	assert.True(t, python.CheckExtension("Makefile").Allowed)

	assert.True(t, web.CheckExtension("index.html").Allowed)
	assert.True(t, web.CheckExtension("app.js").Allowed)
	assert.True(t, web.CheckExtension("style.css").Allowed)
	assert.False(t, web.CheckExtension("hello.py").Allowed)
}

func TestCheckScope(t *testing.T) {
	e := newEngine(t, ModePythonBasic)

	assert.True(t, e.CheckScope("make a rock-paper-scissors game").Allowed)
	assert.True(t, e.CheckScope("write a javascript counter").Allowed)
	assert.True(t, e.CheckScope("explain JavaScript closures").Allowed)

	v := e.CheckScope("write this in Rust instead")
	assert.False(t, v.Allowed)
	assert.Equal(t, ScopeDescription, v.Reason)

	assert.False(t, e.CheckScope("make a Java class").Allowed)
	assert.False(t, e.CheckScope("deploy with kubernetes").Allowed)
	assert.False(t, e.CheckScope("a c++ linked list").Allowed)
}

func TestCheckScopeJavaSuffixMix(t *testing.T) {
	e := newEngine(t, ModeWebBasic)

	// "javascript" alone is fine, but a separate "java" mention is not.
	assert.True(t, e.CheckScope("javascript please").Allowed)
	assert.False(t, e.CheckScope("javascript or java, whichever").Allowed)
}

func TestSystemPromptIncludesModeRules(t *testing.T) {
	python := newEngine(t, ModePy5)
	prompt := python.SystemPrompt()
	assert.Contains(t, prompt, "py5.run_sketch()")
	assert.Contains(t, prompt, "<function=write>")
	assert.Contains(t, prompt, "bash")

	web := newEngine(t, ModeThreeJS)
	prompt = web.SystemPrompt()
	assert.Contains(t, prompt, "Three.js")
	assert.Contains(t, prompt, "bash is unavailable")
}

func TestProfileImports(t *testing.T) {
	p, err := NewProfile(ModeSklearn)
	require.NoError(t, err)
	assert.True(t, p.AllowsImport("sklearn"))
	assert.True(t, p.AllowsImport("numpy"))
	assert.False(t, p.AllowsImport("pandas"))

	web, err := NewProfile(ModeWebBasic)
	require.NoError(t, err)
	assert.False(t, web.AllowsImport("math"))
}

func TestOverlay(t *testing.T) {
	p, err := NewProfile(ModePythonBasic)
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	overlay := "extra_imports: [numpy]\nremove_imports: [struct]\ndisabled_tools: [bash]\n"
	require.NoError(t, os.WriteFile(path, []byte(overlay), 0o644))

	require.NoError(t, LoadOverlay(path, p))
	assert.True(t, p.AllowsImport("numpy"))
	assert.False(t, p.AllowsImport("struct"))
	assert.False(t, p.AllowsTool("bash"))
}

func TestOverlayMissingFileIsNoop(t *testing.T) {
	p, err := NewProfile(ModePythonBasic)
	require.NoError(t, err)
	require.NoError(t, LoadOverlay(filepath.Join(t.TempDir(), "absent.yaml"), p))
	assert.True(t, p.AllowsTool("bash"))
}
