// Package policy defines the per-mode profiles that constrain what the agent
// may do, and the engine that evaluates tool calls and user requests against
// the active profile.
package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode identifies a tutoring domain.
type Mode string

const (
	ModePythonBasic Mode = "python_basic"
	ModePy5         Mode = "py5"
	ModeSklearn     Mode = "sklearn"
	ModePandas      Mode = "pandas"
	ModeWebBasic    Mode = "web_basic"
	ModeAFrame      Mode = "aframe"
	ModeThreeJS     Mode = "threejs"
)

// LanguageFamily groups modes by the language they generate.
type LanguageFamily string

const (
	LangPython LanguageFamily = "python"
	LangWeb    LanguageFamily = "web"
)

// Modes lists every supported mode in display order.
func Modes() []Mode {
	return []Mode{
		ModePythonBasic, ModePy5, ModeSklearn, ModePandas,
		ModeWebBasic, ModeAFrame, ModeThreeJS,
	}
}

// Profile is the immutable per-session configuration of a mode. The engine
// and the validator treat it as read-only.
type Profile struct {
	Mode              Mode
	Language          LanguageFamily
	SystemPrompt      string
	AllowedImports    map[string]bool
	AllowedExtensions map[string]bool
	AllowedTools      map[string]bool
}

// AllowsTool reports whether the named tool is permitted.
func (p *Profile) AllowsTool(name string) bool { return p.AllowedTools[name] }

// AllowsImport reports whether the named import is permitted.
func (p *Profile) AllowsImport(name string) bool { return p.AllowedImports[name] }

var modeLanguage = map[Mode]LanguageFamily{
	ModePythonBasic: LangPython,
	ModePy5:         LangPython,
	ModeSklearn:     LangPython,
	ModePandas:      LangPython,
	ModeWebBasic:    LangWeb,
	ModeAFrame:      LangWeb,
	ModeThreeJS:     LangWeb,
}

var allowedImports = map[Mode][]string{
	ModePythonBasic: {
		"math", "random", "string", "collections", "itertools",
		"functools", "operator", "copy", "pprint", "typing",
		"dataclasses", "enum", "json", "csv", "datetime", "re",
		"os.path", "pathlib", "textwrap", "decimal", "fractions",
		"statistics", "abc", "contextlib", "io", "struct",
	},
	ModePy5: {
		"math", "random", "py5", "typing", "dataclasses", "enum",
		"collections", "itertools", "functools", "copy", "json",
	},
	ModeSklearn: {
		"math", "random", "numpy", "sklearn", "typing", "dataclasses",
		"collections", "itertools", "functools", "copy", "json",
		"csv", "pathlib", "os.path", "statistics", "warnings",
	},
	ModePandas: {
		"math", "random", "numpy", "pandas", "matplotlib", "seaborn",
		"typing", "dataclasses", "collections", "itertools", "functools",
		"copy", "json", "csv", "pathlib", "os.path", "statistics",
		"warnings", "io",
	},
	// Web modes generate no Python, so no imports are allowed.
	ModeWebBasic: {},
	ModeAFrame:   {},
	ModeThreeJS:  {},
}

var allowedExtensions = map[LanguageFamily][]string{
	LangPython: {".py"},
	LangWeb:    {".html", ".js", ".css"},
}

var pythonTools = []string{"bash", "read", "write", "edit", "grep", "glob"}
var webTools = []string{"read", "write", "edit", "grep", "glob"}

// ScopeDescription is returned verbatim when a request falls outside every
// supported domain.
const ScopeDescription = `Only these domains are supported:
  1. Python fundamentals
  2. Py5 (Processing-style geometry & animation)
  3. scikit-learn (statistics & ML basics)
  4. pandas + matplotlib + seaborn (data analysis)
  5. HTML + CSS + JavaScript (Web basics)
  6. HTML + JavaScript with A-Frame (WebXR 3D)
  7. HTML + JavaScript with Three.js (3D graphics)

Requests outside these domains cannot be fulfilled.`

// NewProfile builds the built-in profile for a mode.
func NewProfile(mode Mode) (*Profile, error) {
	lang, ok := modeLanguage[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	tools := pythonTools
	if lang == LangWeb {
		tools = webTools
	}
	return &Profile{
		Mode:              mode,
		Language:          lang,
		SystemPrompt:      systemPrompts[mode],
		AllowedImports:    toSet(allowedImports[mode]),
		AllowedExtensions: toSet(allowedExtensions[lang]),
		AllowedTools:      toSet(tools),
	}, nil
}

// Overlay is an optional YAML file that adjusts a built-in profile, for
// example to grant an extra import in a classroom setting.
type Overlay struct {
	ExtraImports   []string `yaml:"extra_imports"`
	RemoveImports  []string `yaml:"remove_imports"`
	SystemPrompt   string   `yaml:"system_prompt"`
	DisabledTools  []string `yaml:"disabled_tools"`
}

// LoadOverlay reads an overlay from path and applies it to the profile in
// place. A missing file is not an error.
func LoadOverlay(path string, p *Profile) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading profile overlay: %w", err)
	}
	var o Overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parsing profile overlay: %w", err)
	}
	o.Apply(p)
	return nil
}

// Apply merges the overlay into the profile.
func (o *Overlay) Apply(p *Profile) {
	for _, imp := range o.ExtraImports {
		p.AllowedImports[imp] = true
	}
	for _, imp := range o.RemoveImports {
		delete(p.AllowedImports, imp)
	}
	for _, tool := range o.DisabledTools {
		delete(p.AllowedTools, tool)
	}
	if o.SystemPrompt != "" {
		p.SystemPrompt = o.SystemPrompt
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
