package validate

import (
	"regexp"
	"sort"
	"strings"
)

var (
	importLine     = regexp.MustCompile(`(?m)^\s*import\s+([\w.]+)`)
	fromImportLine = regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import`)
)

// extractImports returns the sorted set of module names imported by a Python
// source fragment. A structural line scan handles the common forms, counting
// every name in comma-separated import lists and ignoring comments and
// triple-quoted strings; a plain regex pass is the fallback when the scan
// finds nothing but regexes do.
func extractImports(code string) []string {
	set := scanImports(code)
	if len(set) == 0 {
		for _, m := range importLine.FindAllStringSubmatch(code, -1) {
			set[m[1]] = true
		}
		for _, m := range fromImportLine.FindAllStringSubmatch(code, -1) {
			set[m[1]] = true
		}
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func scanImports(code string) map[string]bool {
	set := make(map[string]bool)
	inString := false
	quote := ""
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)

		if inString {
			if strings.Contains(trimmed, quote) {
				inString = false
			}
			continue
		}
		for _, q := range []string{`"""`, "'''"} {
			if strings.Contains(trimmed, q) && strings.Count(trimmed, q)%2 == 1 {
				inString = true
				quote = q
			}
		}
		if inString || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if idx := strings.Index(trimmed, "#"); idx >= 0 {
			trimmed = strings.TrimSpace(trimmed[:idx])
		}

		switch {
		case strings.HasPrefix(trimmed, "import "):
			rest := strings.TrimPrefix(trimmed, "import ")
			for _, part := range strings.Split(rest, ",") {
				name := strings.TrimSpace(part)
				if as := strings.Index(name, " as "); as >= 0 {
					name = strings.TrimSpace(name[:as])
				}
				if isModuleName(name) {
					set[name] = true
				}
			}
		case strings.HasPrefix(trimmed, "from "):
			rest := strings.TrimPrefix(trimmed, "from ")
			name, _, found := strings.Cut(rest, " import")
			if found {
				name = strings.TrimSpace(name)
				if isModuleName(name) {
					set[name] = true
				}
			}
		}
	}
	return set
}

var moduleName = regexp.MustCompile(`^[\w.]+$`)

func isModuleName(s string) bool { return s != "" && moduleName.MatchString(s) }
