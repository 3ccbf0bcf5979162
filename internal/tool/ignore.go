package tool

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// ignoreMatcher skips gitignored paths during grep and glob walks. A missing
// .gitignore yields a matcher that never ignores.
type ignoreMatcher struct {
	matcher gitignore.Matcher
}

func newIgnoreMatcher(root string) *ignoreMatcher {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return &ignoreMatcher{}
	}
	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if p := gitignore.ParsePattern(line, nil); p != nil {
			patterns = append(patterns, p)
		}
	}
	return &ignoreMatcher{matcher: gitignore.NewMatcher(patterns)}
}

// ShouldIgnore reports whether the workspace-relative path is gitignored.
// The .git directory itself is always skipped.
func (m *ignoreMatcher) ShouldIgnore(relPath string, isDir bool) bool {
	segments := splitPath(relPath)
	if len(segments) > 0 && segments[0] == ".git" {
		return true
	}
	if m.matcher == nil {
		return false
	}
	return m.matcher.Match(segments, isDir)
}

func splitPath(path string) []string {
	var segments []string
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}
	return segments
}
