package tool

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"golang.org/x/sync/errgroup"

	"minarai/internal/security"
)

const maxGrepWorkers = 8
const maxGrepLineLength = 200

type grepRequest struct {
	Pattern string `mapstructure:"pattern"`
	Path    string `mapstructure:"path"`
}

// GrepMatch is one matching line.
type GrepMatch struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// grepTool searches file contents by regex under the workspace root,
// skipping gitignored paths. Files are scanned concurrently.
type grepTool struct {
	gate    *security.Gate
	workdir string
}

func (t *grepTool) Run(ctx context.Context, args map[string]any) Result {
	var req grepRequest
	if err := mapstructure.Decode(args, &req); err != nil {
		return errResult("invalid arguments: %v", err)
	}
	if req.Pattern == "" {
		return errResult("No pattern provided")
	}

	searchPath := req.Path
	if searchPath == "" {
		searchPath = t.workdir
	}
	abs, verdict := t.gate.Resolve(searchPath)
	if !verdict.Allowed {
		return errResult("Blocked: %s", verdict.Reason)
	}

	regex, err := regexp.Compile(req.Pattern)
	if err != nil {
		return errResult("Invalid regex: %v", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return errResult("%v", err)
	}
	if !info.IsDir() {
		matches := searchFile(abs, regex, MaxGrepMatches)
		return Result{"matches": matches, "truncated": len(matches) >= MaxGrepMatches}
	}

	ignore := newIgnoreMatcher(t.workdir)
	var files []string
	_ = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(t.workdir, path)
		if relErr == nil && ignore.ShouldIgnore(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})

	var (
		mu      sync.Mutex
		matches []GrepMatch
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxGrepWorkers)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			found := searchFile(file, regex, MaxGrepMatches)
			if len(found) == 0 {
				return nil
			}
			mu.Lock()
			matches = append(matches, found...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].File != matches[j].File {
			return matches[i].File < matches[j].File
		}
		return matches[i].Line < matches[j].Line
	})
	truncated := len(matches) > MaxGrepMatches
	if truncated {
		matches = matches[:MaxGrepMatches]
	}
	return Result{"matches": matches, "truncated": truncated}
}

func searchFile(path string, regex *regexp.Regexp, limit int) []GrepMatch {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var matches []GrepMatch
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; scanner.Scan() && len(matches) < limit; line++ {
		text := scanner.Text()
		if !regex.MatchString(text) {
			continue
		}
		text = strings.TrimRight(text, " \t")
		text = Truncate(text, maxGrepLineLength)
		matches = append(matches, GrepMatch{File: path, Line: line, Text: text})
	}
	return matches
}

type globRequest struct {
	Pattern string `mapstructure:"pattern"`
}

// globTool lists workspace files matching a glob pattern. "**" matches any
// number of path segments.
type globTool struct {
	gate    *security.Gate
	workdir string
}

func (t *globTool) Run(_ context.Context, args map[string]any) Result {
	var req globRequest
	if err := mapstructure.Decode(args, &req); err != nil {
		return errResult("invalid arguments: %v", err)
	}
	if req.Pattern == "" {
		return errResult("No pattern provided")
	}

	regex, err := globToRegexp(req.Pattern)
	if err != nil {
		return errResult("Invalid pattern: %v", err)
	}

	ignore := newIgnoreMatcher(t.workdir)
	var found []string
	_ = filepath.WalkDir(t.workdir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(t.workdir, path)
		if relErr != nil || rel == "." {
			return nil
		}
		if ignore.ShouldIgnore(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && regex.MatchString(filepath.ToSlash(rel)) {
			found = append(found, rel)
		}
		return nil
	})

	sort.Strings(found)
	truncated := len(found) > MaxGlobResults
	if truncated {
		found = found[:MaxGlobResults]
	}
	return Result{"files": found, "count": len(found), "truncated": truncated}
}

// globToRegexp converts a glob pattern to an anchored regexp. "**/" matches
// zero or more directories, "*" matches within one segment, "?" one rune.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	p := filepath.ToSlash(pattern)
	for i := 0; i < len(p); i++ {
		switch c := p[i]; c {
		case '*':
			if strings.HasPrefix(p[i:], "**/") {
				b.WriteString(`(?:[^/]+/)*`)
				i += 2
			} else if strings.HasPrefix(p[i:], "**") {
				b.WriteString(`.*`)
				i++
			} else {
				b.WriteString(`[^/]*`)
			}
		case '?':
			b.WriteString(`[^/]`)
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
