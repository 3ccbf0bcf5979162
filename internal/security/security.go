// Package security enforces the hard safety boundary around every tool
// invocation: a command-pattern blocklist, workspace path containment, and an
// import blocklist. All checks are pure predicates; nothing here has side
// effects, so checks are safe to run repeatedly or speculatively.
package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Verdict is the result of a security predicate.
type Verdict struct {
	Allowed bool
	Reason  string
	Lesson  string
}

func allow() Verdict { return Verdict{Allowed: true} }

// Shell command patterns that are always blocked: privilege escalation,
// destructive filesystem operations, outbound network fetches, package
// installation, and process/service/container control.
var blockedCommands = []*regexp.Regexp{
	regexp.MustCompile(`\bsudo\b`),
	regexp.MustCompile(`\bchmod\b`),
	regexp.MustCompile(`\bchown\b`),
	regexp.MustCompile(`\bdd\b\s`),
	regexp.MustCompile(`\bmkfs\b`),
	regexp.MustCompile(`/dev/`),
	regexp.MustCompile(`\brm\s+(-[a-zA-Z]*r[a-zA-Z]*f|--recursive)\b.*(/|\s)`),
	regexp.MustCompile(`\brm\s+-rf\s+/`),
	regexp.MustCompile(`\bcurl\b.*\|\s*\bbash\b`),
	regexp.MustCompile(`\bwget\b.*\|\s*\bbash\b`),
	regexp.MustCompile(`\bpip\s+install\b`),
	regexp.MustCompile(`\bpip3\s+install\b`),
	regexp.MustCompile(`\bnpm\s+install\b`),
	regexp.MustCompile(`\byarn\s+add\b`),
	regexp.MustCompile(`\bcurl\b`),
	regexp.MustCompile(`\bwget\b`),
	regexp.MustCompile(`\bnc\b\s`),
	regexp.MustCompile(`\bnetcat\b`),
	regexp.MustCompile(`\bssh\b`),
	regexp.MustCompile(`\bscp\b`),
	regexp.MustCompile(`\brsync\b`),
	regexp.MustCompile(`\btelnet\b`),
	regexp.MustCompile(`\bnmap\b`),
	regexp.MustCompile(`\biptables\b`),
	regexp.MustCompile(`\bsystemctl\b`),
	regexp.MustCompile(`\bservice\b`),
	regexp.MustCompile(`\bkill\b`),
	regexp.MustCompile(`\bkillall\b`),
	regexp.MustCompile(`\bshutdown\b`),
	regexp.MustCompile(`\breboot\b`),
	regexp.MustCompile(`\bmount\b`),
	regexp.MustCompile(`\bumount\b`),
	regexp.MustCompile(`\bfdisk\b`),
	regexp.MustCompile(`\bparted\b`),
	regexp.MustCompile(`\bdocker\b`),
	regexp.MustCompile(`\bpodman\b`),
}

// Python imports that are never allowed regardless of mode: anything that
// reaches the network, spawns processes, or escalates filesystem access.
var blockedImports = map[string]bool{
	"subprocess": true, "os.system": true, "shutil": true, "socket": true,
	"http": true, "urllib": true, "requests": true, "httpx": true,
	"aiohttp": true, "flask": true, "django": true, "fastapi": true,
	"paramiko": true, "fabric": true, "boto3": true, "botocore": true,
	"google.cloud": true, "azure": true, "ftplib": true, "smtplib": true,
	"imaplib": true, "poplib": true, "ctypes": true, "cffi": true,
	"multiprocessing": true, "webbrowser": true, "antigravity": true,
}

// Gate validates commands, paths, and imports against the security policy.
// The workspace root is canonicalised once at construction.
type Gate struct {
	root string
}

// NewGate creates a Gate for the given workspace root. The root is made
// absolute and symlink-resolved so containment checks compare canonical
// paths.
func NewGate(root string) (*Gate, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return &Gate{root: abs}, nil
}

// Root returns the canonical workspace root.
func (g *Gate) Root() string { return g.root }

// CheckCommand checks a shell command against the blocklist.
func (g *Gate) CheckCommand(command string) Verdict {
	for _, pattern := range blockedCommands {
		if pattern.MatchString(command) {
			return Verdict{
				Allowed: false,
				Reason:  fmt.Sprintf("blocked command pattern: %s", pattern.String()),
				Lesson:  lessonForPattern(pattern.String()),
			}
		}
	}
	return allow()
}

// CheckPath ensures the target resolves inside the workspace root. Symlinks
// in every component are resolved before the containment comparison, so a
// linked directory inside the root cannot smuggle paths outside it.
func (g *Gate) CheckPath(path string) Verdict {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(g.root, abs)
	}
	abs = filepath.Clean(abs)

	resolved := canonicalize(abs)
	if !g.contains(resolved) {
		if resolved != abs {
			return Verdict{
				Allowed: false,
				Reason:  fmt.Sprintf("symlink points outside working directory: %s", resolved),
			}
		}
		return Verdict{
			Allowed: false,
			Reason:  fmt.Sprintf("path escapes working directory: %s", abs),
		}
	}
	return allow()
}

// canonicalize resolves symlinks in the deepest existing prefix of abs and
// rejoins any components that do not exist yet, so write targets under a
// linked parent directory still canonicalise.
func canonicalize(abs string) string {
	suffix := ""
	current := abs
	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			return filepath.Clean(filepath.Join(resolved, suffix))
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs
		}
		suffix = filepath.Join(filepath.Base(current), suffix)
		current = parent
	}
}

// Resolve returns the canonical absolute form of path after a successful
// containment check, or the verdict that rejected it.
func (g *Gate) Resolve(path string) (string, Verdict) {
	verdict := g.CheckPath(path)
	if !verdict.Allowed {
		return "", verdict
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(g.root, abs)
	}
	return canonicalize(filepath.Clean(abs)), verdict
}

// CheckImports checks a set of import names against the global blocklist.
func (g *Gate) CheckImports(imports []string) Verdict {
	var blocked []string
	for _, imp := range imports {
		if blockedImports[imp] {
			blocked = append(blocked, imp)
		}
	}
	if len(blocked) > 0 {
		sort.Strings(blocked)
		lesson := ""
		for _, b := range blocked {
			if b == "subprocess" {
				lesson = lessons["subprocess"]
				break
			}
		}
		return Verdict{
			Allowed: false,
			Reason:  fmt.Sprintf("blocked imports: %s", strings.Join(blocked, ", ")),
			Lesson:  lesson,
		}
	}
	return allow()
}

func (g *Gate) contains(abs string) bool {
	return abs == g.root || strings.HasPrefix(abs, g.root+string(filepath.Separator))
}
