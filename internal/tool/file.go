package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pmezard/go-difflib/difflib"

	"minarai/internal/policy"
	"minarai/internal/security"
)

type readRequest struct {
	Path string `mapstructure:"path"`
}

// readTool returns file content, truncated at MaxReadBytes.
type readTool struct {
	gate *security.Gate
}

func (t *readTool) Run(_ context.Context, args map[string]any) Result {
	var req readRequest
	if err := mapstructure.Decode(args, &req); err != nil {
		return errResult("invalid arguments: %v", err)
	}
	if req.Path == "" {
		return errResult("No path provided")
	}

	abs, verdict := t.gate.Resolve(req.Path)
	if !verdict.Allowed {
		return errResult("Blocked: %s", verdict.Reason)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return errResult("File not found: %s", req.Path)
		}
		return errResult("%v", err)
	}
	content := string(data)
	if len(content) > MaxReadBytes {
		content = Truncate(content, MaxReadBytes) + "\n... (truncated)"
	}
	return Result{"content": content}
}

type writeRequest struct {
	Path    string `mapstructure:"path"`
	Content string `mapstructure:"content"`
}

// writeTool creates or overwrites a file inside the workspace, subject to the
// mode's extension policy.
type writeTool struct {
	gate   *security.Gate
	engine *policy.Engine
}

func (t *writeTool) Run(_ context.Context, args map[string]any) Result {
	var req writeRequest
	if err := mapstructure.Decode(args, &req); err != nil {
		return errResult("invalid arguments: %v", err)
	}
	if req.Path == "" {
		return errResult("No path provided")
	}

	abs, verdict := t.gate.Resolve(req.Path)
	if !verdict.Allowed {
		return errResult("Blocked: %s", verdict.Reason)
	}
	if ext := t.engine.CheckExtension(abs); !ext.Allowed {
		return errResult("Policy violation: %s", ext.Reason)
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return errResult("%v", err)
	}
	if err := os.WriteFile(abs, []byte(req.Content), 0o644); err != nil {
		return errResult("%v", err)
	}
	return Result{"status": "ok", "path": abs, "bytes": len(req.Content)}
}

type editRequest struct {
	Path      string `mapstructure:"path"`
	OldString string `mapstructure:"old_string"`
	NewString string `mapstructure:"new_string"`
}

// editTool replaces the first occurrence of old_string in a file and reports
// the change as a unified diff.
type editTool struct {
	gate   *security.Gate
	engine *policy.Engine
}

func (t *editTool) Run(_ context.Context, args map[string]any) Result {
	var req editRequest
	if err := mapstructure.Decode(args, &req); err != nil {
		return errResult("invalid arguments: %v", err)
	}
	if req.Path == "" {
		return errResult("No path provided")
	}

	abs, verdict := t.gate.Resolve(req.Path)
	if !verdict.Allowed {
		return errResult("Blocked: %s", verdict.Reason)
	}
	if ext := t.engine.CheckExtension(abs); !ext.Allowed {
		return errResult("Policy violation: %s", ext.Reason)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return errResult("File not found: %s", req.Path)
		}
		return errResult("%v", err)
	}
	content := string(data)
	if !strings.Contains(content, req.OldString) {
		return errResult("old_string not found in file")
	}

	updated := strings.Replace(content, req.OldString, req.NewString, 1)
	if err := os.WriteFile(abs, []byte(updated), 0o644); err != nil {
		return errResult("%v", err)
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(content),
		B:        difflib.SplitLines(updated),
		FromFile: req.Path,
		ToFile:   req.Path,
		Context:  2,
	})
	if err != nil {
		diff = ""
	}
	return Result{"status": "ok", "path": abs, "diff": diff}
}
