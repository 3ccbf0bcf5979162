package tool

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/mitchellh/mapstructure"

	"minarai/internal/security"
)

type bashRequest struct {
	Command string `mapstructure:"command"`
}

// bashTool runs a shell command after security validation, under a wall-clock
// timeout and an output cap.
type bashTool struct {
	gate    *security.Gate
	workdir string
}

func (t *bashTool) Run(ctx context.Context, args map[string]any) Result {
	var req bashRequest
	if err := mapstructure.Decode(args, &req); err != nil {
		return errResult("invalid arguments: %v", err)
	}
	if req.Command == "" {
		return errResult("No command provided")
	}

	verdict := t.gate.CheckCommand(req.Command)
	if !verdict.Allowed {
		res := errResult("Blocked: %s", verdict.Reason)
		if verdict.Lesson != "" {
			res["lesson"] = verdict.Lesson
		}
		return res
	}

	runCtx, cancel := context.WithTimeout(ctx, BashTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", req.Command)
	cmd.Dir = t.workdir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return errResult("Command timed out (%s limit)", BashTimeout)
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output += "\nSTDERR:\n" + stderr.String()
	}
	if len(output) > MaxBashOutput {
		output = Truncate(output, MaxBashOutput) + "\n... (truncated)"
	}

	returncode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			returncode = exitErr.ExitCode()
		} else {
			return errResult("%v", err)
		}
	}
	return Result{"output": output, "returncode": returncode}
}
