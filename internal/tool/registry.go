package tool

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"minarai/internal/policy"
	"minarai/internal/security"
)

// runner is implemented by every tool.
type runner interface {
	Run(ctx context.Context, args map[string]any) Result
}

// Registry holds the tools the active mode allows and dispatches calls to
// them. Construction filters the closed tool set by the mode profile;
// Execute never panics.
type Registry struct {
	engine *policy.Engine
	tools  map[string]runner
	logger *zap.Logger
}

// NewRegistry builds a Registry for the given gates and workspace.
func NewRegistry(gate *security.Gate, engine *policy.Engine, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	workdir := gate.Root()
	all := map[string]runner{
		"bash":  &bashTool{gate: gate, workdir: workdir},
		"read":  &readTool{gate: gate},
		"write": &writeTool{gate: gate, engine: engine},
		"edit":  &editTool{gate: gate, engine: engine},
		"grep":  &grepTool{gate: gate, workdir: workdir},
		"glob":  &globTool{gate: gate, workdir: workdir},
	}
	tools := make(map[string]runner)
	for name, impl := range all {
		if engine.Profile().AllowsTool(name) {
			tools[name] = impl
		}
	}
	return &Registry{engine: engine, tools: tools, logger: logger}
}

// Execute dispatches one tool call. Policy rejections, unknown tools, and
// execution failures all come back as error results.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) Result {
	verdict := r.engine.CheckTool(name)
	if !verdict.Allowed {
		r.logger.Warn("tool rejected by policy", zap.String("tool", name))
		return errResult("%s", verdict.Reason)
	}

	impl, ok := r.tools[name]
	if !ok {
		return errResult("Unknown tool: %s", name)
	}

	r.logger.Debug("executing tool", zap.String("tool", name))
	return impl.Run(ctx, args)
}

// Available returns the sorted names of the registered tools.
func (r *Registry) Available() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
