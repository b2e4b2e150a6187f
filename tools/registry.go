package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Executor runs one validated tool call. args is the parsed argument object;
// tc is the shared per-run environment.
type Executor func(ctx context.Context, args map[string]any, tc *Context) (any, error)

// Shaper renders a success payload into compact text for the model. Tools
// without a shaper fall back to JSON.
type Shaper func(payload any) (string, error)

type entry struct {
	def       mcptypes.Tool
	exec      Executor
	shape     Shaper
	validator *jsonschema.Resolved
}

// Registry maps tool names to their definition, executor, and result shaper.
// It is an explicit instance constructed at startup and injected into the
// agent, so tests can build isolated registries. Not safe for concurrent
// registration; populate it fully before the first run.
type Registry struct {
	entries map[string]*entry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a tool. Registering a name twice overwrites the earlier
// entry (last registration wins) while keeping its original position in the
// advertisement order. The definition's input schema is compiled once here;
// a schema that does not compile is a programming error surfaced at startup.
func (r *Registry) Register(def mcptypes.Tool, exec Executor, shape Shaper) error {
	validator, err := compileSchema(def.InputSchema)
	if err != nil {
		return fmt.Errorf("tool %s: invalid input schema: %w", def.Name, err)
	}

	if _, exists := r.entries[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.entries[def.Name] = &entry{def: def, exec: exec, shape: shape, validator: validator}
	return nil
}

// Definitions returns all tool definitions in registration order, for
// advertisement to the model.
func (r *Registry) Definitions() []mcptypes.Tool {
	defs := make([]mcptypes.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.entries[name].def)
	}
	return defs
}

func (r *Registry) lookup(name string) (*entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

func compileSchema(input mcptypes.ToolInputSchema) (*jsonschema.Resolved, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.Resolve(nil)
}
