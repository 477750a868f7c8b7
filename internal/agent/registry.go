package agent

import (
	"context"
	"fmt"
)

// Args carries the built inputs of one tool invocation, keyed by parameter
// name.
type Args map[string]any

// Runner executes one tool over its built arguments and returns the value to
// merge into state.
type Runner func(ctx context.Context, args Args) (any, error)

// Tool pairs a manifest with its runner.
type Tool struct {
	Manifest Manifest
	Run      Runner
}

// Registry holds the pipeline's tools in planner presentation order.
type Registry struct {
	tools map[string]Tool
	order []string
}

func newRegistry(tools []Tool) (*Registry, error) {
	if len(tools) == 0 {
		return nil, fmt.Errorf("%w: no tools registered", ErrConfiguration)
	}

	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t.Manifest.Name == "" {
			return nil, fmt.Errorf("%w: tool with empty name", ErrConfiguration)
		}
		if _, exists := r.tools[t.Manifest.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate tool %q", ErrConfiguration, t.Manifest.Name)
		}
		if len(t.Manifest.Writes) != 1 {
			return nil, fmt.Errorf("%w: tool %q must write exactly one field, declares %d",
				ErrConfiguration, t.Manifest.Name, len(t.Manifest.Writes))
		}
		if t.Run == nil {
			return nil, fmt.Errorf("%w: tool %q has no runner", ErrConfiguration, t.Manifest.Name)
		}
		r.tools[t.Manifest.Name] = t
		r.order = append(r.order, t.Manifest.Name)
	}
	return r, nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return Tool{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return t, nil
}

// Manifests returns the registered manifests in registration order.
func (r *Registry) Manifests() []Manifest {
	out := make([]Manifest, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Manifest)
	}
	return out
}
