// Package tools implements the uniform tool contract: a registry of named,
// schema-validated capabilities the model may invoke. Arguments are checked
// against each tool's JSON Schema before dispatch; handlers are never called
// with invalid input.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
)

// Handler is the function signature for tool implementations.
// Handlers receive the request context and JSON-encoded, already validated
// arguments from the model.
type Handler func(ctx context.Context, args json.RawMessage) (Result, error)

// Result is the tool execution output that feeds back into the next model
// turn. IsError signals to the model that the invocation failed; the content
// is still data, never a Go error, so the model can explain or retry.
type Result struct {
	Content string
	IsError bool
}

// Errorf builds a structured error Result from a format string.
func Errorf(format string, a ...any) Result {
	payload, _ := json.Marshal(map[string]string{"error": fmt.Sprintf(format, a...)})
	return Result{Content: string(payload), IsError: true}
}

type entry struct {
	tool    protocol.Tool
	schema  *gojsonschema.Schema
	handler Handler
}

// Registry holds named tools with compiled argument schemas.
// Thread-safe for concurrent registration and execution.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	dedup   bool
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithTurnDedup enables the per-turn duplicate-call guard: a second call to
// the same tool with identical arguments inside one turn is rejected with
// ErrDuplicateCall instead of being dispatched again. Off by default.
func WithTurnDedup() Option {
	return func(r *Registry) { r.dedup = true }
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{entries: make(map[string]entry)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DedupEnabled reports whether the per-turn duplicate-call guard is active.
func (r *Registry) DedupEnabled() bool {
	return r.dedup
}

// Register adds a new tool, compiling its parameter schema for validation.
// Returns ErrAlreadyExists if a tool with the same name is registered.
// Thread-safe for concurrent registration.
func (r *Registry) Register(tool protocol.Tool, handler Handler) error {
	if tool.Name == "" {
		return ErrEmptyName
	}

	var schema *gojsonschema.Schema
	if len(tool.Parameters) > 0 {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.Parameters))
		if err != nil {
			return fmt.Errorf("tool %s: invalid parameter schema: %w", tool.Name, err)
		}
		schema = compiled
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, tool.Name)
	}

	r.entries[tool.Name] = entry{tool: tool, schema: schema, handler: handler}
	return nil
}

// Get returns a tool descriptor by name.
func (r *Registry) Get(name string) (protocol.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return protocol.Tool{}, false
	}
	return e.tool, true
}

// List returns the definitions of all registered tools, sorted by name.
func (r *Registry) List() []protocol.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]protocol.Tool, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Subset returns the definitions of the named tools, skipping unknown names.
// Used to expose a tool group to the model without re-registering.
func (r *Registry) Subset(names ...string) []protocol.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]protocol.Tool, 0, len(names))
	for _, name := range names {
		if e, exists := r.entries[name]; exists {
			out = append(out, e.tool)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate checks raw arguments against the named tool's schema without
// executing it. Returns ErrNotFound for unknown tools and a *ValidationError
// (wrapping ErrInvalidArgs) listing each violated constraint.
func (r *Registry) Validate(name string, args json.RawMessage) error {
	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return validateAgainst(e.tool.Name, e.schema, args)
}

// Execute validates arguments and dispatches to the registered handler.
// Invalid arguments short-circuit before the handler runs: the executor is
// never called with input that fails its schema. Handler errors are wrapped
// with the tool name for context.
func (r *Registry) Execute(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	r.mu.RLock()
	e, exists := r.entries[name]
	r.mu.RUnlock()

	if !exists {
		return Result{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if err := validateAgainst(e.tool.Name, e.schema, args); err != nil {
		return Result{}, err
	}

	result, err := e.handler(ctx, args)
	if err != nil {
		return Result{}, fmt.Errorf("tool %s execution failed: %w", name, err)
	}

	return result, nil
}
