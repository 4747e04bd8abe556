package protocol

// SideEffect classifies what a tool touches when it runs. Read-only tools
// query external providers; resource-mutating tools provision compute or
// write to storage and require guaranteed cleanup on every exit path.
type SideEffect string

const (
	SideEffectReadOnly SideEffect = "read_only"
	SideEffectMutating SideEffect = "resource_mutating"
)

// Tool describes a capability the model may invoke by name.
// Parameters uses JSON Schema to declare the argument contract; the registry
// validates arguments against it before dispatch.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	SideEffect  SideEffect     `json:"-"`
}

// Mutating reports whether the tool provisions or writes external resources.
func (t Tool) Mutating() bool {
	return t.SideEffect == SideEffectMutating
}
