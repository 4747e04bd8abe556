// Package sandbox owns the stateful code-execution lifecycle: provision an
// isolated session, run model-supplied code, collect output, persist rendered
// images as durable artifacts, and tear the session down on every exit path.
package sandbox

import (
	"context"
)

// Image is one rendered image output collected from a run.
type Image struct {
	Format string // file extension without dot, e.g. "png"
	Data   []byte
}

// CodeError describes an error raised inside the executed code. It is log
// output visible to the model, not an infrastructure failure.
type CodeError struct {
	Name      string
	Value     string
	Traceback string
}

// Execution is everything collected from one code run: primary result text
// and images in emission order, captured stdio, and any in-code error.
type Execution struct {
	Text   []string
	Images []Image
	Stdout []string
	Stderr []string
	Error  *CodeError
}

// Runtime provisions isolated execution sessions. Implementations wrap a
// sandboxed code-execution provider and are safe for concurrent use.
type Runtime interface {
	// CreateSession provisions a fresh isolated environment. A failure here
	// is infrastructure-class and aborts the tool call.
	CreateSession(ctx context.Context) (Session, error)
}

// Session is one ephemeral compute environment, scoped to exactly one code
// invocation. Close releases the environment and must be called on every
// path, including errors.
type Session interface {
	// ID returns the provider-assigned session identifier.
	ID() string
	// Run executes code to completion. Errors raised by the code itself are
	// reported in Execution.Error, not as a Go error.
	Run(ctx context.Context, code string) (*Execution, error)
	// Close releases the session. Idempotent.
	Close(ctx context.Context) error
}
