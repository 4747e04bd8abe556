// Package agent wraps generation providers behind one interface the
// orchestrator drives: given conversation history and available tools, a
// provider returns either text (streamed as deltas) or tool-call requests.
package agent

import (
	"context"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/core/response"
)

// DeltaFunc receives one incremental text fragment during streaming
// generation. Returning an error aborts the stream.
type DeltaFunc func(delta string) error

// Agent is a generation engine capable of tool-calling conversations.
// Implementations must be safe for concurrent use.
type Agent interface {
	// StreamTools performs one generation call, invoking onDelta for each
	// text fragment as it arrives, and returns the assembled response
	// (text plus any tool-call requests) once the provider finishes.
	// Callers that need no incremental text pass a nil onDelta.
	StreamTools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool, onDelta DeltaFunc, opts ...map[string]any) (*response.ToolsResponse, error)
}

// New creates an Agent from configuration. The provider field selects the
// implementation; only OpenAI-compatible chat-completions endpoints are
// supported today.
func New(cfg *Config) (Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newOpenAIAgent(cfg), nil
}
