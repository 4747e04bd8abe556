// Package stream carries the orchestrator's event sequence to a client as an
// ordered, cancellable incremental stream. A single producer (the
// orchestrator) writes events into a Pipe; a single consumer (the transport)
// drains them in order. Contracts: a tool's result frame never precedes its
// start frame, text deltas from one turn never interleave with the next, and
// cancellation never retracts already-emitted output.
package stream

import (
	"encoding/json"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/core/response"
)

// EventType identifies a stream frame kind.
type EventType string

const (
	EventTextDelta      EventType = "text-delta"
	EventToolCallStart  EventType = "tool-call-start"
	EventToolCallResult EventType = "tool-call-result"
	EventTurnEnd        EventType = "turn-end"
	EventStreamEnd      EventType = "stream-end"
	EventError          EventType = "error"
)

// ToolFrame carries one tool invocation's lifecycle data on start and
// result frames.
type ToolFrame struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Args    json.RawMessage `json:"args,omitempty"`
	Content string          `json:"content,omitempty"`
	IsError bool            `json:"isError,omitempty"`
}

// Event is one frame in the outbound stream.
type Event struct {
	Type   EventType             `json:"type"`
	Turn   int                   `json:"turn,omitempty"`
	Delta  string                `json:"delta,omitempty"`
	Tool   *ToolFrame            `json:"tool,omitempty"`
	Finish protocol.FinishReason `json:"finishReason,omitempty"`
	Usage  *response.TokenUsage  `json:"usage,omitempty"`
	Error  string                `json:"error,omitempty"`
}
