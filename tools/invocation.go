package tools

import (
	"encoding/json"

	"github.com/google/uuid"
)

// State tracks an invocation through its lifecycle. An invocation is
// terminal once a result or error is recorded.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Invocation is one concrete, argument-bound call to a tool and its outcome.
// Created when the model requests a call; mutated by the orchestrator as
// execution proceeds.
type Invocation struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Args   json.RawMessage `json:"args"`
	State  State           `json:"state"`
	Result *Result         `json:"result,omitempty"`
}

// NewInvocation creates a pending Invocation. When the model supplies no
// call identifier, a UUIDv7 is assigned so result frames stay correlatable.
func NewInvocation(id, name string, args json.RawMessage) *Invocation {
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}
	return &Invocation{ID: id, Name: name, Args: args, State: StatePending}
}

// Complete records the result and moves the invocation to its terminal state.
func (inv *Invocation) Complete(result Result) {
	inv.Result = &result
	if result.IsError {
		inv.State = StateFailed
		return
	}
	inv.State = StateCompleted
}

// Terminal reports whether a result or error has been recorded.
func (inv *Invocation) Terminal() bool {
	return inv.State == StateCompleted || inv.State == StateFailed
}
