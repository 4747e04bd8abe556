// Package orchestrator drives the tool-augmented conversation loop: each
// turn asks the generation engine for output, dispatches any requested tool
// calls concurrently, folds the results back into the conversation, and
// repeats until the model produces final text or a budget runs out. Every
// step is emitted incrementally onto a stream.Pipe.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zaidmukaddam/miniperplx-sub000/agent"
	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/core/response"
	"github.com/zaidmukaddam/miniperplx-sub000/observability"
	"github.com/zaidmukaddam/miniperplx-sub000/session"
	"github.com/zaidmukaddam/miniperplx-sub000/stream"
	"github.com/zaidmukaddam/miniperplx-sub000/tools"
)

// Orchestrator runs the turn loop for one conversation at a time.
// Safe for concurrent Run calls; all per-run state lives on the stack.
type Orchestrator struct {
	agent        agent.Agent
	registry     *tools.Registry
	observer     observability.Observer
	stepBudget   int
	wallClock    time.Duration
	systemPrompt string
}

// Option configures an Orchestrator after config-driven initialization.
type Option func(*Orchestrator)

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(orc *Orchestrator) { orc.observer = o }
}

// WithAgent overrides the generation engine.
func WithAgent(a agent.Agent) Option {
	return func(orc *Orchestrator) { orc.agent = a }
}

// New creates an Orchestrator over the given engine and tool registry.
func New(a agent.Agent, registry *tools.Registry, cfg *Config, opts ...Option) *Orchestrator {
	orc := &Orchestrator{
		agent:        a,
		registry:     registry,
		observer:     observability.NewSlogObserver(slog.Default()),
		stepBudget:   cfg.StepBudget,
		wallClock:    cfg.WallClock(),
		systemPrompt: cfg.SystemPrompt,
	}
	if orc.stepBudget <= 0 {
		orc.stepBudget = defaultStepBudget
	}
	for _, opt := range opts {
		opt(orc)
	}
	return orc
}

// Run executes the turn loop for the conversation held in sess, exposing
// only the tools in active to the model, and emits the event sequence onto
// pipe. The pipe is always closed before Run returns. Client cancellation
// propagates to in-flight generation and tool calls; output already emitted
// is never retracted.
func (o *Orchestrator) Run(ctx context.Context, sess session.Session, active []protocol.Tool, pipe *stream.Pipe) {
	defer pipe.Close()

	ctx, cancel := context.WithTimeout(ctx, o.wallClock)
	defer cancel()

	o.observer.OnEvent(ctx, observability.Event{
		Type:      EventRunStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "orchestrator.Run",
		Data: map[string]any{
			"session":     sess.ID(),
			"step_budget": o.stepBudget,
			"tools":       len(active),
		},
	})

	usage := &response.TokenUsage{}

	for turn := 1; turn <= o.stepBudget; turn++ {
		o.observer.OnEvent(ctx, observability.Event{
			Type:      EventTurnStart,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "orchestrator.Run",
			Data:      map[string]any{"session": sess.ID(), "turn": turn},
		})

		resp, err := o.agent.StreamTools(ctx, o.buildMessages(sess), active, func(delta string) error {
			return pipe.Send(ctx, stream.Event{Type: stream.EventTextDelta, Turn: turn, Delta: delta})
		})
		if err != nil {
			o.finishOnError(ctx, sess, pipe, turn, usage, err)
			return
		}
		if len(resp.Choices) == 0 {
			o.finishOnError(ctx, sess, pipe, turn, usage, fmt.Errorf("engine returned empty response"))
			return
		}
		usage.Add(resp.Usage)

		choice := resp.Choices[0]

		if len(choice.Message.ToolCalls) == 0 {
			sess.AddMessage(protocol.Message{
				Role:    protocol.RoleAssistant,
				Content: choice.Message.Content,
			})

			finish := protocol.FinishStop
			if choice.FinishReason == "length" {
				finish = protocol.FinishLength
			}
			o.observer.OnEvent(ctx, observability.Event{
				Type:      EventResponse,
				Level:     observability.LevelInfo,
				Timestamp: time.Now(),
				Source:    "orchestrator.Run",
				Data: map[string]any{
					"session":         sess.ID(),
					"turn":            turn,
					"response_length": len(choice.Message.Content),
				},
			})

			_ = pipe.Send(ctx, stream.Event{Type: stream.EventTurnEnd, Turn: turn})
			_ = pipe.Send(ctx, stream.Event{Type: stream.EventStreamEnd, Turn: turn, Finish: finish, Usage: usage})
			return
		}

		sess.AddMessage(protocol.Message{
			Role:      protocol.RoleAssistant,
			Content:   choice.Message.Content,
			ToolCalls: choice.Message.ToolCalls,
		})

		invocations, err := o.dispatchTurn(ctx, pipe, turn, choice.Message.ToolCalls)
		if err != nil {
			o.finishOnError(ctx, sess, pipe, turn, usage, err)
			return
		}

		// Every result, success or structured error, is appended in request
		// order right after the assistant message that asked for it.
		for _, inv := range invocations {
			sess.AddMessage(protocol.Message{
				Role:       protocol.RoleTool,
				Content:    inv.Result.Content,
				ToolCallID: inv.ID,
			})
			if err := pipe.Send(ctx, stream.Event{
				Type: stream.EventToolCallResult,
				Turn: turn,
				Tool: &stream.ToolFrame{
					ID:      inv.ID,
					Name:    inv.Name,
					Content: inv.Result.Content,
					IsError: inv.Result.IsError,
				},
			}); err != nil {
				return
			}
		}

		if err := pipe.Send(ctx, stream.Event{Type: stream.EventTurnEnd, Turn: turn}); err != nil {
			return
		}
	}

	// Step budget exhausted: a clean truncation, not an error.
	o.observer.OnEvent(ctx, observability.Event{
		Type:      EventBudget,
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "orchestrator.Run",
		Data:      map[string]any{"session": sess.ID(), "steps": o.stepBudget},
	})
	_ = pipe.Send(ctx, stream.Event{Type: stream.EventStreamEnd, Finish: protocol.FinishBudget, Usage: usage})
}

// dispatchTurn validates and executes every requested call concurrently,
// joining on a fan-out/fan-in barrier before returning. Each invocation is
// terminal on return. Only infrastructure-class failures surface as an
// error; anything else lands in the invocation as a structured result.
func (o *Orchestrator) dispatchTurn(ctx context.Context, pipe *stream.Pipe, turn int, calls []protocol.ToolCall) ([]*tools.Invocation, error) {
	var guard *tools.TurnGuard
	if o.registry.DedupEnabled() {
		guard = tools.NewTurnGuard()
	}

	invocations := make([]*tools.Invocation, len(calls))
	for i, tc := range calls {
		invocations[i] = tools.NewInvocation(tc.ID, tc.Name, json.RawMessage(tc.Arguments))
	}

	// Start frames go out before any execution so a result frame can never
	// precede its start frame.
	for _, inv := range invocations {
		o.observer.OnEvent(ctx, observability.Event{
			Type:      EventToolCall,
			Level:     observability.LevelVerbose,
			Timestamp: time.Now(),
			Source:    "orchestrator.Run",
			Data:      map[string]any{"turn": turn, "name": inv.Name},
		})
		if err := pipe.Send(ctx, stream.Event{
			Type: stream.EventToolCallStart,
			Turn: turn,
			Tool: &stream.ToolFrame{ID: inv.ID, Name: inv.Name, Args: inv.Args},
		}); err != nil {
			return nil, err
		}
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for _, inv := range invocations {
		g.Go(func() error {
			inv.State = tools.StateRunning

			if guard != nil && guard.Mark(inv.Name, inv.Args) {
				inv.Complete(tools.Errorf("%v: %s", tools.ErrDuplicateCall, inv.Name))
				return nil
			}

			result, err := o.registry.Execute(groupCtx, inv.Name, inv.Args)
			switch {
			case err == nil:
				inv.Complete(result)
			case errors.Is(err, tools.ErrInvalidArgs), errors.Is(err, tools.ErrNotFound):
				// Recoverable: feed the rejection back to the model.
				inv.Complete(tools.Errorf("%v", err))
			default:
				// Infrastructure-class: aborts the turn.
				inv.State = tools.StateFailed
				return err
			}

			o.observer.OnEvent(groupCtx, observability.Event{
				Type:      EventToolComplete,
				Level:     observability.LevelVerbose,
				Timestamp: time.Now(),
				Source:    "orchestrator.Run",
				Data: map[string]any{
					"turn":  turn,
					"name":  inv.Name,
					"error": inv.Result.IsError,
				},
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return invocations, nil
}

// finishOnError classifies a loop failure. Context expiry is budget
// exhaustion (clean truncation); client cancellation ends the stream
// silently; everything else is a turn-fatal infrastructure failure.
func (o *Orchestrator) finishOnError(ctx context.Context, sess session.Session, pipe *stream.Pipe, turn int, usage *response.TokenUsage, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		o.observer.OnEvent(context.WithoutCancel(ctx), observability.Event{
			Type:      EventBudget,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "orchestrator.Run",
			Data:      map[string]any{"session": sess.ID(), "turn": turn},
		})
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = pipe.Send(sendCtx, stream.Event{Type: stream.EventStreamEnd, Turn: turn, Finish: protocol.FinishBudget, Usage: usage})
		return
	}

	o.observer.OnEvent(context.WithoutCancel(ctx), observability.Event{
		Type:      EventError,
		Level:     observability.LevelError,
		Timestamp: time.Now(),
		Source:    "orchestrator.Run",
		Data:      map[string]any{"session": sess.ID(), "turn": turn, "error": err.Error()},
	})
	_ = pipe.Send(ctx, stream.Event{Type: stream.EventError, Turn: turn, Error: err.Error()})
	_ = pipe.Send(ctx, stream.Event{Type: stream.EventStreamEnd, Turn: turn, Finish: protocol.FinishError, Usage: usage})
}

func (o *Orchestrator) buildMessages(sess session.Session) []protocol.Message {
	history := sess.Messages()
	if o.systemPrompt == "" {
		return history
	}

	messages := make([]protocol.Message, 0, len(history)+1)
	messages = append(messages, protocol.NewMessage(protocol.RoleSystem, o.systemPrompt))
	messages = append(messages, history...)
	return messages
}
