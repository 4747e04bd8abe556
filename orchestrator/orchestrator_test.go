package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zaidmukaddam/miniperplx-sub000/agent"
	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/core/response"
	"github.com/zaidmukaddam/miniperplx-sub000/orchestrator"
	"github.com/zaidmukaddam/miniperplx-sub000/session"
	"github.com/zaidmukaddam/miniperplx-sub000/stream"
	"github.com/zaidmukaddam/miniperplx-sub000/tools"
)

type scriptStep struct {
	deltas []string
	resp   *response.ToolsResponse
	err    error
}

// scriptedAgent plays back a fixed sequence of generation responses, one per
// StreamTools call, emitting the step's deltas first.
type scriptedAgent struct {
	mu    sync.Mutex
	steps []scriptStep
	calls int
}

func (a *scriptedAgent) StreamTools(ctx context.Context, messages []protocol.Message, defs []protocol.Tool, onDelta agent.DeltaFunc, opts ...map[string]any) (*response.ToolsResponse, error) {
	a.mu.Lock()
	if len(a.steps) == 0 {
		a.mu.Unlock()
		return nil, errors.New("script exhausted")
	}
	step := a.steps[0]
	a.steps = a.steps[1:]
	a.calls++
	a.mu.Unlock()

	if step.err != nil {
		return nil, step.err
	}
	for _, d := range step.deltas {
		if err := onDelta(d); err != nil {
			return nil, err
		}
	}
	return step.resp, nil
}

func textStep(content string, deltas ...string) scriptStep {
	resp := &response.ToolsResponse{
		Model:   "test-model",
		Choices: []response.Choice{{FinishReason: "stop"}},
		Usage:   &response.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
	resp.Choices[0].Message.Role = "assistant"
	resp.Choices[0].Message.Content = content
	return scriptStep{deltas: deltas, resp: resp}
}

func toolStep(calls ...protocol.ToolCall) scriptStep {
	resp := &response.ToolsResponse{
		Model:   "test-model",
		Choices: []response.Choice{{FinishReason: "tool_calls"}},
		Usage:   &response.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
	resp.Choices[0].Message.Role = "assistant"
	resp.Choices[0].Message.ToolCalls = calls
	return scriptStep{resp: resp}
}

func echoTool(name string) protocol.Tool {
	return protocol.Tool{
		Name:        name,
		Description: "echoes its input",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"value": map[string]any{"type": "string"}},
			"required":   []any{"value"},
		},
	}
}

func runAndDrain(t *testing.T, orc *orchestrator.Orchestrator, sess session.Session, active []protocol.Tool) []stream.Event {
	t.Helper()
	pipe := stream.NewPipe(context.Background(), 64)
	orc.Run(context.Background(), sess, active, pipe)

	var events []stream.Event
	for {
		event, err := pipe.Receive(context.Background())
		if errors.Is(err, stream.ErrClosed) {
			return events
		}
		if err != nil {
			t.Fatalf("Receive() failed: %v", err)
		}
		events = append(events, event)
	}
}

func eventTypes(events []stream.Event) []stream.EventType {
	out := make([]stream.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestRun_FinalText(t *testing.T) {
	engine := &scriptedAgent{steps: []scriptStep{textStep("hello world", "hello ", "world")}}
	orc := orchestrator.New(engine, tools.New(), &orchestrator.Config{StepBudget: 4})

	sess := session.New(protocol.NewMessage(protocol.RoleUser, "hi"))
	events := runAndDrain(t, orc, sess, nil)

	want := []stream.EventType{
		stream.EventTextDelta,
		stream.EventTextDelta,
		stream.EventTurnEnd,
		stream.EventStreamEnd,
	}
	got := eventTypes(events)
	if len(got) != len(want) {
		t.Fatalf("got %d events %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	last := events[len(events)-1]
	if last.Finish != protocol.FinishStop {
		t.Errorf("finish = %s, want %s", last.Finish, protocol.FinishStop)
	}
	if last.Usage == nil || last.Usage.TotalTokens != 15 {
		t.Errorf("usage = %+v, want total 15", last.Usage)
	}

	messages := sess.Messages()
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[1].Role != protocol.RoleAssistant || messages[1].Content != "hello world" {
		t.Errorf("assistant message = %+v", messages[1])
	}
}

func TestRun_ToolTurnOrdering(t *testing.T) {
	registry := tools.New()
	for _, name := range []string{"beta", "alpha"} {
		if err := registry.Register(echoTool(name), func(ctx context.Context, args json.RawMessage) (tools.Result, error) {
			return tools.Result{Content: string(args)}, nil
		}); err != nil {
			t.Fatal(err)
		}
	}

	engine := &scriptedAgent{steps: []scriptStep{
		toolStep(
			protocol.ToolCall{ID: "call-1", Name: "beta", Arguments: `{"value":"b"}`},
			protocol.ToolCall{ID: "call-2", Name: "alpha", Arguments: `{"value":"a"}`},
		),
		textStep("done"),
	}}
	orc := orchestrator.New(engine, registry, &orchestrator.Config{StepBudget: 4})

	sess := session.New(protocol.NewMessage(protocol.RoleUser, "go"))
	events := runAndDrain(t, orc, sess, registry.List())

	// Both start frames precede every result frame; results arrive in
	// request order regardless of completion order.
	firstResult := -1
	lastStart := -1
	var resultNames []string
	for i, e := range events {
		switch e.Type {
		case stream.EventToolCallStart:
			lastStart = i
		case stream.EventToolCallResult:
			if firstResult == -1 {
				firstResult = i
			}
			resultNames = append(resultNames, e.Tool.Name)
		}
	}
	if lastStart == -1 || firstResult == -1 {
		t.Fatalf("missing tool frames in %v", eventTypes(events))
	}
	if lastStart > firstResult {
		t.Errorf("start frame at %d after result frame at %d", lastStart, firstResult)
	}
	if len(resultNames) != 2 || resultNames[0] != "beta" || resultNames[1] != "alpha" {
		t.Errorf("result order = %v, want [beta alpha]", resultNames)
	}

	messages := sess.Messages()
	// user, assistant(tool_calls), tool, tool, assistant.
	if len(messages) != 5 {
		t.Fatalf("got %d messages, want 5: %+v", len(messages), messages)
	}
	if len(messages[1].ToolCalls) != 2 {
		t.Errorf("assistant tool calls = %d, want 2", len(messages[1].ToolCalls))
	}
	if messages[2].ToolCallID != "call-1" || messages[3].ToolCallID != "call-2" {
		t.Errorf("tool results out of request order: %q, %q", messages[2].ToolCallID, messages[3].ToolCallID)
	}
	if messages[4].Content != "done" {
		t.Errorf("final message = %q, want %q", messages[4].Content, "done")
	}

	last := events[len(events)-1]
	if last.Type != stream.EventStreamEnd || last.Finish != protocol.FinishStop {
		t.Errorf("last event = %+v, want stream-end stop", last)
	}
}

func TestRun_StepBudgetExhaustion(t *testing.T) {
	registry := tools.New()
	if err := registry.Register(echoTool("echo"), func(ctx context.Context, args json.RawMessage) (tools.Result, error) {
		return tools.Result{Content: "ok"}, nil
	}); err != nil {
		t.Fatal(err)
	}

	call := protocol.ToolCall{ID: "c", Name: "echo", Arguments: `{"value":"x"}`}
	engine := &scriptedAgent{steps: []scriptStep{toolStep(call), toolStep(call), toolStep(call)}}
	orc := orchestrator.New(engine, registry, &orchestrator.Config{StepBudget: 2})

	events := runAndDrain(t, orc, session.New(protocol.NewMessage(protocol.RoleUser, "loop")), registry.List())

	if engine.calls != 2 {
		t.Errorf("engine called %d times, want 2", engine.calls)
	}
	last := events[len(events)-1]
	if last.Type != stream.EventStreamEnd || last.Finish != protocol.FinishBudget {
		t.Errorf("last event = %+v, want stream-end %s", last, protocol.FinishBudget)
	}

	turnEnds := 0
	for _, e := range events {
		if e.Type == stream.EventTurnEnd {
			turnEnds++
		}
	}
	if turnEnds != 2 {
		t.Errorf("got %d turn-end events, want 2", turnEnds)
	}
}

func TestRun_InvalidArgsFedBackToModel(t *testing.T) {
	registry := tools.New()
	var handlerCalls atomic.Int32
	if err := registry.Register(echoTool("echo"), func(ctx context.Context, args json.RawMessage) (tools.Result, error) {
		handlerCalls.Add(1)
		return tools.Result{Content: "ok"}, nil
	}); err != nil {
		t.Fatal(err)
	}

	engine := &scriptedAgent{steps: []scriptStep{
		toolStep(protocol.ToolCall{ID: "bad", Name: "echo", Arguments: `{}`}),
		textStep("recovered"),
	}}
	orc := orchestrator.New(engine, registry, &orchestrator.Config{StepBudget: 4})

	sess := session.New(protocol.NewMessage(protocol.RoleUser, "go"))
	events := runAndDrain(t, orc, sess, registry.List())

	if handlerCalls.Load() != 0 {
		t.Errorf("handler called %d times, want 0", handlerCalls.Load())
	}

	var result *stream.Event
	for i := range events {
		if events[i].Type == stream.EventToolCallResult {
			result = &events[i]
			break
		}
	}
	if result == nil {
		t.Fatal("no tool result frame")
	}
	if !result.Tool.IsError {
		t.Error("result frame not marked as error")
	}
	if !strings.Contains(result.Tool.Content, "error") {
		t.Errorf("result content = %q, want structured error payload", result.Tool.Content)
	}

	// The loop continues; the rejection is conversation data.
	last := events[len(events)-1]
	if last.Type != stream.EventStreamEnd || last.Finish != protocol.FinishStop {
		t.Errorf("last event = %+v, want stream-end stop", last)
	}
	messages := sess.Messages()
	if messages[2].Role != protocol.RoleTool || messages[2].ToolCallID != "bad" {
		t.Errorf("rejection not appended as tool message: %+v", messages[2])
	}
}

func TestRun_InfrastructureErrorEndsStream(t *testing.T) {
	registry := tools.New()
	if err := registry.Register(echoTool("echo"), func(ctx context.Context, args json.RawMessage) (tools.Result, error) {
		return tools.Result{}, errors.New("backend unreachable")
	}); err != nil {
		t.Fatal(err)
	}

	engine := &scriptedAgent{steps: []scriptStep{
		toolStep(protocol.ToolCall{ID: "c", Name: "echo", Arguments: `{"value":"x"}`}),
	}}
	orc := orchestrator.New(engine, registry, &orchestrator.Config{StepBudget: 4})

	events := runAndDrain(t, orc, session.New(protocol.NewMessage(protocol.RoleUser, "go")), registry.List())

	got := eventTypes(events)
	if len(got) < 2 {
		t.Fatalf("got events %v, want error + stream-end", got)
	}
	errEvent := events[len(events)-2]
	if errEvent.Type != stream.EventError || !strings.Contains(errEvent.Error, "backend unreachable") {
		t.Errorf("penultimate event = %+v, want error frame", errEvent)
	}
	last := events[len(events)-1]
	if last.Type != stream.EventStreamEnd || last.Finish != protocol.FinishError {
		t.Errorf("last event = %+v, want stream-end %s", last, protocol.FinishError)
	}
}

func TestRun_ClientCancellationIsSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	registry := tools.New()
	if err := registry.Register(echoTool("echo"), func(hctx context.Context, args json.RawMessage) (tools.Result, error) {
		cancel()
		<-hctx.Done()
		return tools.Result{}, hctx.Err()
	}); err != nil {
		t.Fatal(err)
	}

	engine := &scriptedAgent{steps: []scriptStep{
		toolStep(protocol.ToolCall{ID: "c", Name: "echo", Arguments: `{"value":"x"}`}),
		textStep("never reached"),
	}}
	orc := orchestrator.New(engine, registry, &orchestrator.Config{StepBudget: 4})

	pipe := stream.NewPipe(context.Background(), 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		orc.Run(ctx, session.New(protocol.NewMessage(protocol.RoleUser, "go")), registry.List(), pipe)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	var events []stream.Event
	for {
		event, err := pipe.Receive(context.Background())
		if errors.Is(err, stream.ErrClosed) {
			break
		}
		if err != nil {
			t.Fatalf("Receive() failed: %v", err)
		}
		events = append(events, event)
	}

	// Emitted output stands; nothing after the cancellation point, no
	// stream-end, no error frame.
	for _, e := range events {
		if e.Type == stream.EventToolCallResult || e.Type == stream.EventStreamEnd || e.Type == stream.EventError {
			t.Errorf("unexpected %s event after cancellation", e.Type)
		}
	}
	if engine.calls != 1 {
		t.Errorf("engine called %d times, want 1", engine.calls)
	}
}

func TestRun_TurnDedupRejectsRepeat(t *testing.T) {
	registry := tools.New(tools.WithTurnDedup())
	var handlerCalls atomic.Int32
	if err := registry.Register(echoTool("echo"), func(ctx context.Context, args json.RawMessage) (tools.Result, error) {
		handlerCalls.Add(1)
		return tools.Result{Content: "ok"}, nil
	}); err != nil {
		t.Fatal(err)
	}

	engine := &scriptedAgent{steps: []scriptStep{
		toolStep(
			protocol.ToolCall{ID: "c1", Name: "echo", Arguments: `{"value":"x"}`},
			protocol.ToolCall{ID: "c2", Name: "echo", Arguments: `{"value":"x"}`},
		),
		textStep("done"),
	}}
	orc := orchestrator.New(engine, registry, &orchestrator.Config{StepBudget: 4})

	events := runAndDrain(t, orc, session.New(protocol.NewMessage(protocol.RoleUser, "go")), registry.List())

	if handlerCalls.Load() != 1 {
		t.Errorf("handler called %d times, want 1", handlerCalls.Load())
	}

	errored := 0
	for _, e := range events {
		if e.Type == stream.EventToolCallResult && e.Tool.IsError {
			errored++
		}
	}
	if errored != 1 {
		t.Errorf("got %d error result frames, want 1", errored)
	}
}
