package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/zaidmukaddam/miniperplx-sub000/observability"
)

func TestLevel_SlogMapping(t *testing.T) {
	tests := []struct {
		level observability.Level
		want  slog.Level
	}{
		{observability.LevelVerbose, slog.LevelDebug},
		{observability.LevelInfo, slog.LevelInfo},
		{observability.LevelWarning, slog.LevelWarn},
		{observability.LevelError, slog.LevelError},
	}
	for _, tt := range tests {
		if got := tt.level.SlogLevel(); got != tt.want {
			t.Errorf("Level(%d).SlogLevel() = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestSlogObserver_EmitsAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	observer := observability.NewSlogObserver(logger)

	observer.OnEvent(context.Background(), observability.Event{
		Type:      "orchestrator.turn.start",
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "orchestrator.Run",
		Data:      map[string]any{"turn": 3},
	})

	out := buf.String()
	for _, want := range []string{"orchestrator.turn.start", `"source":"orchestrator.Run"`, `"turn":3`, `"level":"DEBUG"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

type recordingObserver struct {
	events []observability.Event
}

func (r *recordingObserver) OnEvent(_ context.Context, event observability.Event) {
	r.events = append(r.events, event)
}

func TestMultiObserver_FansOutAndSkipsNil(t *testing.T) {
	first := &recordingObserver{}
	second := &recordingObserver{}
	multi := observability.NewMultiObserver(first, nil, second)

	multi.OnEvent(context.Background(), observability.Event{Type: "sandbox.run.complete"})
	multi.OnEvent(context.Background(), observability.Event{Type: "sandbox.session.teardown"})

	if len(first.events) != 2 || len(second.events) != 2 {
		t.Errorf("fan-out counts = %d, %d, want 2, 2", len(first.events), len(second.events))
	}
	if first.events[0].Type != "sandbox.run.complete" {
		t.Errorf("first event type = %s", first.events[0].Type)
	}
}
