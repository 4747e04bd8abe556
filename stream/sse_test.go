package stream_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zaidmukaddam/miniperplx-sub000/core/protocol"
	"github.com/zaidmukaddam/miniperplx-sub000/stream"
)

func TestWriteSSE(t *testing.T) {
	ctx := context.Background()
	pipe := stream.NewPipe(ctx, 8)

	events := []stream.Event{
		{Type: stream.EventTextDelta, Turn: 1, Delta: "hello"},
		{Type: stream.EventTurnEnd, Turn: 1},
		{Type: stream.EventStreamEnd, Turn: 1, Finish: protocol.FinishStop},
	}
	for _, ev := range events {
		if err := pipe.Send(ctx, ev); err != nil {
			t.Fatalf("Send() failed: %v", err)
		}
	}
	pipe.Close()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/api/chat", nil)

	if err := stream.WriteSSE(recorder, request, pipe); err != nil {
		t.Fatalf("WriteSSE() failed: %v", err)
	}

	if ct := recorder.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	body := recorder.Body.String()
	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	if len(frames) != len(events) {
		t.Fatalf("wrote %d frames, want %d: %q", len(frames), len(events), body)
	}
	for i, frame := range frames {
		if !strings.HasPrefix(frame, "data: ") {
			t.Errorf("frame %d missing data prefix: %q", i, frame)
		}
	}
	if !strings.Contains(frames[0], `"text-delta"`) {
		t.Errorf("first frame is not the text delta: %q", frames[0])
	}
	if !strings.Contains(frames[2], `"stop"`) {
		t.Errorf("last frame missing finish reason: %q", frames[2])
	}
}
