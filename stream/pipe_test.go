package stream_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/zaidmukaddam/miniperplx-sub000/stream"
)

func TestPipe_PreservesOrder(t *testing.T) {
	ctx := context.Background()
	pipe := stream.NewPipe(ctx, 16)

	for i := 0; i < 10; i++ {
		err := pipe.Send(ctx, stream.Event{Type: stream.EventTextDelta, Delta: fmt.Sprintf("d%d", i)})
		if err != nil {
			t.Fatalf("Send(%d) failed: %v", i, err)
		}
	}
	pipe.Close()

	for i := 0; i < 10; i++ {
		event, err := pipe.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive(%d) failed: %v", i, err)
		}
		if want := fmt.Sprintf("d%d", i); event.Delta != want {
			t.Errorf("Receive(%d) delta = %q, want %q", i, event.Delta, want)
		}
	}

	if _, err := pipe.Receive(ctx); !errors.Is(err, stream.ErrClosed) {
		t.Errorf("Receive() after drain error = %v, want %v", err, stream.ErrClosed)
	}
}

func TestPipe_SendAfterClose(t *testing.T) {
	ctx := context.Background()
	pipe := stream.NewPipe(ctx, 1)
	pipe.Close()
	pipe.Close() // idempotent

	if err := pipe.Send(ctx, stream.Event{Type: stream.EventTurnEnd}); !errors.Is(err, stream.ErrClosed) {
		t.Errorf("Send() after Close() error = %v, want %v", err, stream.ErrClosed)
	}
}

func TestPipe_BufferedEventsSurviveClose(t *testing.T) {
	ctx := context.Background()
	pipe := stream.NewPipe(ctx, 4)

	if err := pipe.Send(ctx, stream.Event{Type: stream.EventStreamEnd}); err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	pipe.Close()

	event, err := pipe.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() failed: %v", err)
	}
	if event.Type != stream.EventStreamEnd {
		t.Errorf("Receive() type = %s, want %s", event.Type, stream.EventStreamEnd)
	}
}

func TestPipe_SendUnblocksOnCancel(t *testing.T) {
	pipeCtx := context.Background()
	pipe := stream.NewPipe(pipeCtx, 0) // unbuffered, no consumer

	sendCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- pipe.Send(sendCtx, stream.Event{Type: stream.EventTextDelta})
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Send() error = %v, want %v", err, context.Canceled)
		}
	case <-time.After(time.Second):
		t.Fatal("Send() did not unblock on cancellation")
	}
}
