package stream

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrClosed is returned by Receive once the pipe is closed and drained.
var ErrClosed = errors.New("stream closed")

// Pipe is the single-producer/single-consumer channel between the
// orchestrator and the transport. Buffering decouples the producer from a
// slow consumer; Close is idempotent and safe to defer alongside Send.
type Pipe struct {
	channel chan Event
	ctx     context.Context
	closed  atomic.Int32
}

// NewPipe creates a Pipe bound to ctx with the given buffer size.
// Cancellation of ctx unblocks pending Send and Receive calls.
func NewPipe(ctx context.Context, bufferSize int) *Pipe {
	return &Pipe{
		channel: make(chan Event, bufferSize),
		ctx:     ctx,
	}
}

// Send enqueues an event, blocking until buffer space is available or either
// context is cancelled. Sending on a closed pipe returns ErrClosed.
func (p *Pipe) Send(ctx context.Context, event Event) error {
	if p.closed.Load() == 1 {
		return ErrClosed
	}
	select {
	case p.channel <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// Receive dequeues the next event in emission order. Returns ErrClosed when
// the pipe is closed and every buffered event has been consumed.
func (p *Pipe) Receive(ctx context.Context) (Event, error) {
	select {
	case event, ok := <-p.channel:
		if !ok {
			return Event{}, ErrClosed
		}
		return event, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close marks the pipe closed. Buffered events remain receivable; the pipe
// context is not cancelled so the consumer can drain.
func (p *Pipe) Close() {
	if p.closed.CompareAndSwap(0, 1) {
		close(p.channel)
	}
}

// IsClosed reports whether Close has been called.
func (p *Pipe) IsClosed() bool {
	return p.closed.Load() == 1
}
