package runtime

import (
	"context"
	"errors"
	"sync"
)

// Feed is an in-process Source fed by Push, used for synthetic events
// such as scheduler ticks. Close ends it gracefully; Fail ends it with a
// fatal error surfaced by NextEvent after buffered events drain.
type Feed struct {
	ch   chan *Event
	done chan struct{}

	mu     sync.Mutex
	closed bool
	err    error
}

// NewFeed creates a feed buffering up to size events.
func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 1
	}
	return &Feed{
		ch:   make(chan *Event, size),
		done: make(chan struct{}),
	}
}

// Push submits one event, blocking while the buffer is full.
func (f *Feed) Push(ctx context.Context, ev *Event) error {
	if ev == nil {
		return errors.New("event is required")
	}
	select {
	case <-f.done:
		return ErrSourceClosed
	default:
	}
	select {
	case f.ch <- ev:
		return nil
	case <-f.done:
		return ErrSourceClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the feed gracefully.
func (f *Feed) Close() {
	f.end(nil)
}

// Fail ends the feed with a fatal error.
func (f *Feed) Fail(err error) {
	f.end(err)
}

func (f *Feed) end(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.err = err
	close(f.done)
}

// NextEvent implements Source.
func (f *Feed) NextEvent(ctx context.Context) (*Event, error) {
	select {
	case ev := <-f.ch:
		return ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
	}

	// Drain events buffered before the feed ended.
	select {
	case ev := <-f.ch:
		return ev, nil
	default:
	}

	f.mu.Lock()
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return nil, ErrSourceClosed
}
