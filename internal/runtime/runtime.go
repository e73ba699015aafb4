// Package runtime is the dispatch engine: it pulls events from a Source,
// matches them against registered filters, and invokes every matching
// handler with arguments extracted from the event and shared state.
package runtime

import (
	"context"
	"errors"
)

// ErrSourceClosed signals the graceful end of an event source.
var ErrSourceClosed = errors.New("event source closed")

// Source yields inbound events for the dispatch loop.
type Source interface {
	// NextEvent blocks until the next event arrives, ctx is canceled, or
	// the source ends. A graceful end returns ErrSourceClosed; any other
	// error is fatal to the loop.
	NextEvent(ctx context.Context) (*Event, error)
}

// Session is the outbound transport handle shared by all concurrent
// invocations. Implementations must be safe for concurrent use.
type Session interface {
	Send(ctx context.Context, chatID int64, text string) error
	Reply(ctx context.Context, msg *Message, text string) error
}
