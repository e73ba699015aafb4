package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/heraldbot/herald/internal/logging"
	"github.com/heraldbot/herald/internal/state"
)

// DispatchMode selects how the matches of one event are run.
type DispatchMode uint8

const (
	// DispatchConcurrent starts every matched invocation on its own
	// goroutine and pulls the next event immediately.
	DispatchConcurrent DispatchMode = iota
	// DispatchSequential runs one event's matches to completion, in
	// registration order, before pulling the next event.
	DispatchSequential
)

func (m DispatchMode) String() string {
	if m == DispatchSequential {
		return "sequential"
	}
	return "concurrent"
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithDispatchMode overrides the default concurrent fan-out.
func WithDispatchMode(m DispatchMode) Option {
	return func(e *Engine) { e.mode = m }
}

// Engine wires a Source, the handler registry, and the shared state store
// into one event loop. Setup calls chain; Run reports the first setup
// error before the loop starts.
type Engine struct {
	src     Source
	reg     registry
	store   *state.Store
	mode    DispatchMode
	mutator func(string) string

	wg      sync.WaitGroup
	started atomic.Bool
	err     error
}

// New creates an engine reading from src.
func New(src Source, opts ...Option) *Engine {
	e := &Engine{
		src:   src,
		store: state.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddData inserts values into the shared state store, one slot per
// dynamic type. Setup-phase only.
func (e *Engine) AddData(values ...any) *Engine {
	for _, v := range values {
		if err := e.store.Put(v); err != nil {
			e.setupError(err)
		}
	}
	return e
}

// AddHandler registers fn to run for every event matched by f. Entries
// are evaluated in registration order; registering the same pair twice
// yields two independent entries.
func (e *Engine) AddHandler(f Filter, fn any) *Engine {
	if err := e.reg.add(f, fn); err != nil {
		e.setupError(err)
	}
	return e
}

// On registers fn for message events whose text matches pattern, after
// applying the pattern mutator if one is set.
func (e *Engine) On(pattern string, fn any) *Engine {
	if e.mutator != nil {
		pattern = e.mutator(pattern)
	}
	f, err := Pattern(pattern)
	if err != nil {
		e.setupError(err)
		return e
	}
	return e.AddHandler(f, fn)
}

// PatternMutator rewrites every pattern passed to On from this point on,
// e.g. to prefix a command marker.
func (e *Engine) PatternMutator(m func(string) string) *Engine {
	e.mutator = m
	return e
}

// Fallback registers fn to run for events no filter matched.
func (e *Engine) Fallback(fn any) *Engine {
	if err := e.reg.setFallback(fn); err != nil {
		e.setupError(err)
	}
	return e
}

func (e *Engine) setupError(err error) {
	if e.started.Load() {
		// Late registration is a caller bug; the loop result cannot
		// carry it, so it is only reported.
		logging.Logger().Error("setup call after loop start ignored", "err", err)
		return
	}
	if e.err == nil {
		e.err = err
	}
}

// Run seals the registry, freezes the store, and processes events until
// the source ends. It returns nil on graceful shutdown (source closed or
// ctx canceled) and the transport error on a fatal source failure.
// Handler errors never affect the result. In-flight invocations are
// drained before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	if e.err != nil {
		return fmt.Errorf("engine setup: %w", e.err)
	}
	if !e.started.CompareAndSwap(false, true) {
		return errors.New("engine already started")
	}
	e.reg.seal()
	e.store.Freeze()
	defer e.wg.Wait()

	logging.Logger().Info(
		"event loop started",
		"handlers", len(e.reg.entries),
		"dispatch", e.mode.String(),
	)

	for {
		ev, err := e.src.NextEvent(ctx)
		if err != nil {
			if errors.Is(err, ErrSourceClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logging.Logger().Info("event loop stopped")
				return nil
			}
			logging.Logger().Error("event source failed", "err", err)
			return fmt.Errorf("next event: %w", err)
		}
		if ev == nil {
			continue
		}
		e.dispatch(ctx, ev)
	}
}

// dispatch fans the event out to every matching entry, or the fallback
// when nothing matched.
func (e *Engine) dispatch(ctx context.Context, ev *Event) {
	matched := e.reg.match(ev)
	if len(matched) == 0 {
		if e.reg.fallback != nil {
			e.start(ctx, e.reg.fallback, ev)
		}
		return
	}
	for _, en := range matched {
		e.start(ctx, en, ev)
	}
}

func (e *Engine) start(ctx context.Context, en *entry, ev *Event) {
	if e.mode == DispatchSequential {
		e.invoke(ctx, en, ev)
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.invoke(ctx, en, ev)
	}()
}

// invoke runs one invocation and contains its failure.
func (e *Engine) invoke(ctx context.Context, en *entry, ev *Event) {
	err := en.invoke.run(ctx, ev, e.store)
	if err == nil {
		return
	}

	var xerr *ExtractionError
	switch {
	case errors.As(err, &xerr):
		logging.Logger().Warn(
			"handler skipped: extraction failed",
			"handler", en.name,
			"event", ev.Kind.String(),
			"err", err,
		)
	case errors.Is(err, context.Canceled):
	default:
		logging.Logger().Error(
			"handler failed",
			"handler", en.name,
			"event", ev.Kind.String(),
			"err", err,
		)
	}
}
