package runtime

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	rt "runtime"
	"strings"
	"sync/atomic"

	"github.com/heraldbot/herald/internal/state"
)

// ErrSealed indicates a registration was attempted after the loop started.
var ErrSealed = errors.New("handler registry is sealed")

var (
	ctxType       = reflect.TypeFor[context.Context]()
	errType       = reflect.TypeFor[error]()
	eventType     = reflect.TypeFor[*Event]()
	messageType   = reflect.TypeFor[*Message]()
	sessionType   = reflect.TypeFor[Session]()
	stringType    = reflect.TypeFor[string]()
	extractorType = reflect.TypeFor[Extractor]()
)

// entry pairs a filter with the invocation pipeline of one handler.
type entry struct {
	name   string
	filter Filter
	invoke *pipeline
}

// registry is the ordered handler collection. It accepts registrations
// until sealed at loop start; afterwards reads need no locking.
type registry struct {
	entries  []entry
	fallback *entry
	sealed   atomic.Bool
}

func (r *registry) add(f Filter, fn any) error {
	if r.sealed.Load() {
		return ErrSealed
	}
	if f == nil {
		return errors.New("filter is required")
	}
	p, err := newPipeline(fn)
	if err != nil {
		return err
	}
	r.entries = append(r.entries, entry{name: p.name, filter: f, invoke: p})
	return nil
}

func (r *registry) setFallback(fn any) error {
	if r.sealed.Load() {
		return ErrSealed
	}
	p, err := newPipeline(fn)
	if err != nil {
		return err
	}
	r.fallback = &entry{name: p.name, filter: Any(), invoke: p}
	return nil
}

func (r *registry) seal() {
	r.sealed.Store(true)
}

// match returns the entries eligible for ev, in registration order.
func (r *registry) match(ev *Event) []*entry {
	var matched []*entry
	for i := range r.entries {
		if r.entries[i].filter.Matches(ev) {
			matched = append(matched, &r.entries[i])
		}
	}
	return matched
}

// step produces one handler argument, or fails the invocation.
type step func(ctx context.Context, ev *Event, st *state.Store) (reflect.Value, error)

// pipeline is the invocation entry point of one handler: the underlying
// function plus the extraction steps matching its parameter list, fixed
// at registration time.
type pipeline struct {
	name  string
	fn    reflect.Value
	steps []step
}

// newPipeline validates fn and builds its extraction steps. fn must be a
// func taking context.Context first and returning exactly one error;
// every other parameter must be an extractable type.
func newPipeline(fn any) (*pipeline, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler must be a function, got %T", fn)
	}
	name := funcName(v)

	t := v.Type()
	if t.NumOut() != 1 || t.Out(0) != errType {
		return nil, fmt.Errorf("handler %s must return exactly one error", name)
	}
	if t.NumIn() == 0 || t.In(0) != ctxType {
		return nil, fmt.Errorf("handler %s must take context.Context as its first parameter", name)
	}

	steps := make([]step, 0, t.NumIn()-1)
	for i := 1; i < t.NumIn(); i++ {
		s, err := buildStep(t.In(i), name)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return &pipeline{name: name, fn: v, steps: steps}, nil
}

// run extracts every argument in declared order, short-circuiting on the
// first failure, then calls the handler function.
func (p *pipeline) run(ctx context.Context, ev *Event, st *state.Store) error {
	args := make([]reflect.Value, 0, len(p.steps)+1)
	args = append(args, reflect.ValueOf(ctx))
	for _, s := range p.steps {
		v, err := s(ctx, ev, st)
		if err != nil {
			return err
		}
		args = append(args, v)
	}

	out := p.fn.Call(args)
	if err, _ := out[0].Interface().(error); err != nil {
		return err
	}
	return nil
}

func buildStep(t reflect.Type, handler string) (step, error) {
	fail := func(reason error) (reflect.Value, error) {
		return reflect.Value{}, &ExtractionError{Handler: handler, Param: t, Err: reason}
	}

	switch {
	case t == eventType:
		return func(_ context.Context, ev *Event, _ *state.Store) (reflect.Value, error) {
			return reflect.ValueOf(ev), nil
		}, nil

	case t == messageType:
		return func(_ context.Context, ev *Event, _ *state.Store) (reflect.Value, error) {
			if ev.Message == nil {
				return fail(ErrNoMessage)
			}
			return reflect.ValueOf(ev.Message), nil
		}, nil

	case t == sessionType:
		return func(_ context.Context, ev *Event, _ *state.Store) (reflect.Value, error) {
			if ev.Session == nil {
				return fail(errors.New("event has no session"))
			}
			v := reflect.New(sessionType).Elem()
			v.Set(reflect.ValueOf(ev.Session))
			return v, nil
		}, nil

	case t == stringType:
		return func(_ context.Context, ev *Event, _ *state.Store) (reflect.Value, error) {
			if ev.Message == nil {
				return fail(ErrNoMessage)
			}
			return reflect.ValueOf(ev.Message.Text), nil
		}, nil

	case t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(extractorType):
		return func(ctx context.Context, ev *Event, st *state.Store) (reflect.Value, error) {
			p := reflect.New(t)
			if err := p.Interface().(Extractor).ExtractFrom(ctx, ev, st); err != nil {
				return fail(err)
			}
			return p.Elem(), nil
		}, nil

	case t.Kind() == reflect.Pointer && t.Implements(extractorType):
		return func(ctx context.Context, ev *Event, st *state.Store) (reflect.Value, error) {
			p := reflect.New(t.Elem())
			if err := p.Interface().(Extractor).ExtractFrom(ctx, ev, st); err != nil {
				return fail(err)
			}
			return p, nil
		}, nil

	case t.Kind() == reflect.Interface:
		return nil, fmt.Errorf("handler %s: interface parameter %s is not extractable", handler, t)

	default:
		// Pass-through of a value inserted into the shared state store.
		return func(_ context.Context, _ *Event, st *state.Store) (reflect.Value, error) {
			stored, ok := st.Lookup(t)
			if !ok {
				return fail(fmt.Errorf("%w: %s", ErrStateNotFound, t))
			}
			v := reflect.New(t).Elem()
			v.Set(reflect.ValueOf(stored))
			return v, nil
		}, nil
	}
}

// funcName reports a short diagnostic name for a handler function.
func funcName(v reflect.Value) string {
	f := rt.FuncForPC(v.Pointer())
	if f == nil {
		return "handler"
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}
