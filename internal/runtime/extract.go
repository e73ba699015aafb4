package runtime

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/heraldbot/herald/internal/state"
)

// Reasons an extraction can fail. Each is scoped to one invocation and
// never stops the loop or sibling invocations.
var (
	ErrStateNotFound = errors.New("state value not found")
	ErrNoMessage     = errors.New("event carries no message")
	ErrBadArgument   = errors.New("bad argument")
)

// Extractor is the plugin surface for handler parameter types: any type
// whose pointer implements it can appear as a handler parameter. The
// pipeline allocates a fresh value per invocation and calls ExtractFrom
// on it. Extraction must not mutate the store.
type Extractor interface {
	ExtractFrom(ctx context.Context, ev *Event, st *state.Store) error
}

// ExtractionError reports why one handler parameter could not be produced.
// When extraction fails the handler function is never called.
type ExtractionError struct {
	Handler string
	Param   reflect.Type
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s for %s: %v", e.Param, e.Handler, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Data gives a handler one value from the shared state store. The
// invocation fails with ErrStateNotFound when no value of type T was
// inserted during setup.
type Data[T any] struct {
	Value T
}

func (d *Data[T]) ExtractFrom(_ context.Context, _ *Event, st *state.Store) error {
	v, ok := state.Get[T](st)
	if !ok {
		return fmt.Errorf("%w: %s", ErrStateNotFound, reflect.TypeFor[T]())
	}
	d.Value = v
	return nil
}
