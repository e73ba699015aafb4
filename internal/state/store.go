// Package state holds process-wide values shared with every handler
// invocation, keyed by their Go type.
package state

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// ErrFrozen indicates a write was attempted after the event loop started.
var ErrFrozen = errors.New("state store is frozen")

// Store maps a type to at most one value of that type. Values are inserted
// during setup and read concurrently by handler invocations afterwards.
// Freeze marks the end of the setup phase; frozen reads take no lock.
type Store struct {
	mu     sync.Mutex
	frozen atomic.Bool
	values map[reflect.Type]any
}

// New creates an empty store.
func New() *Store {
	return &Store{values: make(map[reflect.Type]any)}
}

// Put stores v under its dynamic type, replacing any prior value of that
// exact type. It fails once the store is frozen.
func (s *Store) Put(v any) error {
	if v == nil {
		return errors.New("state value is required")
	}
	if s.frozen.Load() {
		return fmt.Errorf("put %T: %w", v, ErrFrozen)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen.Load() {
		return fmt.Errorf("put %T: %w", v, ErrFrozen)
	}
	s.values[reflect.TypeOf(v)] = v
	return nil
}

// Freeze ends the setup phase. After Freeze, Put fails and lookups skip
// locking entirely.
func (s *Store) Freeze() {
	s.mu.Lock()
	s.frozen.Store(true)
	s.mu.Unlock()
}

// Lookup returns the value stored under t, if any.
func (s *Store) Lookup(t reflect.Type) (any, bool) {
	if !s.frozen.Load() {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	v, ok := s.values[t]
	return v, ok
}

// Get returns the value of type T from the store, reporting whether one
// was ever inserted.
func Get[T any](s *Store) (T, bool) {
	var zero T
	v, ok := s.Lookup(reflect.TypeFor[T]())
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
