package advice

import (
	"context"
	"reflect"
	"sync"
)

// A Slot is a named binding that calls are dispatched through. The slot,
// not the function value bound to it, is the stable identity of a
// function: re-binding or wrapping the function leaves the slot intact.
//
// A slot holds at most one installed callable at a time. Layered
// interception is built by removing the current callable and installing a
// replacement that delegates to it, never by stacking installs.
type Slot struct {
	namespace string
	name      string

	mu        sync.RWMutex
	base      Callable
	installed Callable
}

// Namespace returns the label the slot was defined under.
func (s *Slot) Namespace() string {
	return s.namespace
}

// Name returns the slot's name within its namespace.
func (s *Slot) Name() string {
	return s.name
}

// String returns the qualified "namespace/name" form.
func (s *Slot) String() string {
	return s.namespace + "/" + s.name
}

// Resolve returns the callable a call through the slot currently reaches,
// or nil if the slot has no bound function.
func (s *Slot) Resolve() Callable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.effective()
}

func (s *Slot) effective() Callable {
	if s.installed != nil {
		return s.installed
	}

	return s.base
}

// Call invokes the slot's effective callable. While an installed callable
// is executing, the slot is visible as the active target on the context.
func (s *Slot) Call(ctx context.Context, args ...any) (any, error) {
	s.mu.RLock()
	installed := s.installed
	base := s.base
	s.mu.RUnlock()

	if installed != nil {
		return installed.Invoke(WithActiveTarget(ctx, s), args...)
	}

	if base == nil {
		return nil, &UnboundError{Namespace: s.namespace, Name: s.name}
	}

	return base.Invoke(ctx, args...)
}

// Install puts w in place of the slot's current callable and returns the
// callable that calls were reaching before the install. Installing over an
// already-installed callable is a programming error: remove the old one
// first.
//
// The callable must be of a comparable type, so that Remove can check it is
// removing the right one. Use a pointer implementation rather than a bare
// Func.
func (s *Slot) Install(w Callable) Callable {
	if w == nil {
		panic("advice: callable to install must not be nil")
	}

	if !reflect.TypeOf(w).Comparable() {
		panic("advice: callable to install must be comparable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.installed != nil {
		panic("advice: a callable is already installed on " + s.String())
	}

	prev := s.base
	s.installed = w

	return prev
}

// Remove uninstalls w, restoring dispatch to the slot's bound function.
// It panics if w is not the callable currently installed: the caller's
// bookkeeping has drifted from the slot's.
func (s *Slot) Remove(w Callable) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.installed == nil {
		panic("advice: no callable installed on " + s.String())
	}

	if s.installed != w {
		panic("advice: callable to remove is not the one installed on " +
			s.String())
	}

	s.installed = nil
}

// rebind replaces the slot's bound function. If a callable is installed,
// the installed callable keeps delegating to whatever it captured at
// install time; the new binding takes effect once it is removed.
func (s *Slot) rebind(fn Func) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fn == nil {
		s.base = nil
		return
	}

	s.base = fn
}
