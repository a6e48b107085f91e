package advice

import "context"

type targetKey struct{}

// WithActiveTarget returns a context that records target as the slot whose
// installed callable is currently executing. Slot.Call applies this before
// dispatching to an installed callable; it is exported for tests and for
// alternative dispatch implementations.
func WithActiveTarget(ctx context.Context, target *Slot) context.Context {
	return context.WithValue(ctx, targetKey{}, target)
}

// ActiveTarget returns the slot whose installed callable is executing, or
// nil when the current call did not pass through an installed callable.
func ActiveTarget(ctx context.Context) *Slot {
	t, _ := ctx.Value(targetKey{}).(*Slot)
	return t
}
