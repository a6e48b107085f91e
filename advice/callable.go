package advice

import "context"

// A Callable is anything that can be invoked with positional arguments.
// Implementations that need a distinct identity (so they can later be
// removed from a slot) should be pointer types.
type Callable interface {
	Invoke(ctx context.Context, args ...any) (any, error)
}

// Func adapts an ordinary function to the Callable interface.
type Func func(ctx context.Context, args ...any) (any, error)

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, args ...any) (any, error) {
	return f(ctx, args...)
}

// An UnboundError is returned when a call is dispatched to a name that has
// no function bound.
type UnboundError struct {
	Namespace string
	Name      string
}

func (e *UnboundError) Error() string {
	return "advice: no function bound for " + e.Namespace + "/" + e.Name
}
