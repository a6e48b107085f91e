package tracing

import "context"

// A Predicate decides per call whether the call should be reported. It sees
// the call's arguments before anything else runs.
type Predicate func(args []any) bool

// A BeforeFunc is called with the call's arguments before the wrapped
// function runs.
type BeforeFunc func(ctx context.Context, args []any)

// An AfterFunc is called with the call's result after the wrapped function
// returns without error.
type AfterFunc func(ctx context.Context, result any)

// Config carries the options of a single trace request. Any field left at
// its zero value falls back to the registry-wide default: no predicate, and
// the registry's reporter for the before and after reports.
type Config struct {
	// When filters calls. Calls for which it returns false run the
	// original function directly, with no reports and no depth change.
	When Predicate

	// Before replaces the registry reporter's before report for this
	// target.
	Before BeforeFunc

	// After replaces the registry reporter's after report for this target.
	After AfterFunc
}
