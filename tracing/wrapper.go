package tracing

import (
	"context"

	"github.com/sarchlab/functrace/advice"
)

// A Wrapper is the callable a registry installs in place of a traced
// function. Each wrapper belongs to exactly one registry entry; re-tracing
// builds a fresh wrapper rather than reconfiguring an installed one.
type Wrapper struct {
	registry *Registry
	inner    advice.Callable

	when   Predicate
	before BeforeFunc
	after  AfterFunc
}

// Invoke runs the report protocol around one call of the wrapped function.
//
// A call the predicate rejects runs the wrapped function directly, with no
// reports, no call ID, and no depth change. Otherwise the call is reported,
// the wrapped function runs at depth+1, and on success the result is forced
// (when the registry policy is on) and reported. An error or panic from the
// wrapped function propagates unchanged; the after report is skipped and the
// caller's depth is untouched, since only the child context carried the
// deeper value.
func (w *Wrapper) Invoke(ctx context.Context, args ...any) (any, error) {
	if w.when != nil && !w.when(args) {
		return w.inner.Invoke(ctx, args...)
	}

	reporter, forcing := w.registry.policy()

	ctx = withCall(ctx)
	w.reportBefore(reporter, ctx, args)

	result, err := w.inner.Invoke(withDepth(ctx, Depth(ctx)+1), args...)
	if err != nil {
		return result, err
	}

	if forcing {
		result = Force(result)
		ctx = withForcedResult(ctx)
	}

	w.reportAfter(reporter, ctx, result)

	return result, nil
}

func (w *Wrapper) reportBefore(
	reporter CallReporter,
	ctx context.Context,
	args []any,
) {
	if w.before != nil {
		w.before(ctx, args)
		return
	}

	reporter.Before(ctx, args)
}

func (w *Wrapper) reportAfter(
	reporter CallReporter,
	ctx context.Context,
	result any,
) {
	if w.after != nil {
		w.after(ctx, result)
		return
	}

	reporter.After(ctx, result)
}
