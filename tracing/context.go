package tracing

import (
	"context"

	"github.com/rs/xid"
)

type depthKey struct{}

type callKey struct{}

type forcedKey struct{}

type call struct {
	id       string
	parentID string
}

// Depth returns the number of traced calls active above the current point of
// execution on this call chain. It is 0 outside of any traced call.
func Depth(ctx context.Context) int {
	d, _ := ctx.Value(depthKey{}).(int)
	return d
}

func withDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, depthKey{}, depth)
}

// CallID returns the identifier of the traced call being reported, or ""
// outside of a traced call. Calls filtered out by a predicate do not get an
// ID. The ID ties a before report to the matching after report.
func CallID(ctx context.Context) string {
	c, _ := ctx.Value(callKey{}).(call)
	return c.id
}

// ParentCallID returns the identifier of the closest traced call this call
// is nested in, or "" for the root of a chain.
func ParentCallID(ctx context.Context) string {
	c, _ := ctx.Value(callKey{}).(call)
	return c.parentID
}

func withCall(ctx context.Context) context.Context {
	c := call{id: xid.New().String()}

	if prev, ok := ctx.Value(callKey{}).(call); ok {
		c.parentID = prev.id
	}

	return context.WithValue(ctx, callKey{}, c)
}

// ResultForced reports whether the result being reported on this context has
// been realized by the eager-forcing policy. Reporters use it to decide
// whether walking a sequence result is free of side effects.
func ResultForced(ctx context.Context) bool {
	forced, _ := ctx.Value(forcedKey{}).(bool)
	return forced
}

func withForcedResult(ctx context.Context) context.Context {
	return context.WithValue(ctx, forcedKey{}, true)
}
