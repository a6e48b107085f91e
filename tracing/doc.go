// Package tracing instruments functions registered in an advice table so
// that every call reports its arguments on the way in and its result on the
// way out, annotated with the call's nesting depth.
//
// A Registry owns the set of currently-traced slots. Tracing a slot builds
// a Wrapper and installs it through the advice package; the wrapper runs the
// report protocol around each call and delegates to the function the slot
// resolved to when tracing started. Untracing removes the wrapper and
// restores the slot's plain dispatch. A registry holds at most one wrapper
// per slot: re-tracing replaces the wrapper instead of stacking a second
// one.
//
// Depth is carried on the context. The wrapper invokes the wrapped function
// with a child context whose depth is one higher, so restoration on return,
// on error, and on panic is inherent in context scoping. For nesting to be
// visible, a traced function must pass its context on to the slot calls it
// makes; a call made with a fresh context starts a new chain at depth 0.
// Independent call chains never share depth state.
//
// Reports for a single chain are strictly nested: an outer call's before
// report precedes every nested report, and its after report follows them.
// Across concurrently running chains no order is guaranteed; the bundled
// TextReporter serializes its writes so concurrent lines do not interleave
// mid-line. Results that are lazily-produced sequences are realized before
// they are reported (see Force), keeping side effects inside the producing
// function ordered before the after report. With forcing disabled that
// ordering no longer holds for work deferred to consumption time.
package tracing
