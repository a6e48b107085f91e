package tracing

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/tebeka/atexit"
)

// An ActiveCall describes a traced call that has reported its start but not
// its completion.
type ActiveCall struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Target   string `json:"target"`
	Depth    int    `json:"depth"`
	Args     []any  `json:"args"`
}

// An ActiveCallReporter keeps the set of calls currently in flight so that
// hung call chains can be inspected. It stores nothing about completed
// calls. A call that ends in an error never reports completion, so it stays
// listed; the dump is a superset of the calls genuinely still running.
type ActiveCallReporter struct {
	mu    sync.Mutex
	calls map[string]ActiveCall
}

// NewActiveCallReporter creates an ActiveCallReporter.
func NewActiveCallReporter() *ActiveCallReporter {
	return &ActiveCallReporter{
		calls: make(map[string]ActiveCall),
	}
}

// WithExitDump registers an exit handler that dumps the calls still active
// when the process leaves through atexit.Exit.
func (r *ActiveCallReporter) WithExitDump(w io.Writer) *ActiveCallReporter {
	atexit.Register(func() { r.DumpActive(w) })

	return r
}

// Before records the call as active.
func (r *ActiveCallReporter) Before(ctx context.Context, args []any) {
	id := CallID(ctx)
	if id == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls[id] = ActiveCall{
		ID:       id,
		ParentID: ParentCallID(ctx),
		Target:   targetName(ctx),
		Depth:    Depth(ctx),
		Args:     args,
	}
}

// After removes the call from the active set.
func (r *ActiveCallReporter) After(ctx context.Context, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.calls, CallID(ctx))
}

// ActiveCalls returns a snapshot of the active calls, ordered by depth and
// then by target name, so parents come before the calls nested in them.
func (r *ActiveCallReporter) ActiveCalls() []ActiveCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]ActiveCall, 0, len(r.calls))
	for _, c := range r.calls {
		calls = append(calls, c)
	}

	sort.Slice(calls, func(i, j int) bool {
		if calls[i].Depth != calls[j].Depth {
			return calls[i].Depth < calls[j].Depth
		}
		if calls[i].Target != calls[j].Target {
			return calls[i].Target < calls[j].Target
		}
		return calls[i].ID < calls[j].ID
	})

	return calls
}

// DumpActive writes one line per active call, each followed by the chain of
// active calls it is nested in, innermost first.
func (r *ActiveCallReporter) DumpActive(w io.Writer) {
	calls := r.ActiveCalls()

	byID := make(map[string]ActiveCall, len(calls))
	for _, c := range calls {
		byID[c.ID] = c
	}

	for _, c := range calls {
		fmt.Fprintf(w, "active: %s %s\n", c.Target, formatArgs(c.Args))

		parent, ok := byID[c.ParentID]
		for ok {
			fmt.Fprintf(w, "  in: %s\n", parent.Target)
			parent, ok = byID[parent.ParentID]
		}
	}
}

func formatArgs(args []any) string {
	var b []byte

	b = append(b, '(')
	for i, a := range args {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, renderValue(a, false)...)
	}
	b = append(b, ')')

	return string(b)
}
