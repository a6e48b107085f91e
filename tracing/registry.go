package tracing

import (
	"io"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/sarchlab/functrace/advice"
)

// A Registry tracks which slots are traced and owns the wrapper installed
// for each of them. The wrapper recorded for a slot is always the wrapper
// the slot dispatches through; administrative operations run under one lock
// so the two never drift. Registries are independent of each other, so tests
// and libraries can trace through their own registry without touching
// anyone else's.
type Registry struct {
	mu      sync.Mutex
	entries map[*advice.Slot]*Wrapper

	reporter   CallReporter
	text       *TextReporter
	writer     io.Writer
	indentUnit int
	forcing    bool
	logger     *log.Logger
}

// NewRegistry creates a Registry with the default policy: reports printed
// to standard output with two spaces of indentation per depth level, eager
// forcing enabled, and diagnostics on standard error.
func NewRegistry() *Registry {
	return &Registry{
		entries:    make(map[*advice.Slot]*Wrapper),
		writer:     os.Stdout,
		indentUnit: DefaultIndentUnit,
		forcing:    true,
		logger:     log.New(os.Stderr, "", 0),
	}
}

// WithWriter redirects the default text reports to w.
func (r *Registry) WithWriter(w io.Writer) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writer = w
	r.text = nil

	return r
}

// WithIndentUnit sets the number of spaces per depth level in the default
// text reports.
func (r *Registry) WithIndentUnit(unit int) *Registry {
	if unit < 0 {
		panic("tracing: indent unit must not be negative")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.indentUnit = unit
	r.text = nil

	return r
}

// WithReporter replaces the default text reporting with rep. Per-target
// Before and After callbacks still take precedence over it.
func (r *Registry) WithReporter(rep CallReporter) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reporter = rep

	return r
}

// WithEagerForcing toggles the eager-forcing policy. It applies to calls
// that start after the change, including calls through wrappers that are
// already installed. With forcing off, a lazily-produced result is reported
// unrealized and produced whenever the caller consumes it, so the nesting
// guarantees no longer cover that deferred work.
func (r *Registry) WithEagerForcing(enable bool) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.forcing = enable

	return r
}

// EagerForcing reports whether the eager-forcing policy is enabled.
func (r *Registry) EagerForcing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.forcing
}

// WithLogger sets the logger for diagnostic notices, such as the wrapper
// replacement message on re-trace.
func (r *Registry) WithLogger(logger *log.Logger) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger = logger

	return r
}

// Trace starts tracing target with the registry-wide defaults. It is
// shorthand for TraceWith(target, Config{}).
func (r *Registry) Trace(target *advice.Slot) error {
	return r.TraceWith(target, Config{})
}

// TraceWith starts tracing target. The target must currently resolve to a
// callable; otherwise TraceWith returns an InvalidTargetError and records
// nothing. Tracing an already-traced target is not an error: the old
// wrapper is uninstalled first, with a notice on the diagnostic logger, and
// a fresh wrapper built from cfg takes its place. A slot therefore never
// carries more than one wrapper.
func (r *Registry) TraceWith(target *advice.Slot, cfg Config) error {
	if target == nil {
		return &InvalidTargetError{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.entries[target]; ok {
		r.logger.Printf("tracing: %s is already traced; replacing its wrapper",
			target)
		target.Remove(old)
		delete(r.entries, target)
	}

	if target.Resolve() == nil {
		return &InvalidTargetError{Target: target}
	}

	w := &Wrapper{
		registry: r,
		when:     cfg.When,
		before:   cfg.Before,
		after:    cfg.After,
	}
	w.inner = target.Install(w)

	r.entries[target] = w

	return nil
}

// Untrace stops tracing target, restoring the slot's plain dispatch. It is
// a no-op when the target is not traced, so bulk administration can
// over-apply it safely.
func (r *Registry) Untrace(target *advice.Slot) {
	if target == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.untraceLocked(target)
}

// UntraceAll stops tracing every currently-traced target.
func (r *Registry) UntraceAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, target := range r.tracedLocked() {
		r.untraceLocked(target)
	}
}

// UntraceNamespace stops tracing every currently-traced target whose
// namespace label equals namespace.
func (r *Registry) UntraceNamespace(namespace string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, target := range r.tracedLocked() {
		if target.Namespace() == namespace {
			r.untraceLocked(target)
		}
	}
}

func (r *Registry) untraceLocked(target *advice.Slot) {
	w, ok := r.entries[target]
	if !ok {
		return
	}

	target.Remove(w)
	delete(r.entries, target)
}

// IsTraced reports whether target is currently traced by this registry.
func (r *Registry) IsTraced(target *advice.Slot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.entries[target]

	return ok
}

// Traced returns the currently-traced slots, ordered by qualified name.
func (r *Registry) Traced() []*advice.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.tracedLocked()
}

func (r *Registry) tracedLocked() []*advice.Slot {
	slots := make([]*advice.Slot, 0, len(r.entries))
	for target := range r.entries {
		slots = append(slots, target)
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].String() < slots[j].String()
	})

	return slots
}

// policy returns the reporter and forcing flag a call starting now should
// use. Wrappers read it per call, so registry-wide changes apply to calls
// through wrappers that are already installed.
func (r *Registry) policy() (CallReporter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.reporter != nil {
		return r.reporter, r.forcing
	}

	if r.text == nil {
		r.text = NewTextReporter(r.writer).WithIndentUnit(r.indentUnit)
	}

	return r.text, r.forcing
}
