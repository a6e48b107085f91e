package tracing

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/sarchlab/functrace/advice"
)

// DefaultIndentUnit is the number of spaces a report line is indented per
// depth level.
const DefaultIndentUnit = 2

// A CallReporter receives the before and after reports of traced calls.
// Before runs ahead of the wrapped function with the call's arguments; After
// runs with the call's result, and only when the call returned without
// error.
type CallReporter interface {
	Before(ctx context.Context, args []any)
	After(ctx context.Context, result any)
}

// A TextReporter writes reports as indented text lines:
//
//	<depth>: (<name> <arg1> <arg2> ...)
//	<depth>: <name> returned <value>
//
// Each line is indented by depth times the indent unit. Writes are
// serialized with an internal lock, so lines from concurrent call chains do
// not interleave mid-line; their relative order stays unspecified.
type TextReporter struct {
	mu         sync.Mutex
	w          io.Writer
	indentUnit int
}

// NewTextReporter creates a TextReporter that writes to w.
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{
		w:          w,
		indentUnit: DefaultIndentUnit,
	}
}

// WithIndentUnit sets the number of spaces per depth level.
func (r *TextReporter) WithIndentUnit(unit int) *TextReporter {
	if unit < 0 {
		panic("tracing: indent unit must not be negative")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.indentUnit = unit

	return r
}

// Before writes the call report line.
func (r *TextReporter) Before(ctx context.Context, args []any) {
	r.writeLine(ctx, FormatCall(ctx, args))
}

// After writes the return report line.
func (r *TextReporter) After(ctx context.Context, result any) {
	r.writeLine(ctx, targetName(ctx)+" returned "+FormatResult(ctx, result))
}

func (r *TextReporter) writeLine(ctx context.Context, body string) {
	depth := Depth(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	indent := strings.Repeat(" ", depth*r.indentUnit)
	fmt.Fprintf(r.w, "%s%d: %s\n", indent, depth, body)
}

// MultiReporter fans each report out to every given reporter, in order.
func MultiReporter(reporters ...CallReporter) CallReporter {
	return &multiReporter{reporters: reporters}
}

type multiReporter struct {
	reporters []CallReporter
}

func (m *multiReporter) Before(ctx context.Context, args []any) {
	for _, r := range m.reporters {
		r.Before(ctx, args)
	}
}

func (m *multiReporter) After(ctx context.Context, result any) {
	for _, r := range m.reporters {
		r.After(ctx, result)
	}
}

// FormatCall renders a call the way the default reports do:
// (<name> <arg1> <arg2> ...). The name is the active target on the context.
func FormatCall(ctx context.Context, args []any) string {
	var b strings.Builder

	b.WriteString("(")
	b.WriteString(targetName(ctx))
	for _, a := range args {
		b.WriteString(" ")
		b.WriteString(renderValue(a, false))
	}
	b.WriteString(")")

	return b.String()
}

// FormatResult renders a reported result. A result the eager-forcing policy
// realized prints its elements; a sequence reported with forcing disabled
// prints as a placeholder, because walking it would trigger the producer's
// side effects.
func FormatResult(ctx context.Context, result any) string {
	return renderValue(result, ResultForced(ctx))
}

func targetName(ctx context.Context) string {
	if t := advice.ActiveTarget(ctx); t != nil {
		return t.String()
	}

	return "?"
}

// renderValue renders one reported value. walkable marks v as a realized
// replay iterator that is safe to consume for printing. Forcing is shallow,
// so sequences nested inside another value are never walked.
func renderValue(v any, walkable bool) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}

	if isSequence(v) {
		if !walkable {
			return "<unrealized seq>"
		}

		return renderSequence(v)
	}

	return fmt.Sprintf("%v", v)
}

func renderSequence(v any) string {
	var b strings.Builder

	b.WriteString("[")
	for i, row := range sequenceElements(v) {
		if i > 0 {
			b.WriteString(" ")
		}

		for j, e := range row {
			if j > 0 {
				b.WriteString(":")
			}

			b.WriteString(renderValue(e, false))
		}
	}
	b.WriteString("]")

	return b.String()
}
