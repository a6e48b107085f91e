package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/sarchlab/functrace/advice"
	"github.com/sarchlab/functrace/tracing"
)

var depthColors = []*color.Color{
	color.New(color.FgCyan),
	color.New(color.FgGreen),
	color.New(color.FgYellow),
	color.New(color.FgMagenta),
	color.New(color.FgBlue),
}

// A colorReporter writes the standard report lines with one color per
// nesting level, cycling through the palette when calls nest deeper.
type colorReporter struct {
	mu         sync.Mutex
	w          io.Writer
	indentUnit int
}

func newColorReporter(w io.Writer, indentUnit int) *colorReporter {
	return &colorReporter{w: w, indentUnit: indentUnit}
}

func (r *colorReporter) Before(ctx context.Context, args []any) {
	r.writeLine(ctx, tracing.FormatCall(ctx, args))
}

func (r *colorReporter) After(ctx context.Context, result any) {
	name := "?"
	if t := advice.ActiveTarget(ctx); t != nil {
		name = t.String()
	}

	r.writeLine(ctx, name+" returned "+tracing.FormatResult(ctx, result))
}

func (r *colorReporter) writeLine(ctx context.Context, body string) {
	depth := tracing.Depth(ctx)
	line := depthColors[depth%len(depthColors)].Sprintf("%d: %s", depth, body)

	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.w, "%s%s\n", strings.Repeat(" ", depth*r.indentUnit), line)
}
