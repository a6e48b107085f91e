package main

import (
	"context"
	"fmt"
	"iter"

	"github.com/sarchlab/functrace/advice"
)

// demoTable builds the sample namespace the demo and monitor commands run
// against: a recursive function, a lazy producer and a consumer of it, and
// a function that can fail.
func demoTable() *advice.Table {
	table := advice.NewTable()

	table.Define("demo", "fib",
		func(ctx context.Context, args ...any) (any, error) {
			n := args[0].(int)
			if n < 2 {
				return n, nil
			}

			a, err := table.Call(ctx, "demo", "fib", n-1)
			if err != nil {
				return nil, err
			}

			b, err := table.Call(ctx, "demo", "fib", n-2)
			if err != nil {
				return nil, err
			}

			return a.(int) + b.(int), nil
		})

	table.Define("demo", "countdown",
		func(_ context.Context, args ...any) (any, error) {
			n := args[0].(int)

			return iter.Seq[int](func(yield func(int) bool) {
				for i := n; i > 0; i-- {
					if !yield(i) {
						return
					}
				}
			}), nil
		})

	table.Define("demo", "sum",
		func(ctx context.Context, args ...any) (any, error) {
			result, err := table.Call(ctx, "demo", "countdown", args[0])
			if err != nil {
				return nil, err
			}

			total := 0
			for v := range result.(iter.Seq[int]) {
				total += v
			}

			return total, nil
		})

	table.Define("demo", "divide",
		func(_ context.Context, args ...any) (any, error) {
			a := args[0].(int)
			b := args[1].(int)
			if b == 0 {
				return nil, fmt.Errorf("demo: cannot divide %d by zero", a)
			}

			return a / b, nil
		})

	return table
}
