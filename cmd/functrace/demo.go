package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sarchlab/functrace/advice"
	"github.com/sarchlab/functrace/tracing"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"golang.org/x/sync/errgroup"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Trace the sample namespace and print the resulting call trees.",
	Run:   runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().Int("indent",
		tracing.DefaultIndentUnit, "spaces per nesting level")
	demoCmd.Flags().Bool("no-force", false,
		"report lazily-produced results unrealized")
	demoCmd.Flags().Bool("color", false,
		"color report lines by nesting depth")
	demoCmd.Flags().Bool("concurrent", false,
		"run independent call chains concurrently")
}

func runDemo(cmd *cobra.Command, _ []string) {
	indent := envInt(envIndent, tracing.DefaultIndentUnit)
	if cmd.Flags().Changed("indent") {
		indent, _ = cmd.Flags().GetInt("indent")
	}

	forcing := envBool(envEagerForce, true)
	if noForce, _ := cmd.Flags().GetBool("no-force"); noForce {
		forcing = false
	}

	var reporter tracing.CallReporter = tracing.NewTextReporter(os.Stdout).
		WithIndentUnit(indent)
	if colored, _ := cmd.Flags().GetBool("color"); colored {
		reporter = newColorReporter(os.Stdout, indent)
	}

	// Calls that never complete, such as the failing scenario, are dumped
	// on exit.
	active := tracing.NewActiveCallReporter().WithExitDump(os.Stderr)

	registry := tracing.NewRegistry().
		WithEagerForcing(forcing).
		WithReporter(tracing.MultiReporter(reporter, active))

	table := demoTable()
	for _, target := range table.Namespace("demo") {
		err := registry.Trace(target)
		if err != nil {
			panic(err)
		}
	}

	if concurrent, _ := cmd.Flags().GetBool("concurrent"); concurrent {
		runConcurrently(table)
	} else {
		runScenarios(table)
	}

	atexit.Exit(0)
}

func runScenarios(table *advice.Table) {
	ctx := context.Background()

	fmt.Println("-- nested calls --")
	_, err := table.Call(ctx, "demo", "fib", 4)
	if err != nil {
		panic(err)
	}

	fmt.Println("-- lazy pipeline --")
	_, err = table.Call(ctx, "demo", "sum", 3)
	if err != nil {
		panic(err)
	}

	fmt.Println("-- failing call --")
	_, err = table.Call(ctx, "demo", "divide", 1, 0)
	fmt.Println("error:", err)
}

func runConcurrently(table *advice.Table) {
	var g errgroup.Group

	for i := 3; i <= 5; i++ {
		g.Go(func() error {
			_, err := table.Call(context.Background(), "demo", "fib", i)
			return err
		})
	}

	err := g.Wait()
	if err != nil {
		panic(err)
	}
}
