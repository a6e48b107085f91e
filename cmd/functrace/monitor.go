package main

import (
	"context"
	"os"
	"time"

	"github.com/sarchlab/functrace/advice"
	"github.com/sarchlab/functrace/monitoring"
	"github.com/sarchlab/functrace/tracing"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Serve the sample namespace for tracing from the browser.",
	Run:   runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().Int("port", 0,
		"port to serve on (0 picks a random free port)")
	monitorCmd.Flags().Bool("open", false,
		"open the monitor page in the default browser")
}

func runMonitor(cmd *cobra.Command, _ []string) {
	port := envInt(envMonitorPort, 0)
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetInt("port")
	}

	active := tracing.NewActiveCallReporter()
	stats := monitoring.NewCallStats()

	registry := tracing.NewRegistry().
		WithEagerForcing(envBool(envEagerForce, true)).
		WithReporter(tracing.MultiReporter(
			tracing.NewTextReporter(os.Stdout).
				WithIndentUnit(envInt(envIndent, tracing.DefaultIndentUnit)),
			active,
			stats,
		))

	table := demoTable()

	m := monitoring.NewMonitor().
		WithTable(table).
		WithRegistry(registry).
		WithActiveCallReporter(active).
		WithCallStats(stats)

	if port != 0 {
		m.WithPortNumber(port)
	}

	if open, _ := cmd.Flags().GetBool("open"); open {
		m.OpenBrowser()
	}

	m.StartServer()

	generateLoad(table)
}

// generateLoad keeps calling the sample targets so tracing toggled from the
// monitor page has traffic to show. Nothing is printed until a target is
// traced.
func generateLoad(table *advice.Table) {
	ctx := context.Background()

	for i := 0; ; i++ {
		_, _ = table.Call(ctx, "demo", "fib", 3+i%4)
		_, _ = table.Call(ctx, "demo", "sum", 2+i%3)
		_, _ = table.Call(ctx, "demo", "divide", 12, i%4)

		time.Sleep(2 * time.Second)
	}
}
