package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "functrace",
	Short: "Functrace traces calls through named functions.",
	Long: `Functrace traces calls through named functions and reports each ` +
		`call and return as an indented tree that follows the nesting of the ` +
		`calls. The demo command prints such trees for a sample namespace, ` +
		`and the monitor command serves a page for tracing the same ` +
		`namespace interactively.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadEnv)
}
