// Package cmd defines and implements the CLI commands for the policydiff
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policydiff",
		Short: "Monitors legal policy pages for meaningful changes.",
		Long: `policydiff watches privacy policies and terms of service for changes.
It scrapes each monitored page, compares the extracted text against the
last recorded snapshot clause by clause, summarizes what changed, and
alerts the configured channels.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is environment only)")

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "policydiff: %v\n", err)
		os.Exit(1)
	}
}
