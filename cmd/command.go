// Package cmd implements the worker's command-line surface: a thin
// wrapper that exists so the pipeline built in internal/ is
// exercisable from a terminal, not as a product in its own right.
package cmd

import (
	"github.com/spf13/cobra"
)

// Command builds the root "forwarder" command.
func Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "forwarder",
		Short: "S3 log forwarder",
		Long:  "forwarder streams matched S3 objects through the rule-driven pipeline and ships shaped records to configured sinks.",
	}
	root.AddCommand(runCmd())
	return root
}
