// Package cli provides the pomoctl command line.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the pomoctl command tree. version is shown by
// --version and the version subcommand.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "pomoctl",
		Short: "Pomodoro timer and task prioritizer for the terminal",
		Long: `pomoctl runs a Pomodoro timer with a small task list in the terminal
and can rank a list of tasks with an AI model.

Timer defaults come from POMOFOCUS_CONFIG and the TIMER_* environment
variables; flags override them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTimerCommand(),
		newPrioritizeCommand(),
		newVersionCommand(version),
	)
	return root
}
