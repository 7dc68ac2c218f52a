package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "synapse",
	Short: "Synapse - branch-aware AI chat in your terminal",
	Long: `Synapse is a terminal client for the Synapse chat backend.
Conversations can branch like git history: fork from any message,
switch branches instantly, and regenerate responses in place. Code
the assistant writes streams into a canvas pane with version history.

Running synapse without arguments opens the chat TUI on the current
conversation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Subcommands register themselves in their own files.
}
