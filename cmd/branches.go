package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synapsbranch/synapse/internal/api"
	"github.com/synapsbranch/synapse/internal/conversation"
)

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List branches of the current conversation",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		sel, err := rt.currentSelection(cmd.Context())
		if err != nil {
			return err
		}

		branches, err := rt.client.ListBranches(cmd.Context(), sel.ConversationID)
		if err != nil {
			return fmt.Errorf("listing branches: %w", err)
		}
		if len(branches) == 0 {
			branches = append(branches, api.Branch{Name: conversation.DefaultBranch})
		}
		for _, b := range branches {
			marker := " "
			if b.Name == sel.Branch {
				marker = "*"
			}
			fmt.Printf("%s %s (%d messages)\n", marker, b.Name, b.MessageCount)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(branchesCmd)
}
