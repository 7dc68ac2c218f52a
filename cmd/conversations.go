package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synapsbranch/synapse/internal/api"
	"github.com/synapsbranch/synapse/internal/conversation"
	"github.com/synapsbranch/synapse/internal/workspace"
)

var conversationsWorkspaceID string

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"convs"},
	Short:   "Manage conversations",
}

func init() {
	conversationsCmd.PersistentFlags().StringVarP(&conversationsWorkspaceID,
		"workspace", "w", "", "workspace ID (default: standalone conversations)")

	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsNewCmd)
	conversationsCmd.AddCommand(conversationsUseCmd)
	conversationsCmd.AddCommand(conversationsRmCmd)
	rootCmd.AddCommand(conversationsCmd)
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		dir := workspace.NewDirectory(rt.client)
		dir.Select(conversationsWorkspaceID)

		conversations, err := dir.Conversations(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing conversations: %w", err)
		}

		current := ""
		if sel, err := conversation.LoadSelection(); err == nil && sel != nil {
			current = sel.ConversationID
		}

		if len(conversations) == 0 {
			fmt.Println("No conversations. Start one with: synapse conversations new")
			return nil
		}
		for _, conv := range conversations {
			marker := " "
			if conv.ID == current {
				marker = "*"
			}
			fmt.Printf("%s %s  %s  (updated %s)\n",
				marker, conv.ID, conv.Title, conv.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var conversationsNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a conversation and make it current",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		dir := workspace.NewDirectory(rt.client)
		dir.Select(conversationsWorkspaceID)

		title := ""
		if len(args) > 0 {
			title = args[0]
		}
		conv, err := dir.NewConversation(cmd.Context(), title)
		if err != nil {
			return fmt.Errorf("creating conversation: %w", err)
		}

		sel := conversation.Selection{ConversationID: conv.ID, Branch: rt.cfg.Branch}
		if err := conversation.SaveSelection(sel); err != nil {
			return fmt.Errorf("saving conversation state: %w", err)
		}
		fmt.Printf("Created conversation %s (%s)\n", conv.Title, conv.ID)
		return nil
	},
}

var conversationsUseCmd = &cobra.Command{
	Use:   "use <conversation-id>",
	Short: "Make a conversation current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		if _, err := rt.client.ListMessages(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, api.ErrNotFound) {
				return fmt.Errorf("conversation %s not found", args[0])
			}
			return fmt.Errorf("validating conversation: %w", err)
		}

		sel := conversation.Selection{ConversationID: args[0], Branch: rt.cfg.Branch}
		if err := conversation.SaveSelection(sel); err != nil {
			return fmt.Errorf("saving conversation state: %w", err)
		}
		fmt.Printf("Switched to conversation %s\n", args[0])
		return nil
	},
}

var conversationsRmCmd = &cobra.Command{
	Use:   "rm <conversation-id>",
	Short: "Delete a conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}

		if err := rt.client.DeleteConversation(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting conversation: %w", err)
		}

		// Forget the selection if it pointed at the deleted conversation.
		if sel, err := conversation.LoadSelection(); err == nil && sel != nil && sel.ConversationID == args[0] {
			if err := conversation.ClearSelection(); err != nil {
				rt.logger.Warn("failed to clear conversation state", "error", err)
			}
		}
		fmt.Printf("Deleted conversation %s\n", args[0])
		return nil
	},
}
