package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/synapsbranch/synapse/internal/canvas"
	"github.com/synapsbranch/synapse/internal/conversation"
	"github.com/synapsbranch/synapse/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat TUI",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// runChat wires the full stack and hands control to Bubble Tea. It is
// also the root command's default action.
func runChat(_ *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sel, err := rt.currentSelection(ctx)
	if err != nil {
		return err
	}

	cv := canvas.NewSession(canvas.Config{
		Saver:             rt.client,
		Logger:            rt.logger,
		ConversationID:    sel.ConversationID,
		AutoOpenThreshold: rt.cfg.CanvasAutoOpen,
	})

	store := conversation.NewStore(conversation.Config{
		Backend:        rt.client,
		Canvas:         cv,
		Logger:         rt.logger,
		ConversationID: sel.ConversationID,
		Model:          rt.cfg.Model,
		Branch:         sel.Branch,
	})

	model, err := tui.New(ctx, store, cv)
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}

	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}

	// Remember the branch the user ended up on.
	sel.Branch = store.Branch()
	if err := conversation.SaveSelection(sel); err != nil {
		rt.logger.Warn("failed to save conversation state", "error", err)
	}
	return nil
}
