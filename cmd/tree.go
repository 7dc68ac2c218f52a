package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/synapsbranch/synapse/internal/conversation"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the branch graph of the current conversation",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		sel, err := rt.currentSelection(cmd.Context())
		if err != nil {
			return err
		}

		tree, err := rt.client.FetchTree(cmd.Context(), sel.ConversationID)
		if err != nil {
			return fmt.Errorf("fetching conversation tree: %w", err)
		}

		graph := conversation.Layout(tree)
		if len(graph.Nodes) == 0 {
			fmt.Println("No messages yet.")
			return nil
		}
		fmt.Print(formatGraph(graph, sel.Branch))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
}

// formatGraph renders one row per lane: a dot per message in column
// order, connectors between consecutive messages of the same branch and
// a fork marker where a branch leaves its parent. The head of each
// branch is emphasized.
func formatGraph(g *conversation.Graph, current string) string {
	const cellWidth = 3

	forkColumn := make(map[int]int) // lane -> column of its fork parent
	columnOf := make(map[string]int, len(g.Nodes))
	laneOf := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		columnOf[n.ID] = n.Column
		laneOf[n.ID] = n.Lane
	}
	for _, f := range g.Forks {
		if lane, ok := laneOf[f.To]; ok {
			if col, ok := columnOf[f.From]; ok {
				forkColumn[lane] = col
			}
		}
	}

	width := len(g.Nodes) * cellWidth
	rows := make([][]rune, len(g.Lanes))
	for i := range rows {
		rows[i] = []rune(strings.Repeat(" ", width))
	}

	lastInLane := make(map[int]int) // lane -> last drawn column
	for _, n := range g.Nodes {
		at := n.Column * cellWidth
		dot := '*'
		if n.Head {
			dot = '@'
		}
		if prev, ok := lastInLane[n.Lane]; ok {
			for x := prev*cellWidth + 1; x < at; x++ {
				rows[n.Lane][x] = '-'
			}
		} else if col, ok := forkColumn[n.Lane]; ok {
			rows[n.Lane][col*cellWidth] = '\\'
			for x := col*cellWidth + 1; x < at; x++ {
				rows[n.Lane][x] = '-'
			}
		}
		rows[n.Lane][at] = dot
		lastInLane[n.Lane] = n.Column
	}

	labelWidth := 0
	for _, branch := range g.Lanes {
		if len(branch) > labelWidth {
			labelWidth = len(branch)
		}
	}

	var b strings.Builder
	for lane, branch := range g.Lanes {
		marker := " "
		if branch == current {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %-*s  %s\n", marker, labelWidth, branch,
			strings.TrimRight(string(rows[lane]), " "))
	}
	return b.String()
}
