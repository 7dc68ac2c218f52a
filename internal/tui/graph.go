package tui

import (
	"strings"

	"github.com/synapsbranch/synapse/internal/conversation"
)

// cellWidth is the number of runes a graph column occupies.
const cellWidth = 3

// renderGraph draws the laid-out conversation tree as one text lane per
// branch, chronologically left to right. Forks are marked with an arrow
// on the child lane at the parent's column.
func renderGraph(g *conversation.Graph, current string, styles Styles) string {
	if len(g.Nodes) == 0 {
		return styles.System.Render("No messages yet.")
	}

	columns := len(g.Nodes)
	rows := make([][]rune, len(g.Lanes))
	for i := range rows {
		rows[i] = []rune(strings.Repeat(" ", columns*cellWidth))
	}

	column := make(map[string]int, len(g.Nodes))
	lane := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		column[n.ID] = n.Column
		lane[n.ID] = n.Lane
	}

	// Nodes and the line connecting a lane's consecutive nodes.
	lastCol := make(map[int]int)
	for _, n := range g.Nodes {
		at := n.Column * cellWidth
		symbol := '●'
		if n.Head {
			symbol = '◉'
		}
		if prev, ok := lastCol[n.Lane]; ok {
			for x := prev*cellWidth + 1; x < at; x++ {
				rows[n.Lane][x] = '─'
			}
		}
		rows[n.Lane][at] = symbol
		lastCol[n.Lane] = n.Column
	}

	// Fork origin markers on the child lane.
	for _, e := range g.Forks {
		parentCol, ok := column[e.From]
		if !ok {
			continue
		}
		childLane, ok := lane[e.To]
		if !ok {
			continue
		}
		at := parentCol * cellWidth
		if rows[childLane][at] == ' ' {
			rows[childLane][at] = '↳'
		}
	}

	nameWidth := 0
	for _, name := range g.Lanes {
		if len(name) > nameWidth {
			nameWidth = len(name)
		}
	}

	var b strings.Builder
	for i, name := range g.Lanes {
		label := name + strings.Repeat(" ", nameWidth-len(name))
		if name == current {
			_, _ = b.WriteString(styles.LaneActive.Render(label))
		} else {
			_, _ = b.WriteString(styles.LaneOther.Render(label))
		}
		_, _ = b.WriteString("  ")
		_, _ = b.WriteString(strings.TrimRight(string(rows[i]), " "))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}
