package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/synapsbranch/synapse/internal/api"
	"github.com/synapsbranch/synapse/internal/conversation"
)

func TestRenderGraphLanes(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	node := func(id, branch string, offset int) api.TreeNode {
		return api.TreeNode{ID: id, BranchName: branch, CreatedAt: t0.Add(time.Duration(offset) * time.Minute)}
	}
	g := conversation.Layout(&api.Tree{
		Nodes: []api.TreeNode{
			node("m1", "main", 0),
			node("m2", "main", 1),
			node("m3", "alt", 2),
		},
		Edges: []api.TreeEdge{
			{From: "m1", To: "m2"},
			{From: "m1", To: "m3"},
		},
	})

	out := renderGraph(g, "main", DefaultStyles())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want one per lane:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "main") || !strings.Contains(lines[1], "alt") {
		t.Errorf("lane labels missing:\n%s", out)
	}
	// The fork marker sits on the alt lane at the parent's column.
	if !strings.Contains(lines[1], "↳") {
		t.Errorf("fork marker missing on child lane:\n%s", out)
	}
	// Branch heads are highlighted.
	if !strings.Contains(out, "◉") {
		t.Errorf("head marker missing:\n%s", out)
	}
}

func TestRenderGraphEmpty(t *testing.T) {
	t.Parallel()

	out := renderGraph(conversation.Layout(nil), "main", DefaultStyles())
	if !strings.Contains(out, "No messages") {
		t.Errorf("empty graph = %q", out)
	}
}
