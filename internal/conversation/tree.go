package conversation

import (
	"sort"

	"github.com/synapsbranch/synapse/internal/api"
)

// Node is a message positioned on the branch graph. Column is its
// chronological position across the whole conversation, Lane the row of
// its branch.
type Node struct {
	api.TreeNode
	Column int
	Lane   int
	Head   bool
}

// Graph is the laid-out projection of a conversation tree. Lanes lists
// the branch occupying each lane, in first-appearance order; Forks are
// the edges whose endpoints sit on different branches.
type Graph struct {
	Nodes []Node
	Lanes []string
	Edges []api.TreeEdge
	Forks []api.TreeEdge
}

// Layout positions every node of the tree. It is pure and deterministic:
// nodes are ordered by creation time with IDs breaking ties, and each
// branch takes the next free lane the first time it appears. The same
// tree always produces the same graph.
func Layout(tree *api.Tree) *Graph {
	if tree == nil {
		return &Graph{}
	}

	nodes := make([]api.TreeNode, len(tree.Nodes))
	copy(nodes, tree.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool {
		if !nodes[i].CreatedAt.Equal(nodes[j].CreatedAt) {
			return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
		}
		return nodes[i].ID < nodes[j].ID
	})

	g := &Graph{
		Nodes: make([]Node, 0, len(nodes)),
		Edges: append([]api.TreeEdge(nil), tree.Edges...),
	}

	lanes := make(map[string]int)
	lastOnBranch := make(map[string]int) // branch -> index into g.Nodes
	for i, n := range nodes {
		lane, ok := lanes[n.BranchName]
		if !ok {
			lane = len(g.Lanes)
			lanes[n.BranchName] = lane
			g.Lanes = append(g.Lanes, n.BranchName)
		}
		g.Nodes = append(g.Nodes, Node{TreeNode: n, Column: i, Lane: lane})
		lastOnBranch[n.BranchName] = len(g.Nodes) - 1
	}
	for _, idx := range lastOnBranch {
		g.Nodes[idx].Head = true
	}

	branchOf := make(map[string]string, len(nodes))
	for _, n := range nodes {
		branchOf[n.ID] = n.BranchName
	}
	for _, e := range g.Edges {
		from, okFrom := branchOf[e.From]
		to, okTo := branchOf[e.To]
		if okFrom && okTo && from != to {
			g.Forks = append(g.Forks, e)
		}
	}
	return g
}

// Head returns the newest node on the given branch, or nil when the
// branch has none.
func (g *Graph) Head(branch string) *Node {
	for i := len(g.Nodes) - 1; i >= 0; i-- {
		if g.Nodes[i].BranchName == branch {
			return &g.Nodes[i]
		}
	}
	return nil
}
