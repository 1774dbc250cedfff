package main

import "math"

// NoParent marks the root node, which has no incoming edge.
const NoParent = -1

// Node is a vertex in the search tree. Cost is the cumulative path length
// from the root; Parent is the handle of the node it was reached from.
type Node struct {
	Position Point   `json:"position"`
	Cost     float64 `json:"cost"`
	Parent   int     `json:"parent"` // NoParent for the root
}

// Tree is an append-only arena of nodes. Nodes are never removed or
// reordered, so an insertion index stays a valid handle for the whole run.
type Tree struct {
	nodes []Node
}

// NewTree creates a tree containing only the root at the given position,
// with zero cost and no parent.
func NewTree(root Point) *Tree {
	return &Tree{
		nodes: []Node{{Position: root, Cost: 0, Parent: NoParent}},
	}
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node stored under the given handle.
func (t *Tree) Node(i int) Node {
	return t.nodes[i]
}

// Add appends a node and returns its handle.
func (t *Tree) Add(n Node) int {
	t.nodes = append(t.nodes, n)
	return len(t.nodes) - 1
}

// SetParent reassigns a node's parent and cost. Only the rewiring step
// calls this, and only with a strictly lower cost.
func (t *Tree) SetParent(i, parent int, cost float64) {
	t.nodes[i].Parent = parent
	t.nodes[i].Cost = cost
}

// Nearest returns the handle of the node closest to the query point by
// squared Euclidean distance. Ties go to the earliest-inserted node.
func (t *Tree) Nearest(p Point) int {
	best := 0
	bestDist := t.nodes[0].Position.SquaredDistance(p)
	for i := 1; i < len(t.nodes); i++ {
		d := t.nodes[i].Position.SquaredDistance(p)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// NearIndices returns the handles of all nodes within the dynamic RRT*
// neighborhood radius r = 50 * sqrt(ln(n) / n) of the query point, where n
// is the current tree size.
func (t *Tree) NearIndices(p Point) []int {
	n := len(t.nodes)
	r := 50.0 * math.Sqrt(math.Log(float64(n))/float64(n))
	r2 := r * r

	var near []int
	for i := range t.nodes {
		if t.nodes[i].Position.SquaredDistance(p) <= r2 {
			near = append(near, i)
		}
	}
	return near
}

// PathFrom walks parent handles from the given node up to the root and
// returns the visited positions in that order. The root's position is
// included last.
func (t *Tree) PathFrom(i int) []Point {
	var path []Point
	for t.nodes[i].Parent != NoParent {
		path = append(path, t.nodes[i].Position)
		i = t.nodes[i].Parent
	}
	path = append(path, t.nodes[i].Position)
	return path
}

// Nodes returns a copy of the node slice, for snapshot consumers.
func (t *Tree) Nodes() []Node {
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}
