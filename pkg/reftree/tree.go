package reftree

import (
	"slices"

	"github.com/reftree/reftree/pkg/project"
)

// NodeID addresses a node in a Tree's arena. IDs are dense, start at 0 (the
// root) and follow creation order.
type NodeID int

// Node is one occurrence of a project in the leveled tree.
//
// Nodes are shared: the same Node may be listed as a child of several parents
// when the underlying reference graph is a DAG. Node values returned by Tree
// accessors are copies; mutating them does not affect the tree.
type Node struct {
	ID       NodeID
	Project  project.Project
	Depth    int      // Distance from the root along the longest discovered path
	Children []NodeID // Direct references attached under this node, in discovery order
	Inbound  int      // Distinct parents that reference this project
	Outbound int      // Distinct direct references of this project

	// Expanded reports whether the project's references were enumerated.
	// Leaves of a direct-only build, nodes cut by MaxDepth and unresolved
	// dependencies are not expanded.
	Expanded bool
	// Unresolved is set when the Reference Source failed for this project and
	// the build was configured to keep going.
	Unresolved bool
}

// Label returns the project's display label.
func (n Node) Label() string { return n.Project.Label() }

// IsRoot reports whether n is the tree's root.
func (n Node) IsRoot() bool { return n.ID == 0 }

// Edge is a parent → child link between two nodes of a Tree.
type Edge struct {
	From NodeID
	To   NodeID
}

// Tree is the registry produced by one build: an arena of nodes, the owner
// map and the root. A Tree is never mutated once the build returns, so it is
// safe for concurrent readers.
type Tree struct {
	nodes  []Node
	owner  map[string]NodeID // project ID -> claimant node whose child holds the project
	nodeOf map[string]NodeID // project ID -> the node representing it
	direct bool
}

func newTree(root project.Project) *Tree {
	t := &Tree{
		owner:  make(map[string]NodeID),
		nodeOf: make(map[string]NodeID),
	}
	t.add(root, 0)
	return t
}

// add appends a node to the arena. Callers must not keep pointers into the
// arena across calls to add.
func (t *Tree) add(p project.Project, depth int) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{ID: id, Project: p, Depth: depth})
	t.nodeOf[p.ID] = id
	return id
}

// attach links child under parent unless it is already there.
// It reports whether a new edge was created.
func (t *Tree) attach(parent, child NodeID) bool {
	if slices.Contains(t.nodes[parent].Children, child) {
		return false
	}
	t.nodes[parent].Children = append(t.nodes[parent].Children, child)
	return true
}

// childFor returns the child of parent that represents projectID.
func (t *Tree) childFor(parent NodeID, projectID string) (NodeID, bool) {
	for _, c := range t.nodes[parent].Children {
		if t.nodes[c].Project.ID == projectID {
			return c, true
		}
	}
	return 0, false
}

func (t *Tree) copyNode(id NodeID) Node {
	n := t.nodes[id]
	n.Children = slices.Clone(n.Children)
	return n
}

// Root returns the root node (depth 0).
func (t *Tree) Root() Node { return t.copyNode(0) }

// Node returns the node with the given ID.
func (t *Tree) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(t.nodes) {
		return Node{}, false
	}
	return t.copyNode(id), true
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// DirectOnly reports whether the tree was produced by BuildDirectOnly.
func (t *Tree) DirectOnly() bool { return t.direct }
