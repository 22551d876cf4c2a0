package reftree

// NodesAtDepth returns every node at depth d in creation order. It returns an
// empty slice both when the level is empty and when d exceeds MaxDepth.
func (t *Tree) NodesAtDepth(d int) []Node {
	var out []Node
	for i := range t.nodes {
		if t.nodes[i].Depth == d {
			out = append(out, t.copyNode(NodeID(i)))
		}
	}
	return out
}

// DirectChildrenAtDepth returns the children of id that sit at depth d.
// A negative d selects the level directly below the node.
func (t *Tree) DirectChildrenAtDepth(id NodeID, d int) []Node {
	n, ok := t.Node(id)
	if !ok {
		return nil
	}
	if d < 0 {
		d = n.Depth + 1
	}
	var out []Node
	for _, c := range n.Children {
		if t.nodes[c].Depth == d {
			out = append(out, t.copyNode(c))
		}
	}
	return out
}

// DirectChildren returns every child of id regardless of depth.
func (t *Tree) DirectChildren(id NodeID) []Node {
	n, ok := t.Node(id)
	if !ok {
		return nil
	}
	out := make([]Node, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, t.copyNode(c))
	}
	return out
}

// CanonicalOwner returns the node currently recorded as the claimant for
// projectID: the deepest parent found so far, under which the project's node
// is attached. The root has no owner.
func (t *Tree) CanonicalOwner(projectID string) (Node, bool) {
	id, ok := t.owner[projectID]
	if !ok {
		return Node{}, false
	}
	return t.copyNode(id), true
}

// NodeFor returns the node that represents projectID.
func (t *Tree) NodeFor(projectID string) (Node, bool) {
	id, ok := t.nodeOf[projectID]
	if !ok {
		return Node{}, false
	}
	return t.copyNode(id), true
}

// VisitAll calls fn for every node exactly once, in creation order.
// Iteration stops early if fn returns false.
func (t *Tree) VisitAll(fn func(Node) bool) {
	for i := range t.nodes {
		if !fn(t.copyNode(NodeID(i))) {
			return
		}
	}
}

// MaxDepth returns the depth of the deepest level.
func (t *Tree) MaxDepth() int {
	m := 0
	for i := range t.nodes {
		m = max(m, t.nodes[i].Depth)
	}
	return m
}

// Levels groups the nodes by depth. Levels()[d] equals NodesAtDepth(d).
func (t *Tree) Levels() [][]Node {
	levels := make([][]Node, t.MaxDepth()+1)
	for i := range t.nodes {
		d := t.nodes[i].Depth
		levels[d] = append(levels[d], t.copyNode(NodeID(i)))
	}
	return levels
}

// Edges returns every parent → child link, including links to shared nodes
// from non-owning parents. Order follows node creation, then child order.
func (t *Tree) Edges() []Edge {
	var out []Edge
	for i := range t.nodes {
		for _, c := range t.nodes[i].Children {
			out = append(out, Edge{From: NodeID(i), To: c})
		}
	}
	return out
}

// DeepestEdges returns one edge per non-root node, from its canonical owner.
// Together they form a spanning tree of the leveled graph.
func (t *Tree) DeepestEdges() []Edge {
	out := make([]Edge, 0, len(t.nodes))
	for i := 1; i < len(t.nodes); i++ {
		owner, ok := t.owner[t.nodes[i].Project.ID]
		if !ok {
			continue
		}
		out = append(out, Edge{From: owner, To: NodeID(i)})
	}
	return out
}

// Referencing returns the nodes that list id as a child.
func (t *Tree) Referencing(id NodeID) []Node {
	var out []Node
	for i := range t.nodes {
		for _, c := range t.nodes[i].Children {
			if c == id {
				out = append(out, t.copyNode(NodeID(i)))
				break
			}
		}
	}
	return out
}
