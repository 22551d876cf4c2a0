// Package reftree builds leveled trees from a project reference graph.
//
// A [Builder] starts at a root project, asks a [project.Source] for direct
// references and places every reachable project exactly once, at its longest
// discovered distance from the root. Discovery happens depth-first in the
// order the source reports references, so a project may first be placed too
// shallow; when a deeper path to it turns up later, the node is re-leveled
// together with the part of its subtree that the new path pushes down.
//
// # Ownership
//
// The tree keeps an owner for every non-root project: the parent that most
// recently proved to be the deepest claimant. A later parent at equal depth
// takes ownership; a shallower one only adds an edge. [Tree.DeepestEdges]
// connects each node to its owner, [Tree.Edges] lists every reference.
//
// # Usage
//
//	b := reftree.NewBuilder(src, reftree.Options{MaxNodes: 10000})
//	tree, err := b.BuildTree(ctx, root)
//	if err != nil {
//	    return err
//	}
//	for d, level := range tree.Levels() {
//	    fmt.Println(d, len(level))
//	}
//
// Trees are immutable after the build returns and safe for concurrent
// readers. The builder itself is single-threaded; wrap slow sources with
// source.Memo or warm them with source.Prefetch.
package reftree
