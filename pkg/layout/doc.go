// Package layout places the nodes of a leveled tree on a plane.
//
// Every depth becomes one column. Columns run left to right starting at the
// root; a column's x offset grows by an estimated node width derived from the
// longest label in the column before it, so long project names never overlap
// the next level. Inside a column, nodes are stacked in creation order and
// the stack is centred vertically in the frame.
//
// # Connections
//
// [ModeDeepest] draws one connection per node, from its canonical owner;
// the result is a spanning tree that reads cleanly even for dense graphs.
// [ModeAll] draws every reference, including the ones that skip levels.
//
// # Serialization
//
// [Layout] is plain data with JSON tags; the CLI writes it with the "layout"
// export format and the HTTP API serves it as is.
//
//	l, err := layout.Compute(tree, layout.Options{Mode: layout.ModeAll})
//	data, _ := layout.Marshal(l)
package layout
