// Package nodelink renders leveled trees as node-link diagrams.
//
// # Overview
//
// [ToDOT] produces Graphviz DOT source laid out left to right, with every
// tree level pinned to its own rank (rank=same), so the picture shows the
// same columns as the level browser. Root nodes are filled green and
// unresolved projects get a dashed outline.
//
//	dot, err := nodelink.ToDOT(tree, nodelink.Options{Mode: layout.ModeAll})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
//   - Mode: deepest draws owner edges only, all draws every reference (edges
//     from non-owning parents are grey)
//   - Detailed: labels include depth, inbound and outbound counts
//   - HideVirtual: leaves out the synthetic whole-workspace root
//
// # Rendering
//
// [RenderSVG] renders in-process through [github.com/goccy/go-graphviz].
// PDF and PNG conversion requires librsvg (rsvg-convert); the external dot
// binary can be used instead through render.DotRunner.
package nodelink
