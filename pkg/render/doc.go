// Package render turns leveled trees into files a human can look at.
//
// # Overview
//
// The package itself holds the external tool runners shared by every
// renderer:
//
//   - [DotRunner] feeds Graphviz DOT source to the `dot` binary and returns
//     the produced image (any -T format dot supports)
//   - [ToPDF] and [ToPNG] convert SVG using rsvg-convert (librsvg)
//
// Missing binaries fail with TOOL_NOT_FOUND; a binary that runs but exits
// non-zero fails with TOOL_FAILED and carries its stderr.
//
// # Renderers
//
// The [nodelink] subpackage writes DOT with one rank per tree level and can
// render SVG in-process. The [dgml] subpackage writes Directed Graph Markup
// Language documents for Visual Studio's graph viewer.
//
//	dot, err := nodelink.ToDOT(tree, nodelink.Options{Mode: layout.ModeAll})
//	if err != nil {
//	    return err
//	}
//	png, err := render.Dot(ctx, dot, "png")
//
// [nodelink]: github.com/reftree/reftree/pkg/render/nodelink
// [dgml]: github.com/reftree/reftree/pkg/render/dgml
package render
