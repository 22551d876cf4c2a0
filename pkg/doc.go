// Package pkg holds the libraries behind reftree.
//
// # Overview
//
// reftree reads the projects of a workspace, follows their project
// references and places every project on a level: its longest distance from
// a chosen root. A project on level n only references projects on deeper
// levels, so the levels read as a build order from the bottom up.
//
// The data flow:
//
//	workspace files (reftree.toml, go.work, Cargo.toml, .sln)
//	         ↓
//	    [source] (projects and their references, memoized, cached)
//	         ↓
//	    [reftree] (leveled tree with canonical owners)
//	         ↓
//	    [layout] / [render/nodelink] / [render/dgml] / [io]
//	         ↓
//	    dot, dgml, json, svg, png, pdf
//
// [pipeline] ties the steps together for the CLI and the HTTP server.
//
// # Quick Start
//
//	ws, err := source.Detect(ctx, ".")
//	if err != nil {
//	    return err
//	}
//	root, err := project.Root(ctx, ws, "")
//	if err != nil {
//	    return err
//	}
//	tree, err := reftree.NewBuilder(source.Memo(ws, 0), reftree.Options{}).BuildTree(ctx, root)
//	if err != nil {
//	    return err
//	}
//	dot, err := nodelink.ToDOT(tree, nodelink.Options{})
//
// # Packages
//
// [project] - The project model: Source, Catalog and Workspace interfaces.
//
// [reftree] - The tree builder and its read-only query API.
//
// [source] - Workspace loaders plus the Memo, Cached and Prefetch wrappers.
//
// [cache] - Byte caches (file, Redis, MongoDB) and cache key derivation.
//
// [layout] - Column-per-level coordinates for drawing a tree.
//
// [render] - External tool runners; [render/nodelink] writes DOT,
// [render/dgml] writes DGML.
//
// [io] - The JSON tree document.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Build, cache and request hooks.
//
// [buildinfo] - Version information.
//
// [project]: https://pkg.go.dev/github.com/reftree/reftree/pkg/project
// [reftree]: https://pkg.go.dev/github.com/reftree/reftree/pkg/reftree
// [source]: https://pkg.go.dev/github.com/reftree/reftree/pkg/source
// [cache]: https://pkg.go.dev/github.com/reftree/reftree/pkg/cache
// [layout]: https://pkg.go.dev/github.com/reftree/reftree/pkg/layout
// [render]: https://pkg.go.dev/github.com/reftree/reftree/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/reftree/reftree/pkg/render/nodelink
// [render/dgml]: https://pkg.go.dev/github.com/reftree/reftree/pkg/render/dgml
// [io]: https://pkg.go.dev/github.com/reftree/reftree/pkg/io
// [errors]: https://pkg.go.dev/github.com/reftree/reftree/pkg/errors
// [observability]: https://pkg.go.dev/github.com/reftree/reftree/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/reftree/reftree/pkg/buildinfo
// [pipeline]: https://pkg.go.dev/github.com/reftree/reftree/pkg/pipeline
package pkg
