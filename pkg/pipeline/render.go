package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/reftree/reftree/pkg/cache"
	treeio "github.com/reftree/reftree/pkg/io"
	"github.com/reftree/reftree/pkg/layout"
	"github.com/reftree/reftree/pkg/observability"
	"github.com/reftree/reftree/pkg/reftree"
	"github.com/reftree/reftree/pkg/render"
	"github.com/reftree/reftree/pkg/render/dgml"
	"github.com/reftree/reftree/pkg/render/nodelink"
	"github.com/reftree/reftree/pkg/source"
)

// Export renders t in every requested format. Artifacts are looked up in
// the runner's cache first; fresh renders are stored back.
func (r *Runner) Export(ctx context.Context, t *reftree.Tree, opts ExportOptions) (map[string][]byte, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Workspace == "" {
		opts.Workspace = r.Workspace.Name()
	}

	hooks := observability.Build()
	hooks.OnExportStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := r.export(ctx, t, opts)
	hooks.OnExportComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("exported", "formats", opts.Formats, "duration", time.Since(start))
	return artifacts, nil
}

func (r *Runner) export(ctx context.Context, t *reftree.Tree, opts ExportOptions) (map[string][]byte, error) {
	doc, err := json.Marshal(treeio.FromTree(t, opts.Workspace))
	if err != nil {
		return nil, fmt.Errorf("serialize tree for cache key: %w", err)
	}
	treeHash := cache.Hash(doc)
	hooks := observability.Cache()

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(treeHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			hooks.OnCacheHit(ctx, "artifact")
			artifacts[format] = data
			continue
		}
		hooks.OnCacheMiss(ctx, "artifact")

		data, err := Render(ctx, t, format, opts, r.Dot)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data

		if err := r.Cache.Set(ctx, key, data, TTLArtifact); err != nil {
			opts.Logger.Warn("cache write failed", "format", format, "err", err)
		} else {
			hooks.OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return artifacts, nil
}

// Render produces one artifact without caching. opts must have been
// validated. The virtual workspace root is left out of every diagram.
func Render(ctx context.Context, t *reftree.Tree, format string, opts ExportOptions, dot render.DotRunner) ([]byte, error) {
	hideVirtual := source.IsVirtual(t.Root().Project)
	mode := layout.Mode(opts.Mode)

	switch format {
	case FormatJSON:
		return json.MarshalIndent(treeio.FromTree(t, opts.Workspace), "", "  ")
	case FormatLayout:
		l, err := layout.Compute(t, layout.Options{Mode: mode})
		if err != nil {
			return nil, err
		}
		return layout.Marshal(l)
	case FormatDGML:
		return dgml.Marshal(t, opts.Workspace, dgml.Options{HideVirtual: hideVirtual})
	}

	src, err := nodelink.ToDOT(t, nodelink.Options{Mode: mode, Detailed: opts.Detailed, HideVirtual: hideVirtual})
	if err != nil {
		return nil, err
	}
	if format == FormatDOT {
		return []byte(src), nil
	}

	if opts.Engine == EngineDot {
		return dot.Render(ctx, src, format)
	}
	switch format {
	case FormatSVG:
		return nodelink.RenderSVG(ctx, src)
	case FormatPNG:
		return nodelink.RenderPNG(ctx, src, DefaultPNGScale)
	case FormatPDF:
		return nodelink.RenderPDF(ctx, src)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
