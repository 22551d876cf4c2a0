package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/reftree/reftree/pkg/layout"
	"github.com/reftree/reftree/pkg/reftree"
	"github.com/reftree/reftree/pkg/render"
	"github.com/reftree/reftree/pkg/source"
)

// Options configures node-link diagram generation.
type Options struct {
	Mode        layout.Mode // deepest (default) or all
	Detailed    bool        // add depth and reference counts to labels
	HideVirtual bool        // omit the whole-workspace root
}

// ToDOT converts a tree to Graphviz DOT source.
func ToDOT(t *reftree.Tree, opts Options) (string, error) {
	mode, err := layout.ParseMode(string(opts.Mode))
	if err != nil {
		return "", err
	}

	hidden := func(n reftree.Node) bool {
		return opts.HideVirtual && source.IsVirtual(n.Project)
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=1.0;\n")
	buf.WriteString("  nodesep=0.3;\n")

	for d, level := range t.Levels() {
		var ids []string
		buf.WriteString("\n")
		for _, n := range level {
			if hidden(n) {
				continue
			}
			fmt.Fprintf(&buf, "  %q [%s];\n", n.Project.ID, strings.Join(fmtAttrs(n, fmtLabel(n, opts.Detailed)), ", "))
			ids = append(ids, strconv.Quote(n.Project.ID))
		}
		if len(ids) > 0 {
			fmt.Fprintf(&buf, "  { rank=same; %s; } // depth %d\n", strings.Join(ids, "; "), d)
		}
	}

	deepest := make(map[reftree.Edge]bool)
	for _, e := range t.DeepestEdges() {
		deepest[e] = true
	}
	edges := t.DeepestEdges()
	if mode == layout.ModeAll {
		edges = t.Edges()
	}

	buf.WriteString("\n")
	for _, e := range edges {
		from, _ := t.Node(e.From)
		to, _ := t.Node(e.To)
		if hidden(from) || hidden(to) {
			continue
		}
		if deepest[e] {
			fmt.Fprintf(&buf, "  %q -> %q;\n", from.Project.ID, to.Project.ID)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q [color=grey];\n", from.Project.ID, to.Project.ID)
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func fmtLabel(n reftree.Node, detailed bool) string {
	if !detailed {
		return n.Label()
	}
	return fmt.Sprintf("%s\ndepth: %d\nin: %d  out: %d", n.Label(), n.Depth, n.Inbound, n.Outbound)
}

func fmtAttrs(n reftree.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case n.IsRoot():
		attrs = append(attrs, "fillcolor=darkolivegreen", "fontcolor=white")
	case n.Unresolved:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales with its
// container instead of using Graphviz's point sizes.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders DOT source as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders DOT source as PNG via SVG conversion.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
