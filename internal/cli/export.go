package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reftree/reftree/pkg/errors"
	treeio "github.com/reftree/reftree/pkg/io"
	"github.com/reftree/reftree/pkg/pipeline"
	"github.com/reftree/reftree/pkg/project"
	"github.com/reftree/reftree/pkg/source"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	formats  string // comma-separated output formats
	output   string // output file (single format) or base path
	input    string // tree.json to re-export instead of building
	mode     string // deepest or all
	engine   string // dot or builtin
	detailed bool   // depth and counts in node labels
	all      bool   // whole workspace under a synthetic root
	direct   bool   // direct references only
}

// exportCommand writes a project's tree in one or more formats.
func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export [project]",
		Short: "Export a reference tree as dot, dgml, json, layout, svg, png or pdf",
		Long: `Export the reference tree of a project.

Formats:
  dot      Graphviz source, one rank per level
  dgml     Directed Graph Markup Language
  json     tree document (nodes with depth and owner, edges)
  layout   column layout with coordinates
  svg, png, pdf
           rendered with the Graphviz binary (--engine dot) or the embedded
           Graphviz library (--engine builtin, png/pdf need rsvg-convert)

With a single format, -o names the file. With several, -o is a base path
and each format gets its own extension. --input re-exports a tree written
earlier with --format json, without reading the workspace.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeProjects,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd, projectArg(args), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.formats, "format", "f", "", "output format(s): dot (default), dgml, json, layout, svg, png, pdf (comma-separated)")
	f.StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	f.StringVarP(&opts.input, "input", "i", "", "re-export a tree.json instead of building")
	f.StringVar(&opts.mode, "mode", "", "edges to draw: deepest (default) or all")
	f.StringVar(&opts.engine, "engine", "", "image engine: dot (default) or builtin")
	f.BoolVar(&opts.detailed, "detailed", false, "show depth and reference counts in labels")
	f.BoolVar(&opts.all, "all", false, "level every project of the workspace")
	f.BoolVar(&opts.direct, "direct", false, "list only the root's direct references")

	return cmd
}

func (c *CLI) runExport(cmd *cobra.Command, name string, opts exportOpts) error {
	ctx := cmd.Context()
	eopts := pipeline.ExportOptions{
		Formats:  parseFormats(opts.formats),
		Mode:     opts.mode,
		Engine:   opts.engine,
		Detailed: opts.detailed,
		Logger:   c.Logger,
	}
	if err := eopts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	if opts.output != "" {
		if err := errors.ValidateOutputPath(opts.output); err != nil {
			return err
		}
	}

	var (
		runner *pipeline.Runner
		err    error
	)
	bopts := c.buildOptions(name)
	bopts.All = opts.all
	bopts.Direct = opts.direct
	if opts.input != "" {
		runner, err = c.importRunner(ctx, opts.input)
		bopts = pipeline.BuildOptions{Logger: c.Logger}
	} else {
		runner, err = c.newRunner(ctx)
	}
	if err != nil {
		return err
	}
	defer runner.Close()

	res, buildErr := c.build(cmd, runner, bopts)
	if res == nil {
		return buildErr
	}

	artifacts, err := runner.Export(ctx, res.Tree, eopts)
	if err != nil {
		return err
	}

	base := basePath(opts.output, defaultBase(opts.input, res.Root))
	single := len(eopts.Formats) == 1 && opts.output != "" && hasFormatExt(opts.output)
	printSuccess(c.out, "Exported %s", res.Root.Label())
	for _, format := range eopts.Formats {
		path := base + "." + pipeline.Extension(format)
		if single {
			path = opts.output
		}
		if err := writeArtifact(path, artifacts[format]); err != nil {
			return err
		}
		printFile(c.out, path)
	}
	printStats(c.out, res.Stats)
	if !slices.Contains(eopts.Formats, pipeline.FormatJSON) && opts.input == "" {
		printNextStep(c.out, "Keep the tree for later", strings.TrimSpace("reftree export -f json "+name))
	}
	return buildErr
}

// importRunner rebuilds a workspace from a tree document. The artifact cache
// still applies.
func (c *CLI) importRunner(ctx context.Context, path string) (*pipeline.Runner, error) {
	doc, err := treeio.ImportJSON(path)
	if err != nil {
		return nil, err
	}
	ws, err := doc.ToWorkspace()
	if err != nil {
		return nil, err
	}
	c.Logger.Info("Loaded tree", "file", path, "root", doc.Root, "nodes", len(doc.Nodes))

	store, err := newCache(ctx, c.cfg.Cache, c.noCache)
	if err != nil {
		return nil, err
	}
	abs, _ := filepath.Abs(path)
	runner := pipeline.NewRunner(ws, store, nil, c.Logger, abs)
	runner.Dot.Binary = c.cfg.Tools.Dot
	return runner, nil
}

// basePath strips a known format extension from output. An empty output
// falls back to fallback.
func basePath(output, fallback string) string {
	if output == "" {
		return fallback
	}
	if strings.HasSuffix(output, ".layout.json") {
		return strings.TrimSuffix(output, ".layout.json")
	}
	if hasFormatExt(output) {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return output
}

func hasFormatExt(path string) bool {
	return slices.Contains(pipeline.Formats, strings.TrimPrefix(filepath.Ext(path), "."))
}

// defaultBase names output files after the input document or the root.
func defaultBase(input string, root project.Project) string {
	if input != "" {
		return strings.TrimSuffix(input, filepath.Ext(input)) + ".out"
	}
	if source.IsVirtual(root) {
		return "workspace"
	}
	return fileSafe(root.Label())
}

// fileSafe replaces path separators and other characters that make poor
// file names.
func fileSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
