// Package pipeline ties workspaces, caches, the tree builder and the
// exporters together.
//
// Both the CLI and the HTTP API go through a [Runner], so trees are built
// with the same source stack (cache, memoization, prefetch) and exported
// with the same defaults everywhere.
//
// # Stages
//
//  1. Build: resolve the root project and level everything it reaches
//  2. Export: turn the tree into artifacts (json, layout, dot, dgml, svg,
//     png, pdf)
//
// # Usage
//
//	runner := pipeline.NewRunner(ws, cache, nil, logger)
//	res, err := runner.Build(ctx, pipeline.BuildOptions{Project: "Core"})
//	if err != nil {
//	    return err
//	}
//	artifacts, err := runner.Export(ctx, res.Tree, pipeline.ExportOptions{
//	    Formats: []string{"dot", "svg"},
//	})
//
// Reference lists are cached through the Runner's cache; artifacts are
// cached by a hash of the tree document and the export settings.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/reftree/reftree/pkg/cache"
	"github.com/reftree/reftree/pkg/errors"
	"github.com/reftree/reftree/pkg/layout"
	"github.com/reftree/reftree/pkg/reftree"
)

const (
	// DefaultMaxNodes bounds the size of a tree. Workspaces are finite, so
	// the limit only trips on pathological inputs.
	DefaultMaxNodes = 10000

	// DefaultPNGScale is the rsvg-convert zoom used by the builtin engine.
	DefaultPNGScale = 2.0

	TTLReferences = 24 * time.Hour
	TTLArtifact   = 7 * 24 * time.Hour
)

// Output formats.
const (
	FormatJSON   = "json"
	FormatLayout = "layout"
	FormatDOT    = "dot"
	FormatDGML   = "dgml"
	FormatSVG    = "svg"
	FormatPNG    = "png"
	FormatPDF    = "pdf"
)

// Formats lists every supported output format.
var Formats = []string{FormatJSON, FormatLayout, FormatDOT, FormatDGML, FormatSVG, FormatPNG, FormatPDF}

// Image engines.
const (
	EngineDot     = "dot"     // external Graphviz binary
	EngineBuiltin = "builtin" // embedded Graphviz plus rsvg-convert
)

// Engines lists the supported image engines.
var Engines = []string{EngineDot, EngineBuiltin}

// Extension returns the file extension for format.
func Extension(format string) string {
	switch format {
	case FormatLayout:
		return "layout.json"
	default:
		return format
	}
}

// ContentType returns the MIME type served for format.
func ContentType(format string) string {
	switch format {
	case FormatJSON, FormatLayout:
		return "application/json"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	case FormatDGML:
		return "application/xml"
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// BuildOptions controls Runner.Build.
type BuildOptions struct {
	// Project names the root by ID or label. Empty selects the workspace's
	// startup project.
	Project string `json:"project,omitempty"`
	// All levels the whole workspace under a synthetic root.
	All bool `json:"all,omitempty"`
	// Direct lists only the root's direct references.
	Direct bool `json:"direct,omitempty"`

	MaxDepth       int  `json:"max_depth,omitempty"`
	MaxNodes       int  `json:"max_nodes,omitempty"`
	SkipUnresolved bool `json:"skip_unresolved,omitempty"`
	// Workers enables a concurrent prefetch of the reachable graph before
	// the build. Zero disables it.
	Workers int `json:"workers,omitempty"`

	Logger *log.Logger `json:"-"`
}

func (o *BuildOptions) setDefaults() {
	if o.MaxNodes == 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the option values.
func (o BuildOptions) Validate() error {
	if o.MaxDepth < 0 || o.MaxNodes < 0 || o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "limits must not be negative")
	}
	if o.All && o.Project != "" {
		return errors.New(errors.ErrCodeInvalidInput, "a project and --all are mutually exclusive")
	}
	if o.Project != "" {
		return errors.ValidateProjectName(o.Project)
	}
	return nil
}

func (o BuildOptions) builderOptions() reftree.Options {
	return reftree.Options{
		MaxDepth:       o.MaxDepth,
		MaxNodes:       o.MaxNodes,
		SkipUnresolved: o.SkipUnresolved,
		Logger:         o.Logger,
	}
}

// ExportOptions controls Runner.Export.
type ExportOptions struct {
	Formats  []string `json:"formats,omitempty"`
	Mode     string   `json:"mode,omitempty"`   // deepest (default) or all
	Engine   string   `json:"engine,omitempty"` // dot (default) or builtin
	Detailed bool     `json:"detailed,omitempty"`
	// Workspace is recorded in JSON documents and DGML titles.
	Workspace string `json:"workspace,omitempty"`

	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks the options and fills in defaults.
// It is idempotent.
func (o *ExportOptions) ValidateAndSetDefaults() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatDOT}
	}
	if o.Engine == "" {
		o.Engine = EngineDot
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if err := errors.ValidateFormats(o.Formats, Formats); err != nil {
		return err
	}
	if err := errors.ValidateMode(o.Engine, Engines); err != nil {
		return err
	}
	mode, err := layout.ParseMode(o.Mode)
	if err != nil {
		return err
	}
	o.Mode = string(mode)
	return nil
}

// ArtifactKeyOpts returns the cache key settings for format.
func (o ExportOptions) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format, Mode: o.Mode, Detailed: o.Detailed}
	switch format {
	case FormatSVG, FormatPNG, FormatPDF:
		opts.Engine = o.Engine
	}
	return opts
}

// Stats describes a build.
type Stats struct {
	Nodes     int           `json:"nodes"`
	MaxDepth  int           `json:"max_depth"`
	Fetched   int           `json:"fetched,omitempty"` // projects warmed by prefetch
	BuildTime time.Duration `json:"build_time"`
}
