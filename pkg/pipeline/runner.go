package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/reftree/reftree/pkg/cache"
	"github.com/reftree/reftree/pkg/observability"
	"github.com/reftree/reftree/pkg/project"
	"github.com/reftree/reftree/pkg/reftree"
	"github.com/reftree/reftree/pkg/render"
	"github.com/reftree/reftree/pkg/source"
)

// Runner builds and exports trees for one workspace.
//
// Reference lists pass through the cache and an in-memory memo that lives
// as long as the Runner, so repeated builds (the HTTP API, the browser's
// re-rooting) only parse each project once. A Runner is safe for
// concurrent use.
type Runner struct {
	Workspace project.Workspace
	Cache     cache.Cache
	Keyer     cache.Keyer
	Logger    *log.Logger
	Dot       render.DotRunner

	memo *source.MemoSource
}

// RunnerOption adjusts a Runner at construction.
type RunnerOption func(*runnerConfig)

type runnerConfig struct {
	refsTTL  time.Duration
	memoSize int
}

// WithReferenceTTL sets how long reference lists stay in the cache.
// Zero keeps TTLReferences.
func WithReferenceTTL(d time.Duration) RunnerOption {
	return func(c *runnerConfig) {
		if d > 0 {
			c.refsTTL = d
		}
	}
}

// WithMemoSize bounds the in-memory reference memo.
func WithMemoSize(n int) RunnerOption {
	return func(c *runnerConfig) { c.memoSize = n }
}

// fingerprinter is implemented by workspaces that can tell when the files
// behind their references change (see source.Workspace.Fingerprint).
type fingerprinter interface {
	Fingerprint() string
}

// NewRunner creates a runner for ws. scope isolates the workspace's
// reference entries in a shared cache; it defaults to ws.Name(). When ws
// has a fingerprint it is appended to scope, so editing a project file
// starts a fresh set of entries instead of serving the old edges.
// A nil cache disables caching, a nil keyer selects cache.DefaultKeyer.
func NewRunner(ws project.Workspace, c cache.Cache, keyer cache.Keyer, logger *log.Logger, scope string, opts ...RunnerOption) *Runner {
	rc := runnerConfig{refsTTL: TTLReferences}
	for _, opt := range opts {
		opt(&rc)
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	if scope == "" {
		scope = ws.Name()
	}
	if fp, ok := ws.(fingerprinter); ok {
		if f := fp.Fingerprint(); f != "" {
			scope += "@" + f
		}
	}

	var src project.Source = ws
	if _, off := c.(cache.NullCache); !off {
		src = source.Cached(ws, c, keyer, scope, rc.refsTTL)
	}
	return &Runner{
		Workspace: ws,
		Cache:     c,
		Keyer:     keyer,
		Logger:    logger,
		memo:      source.Memo(src, rc.memoSize),
	}
}

// stacked answers References through the runner's memo while keeping the
// workspace's catalog.
type stacked struct {
	project.Workspace
	src project.Source
}

func (s stacked) References(ctx context.Context, p project.Project) ([]project.Project, error) {
	return s.src.References(ctx, p)
}

// Catalog returns the workspace as seen by builds. With all set, a
// synthetic root referencing every project is prepended.
func (r *Runner) Catalog(all bool) project.Workspace {
	var ws project.Workspace = stacked{Workspace: r.Workspace, src: r.memo}
	if all {
		ws = source.Virtual(ws)
	}
	return ws
}

// Projects lists the workspace's projects.
func (r *Runner) Projects(ctx context.Context) ([]project.Project, error) {
	return r.Workspace.Projects(ctx)
}

// Result is the outcome of a build.
type Result struct {
	Root  project.Project
	Tree  *reftree.Tree
	Stats Stats
}

// Build resolves the root and levels the projects it reaches.
//
// When a dependency below the root fails, Build returns the partial tree
// together with the error, like reftree.Builder.BuildTree.
func (r *Runner) Build(ctx context.Context, opts BuildOptions) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	opts.setDefaults()

	ws := r.Catalog(opts.All)
	root, err := project.Root(ctx, ws, opts.Project)
	if err != nil {
		return nil, err
	}

	hooks := observability.Build()
	hooks.OnBuildStart(ctx, root.ID, opts.Direct)
	start := time.Now()
	res := &Result{Root: root}

	if opts.Workers > 0 && !opts.Direct {
		n, err := source.Prefetch(ctx, ws, root, source.PrefetchOptions{
			Workers:  opts.Workers,
			MaxNodes: opts.MaxNodes,
			Logger:   opts.Logger,
		})
		if err != nil {
			hooks.OnBuildComplete(ctx, root.ID, 0, time.Since(start), err)
			return nil, err
		}
		res.Stats.Fetched = n
		opts.Logger.Debug("prefetched references", "projects", n, "duration", time.Since(start))
	}

	b := reftree.NewBuilder(ws, opts.builderOptions())
	var tree *reftree.Tree
	if opts.Direct {
		tree, err = b.BuildDirectOnly(ctx, root)
	} else {
		tree, err = b.BuildTree(ctx, root)
	}
	res.Stats.BuildTime = time.Since(start)

	if tree == nil {
		hooks.OnBuildComplete(ctx, root.ID, 0, res.Stats.BuildTime, err)
		return nil, err
	}
	res.Tree = tree
	res.Stats.Nodes = tree.Len()
	res.Stats.MaxDepth = tree.MaxDepth()
	hooks.OnBuildComplete(ctx, root.ID, tree.Len(), res.Stats.BuildTime, err)

	opts.Logger.Info("built tree",
		"root", root.Label(),
		"nodes", res.Stats.Nodes,
		"depth", res.Stats.MaxDepth,
		"duration", res.Stats.BuildTime)
	return res, err
}

// Purge drops the in-memory reference answers, so the next build re-reads
// the cache (or the workspace files).
func (r *Runner) Purge() { r.memo.Purge() }

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
