package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/reftree/reftree/internal/config"
	"github.com/reftree/reftree/pkg/buildinfo"
	"github.com/reftree/reftree/pkg/cache"
	"github.com/reftree/reftree/pkg/pipeline"
	"github.com/reftree/reftree/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "reftree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Global flags.
	workspace  string
	configFile string
	noCache    bool

	// cfg is resolved in the root command's PersistentPreRunE.
	cfg *config.Config
	out io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config returns the resolved configuration. It is nil before a command ran.
func (c *CLI) Config() *config.Config { return c.cfg }

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "reftree levels the project references of a workspace",
		Long: `reftree reads the projects of a workspace (reftree.toml, go.work, a Cargo
workspace or a Visual Studio solution), follows their project references
and places every project at its longest distance from a root, so each level
only depends on the levels below it.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.out = cmd.OutOrStdout()
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVarP(&c.workspace, "workspace", "w", "", "workspace directory or file (default: config, then .)")
	flags.StringVar(&c.configFile, "config", "", "config file (default: reftree.toml in the workspace)")
	flags.BoolVar(&c.noCache, "no-cache", false, "disable the reference and artifact cache")

	root.AddCommand(c.projectsCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(config.LoadOptions{
		File:      c.configFile,
		Workspace: c.workspace,
	})
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "files", cfg.Files, "workspace", cfg.Workspace, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner opens the configured workspace and wraps it in a pipeline runner.
// The caller closes the runner.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	p := newProgress(c.Logger)
	path, err := filepath.Abs(c.cfg.Workspace)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	ws, err := source.Detect(ctx, path)
	if err != nil {
		return nil, err
	}
	projects, err := ws.Projects(ctx)
	if err != nil {
		return nil, err
	}
	p.done(fmt.Sprintf("Opened %s workspace %s with %d projects", ws.Kind(), ws.Name(), len(projects)))

	store, err := newCache(ctx, c.cfg.Cache, c.noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(ws, store, nil, c.Logger, path, pipeline.WithReferenceTTL(c.cfg.Cache.TTL.Duration))
	runner.Dot.Binary = c.cfg.Tools.Dot
	return runner, nil
}

// newCache opens the configured backend. The file backend degrades to no
// caching when its directory cannot be created; the network backends fail.
func newCache(ctx context.Context, cfg config.CacheConfig, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix,
		})
	case config.BackendMongo:
		return cache.NewMongoCache(ctx, cache.MongoOptions{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
		})
	default:
		fc, err := cache.NewFileCache(cfg.Dir)
		if err != nil {
			loggerFromContext(ctx).Warn("file cache unavailable, continuing without", "dir", cfg.Dir, "err", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
}

// =============================================================================
// Options Helpers
// =============================================================================

// buildOptions returns the configured build limits for project.
func (c *CLI) buildOptions(project string) pipeline.BuildOptions {
	return pipeline.BuildOptions{
		Project:        project,
		MaxDepth:       c.cfg.Build.MaxDepth,
		MaxNodes:       c.cfg.Build.MaxNodes,
		Workers:        c.cfg.Build.Workers,
		SkipUnresolved: c.cfg.Build.SkipUnresolved,
		Logger:         c.Logger,
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatDOT}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}

// projectArg returns the optional project positional argument.
func projectArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
