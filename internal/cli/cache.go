package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reftree/reftree/internal/config"
	"github.com/reftree/reftree/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the reference and artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if c.cfg.Cache.Backend == config.BackendNone {
				printInfo(c.out, "Caching is disabled")
				return nil
			}
			store, err := newCache(ctx, c.cfg.Cache, false)
			if err != nil {
				return err
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				return fmt.Errorf("the %s cache cannot be cleared", c.cfg.Cache.Backend)
			}
			if err := clearer.Clear(ctx); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess(c.out, "Cleared the %s cache", c.cfg.Cache.Backend)
			printDetail(c.out, "%s", cacheLocation(c.cfg.Cache))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(c.out, cacheLocation(c.cfg.Cache))
			return nil
		},
	}
}

// cacheLocation describes the configured backend: the directory of the file
// cache, the server of the network caches.
func cacheLocation(cfg config.CacheConfig) string {
	switch cfg.Backend {
	case config.BackendRedis:
		return fmt.Sprintf("redis://%s/%d (prefix %q)", cfg.RedisAddr, cfg.RedisDB, cfg.Prefix)
	case config.BackendMongo:
		return fmt.Sprintf("%s (database %s)", cfg.MongoURI, cfg.MongoDatabase)
	case config.BackendNone:
		return "disabled"
	default:
		return cfg.Dir
	}
}
