package source

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/reftree/reftree/pkg/project"
)

// DefaultWorkers is the prefetch concurrency when PrefetchOptions.Workers
// is unset.
const DefaultWorkers = 20

// PrefetchOptions bounds a Prefetch run.
type PrefetchOptions struct {
	Workers  int         // concurrent References calls
	MaxNodes int         // stop after this many projects; 0 means unlimited
	Logger   *log.Logger // receives per-project failures
}

// Prefetch walks the graph reachable from root breadth first, querying up
// to Workers projects at a time, and returns the number of projects fetched.
// src should be a *MemoSource (or sit in front of one) so that the
// single-threaded build that follows finds every answer in memory.
//
// Failures of individual projects are logged and skipped; the build will
// report them. Only cancellation aborts the walk.
func Prefetch(ctx context.Context, src project.Source, root project.Project, opts PrefetchOptions) (int, error) {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	seen := map[string]bool{root.ID: true}
	frontier := []project.Project{root}
	fetched := 0

	for len(frontier) > 0 {
		if opts.MaxNodes > 0 && fetched+len(frontier) > opts.MaxNodes {
			frontier = frontier[:max(opts.MaxNodes-fetched, 0)]
			if len(frontier) == 0 {
				break
			}
		}

		var (
			mu   sync.Mutex
			next []project.Project
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for _, p := range frontier {
			g.Go(func() error {
				refs, err := src.References(gctx, p)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					logger.Warn("prefetch failed", "project", p.ID, "err", err)
					return nil
				}
				mu.Lock()
				defer mu.Unlock()
				for _, r := range refs {
					if !seen[r.ID] {
						seen[r.ID] = true
						next = append(next, r)
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fetched, err
		}
		fetched += len(frontier)
		frontier = next
	}
	return fetched, ctx.Err()
}
