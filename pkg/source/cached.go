package source

import (
	"context"
	"encoding/json"
	"time"

	"github.com/reftree/reftree/pkg/cache"
	"github.com/reftree/reftree/pkg/observability"
	"github.com/reftree/reftree/pkg/project"
)

// CachedSource persists References answers in a cache.Cache so that later
// runs skip parsing unchanged workspaces. Remote failures of the wrapped
// source marked cache.Retryable are retried with backoff. A broken cache
// degrades to a pass-through.
type CachedSource struct {
	src       project.Source
	cache     cache.Cache
	keyer     cache.Keyer
	workspace string
	ttl       time.Duration
}

// Cached wraps src. workspace scopes the keys (usually the workspace root
// path); ttl <= 0 keeps entries until the cache evicts them.
func Cached(src project.Source, c cache.Cache, keyer cache.Keyer, workspace string, ttl time.Duration) *CachedSource {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CachedSource{src: src, cache: c, keyer: keyer, workspace: workspace, ttl: ttl}
}

func (s *CachedSource) References(ctx context.Context, p project.Project) ([]project.Project, error) {
	key := s.keyer.ReferencesKey(s.workspace, p.ID)
	hooks := observability.Cache()

	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var refs []project.Project
		if json.Unmarshal(data, &refs) == nil {
			hooks.OnCacheHit(ctx, "refs")
			return refs, nil
		}
	}
	hooks.OnCacheMiss(ctx, "refs")

	var refs []project.Project
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		refs, err = s.src.References(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(refs); err == nil {
		if s.cache.Set(ctx, key, data, s.ttl) == nil {
			hooks.OnCacheSet(ctx, "refs", len(data))
		}
	}
	return refs, nil
}
