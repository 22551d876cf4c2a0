// Package observability lets the embedding program observe builds, exports,
// cache traffic and API requests without the libraries depending on a
// metrics backend.
//
// Hooks default to no-ops. main registers real implementations once at
// startup; libraries fetch the current hooks at the call site:
//
//	observability.Build().OnBuildStart(ctx, root.ID, false)
//	tree, err := builder.BuildTree(ctx, root)
//	observability.Build().OnBuildComplete(ctx, root.ID, tree.Len(), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// BuildHooks receives tree construction and export events.
type BuildHooks interface {
	OnBuildStart(ctx context.Context, root string, direct bool)
	OnBuildComplete(ctx context.Context, root string, nodes int, duration time.Duration, err error)

	OnExportStart(ctx context.Context, formats []string)
	OnExportComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives cache lookups. keyType is "refs" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// RequestHooks receives HTTP API requests served by `reftree serve`.
type RequestHooks interface {
	OnRequest(ctx context.Context, method, route string, status int, duration time.Duration)
}

// NoopBuildHooks ignores every event.
type NoopBuildHooks struct{}

func (NoopBuildHooks) OnBuildStart(context.Context, string, bool)                         {}
func (NoopBuildHooks) OnBuildComplete(context.Context, string, int, time.Duration, error) {}
func (NoopBuildHooks) OnExportStart(context.Context, []string)                            {}
func (NoopBuildHooks) OnExportComplete(context.Context, []string, time.Duration, error)   {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopRequestHooks ignores every event.
type NoopRequestHooks struct{}

func (NoopRequestHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

var (
	hooksMu      sync.RWMutex
	buildHooks   BuildHooks   = NoopBuildHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	requestHooks RequestHooks = NoopRequestHooks{}
)

// SetBuildHooks registers h. A nil h is ignored.
func SetBuildHooks(h BuildHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		buildHooks = h
	}
}

// SetCacheHooks registers h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetRequestHooks registers h. A nil h is ignored.
func SetRequestHooks(h RequestHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		requestHooks = h
	}
}

// Build returns the registered build hooks.
func Build() BuildHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return buildHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Request returns the registered request hooks.
func Request() RequestHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return requestHooks
}

// Reset restores the no-op defaults. Tests use it to isolate registrations.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	buildHooks = NoopBuildHooks{}
	cacheHooks = NoopCacheHooks{}
	requestHooks = NoopRequestHooks{}
}
