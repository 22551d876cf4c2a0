package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug lines to a
// charm logger. `reftree --verbose` registers it.
type LogHooks struct {
	Logger *log.Logger
}

func (h LogHooks) OnBuildStart(_ context.Context, root string, direct bool) {
	h.Logger.Debug("build start", "root", root, "direct", direct)
}

func (h LogHooks) OnBuildComplete(_ context.Context, root string, nodes int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("build failed", "root", root, "nodes", nodes, "took", d, "err", err)
		return
	}
	h.Logger.Debug("build done", "root", root, "nodes", nodes, "took", d)
}

func (h LogHooks) OnExportStart(_ context.Context, formats []string) {
	h.Logger.Debug("export start", "formats", formats)
}

func (h LogHooks) OnExportComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.Logger.Debug("export done", "formats", formats, "took", d, "err", err)
}

func (h LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h LogHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Info("request", "method", method, "route", route, "status", status, "took", d)
}

var (
	_ BuildHooks   = LogHooks{}
	_ CacheHooks   = LogHooks{}
	_ RequestHooks = LogHooks{}
)
