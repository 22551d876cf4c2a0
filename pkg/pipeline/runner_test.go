package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/reftree/reftree/pkg/cache"
	"github.com/reftree/reftree/pkg/errors"
	"github.com/reftree/reftree/pkg/observability"
	"github.com/reftree/reftree/pkg/project"
	"github.com/reftree/reftree/pkg/render"
	"github.com/reftree/reftree/pkg/source"
)

func workspace(t *testing.T) *source.Workspace {
	t.Helper()
	ws, err := source.NewStatic("demo", []project.Project{
		{ID: "app", Name: "App"}, {ID: "data", Name: "Data"}, {ID: "core", Name: "Core"}, {ID: "tool", Name: "Tool"},
	}, map[string][]string{
		"app":  {"core", "data"},
		"data": {"core"},
		"tool": {"core"},
	}, "app")
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	return ws
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := NewRunner(workspace(t), c, nil, nil, "")
	t.Cleanup(func() { r.Close() })
	return r
}

type recordingHooks struct {
	observability.NoopCacheHooks
	observability.NoopBuildHooks

	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
	builds []string
}

func (h *recordingHooks) OnCacheHit(_ context.Context, keyType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[keyType]++
}

func (h *recordingHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.misses[keyType]++
}

func (h *recordingHooks) OnBuildComplete(_ context.Context, root string, nodes int, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.builds = append(h.builds, root)
}

func installHooks(t *testing.T) *recordingHooks {
	t.Helper()
	h := &recordingHooks{hits: map[string]int{}, misses: map[string]int{}}
	observability.SetCacheHooks(h)
	observability.SetBuildHooks(h)
	t.Cleanup(observability.Reset)
	return h
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		opts      BuildOptions
		wantRoot  string
		wantNodes int
		wantDepth int
	}{
		{"startup", BuildOptions{}, "app", 3, 2},
		{"by label", BuildOptions{Project: "Tool"}, "tool", 2, 1},
		{"direct", BuildOptions{Direct: true}, "app", 3, 1},
		{"whole workspace", BuildOptions{All: true}, source.VirtualID, 5, 3},
		{"prefetched", BuildOptions{Workers: 4}, "app", 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newRunner(t).Build(ctx, tt.opts)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if res.Root.ID != tt.wantRoot {
				t.Errorf("root = %s, want %s", res.Root.ID, tt.wantRoot)
			}
			if res.Stats.Nodes != tt.wantNodes || res.Stats.MaxDepth != tt.wantDepth {
				t.Errorf("stats = %+v, want %d nodes depth %d", res.Stats, tt.wantNodes, tt.wantDepth)
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	r := newRunner(t)
	ctx := context.Background()

	if _, err := r.Build(ctx, BuildOptions{Project: "nope"}); !errors.Is(err, errors.ErrCodeUnresolvedProject) {
		t.Errorf("unknown project: err = %v", err)
	}
	if _, err := r.Build(ctx, BuildOptions{MaxNodes: 2}); !errors.Is(err, errors.ErrCodeLimitExceeded) {
		t.Errorf("limit: err = %v", err)
	}
	if _, err := r.Build(ctx, BuildOptions{All: true, Project: "app"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("conflict: err = %v", err)
	}
}

func TestBuildReportsHooksAndCachesReferences(t *testing.T) {
	h := installHooks(t)
	ctx := context.Background()

	dir := t.TempDir()
	c, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewRunner(workspace(t), c, nil, nil, "scope").Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if h.misses["refs"] != 3 || h.hits["refs"] != 0 {
		t.Errorf("first build: hits=%d misses=%d, want 0/3", h.hits["refs"], h.misses["refs"])
	}

	// A fresh runner has an empty memo but shares the file cache.
	if _, err := NewRunner(workspace(t), c, nil, nil, "scope").Build(ctx, BuildOptions{}); err != nil {
		t.Fatalf("second build: %v", err)
	}
	if h.hits["refs"] != 3 {
		t.Errorf("second build: hits=%d, want 3", h.hits["refs"])
	}
	if len(h.builds) != 2 || h.builds[0] != "app" {
		t.Errorf("build hooks = %v", h.builds)
	}
}

func TestExport(t *testing.T) {
	h := installHooks(t)
	r := newRunner(t)
	ctx := context.Background()

	res, err := r.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	opts := ExportOptions{Formats: []string{FormatJSON, FormatLayout, FormatDOT, FormatDGML}, Mode: "all"}
	artifacts, err := r.Export(ctx, res.Tree, opts)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(artifacts) != 4 {
		t.Fatalf("artifacts = %d, want 4", len(artifacts))
	}

	var doc struct {
		Workspace string `json:"workspace"`
		Root      string `json:"root"`
	}
	if err := json.Unmarshal(artifacts[FormatJSON], &doc); err != nil || doc.Root != "app" || doc.Workspace != "demo" {
		t.Errorf("json = %s (%v)", artifacts[FormatJSON], err)
	}
	if !strings.Contains(string(artifacts[FormatDOT]), `"app" -> "core" [color=grey];`) {
		t.Errorf("dot in all mode lacks grey edge:\n%s", artifacts[FormatDOT])
	}
	if !strings.Contains(string(artifacts[FormatDGML]), "<DirectedGraph") {
		t.Error("dgml missing root element")
	}
	if !strings.Contains(string(artifacts[FormatLayout]), `"mode": "all"`) {
		t.Error("layout missing mode")
	}
	if h.misses["artifact"] != 4 {
		t.Errorf("artifact misses = %d, want 4", h.misses["artifact"])
	}

	again, err := r.Export(ctx, res.Tree, opts)
	if err != nil {
		t.Fatal(err)
	}
	if h.hits["artifact"] != 4 || string(again[FormatDOT]) != string(artifacts[FormatDOT]) {
		t.Errorf("second export: hits=%d", h.hits["artifact"])
	}
}

func TestExportHidesVirtualRoot(t *testing.T) {
	r := newRunner(t)
	ctx := context.Background()
	res, err := r.Build(ctx, BuildOptions{All: true})
	if err != nil {
		t.Fatal(err)
	}
	artifacts, err := r.Export(ctx, res.Tree, ExportOptions{Formats: []string{FormatDOT, FormatDGML}})
	if err != nil {
		t.Fatal(err)
	}
	for f, data := range artifacts {
		if strings.Contains(string(data), source.VirtualID) {
			t.Errorf("%s contains the virtual root", f)
		}
	}
}

func TestExportWithDotEngine(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fake requires a POSIX shell")
	}
	bin := filepath.Join(t.TempDir(), "dot")
	script := "#!/bin/sh\nfor a in \"$@\"; do case \"$a\" in -o*) out=\"${a#-o}\" ;; esac; done\necho '<svg/>' > \"$out\"\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	r := newRunner(t)
	r.Dot = render.DotRunner{Binary: bin, TempDir: t.TempDir()}
	ctx := context.Background()
	res, err := r.Build(ctx, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	artifacts, err := r.Export(ctx, res.Tree, ExportOptions{Formats: []string{FormatSVG}})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.TrimSpace(string(artifacts[FormatSVG])) != "<svg/>" {
		t.Errorf("svg = %q", artifacts[FormatSVG])
	}

	r.Dot.Binary = filepath.Join(t.TempDir(), "missing")
	_, err = r.Export(ctx, res.Tree, ExportOptions{Formats: []string{FormatPNG}})
	if !errors.Is(err, errors.ErrCodeToolNotFound) {
		t.Errorf("err = %v, want TOOL_NOT_FOUND", err)
	}
}

// ttlCache records the TTL of every write.
type ttlCache struct {
	cache.Cache
	mu   sync.Mutex
	ttls []time.Duration
}

func (c *ttlCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.ttls = append(c.ttls, ttl)
	c.mu.Unlock()
	return c.Cache.Set(ctx, key, data, ttl)
}

func TestReferenceTTL(t *testing.T) {
	tests := []struct {
		name string
		opts []RunnerOption
		want time.Duration
	}{
		{"default", nil, TTLReferences},
		{"configured", []RunnerOption{WithReferenceTTL(time.Hour)}, time.Hour},
		{"zero keeps default", []RunnerOption{WithReferenceTTL(0)}, TTLReferences},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := cache.NewFileCache(t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			c := &ttlCache{Cache: fc}
			r := NewRunner(workspace(t), c, nil, nil, "", append(tt.opts, WithMemoSize(8))...)
			if _, err := r.Build(context.Background(), BuildOptions{}); err != nil {
				t.Fatalf("Build: %v", err)
			}
			if len(c.ttls) != 3 {
				t.Fatalf("%d cache writes, want 3", len(c.ttls))
			}
			for _, ttl := range c.ttls {
				if ttl != tt.want {
					t.Errorf("ttl = %v, want %v", ttl, tt.want)
				}
			}
		})
	}
}

func TestBuildSeesEditedWorkspace(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	manifest := filepath.Join(dir, "reftree.toml")
	write := func(refs string) {
		t.Helper()
		content := "startup = \"app\"\n" +
			"[[project]]\nname = \"app\"\nreferences = [" + refs + "]\n" +
			"[[project]]\nname = \"lib\"\n" +
			"[[project]]\nname = \"extra\"\n"
		if err := os.WriteFile(manifest, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	c, err := cache.NewFileCache(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	build := func() int {
		t.Helper()
		ws, err := source.Detect(ctx, dir)
		if err != nil {
			t.Fatalf("Detect: %v", err)
		}
		res, err := NewRunner(ws, c, nil, nil, dir).Build(ctx, BuildOptions{})
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		return res.Tree.Len()
	}

	write(`"lib"`)
	if n := build(); n != 2 {
		t.Fatalf("first build: %d nodes, want 2", n)
	}
	if n := build(); n != 2 {
		t.Fatalf("cached build: %d nodes, want 2", n)
	}
	write(`"lib", "extra"`)
	if n := build(); n != 3 {
		t.Errorf("after edit: %d nodes, want 3", n)
	}
}
