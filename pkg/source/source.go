// Package source discovers the projects of a workspace on disk and answers
// reference queries for them.
//
// Each supported layout has a [Loader]:
//   - reftree.toml with [[project]] tables (explicit manifest)
//   - go.work, or a tree of go.mod files
//   - a Cargo workspace
//   - a Visual Studio solution or a tree of MSBuild project files
//
// [Detect] picks the loader from the files in a directory. Loaders list
// projects eagerly but read a project's references only when asked, so large
// workspaces open quickly. Wrap the result with [Memo], [Cached] or
// [Prefetch] when a build will ask for the same project many times.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/reftree/reftree/pkg/errors"
	"github.com/reftree/reftree/pkg/project"
)

// Loader opens one kind of workspace.
type Loader interface {
	// Kind names the layout ("manifest", "go", "cargo", "msbuild").
	Kind() string
	// Supports reports whether the loader reads files with this base name.
	Supports(filename string) bool
	// Detect returns the file in dir that this loader would open.
	Detect(dir string) (string, bool)
	// Load reads the workspace rooted at path, which is either the file
	// returned by Detect or a directory.
	Load(ctx context.Context, path string) (*Workspace, error)
}

// Loaders lists the built-in loaders in detection priority order.
func Loaders() []Loader {
	return []Loader{Manifest{}, GoWork{}, Cargo{}, MSBuild{}}
}

// Detect opens the workspace at path. A directory is probed with every
// loader in priority order; a file goes to the first loader that supports
// its name.
func Detect(ctx context.Context, path string) (*Workspace, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "open workspace")
	}

	if !info.IsDir() {
		for _, l := range Loaders() {
			if l.Supports(filepath.Base(path)) {
				return l.Load(ctx, path)
			}
		}
		return nil, errors.New(errors.ErrCodeInvalidWorkspace, "unsupported workspace file %s", filepath.Base(path))
	}
	for _, l := range Loaders() {
		if found, ok := l.Detect(path); ok {
			return l.Load(ctx, found)
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidWorkspace,
		"no reftree.toml, go.work, go.mod, Cargo.toml or solution found in %s", path)
}

// ParseFunc reads the direct references of one project.
type ParseFunc func(ctx context.Context, p project.Project) ([]project.Project, error)

// Workspace is a project list plus a lazy reference parser. It implements
// project.Workspace and is safe for concurrent use when its ParseFunc is.
type Workspace struct {
	name     string
	kind     string
	projects []project.Project
	byID     map[string]int
	startup  string
	parse    ParseFunc

	static map[string][]project.Project // adjacency of NewStatic workspaces
	files  []string                     // files the references are read from

	fpOnce      sync.Once
	fingerprint string
}

// NewWorkspace builds a workspace from a project list. startup may be empty.
func NewWorkspace(name, kind string, projects []project.Project, startup string, parse ParseFunc) *Workspace {
	w := &Workspace{
		name:     name,
		kind:     kind,
		projects: projects,
		byID:     make(map[string]int, len(projects)),
		startup:  startup,
		parse:    parse,
	}
	for i, p := range projects {
		w.byID[p.ID] = i
	}
	return w
}

// NewStatic builds a workspace from an adjacency list keyed by project ID.
// Every referenced ID must be declared in projects.
func NewStatic(name string, projects []project.Project, refs map[string][]string, startup string) (*Workspace, error) {
	w := NewWorkspace(name, "static", projects, startup, nil)
	resolved := make(map[string][]project.Project, len(refs))
	for from, to := range refs {
		if _, ok := w.byID[from]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidWorkspace, "references declared for unknown project %q", from)
		}
		for _, id := range to {
			i, ok := w.byID[id]
			if !ok {
				return nil, errors.New(errors.ErrCodeInvalidWorkspace, "%q references unknown project %q", from, id)
			}
			resolved[from] = append(resolved[from], projects[i])
		}
	}
	w.static = resolved
	w.parse = func(_ context.Context, p project.Project) ([]project.Project, error) {
		return resolved[p.ID], nil
	}
	return w, nil
}

// track records files whose content defines the workspace's references.
func (w *Workspace) track(files ...string) {
	w.files = append(w.files, files...)
}

// Fingerprint hashes what the workspace's references are read from: the
// project list, the adjacency of static workspaces and the content of every
// file the loader parses. It is computed on first call, which callers make
// right after loading. Any edit to a tracked file changes it.
func (w *Workspace) Fingerprint() string {
	w.fpOnce.Do(func() {
		h := sha256.New()
		for _, p := range w.projects {
			fmt.Fprintf(h, "project %q %q\n", p.ID, p.Path)
			for _, ref := range w.static[p.ID] {
				fmt.Fprintf(h, "ref %q\n", ref.ID)
			}
		}
		for _, f := range w.files {
			data, err := os.ReadFile(f)
			if err != nil {
				fmt.Fprintf(h, "file %q missing\n", f)
				continue
			}
			fmt.Fprintf(h, "file %q %d\n", f, len(data))
			h.Write(data)
		}
		w.fingerprint = hex.EncodeToString(h.Sum(nil))[:16]
	})
	return w.fingerprint
}

func (w *Workspace) Name() string { return w.name }

// Kind returns the loader kind that produced the workspace.
func (w *Workspace) Kind() string { return w.kind }

func (w *Workspace) Projects(context.Context) ([]project.Project, error) {
	return append([]project.Project(nil), w.projects...), nil
}

func (w *Workspace) Startup(context.Context) (project.Project, bool) {
	if i, ok := w.byID[w.startup]; ok {
		return w.projects[i], true
	}
	return project.Project{}, false
}

// References parses p's references. Projects outside the list are parsed too
// when they carry a path; otherwise they are unresolved.
func (w *Workspace) References(ctx context.Context, p project.Project) ([]project.Project, error) {
	if i, ok := w.byID[p.ID]; ok {
		p = w.projects[i]
	} else if p.Path == "" {
		return nil, errors.New(errors.ErrCodeUnresolvedProject, "project %q is not part of %s", p.ID, w.name)
	}
	refs, err := w.parse(ctx, p)
	if err != nil {
		if errors.GetCode(err) != "" {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeUnresolvedProject, err, "read references of %q", p.ID)
	}
	return refs, nil
}

// project returns the listed project with the given ID, or a stub carrying
// only the ID.
func (w *Workspace) project(id string) project.Project {
	if i, ok := w.byID[id]; ok {
		return w.projects[i]
	}
	return project.Project{ID: id}
}

var _ project.Workspace = (*Workspace)(nil)

// skipDir reports whether a directory walk should skip name. It follows the
// go tool: hidden, underscore-prefixed, vendor and testdata directories are
// ignored, as are common build output folders.
func skipDir(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	switch name {
	case "vendor", "testdata", "node_modules", "target", "bin", "obj":
		return true
	}
	return false
}

// slashRel returns target relative to base with forward slashes.
func slashRel(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}
