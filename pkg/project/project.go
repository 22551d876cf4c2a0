// Package project defines the project model shared by reftree's tree builder
// and the workspace sources that feed it.
//
// A [Project] is an opaque, stable identifier with a human-readable label.
// The tree builder never inspects identifiers; it only asks a [Source] for the
// direct references of a project. Workspace scanners (see pkg/source) also
// implement [Catalog] so that callers can enumerate projects and resolve a
// user-supplied name to a root.
package project

import (
	"context"
	"slices"
	"strings"

	"github.com/reftree/reftree/pkg/errors"
)

// Project is one buildable unit of a workspace.
//
// Equality is by ID. Two Project values with the same ID but different labels
// describe the same project.
type Project struct {
	ID   string `json:"id"`             // Stable identity (module path, relative project file path, ...)
	Name string `json:"name,omitempty"` // Display label; falls back to ID
	Path string `json:"path,omitempty"` // Location on disk, if any
	Kind string `json:"kind,omitempty"` // Source-specific kind ("go", "cargo", "csproj", ...)
}

// Label returns the display name of the project.
func (p Project) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Matches reports whether name refers to p, either by label or by ID.
// Label comparison is case-insensitive, ID comparison is exact.
func (p Project) Matches(name string) bool {
	return p.ID == name || strings.EqualFold(p.Name, name)
}

func (p Project) String() string { return p.Label() }

// Source enumerates the direct references of a project.
//
// Implementations should return references in a deterministic order; the
// tree builder uses that order for tie-breaks. A Source may be slow; wrap it
// with a memoizing source when the same project is queried repeatedly.
type Source interface {
	References(ctx context.Context, p Project) ([]Project, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, p Project) ([]Project, error)

// References calls f(ctx, p).
func (f SourceFunc) References(ctx context.Context, p Project) ([]Project, error) {
	return f(ctx, p)
}

// Catalog lists the projects of a workspace.
type Catalog interface {
	// Projects returns every project in the workspace in a stable order.
	Projects(ctx context.Context) ([]Project, error)
	// Startup returns the workspace's designated default project, if any.
	Startup(ctx context.Context) (Project, bool)
}

// Workspace is a Catalog that can also answer reference queries.
type Workspace interface {
	Source
	Catalog
	// Name identifies the workspace (usually its root directory or file).
	Name() string
}

// Lookup finds the project called name in c, matching by ID or label.
// An unknown name yields an UNRESOLVED_PROJECT error.
func Lookup(ctx context.Context, c Catalog, name string) (Project, error) {
	projects, err := c.Projects(ctx)
	if err != nil {
		return Project{}, err
	}
	if i := slices.IndexFunc(projects, func(p Project) bool { return p.ID == name }); i >= 0 {
		return projects[i], nil
	}
	if i := slices.IndexFunc(projects, func(p Project) bool { return p.Matches(name) }); i >= 0 {
		return projects[i], nil
	}
	return Project{}, errors.New(errors.ErrCodeUnresolvedProject, "no project named %q", name)
}

// Root picks the root project for a build: the named project when name is
// set, otherwise the workspace's startup project.
func Root(ctx context.Context, c Catalog, name string) (Project, error) {
	if name != "" {
		return Lookup(ctx, c, name)
	}
	if p, ok := c.Startup(ctx); ok {
		return p, nil
	}
	return Project{}, errors.New(errors.ErrCodeUnresolvedProject, "no project given and the workspace has no startup project")
}
