package source

import (
	"context"

	"github.com/reftree/reftree/pkg/project"
)

// VirtualID is the ID of the synthetic root added by Virtual.
const VirtualID = "__workspace__"

// IsVirtual reports whether p is the synthetic workspace root.
func IsVirtual(p project.Project) bool { return p.ID == VirtualID }

type virtual struct {
	project.Workspace
	root project.Project
}

// Virtual wraps ws with a synthetic root project that references every
// project of the workspace. Building a tree from that root levels the whole
// workspace at once; renderers hide the root and its edges.
//
// The root is listed first by Projects and is the Startup project.
func Virtual(ws project.Workspace) project.Workspace {
	return &virtual{
		Workspace: ws,
		root:      project.Project{ID: VirtualID, Name: ws.Name(), Kind: "virtual"},
	}
}

func (v *virtual) Projects(ctx context.Context) ([]project.Project, error) {
	projects, err := v.Workspace.Projects(ctx)
	if err != nil {
		return nil, err
	}
	return append([]project.Project{v.root}, projects...), nil
}

func (v *virtual) Startup(context.Context) (project.Project, bool) { return v.root, true }

func (v *virtual) References(ctx context.Context, p project.Project) ([]project.Project, error) {
	if IsVirtual(p) {
		return v.Workspace.Projects(ctx)
	}
	return v.Workspace.References(ctx, p)
}
