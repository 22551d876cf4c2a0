package source

import (
	"context"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/reftree/reftree/pkg/errors"
	"github.com/reftree/reftree/pkg/project"
)

// ManifestFile is the name of the explicit workspace manifest. The same file
// may carry reftree settings; see internal/config.
const ManifestFile = "reftree.toml"

// Manifest loads workspaces declared by hand:
//
//	name = "acme"
//	startup = "App"
//
//	[[project]]
//	name = "App"
//	path = "src/App"
//	references = ["Core", "Data"]
//
//	[[project]]
//	name = "Core"
//
// Project names are the identities. Every reference must name a declared
// project.
type Manifest struct{}

type manifestFile struct {
	Name     string            `toml:"name"`
	Startup  string            `toml:"startup"`
	Projects []manifestProject `toml:"project"`
}

type manifestProject struct {
	Name       string   `toml:"name"`
	Label      string   `toml:"label"`
	Path       string   `toml:"path"`
	References []string `toml:"references"`
}

func (Manifest) Kind() string { return "manifest" }

func (Manifest) Supports(name string) bool { return name == ManifestFile }

// Detect accepts reftree.toml only when it declares at least one project, so
// a settings-only file falls through to the other loaders.
func (Manifest) Detect(dir string) (string, bool) {
	path := filepath.Join(dir, ManifestFile)
	var m manifestFile
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return "", false
	}
	return path, len(m.Projects) > 0
}

func (Manifest) Load(_ context.Context, path string) (*Workspace, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, ManifestFile)
	}
	var m manifestFile
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "parse %s", path)
	}
	if len(m.Projects) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidWorkspace, "%s declares no [[project]]", path)
	}

	dir := filepath.Dir(path)
	name := m.Name
	if name == "" {
		name = filepath.Base(dir)
	}

	projects := make([]project.Project, 0, len(m.Projects))
	refs := make(map[string][]string, len(m.Projects))
	seen := make(map[string]bool, len(m.Projects))
	for _, mp := range m.Projects {
		if err := errors.ValidateProjectName(mp.Name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "%s", path)
		}
		if seen[mp.Name] {
			return nil, errors.New(errors.ErrCodeInvalidWorkspace, "%s: project %q declared twice", path, mp.Name)
		}
		seen[mp.Name] = true

		p := project.Project{ID: mp.Name, Name: mp.Name, Kind: "manifest"}
		if mp.Label != "" {
			p.Name = mp.Label
		}
		if mp.Path != "" {
			p.Path = filepath.Join(dir, filepath.FromSlash(mp.Path))
		}
		projects = append(projects, p)
		refs[mp.Name] = mp.References
	}

	if m.Startup != "" && !seen[m.Startup] {
		return nil, errors.New(errors.ErrCodeInvalidWorkspace, "%s: startup project %q is not declared", path, m.Startup)
	}
	w, err := NewStatic(name, projects, refs, m.Startup)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "%s", path)
	}
	w.kind = "manifest"
	w.track(path)
	return w, nil
}
