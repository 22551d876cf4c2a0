package source

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/reftree/reftree/pkg/errors"
	"github.com/reftree/reftree/pkg/project"
)

// Cargo loads Cargo workspaces. Members come from [workspace] members
// (globs allowed) minus exclude. A member references another member through
// a path dependency or a `workspace = true` dependency naming it, in any of
// the dependency tables, target-specific ones included.
type Cargo struct{}

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Workspace *struct {
		Members        []string `toml:"members"`
		Exclude        []string `toml:"exclude"`
		DefaultMembers []string `toml:"default-members"`
	} `toml:"workspace"`
}

var cargoDepTables = []string{"dependencies", "dev-dependencies", "build-dependencies"}

func (Cargo) Kind() string { return "cargo" }

func (Cargo) Supports(name string) bool { return name == "Cargo.toml" }

// Detect accepts a Cargo.toml that has a [workspace] table.
func (Cargo) Detect(dir string) (string, bool) {
	path := filepath.Join(dir, "Cargo.toml")
	var m cargoManifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return "", false
	}
	return path, m.Workspace != nil
}

func (c Cargo) Load(_ context.Context, file string) (*Workspace, error) {
	if info, err := os.Stat(file); err == nil && info.IsDir() {
		file = filepath.Join(file, "Cargo.toml")
	}
	var m cargoManifest
	if _, err := toml.DecodeFile(file, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "parse %s", file)
	}
	if m.Workspace == nil {
		return nil, errors.New(errors.ErrCodeInvalidWorkspace, "%s has no [workspace] table", file)
	}

	root := filepath.Dir(file)
	dirs, err := cargoMemberDirs(root, m.Package.Name != "", m.Workspace.Members, m.Workspace.Exclude)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "expand members of %s", file)
	}

	var projects []project.Project
	byDir := make(map[string]string)
	byName := make(map[string]string)
	for _, dir := range dirs {
		var member cargoManifest
		if _, err := toml.DecodeFile(filepath.Join(dir, "Cargo.toml"), &member); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "parse member %s", dir)
		}
		if member.Package.Name == "" {
			continue
		}
		id := member.Package.Name
		projects = append(projects, project.Project{
			ID:   id,
			Name: id,
			Path: dir,
			Kind: "cargo",
		})
		byDir[filepath.Clean(dir)] = id
		byName[id] = id
	}
	if len(projects) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidWorkspace, "%s has no member packages", file)
	}

	startup := projects[0].ID
	if m.Package.Name != "" {
		startup = m.Package.Name
	} else if len(m.Workspace.DefaultMembers) > 0 {
		if id, ok := byDir[filepath.Clean(filepath.Join(root, m.Workspace.DefaultMembers[0]))]; ok {
			startup = id
		}
	}

	var w *Workspace
	parse := func(_ context.Context, p project.Project) ([]project.Project, error) {
		deps, err := cargoDependencies(filepath.Join(p.Path, "Cargo.toml"))
		if err != nil {
			return nil, err
		}
		var refs []project.Project
		for _, d := range deps {
			id, ok := "", false
			if d.path != "" {
				id, ok = byDir[filepath.Clean(filepath.Join(p.Path, d.path))]
			} else if d.workspace {
				id, ok = byName[d.pkg]
			}
			if ok && id != p.ID {
				refs = append(refs, w.project(id))
			}
		}
		return refs, nil
	}
	w = NewWorkspace(filepath.Base(root), "cargo", projects, startup, parse)
	w.track(file)
	for _, p := range projects {
		if cargo := filepath.Join(p.Path, "Cargo.toml"); cargo != file {
			w.track(cargo)
		}
	}
	return w, nil
}

func cargoMemberDirs(root string, rootIsPackage bool, members, exclude []string) ([]string, error) {
	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excluded[filepath.Clean(filepath.Join(root, e))] = true
	}

	var dirs []string
	seen := make(map[string]bool)
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if seen[dir] || excluded[dir] || !fileExists(filepath.Join(dir, "Cargo.toml")) {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	if rootIsPackage {
		add(root)
	}
	for _, pattern := range members {
		matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, err
		}
		slices.Sort(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return dirs, nil
}

type cargoDep struct {
	pkg       string // package name, after `package = "..."` renames
	path      string
	workspace bool
}

// cargoDependencies lists the dependencies of a Cargo.toml in file order.
// Key order comes from the TOML metadata since the decoded tables are maps.
func cargoDependencies(file string) ([]cargoDep, error) {
	var raw map[string]any
	md, err := toml.DecodeFile(file, &raw)
	if err != nil {
		return nil, err
	}

	var out []cargoDep
	seen := make(map[string]bool)
	for _, key := range md.Keys() {
		// Dotted and inline specs also list their inner keys; trim them
		// back to the dependency's own key.
		var table []string
		switch {
		case len(key) >= 2 && slices.Contains(cargoDepTables, key[0]):
			table = key[:2]
		case len(key) >= 4 && key[0] == "target" && slices.Contains(cargoDepTables, key[2]):
			table = key[:4]
		default:
			continue
		}

		d := cargoDep{pkg: table[len(table)-1]}
		if spec, ok := lookupTable(raw, table); ok {
			if pkg, ok := spec["package"].(string); ok {
				d.pkg = pkg
			}
			if path, ok := spec["path"].(string); ok {
				d.path = filepath.FromSlash(path)
			}
			d.workspace, _ = spec["workspace"].(bool)
		}
		if seen[d.pkg] {
			continue
		}
		seen[d.pkg] = true
		out = append(out, d)
	}
	return out, nil
}

func lookupTable(raw map[string]any, key []string) (map[string]any, bool) {
	cur := raw
	for _, k := range key {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
