package source

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"

	"golang.org/x/mod/modfile"

	"github.com/reftree/reftree/pkg/errors"
	"github.com/reftree/reftree/pkg/project"
)

// GoWork loads Go multi-module workspaces, either from go.work or by
// collecting every go.mod below a root module. A module references another
// workspace module when it requires it, directly or through a local replace.
type GoWork struct{}

func (GoWork) Kind() string { return "go" }

func (GoWork) Supports(name string) bool { return name == "go.work" || name == "go.mod" }

func (GoWork) Detect(dir string) (string, bool) {
	for _, name := range []string{"go.work", "go.mod"} {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p, true
		}
	}
	return "", false
}

func (g GoWork) Load(_ context.Context, file string) (*Workspace, error) {
	if info, err := os.Stat(file); err == nil && info.IsDir() {
		found, ok := g.Detect(file)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidWorkspace, "no go.work or go.mod in %s", file)
		}
		file = found
	}

	root := filepath.Dir(file)
	var dirs []string
	var err error
	if filepath.Base(file) == "go.work" {
		dirs, err = workDirs(file)
	} else {
		dirs, err = moduleDirs(root)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "scan %s", file)
	}

	var projects []project.Project
	byDir := make(map[string]string, len(dirs))
	startup := ""
	for _, dir := range dirs {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "read module in %s", dir)
		}
		modPath := modfile.ModulePath(data)
		if modPath == "" {
			return nil, errors.New(errors.ErrCodeInvalidWorkspace, "%s/go.mod has no module directive", dir)
		}
		projects = append(projects, project.Project{
			ID:   modPath,
			Name: moduleName(modPath),
			Path: dir,
			Kind: "go",
		})
		byDir[filepath.Clean(dir)] = modPath
		if filepath.Clean(dir) == filepath.Clean(root) || startup == "" {
			startup = modPath
		}
	}
	if len(projects) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidWorkspace, "%s lists no modules", file)
	}

	ids := make(map[string]bool, len(projects))
	for _, p := range projects {
		ids[p.ID] = true
	}

	var w *Workspace
	parse := func(_ context.Context, p project.Project) ([]project.Project, error) {
		gomod := filepath.Join(p.Path, "go.mod")
		data, err := os.ReadFile(gomod)
		if err != nil {
			return nil, err
		}
		f, err := modfile.Parse(gomod, data, nil)
		if err != nil {
			return nil, err
		}

		local := make(map[string]string) // required path -> workspace module behind a local replace
		for _, r := range f.Replace {
			if !modfile.IsDirectoryPath(r.New.Path) {
				continue
			}
			dir := r.New.Path
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(p.Path, dir)
			}
			if id, ok := byDir[filepath.Clean(dir)]; ok {
				local[r.Old.Path] = id
			}
		}

		var refs []project.Project
		for _, r := range f.Require {
			id := r.Mod.Path
			if target, ok := local[id]; ok {
				id = target
			}
			if ids[id] && id != p.ID {
				refs = append(refs, w.project(id))
			}
		}
		return refs, nil
	}
	w = NewWorkspace(filepath.Base(root), "go", projects, startup, parse)
	if filepath.Base(file) == "go.work" {
		w.track(file)
	}
	for _, p := range projects {
		w.track(filepath.Join(p.Path, "go.mod"))
	}
	return w, nil
}

func workDirs(file string) ([]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	wf, err := modfile.ParseWork(file, data, nil)
	if err != nil {
		return nil, err
	}
	root := filepath.Dir(file)
	dirs := make([]string, 0, len(wf.Use))
	for _, u := range wf.Use {
		dir := filepath.FromSlash(u.Path)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

func moduleDirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == "go.mod" {
			dirs = append(dirs, filepath.Dir(p))
		}
		return nil
	})
	slices.Sort(dirs)
	return dirs, err
}

var majorSuffix = regexp.MustCompile(`^v[0-9]+$`)

// moduleName shortens a module path to its last element, keeping the
// element before a major version suffix: example.com/lib/v2 -> lib/v2.
func moduleName(modPath string) string {
	base := path.Base(modPath)
	if majorSuffix.MatchString(base) {
		return path.Base(path.Dir(modPath)) + "/" + base
	}
	return base
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
