package source

import (
	"bufio"
	"context"
	"encoding/xml"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/reftree/reftree/pkg/errors"
	"github.com/reftree/reftree/pkg/project"
)

// MSBuild loads Visual Studio solutions (.sln, .slnx), a directory tree of
// MSBuild project files, or a single project file. References come from
// <ProjectReference Include="..."/> items. Project IDs are project file paths
// relative to the workspace root, with forward slashes.
type MSBuild struct{}

var msbuildExts = []string{".csproj", ".vbproj", ".fsproj", ".vcxproj", ".sqlproj"}

// solutionFolderType is the project type GUID of solution folders.
const solutionFolderType = "2150E333-8FDC-42A3-9474-1A3956D46DE8"

var slnProject = regexp.MustCompile(`^Project\("\{([0-9A-Fa-f-]+)\}"\)\s*=\s*"([^"]*)"\s*,\s*"([^"]*)"`)

func (MSBuild) Kind() string { return "msbuild" }

func (MSBuild) Supports(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".sln" || ext == ".slnx" || slices.Contains(msbuildExts, ext)
}

// Detect prefers a solution in dir and falls back to dir itself when any
// project file lives below it.
func (MSBuild) Detect(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".sln" || ext == ".slnx") {
			return filepath.Join(dir, e.Name()), true
		}
	}
	files, err := scanProjectFiles(dir)
	return dir, err == nil && len(files) > 0
}

func (m MSBuild) Load(_ context.Context, path string) (*Workspace, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "open %s", path)
	}

	var (
		root     string
		projects []project.Project
		name     string
	)
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case info.IsDir():
		root, name = path, filepath.Base(path)
		files, err := scanProjectFiles(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "scan %s", path)
		}
		for _, f := range files {
			projects = append(projects, msbuildProject(root, f, ""))
		}
	case ext == ".sln" || ext == ".slnx":
		root, name = filepath.Dir(path), strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		read := readSln
		if ext == ".slnx" {
			read = readSlnx
		}
		entries, err := read(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidWorkspace, err, "parse %s", path)
		}
		for _, e := range entries {
			projects = append(projects, msbuildProject(root, filepath.Join(root, e.path), e.name))
		}
	default:
		root, name = filepath.Dir(path), filepath.Base(path)
		projects = []project.Project{msbuildProject(root, path, "")}
	}
	if len(projects) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidWorkspace, "%s contains no MSBuild projects", path)
	}

	var w *Workspace
	parse := func(_ context.Context, p project.Project) ([]project.Project, error) {
		includes, err := projectReferences(p.Path)
		if err != nil {
			return nil, err
		}
		refs := make([]project.Project, 0, len(includes))
		for _, inc := range includes {
			target := resolveInclude(root, filepath.Dir(p.Path), inc)
			ref := msbuildProject(root, target, "")
			if listed := w.project(ref.ID); listed.Path != "" {
				ref = listed
			}
			refs = append(refs, ref)
		}
		return refs, nil
	}
	w = NewWorkspace(name, "msbuild", projects, projects[0].ID, parse)
	if !info.IsDir() {
		w.track(path)
	}
	for _, p := range projects {
		if p.Path != path {
			w.track(p.Path)
		}
	}
	return w, nil
}

func msbuildProject(root, file, name string) project.Project {
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	return project.Project{
		ID:   slashRel(root, file),
		Name: name,
		Path: file,
		Kind: strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), "."),
	}
}

type slnEntry struct {
	name string
	path string
}

// readSln extracts project entries from a classic text solution, skipping
// solution folders and entries that are not MSBuild project files (web
// sites, shared items).
func readSln(path string) ([]slnEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []slnEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m := slnProject.FindStringSubmatch(strings.TrimSpace(sc.Text()))
		if m == nil || strings.EqualFold(m[1], solutionFolderType) {
			continue
		}
		rel := filepath.FromSlash(strings.ReplaceAll(m[3], `\`, "/"))
		if !slices.Contains(msbuildExts, strings.ToLower(filepath.Ext(rel))) {
			continue
		}
		out = append(out, slnEntry{name: m[2], path: rel})
	}
	return out, sc.Err()
}

type slnxFile struct {
	Projects []slnxProject `xml:"Project"`
	Folders  []struct {
		Projects []slnxProject `xml:"Project"`
	} `xml:"Folder"`
}

type slnxProject struct {
	Path string `xml:"Path,attr"`
}

// readSlnx reads the XML solution format, root projects first, then the
// projects of each solution folder in document order.
func readSlnx(path string) ([]slnEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s slnxFile
	if err := xml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	all := s.Projects
	for _, f := range s.Folders {
		all = append(all, f.Projects...)
	}
	out := make([]slnEntry, 0, len(all))
	for _, p := range all {
		rel := filepath.FromSlash(strings.ReplaceAll(p.Path, `\`, "/"))
		out = append(out, slnEntry{path: rel})
	}
	return out, nil
}

type msbuildFile struct {
	ItemGroups []struct {
		References []struct {
			Include string `xml:"Include,attr"`
		} `xml:"ProjectReference"`
	} `xml:"ItemGroup"`
}

// projectReferences returns the Include attributes of every
// ProjectReference item. Old-style projects declare the MSBuild XML
// namespace; matching is by local name so both styles parse.
func projectReferences(file string) ([]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	var f msbuildFile
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	var out []string
	for _, g := range f.ItemGroups {
		for _, r := range g.References {
			if inc := strings.TrimSpace(r.Include); inc != "" {
				out = append(out, inc)
			}
		}
	}
	return out, nil
}

// resolveInclude turns a ProjectReference Include into an absolute path,
// expanding the well-known directory properties.
func resolveInclude(root, projectDir, include string) string {
	r := strings.NewReplacer(
		"$(SolutionDir)", root+"/",
		"$(MSBuildProjectDirectory)", projectDir+"/",
		"$(MSBuildThisFileDirectory)", projectDir+"/",
		`\`, "/",
	)
	p := filepath.FromSlash(r.Replace(include))
	if !filepath.IsAbs(p) {
		p = filepath.Join(projectDir, p)
	}
	return filepath.Clean(p)
}

func scanProjectFiles(root string) ([]string, error) {
	var files []string
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
		if slices.Contains(msbuildExts, strings.ToLower(filepath.Ext(d.Name()))) {
			files = append(files, p)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}
