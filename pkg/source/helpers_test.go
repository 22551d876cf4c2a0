package source

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/reftree/reftree/pkg/project"
)

// writeTree creates files below a fresh temp dir and returns the dir.
// Keys are slash-separated relative paths.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func projectIDs(ps []project.Project) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

// refIDs returns the reference IDs of the project with the given ID.
func refIDs(t *testing.T, w project.Workspace, id string) []string {
	t.Helper()
	p, err := project.Lookup(context.Background(), w, id)
	if err != nil {
		t.Fatalf("Lookup(%s): %v", id, err)
	}
	refs, err := w.References(context.Background(), p)
	if err != nil {
		t.Fatalf("References(%s): %v", id, err)
	}
	return projectIDs(refs)
}

func assertIDs(t *testing.T, what string, got, want []string) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("%s = %v, want %v", what, got, want)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
