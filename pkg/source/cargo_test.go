package source

import (
	"context"
	"testing"

	"github.com/reftree/reftree/pkg/errors"
)

func TestCargoLoad(t *testing.T) {
	ctx := context.Background()
	root := writeTree(t, map[string]string{
		"Cargo.toml": `
[workspace]
members = ["crates/*", "cli"]
exclude = ["crates/experimental"]

[workspace.dependencies]
engine = { path = "crates/engine" }
`,
		"cli/Cargo.toml": `
[package]
name = "acme-cli"

[dependencies]
serde = "1"
engine.workspace = true
utils = { path = "../crates/utils" }

[dev-dependencies]
testkit = { path = "../crates/testkit" }
`,
		"crates/engine/Cargo.toml": `
[package]
name = "engine"

[dependencies.utils]
path = "../utils"

[target.'cfg(unix)'.dependencies]
sys = { package = "acme-sys", path = "../sys" }
`,
		"crates/utils/Cargo.toml":        "[package]\nname = \"utils\"\n",
		"crates/testkit/Cargo.toml":      "[package]\nname = \"testkit\"\n\n[dependencies]\nutils = { workspace = true }\n",
		"crates/sys/Cargo.toml":          "[package]\nname = \"acme-sys\"\n",
		"crates/experimental/Cargo.toml": "[package]\nname = \"experimental\"\n",
	})

	w, err := Detect(ctx, root)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if w.Kind() != "cargo" {
		t.Fatalf("Kind = %s, want cargo", w.Kind())
	}

	projects, _ := w.Projects(ctx)
	assertIDs(t, "projects", projectIDs(projects), []string{"engine", "acme-sys", "testkit", "utils", "acme-cli"})

	assertIDs(t, "cli refs", refIDs(t, w, "acme-cli"), []string{"engine", "utils", "testkit"})
	assertIDs(t, "engine refs", refIDs(t, w, "engine"), []string{"utils", "acme-sys"})
	// utils is not declared in [workspace.dependencies] but names a member.
	assertIDs(t, "testkit refs", refIDs(t, w, "testkit"), []string{"utils"})
	assertIDs(t, "utils refs", refIDs(t, w, "utils"), nil)
}

func TestCargoWithoutWorkspace(t *testing.T) {
	root := writeTree(t, map[string]string{"Cargo.toml": "[package]\nname = \"solo\"\n"})
	if _, ok := (Cargo{}).Detect(root); ok {
		t.Error("a plain package should not be detected as a workspace")
	}
	if _, err := (Cargo{}).Load(context.Background(), root); !errors.Is(err, errors.ErrCodeInvalidWorkspace) {
		t.Errorf("Load error = %v, want INVALID_WORKSPACE", err)
	}
}
