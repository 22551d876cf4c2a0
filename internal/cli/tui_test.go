package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/reftree/reftree/pkg/pipeline"
	"github.com/reftree/reftree/pkg/project"
	"github.com/reftree/reftree/pkg/source"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestProjectPicker(t *testing.T) {
	projects := []project.Project{{ID: "App"}, {ID: "Data"}, {ID: "Core"}}

	m := NewProjectPicker(projects, "Data")
	if m.Cursor != 1 {
		t.Fatalf("cursor starts at %d, want the startup project (1)", m.Cursor)
	}

	var model tea.Model = m
	for _, k := range []string{"down", "down", "up", "j"} {
		model, _ = model.Update(key(k))
	}
	model, cmd := model.Update(key("enter"))
	picked := model.(ProjectPicker)
	if picked.Selected == nil || picked.Selected.ID != "Core" {
		t.Fatalf("selected %v, want Core", picked.Selected)
	}
	if cmd == nil {
		t.Error("enter should quit the picker")
	}

	model, _ = NewProjectPicker(projects, "").Update(key("q"))
	if model.(ProjectPicker).Selected != nil {
		t.Error("q should leave the selection empty")
	}
	if view := m.View(); !strings.Contains(view, "Data") || !strings.Contains(view, iconStartup) {
		t.Errorf("picker view missing rows:\n%s", view)
	}
}

func newTestBrowser(t *testing.T) LevelBrowser {
	t.Helper()
	ws, err := source.NewStatic("acme",
		[]project.Project{{ID: "App"}, {ID: "Data"}, {ID: "Core"}},
		map[string][]string{"App": {"Data", "Core"}, "Data": {"Core"}},
		"App")
	if err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(ws, nil, nil, log.New(io.Discard), "")
	rebuild := func(ctx context.Context, name string) (*pipeline.Result, error) {
		return runner.Build(ctx, pipeline.BuildOptions{Project: name})
	}
	res, err := rebuild(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	return NewLevelBrowser(context.Background(), res.Tree, rebuild)
}

// press feeds keys to m, running any command that rebuilds the tree.
func press(m tea.Model, keys ...string) tea.Model {
	for _, k := range keys {
		var cmd tea.Cmd
		m, cmd = m.Update(key(k))
		if cmd == nil {
			continue
		}
		if msg, ok := cmd().(rebuiltMsg); ok {
			m, _ = m.Update(msg)
		}
	}
	return m
}

func TestLevelBrowserNavigation(t *testing.T) {
	tests := []struct {
		keys []string
		want string
	}{
		{nil, "App"},
		{[]string{"left"}, "App"},
		{[]string{"right"}, "Data"},
		{[]string{"right", "l"}, "Core"},
		{[]string{"right", "right", "right"}, "Core"},
		{[]string{"right", "right", "h"}, "Data"},
		{[]string{"right", "down", "up"}, "Data"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.keys, ","), func(t *testing.T) {
			m := press(newTestBrowser(t), tt.keys...).(LevelBrowser)
			if got := m.Selected().Label(); got != tt.want {
				t.Errorf("selected %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLevelBrowserReroot(t *testing.T) {
	m := press(newTestBrowser(t), "enter").(LevelBrowser)
	if m.busy || len(m.history) != 0 {
		t.Fatal("enter on the root should do nothing")
	}

	m = press(m, "right", "enter").(LevelBrowser)
	if m.Err != nil {
		t.Fatalf("re-root: %v", m.Err)
	}
	if root := m.Tree.Root(); root.Label() != "Data" || len(m.Levels) != 2 {
		t.Fatalf("after re-root: root %s with %d levels, want Data with 2", root.Label(), len(m.Levels))
	}
	if m.Col != 0 || m.Row != 0 {
		t.Errorf("cursor = (%d,%d), want (0,0)", m.Col, m.Row)
	}

	m = press(m, "backspace").(LevelBrowser)
	if root := m.Tree.Root(); root.Label() != "App" || len(m.Levels) != 3 {
		t.Fatalf("after back: root %s with %d levels, want App with 3", root.Label(), len(m.Levels))
	}
	if len(m.history) != 0 {
		t.Errorf("history = %v, want empty", m.history)
	}
}

func TestLevelBrowserView(t *testing.T) {
	m := press(newTestBrowser(t), "right").(LevelBrowser)
	view := m.View()
	for _, want := range []string{"App", "Data", "Core", "3 nodes · 3 levels", "depth 1 · in 1 · out 1", "attached under App"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
