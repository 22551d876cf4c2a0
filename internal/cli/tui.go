package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/reftree/reftree/pkg/errors"
	"github.com/reftree/reftree/pkg/pipeline"
	"github.com/reftree/reftree/pkg/project"
	"github.com/reftree/reftree/pkg/reftree"
)

var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

	browseSelected    = lipgloss.NewStyle().Bold(true).Reverse(true)
	browseReferencing = lipgloss.NewStyle().Foreground(colorYellow)
	browseReferenced  = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// ProjectPicker - Interactive root selection
// =============================================================================

// ProjectPicker is the bubbletea model for choosing the root project.
type ProjectPicker struct {
	Projects []project.Project
	Startup  string
	Cursor   int
	Offset   int
	Height   int
	Selected *project.Project
}

// NewProjectPicker starts with the cursor on the startup project.
func NewProjectPicker(projects []project.Project, startup string) ProjectPicker {
	m := ProjectPicker{Projects: projects, Startup: startup, Height: 15}
	for i, p := range projects {
		if p.ID == startup {
			m.Cursor = i
			m.scroll()
		}
	}
	return m
}

func (m ProjectPicker) Init() tea.Cmd {
	return nil
}

func (m ProjectPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Projects)-1 {
				m.Cursor++
			}
		case "enter":
			if len(m.Projects) == 0 {
				return m, nil
			}
			p := m.Projects[m.Cursor]
			m.Selected = &p
			return m, tea.Quit
		}
		m.scroll()
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.scroll()
	}
	return m, nil
}

func (m *ProjectPicker) scroll() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m ProjectPicker) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Project"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Projects))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		p := m.Projects[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := ""
		if p.ID == m.Startup {
			mark = iconStartup
		}
		rows = append(rows, []string{cursor, mark, p.Label(), p.Kind})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Project", "Kind").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			base := lipgloss.NewStyle()
			if col == 3 {
				base = base.Foreground(colorDim)
			}
			if m.Offset+row == m.Cursor {
				return base.Foreground(colorGreen).Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Projects))))
	return b.String()
}

// =============================================================================
// LevelBrowser - Walk the levels of a tree
// =============================================================================

// RebuildFunc builds the tree rooted at the named project.
type RebuildFunc func(ctx context.Context, project string) (*pipeline.Result, error)

type rebuiltMsg struct {
	res *pipeline.Result
	err error
}

// LevelBrowser is the bubbletea model that shows one column per level.
// Left and right move between levels, up and down within one. The nodes
// referencing the selection and the nodes it references are highlighted.
// Enter re-roots the tree on the selected project; backspace returns to the
// previous root.
type LevelBrowser struct {
	Tree   *reftree.Tree
	Levels [][]reftree.Node
	Col    int
	Row    int
	Height int
	Err    error

	ctx     context.Context
	rebuild RebuildFunc
	history []string
	busy    bool
}

// NewLevelBrowser shows t. rebuild may be nil, which disables re-rooting.
func NewLevelBrowser(ctx context.Context, t *reftree.Tree, rebuild RebuildFunc) LevelBrowser {
	return LevelBrowser{
		Tree:    t,
		Levels:  t.Levels(),
		Height:  20,
		ctx:     ctx,
		rebuild: rebuild,
	}
}

// Selected returns the node under the cursor.
func (m LevelBrowser) Selected() reftree.Node {
	return m.Levels[m.Col][m.Row]
}

func (m LevelBrowser) Init() tea.Cmd {
	return nil
}

func (m LevelBrowser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy && msg.String() != "ctrl+c" {
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			if m.Col > 0 {
				m.Col--
				m.Row = min(m.Row, len(m.Levels[m.Col])-1)
			}
		case "right", "l":
			if m.Col < len(m.Levels)-1 {
				m.Col++
				m.Row = min(m.Row, len(m.Levels[m.Col])-1)
			}
		case "up", "k":
			if m.Row > 0 {
				m.Row--
			}
		case "down", "j":
			if m.Row < len(m.Levels[m.Col])-1 {
				m.Row++
			}
		case "enter":
			sel := m.Selected()
			if sel.IsRoot() || m.rebuild == nil {
				return m, nil
			}
			m.history = append(m.history, m.Tree.Root().Project.ID)
			return m.reroot(sel.Project.ID)
		case "backspace", "u":
			if len(m.history) == 0 || m.rebuild == nil {
				return m, nil
			}
			prev := m.history[len(m.history)-1]
			m.history = m.history[:len(m.history)-1]
			return m.reroot(prev)
		}
	case rebuiltMsg:
		m.busy = false
		m.Err = msg.err
		if msg.res != nil {
			m.Tree = msg.res.Tree
			m.Levels = m.Tree.Levels()
			m.Col, m.Row = 0, 0
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m LevelBrowser) reroot(id string) (tea.Model, tea.Cmd) {
	m.busy = true
	m.Err = nil
	ctx, rebuild := m.ctx, m.rebuild
	return m, func() tea.Msg {
		res, err := rebuild(ctx, id)
		return rebuiltMsg{res: res, err: err}
	}
}

func (m LevelBrowser) View() string {
	var b strings.Builder

	root := m.Tree.Root()
	b.WriteString(StyleTitle.Render(root.Label()))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d nodes · %d levels", m.Tree.Len(), len(m.Levels))))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ level  ↑/↓ node  ⏎ re-root  ⌫ back  q quit"))
	b.WriteString("\n\n")

	sel := m.Selected()
	referencing := map[reftree.NodeID]bool{}
	for _, p := range m.Tree.Referencing(sel.ID) {
		referencing[p.ID] = true
	}
	referenced := map[reftree.NodeID]bool{}
	for _, c := range sel.Children {
		referenced[c] = true
	}

	cols := make([]string, 0, len(m.Levels))
	for d, level := range m.Levels {
		offset := 0
		if d == m.Col && m.Row >= m.Height {
			offset = m.Row - m.Height + 1
		}
		lines := []string{styleHeader.Render(fmt.Sprintf("%d", d))}
		for i := offset; i < len(level) && i < offset+m.Height; i++ {
			n := level[i]
			var style lipgloss.Style
			switch {
			case n.ID == sel.ID:
				style = browseSelected
			case referencing[n.ID]:
				style = browseReferencing
			case referenced[n.ID]:
				style = browseReferenced
			default:
				lines = append(lines, nodeLabel(n))
				continue
			}
			lines = append(lines, style.Render(n.Label()))
		}
		if hidden := len(level) - offset - m.Height; hidden > 0 {
			lines = append(lines, listDimStyle.Render(fmt.Sprintf("+%d", hidden)))
		}
		cols = append(cols, styleColumn.Render(strings.Join(lines, "\n")))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("%s  %s\n",
		StyleValue.Render(sel.Label()),
		listDimStyle.Render(fmt.Sprintf("depth %d · in %d · out %d", sel.Depth, sel.Inbound, sel.Outbound))))
	if owner, ok := m.Tree.CanonicalOwner(sel.Project.ID); ok {
		b.WriteString(listDimStyle.Render("attached under " + owner.Label()))
		b.WriteString("\n")
	}
	switch {
	case m.busy:
		b.WriteString(listDimStyle.Render("rebuilding..."))
	case m.Err != nil:
		b.WriteString(StyleWarning.Render(errors.UserMessage(m.Err)))
	}
	return b.String()
}
