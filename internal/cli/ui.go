package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/reftree/reftree/pkg/pipeline"
	"github.com/reftree/reftree/pkg/project"
	"github.com/reftree/reftree/pkg/reftree"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success, root
	colorYellow = lipgloss.Color("220") // Amber - warnings, referencing
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - referenced
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleRoot       = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	styleUnresolved = lipgloss.NewStyle().Italic(true).Foreground(colorDim)
	styleHeader     = lipgloss.NewStyle().Bold(true).Foreground(colorGray)
	styleColumn     = lipgloss.NewStyle().PaddingRight(3)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconStartup = "★"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printStats prints build statistics on a single line.
func printStats(w io.Writer, s pipeline.Stats) {
	parts := []string{
		fmt.Sprintf("%d nodes", s.Nodes),
		fmt.Sprintf("%d levels", s.MaxDepth+1),
	}
	if s.Fetched > 0 {
		parts = append(parts, fmt.Sprintf("%d prefetched", s.Fetched))
	}
	parts = append(parts, s.BuildTime.Round(time.Millisecond).String())
	fmt.Fprintln(w, "  "+StyleDim.Render(strings.Join(parts, " · ")))
}

// printNextStep prints a suggested next command.
func printNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Tables & Columns
// =============================================================================

// projectTable renders the workspace projects, marking the startup project.
func projectTable(projects []project.Project, startup string) string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		mark := ""
		if p.ID == startup {
			mark = iconStartup
		}
		rows = append(rows, []string{mark, p.Label(), p.ID, p.Kind})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Project", "ID", "Kind").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleHeader
			case rows[row][0] != "":
				return lipgloss.NewStyle().Foreground(colorGreen)
			case col == 2 || col == 3:
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

// levelColumns renders one column per depth, headed by the depth number.
func levelColumns(levels [][]reftree.Node) string {
	cols := make([]string, 0, len(levels))
	for d, level := range levels {
		lines := []string{styleHeader.Render(fmt.Sprintf("%d", d))}
		for _, n := range level {
			lines = append(lines, nodeLabel(n))
		}
		cols = append(cols, styleColumn.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func nodeLabel(n reftree.Node) string {
	switch {
	case n.IsRoot():
		return styleRoot.Render(n.Label())
	case n.Unresolved:
		return styleUnresolved.Render(n.Label() + "?")
	}
	return n.Label()
}
