package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/reftree/reftree/pkg/pipeline"
)

// browseCommand opens the interactive level browser.
func (c *CLI) browseCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "browse [project]",
		Short: "Browse the levels of a reference tree interactively",
		Long: `Browse the levels of a reference tree.

Without a project, pick one from the workspace first. Move between levels
with ←/→ and between nodes with ↑/↓; the projects referencing the selection
and the projects it references are highlighted. Enter re-roots the tree on
the selected project, backspace goes back.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeProjects,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			name := projectArg(args)
			if name == "" && !all {
				if name, err = c.pickProject(ctx, runner); err != nil || name == "" {
					return err
				}
			}

			opts := c.buildOptions(name)
			opts.All = all
			res, err := c.build(cmd, runner, opts)
			if res == nil {
				return err
			}

			rebuild := func(ctx context.Context, project string) (*pipeline.Result, error) {
				return runner.Build(ctx, c.buildOptions(project))
			}
			browser := NewLevelBrowser(ctx, res.Tree, rebuild)
			_, err = tea.NewProgram(browser, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "level every project of the workspace")

	return cmd
}

// pickProject asks for the root project. An empty name means the picker was
// dismissed.
func (c *CLI) pickProject(ctx context.Context, runner *pipeline.Runner) (string, error) {
	projects, err := runner.Projects(ctx)
	if err != nil {
		return "", err
	}
	if len(projects) == 0 {
		return "", fmt.Errorf("workspace %s has no projects", runner.Workspace.Name())
	}
	startup := ""
	if p, ok := runner.Workspace.Startup(ctx); ok {
		startup = p.ID
	}

	final, err := tea.NewProgram(NewProjectPicker(projects, startup), tea.WithContext(ctx)).Run()
	if err != nil {
		return "", err
	}
	picker := final.(ProjectPicker)
	if picker.Selected == nil {
		return "", nil
	}
	return picker.Selected.ID, nil
}
