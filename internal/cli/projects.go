package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// projectsCommand lists the projects of the workspace.
func (c *CLI) projectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "projects",
		Aliases: []string{"ls"},
		Short:   "List the projects of the workspace",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			projects, err := runner.Projects(ctx)
			if err != nil {
				return err
			}
			startup := ""
			if p, ok := runner.Workspace.Startup(ctx); ok {
				startup = p.ID
			}

			fmt.Fprintln(c.out, StyleTitle.Render(runner.Workspace.Name()))
			fmt.Fprintln(c.out, projectTable(projects, startup))
			if startup == "" {
				printDetail(c.out, "no startup project; pass a project name to tree, export or browse")
			}
			return nil
		},
	}
}
