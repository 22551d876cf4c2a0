package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reftree/reftree/pkg/errors"
	treeio "github.com/reftree/reftree/pkg/io"
	"github.com/reftree/reftree/pkg/pipeline"
)

// treeCommand builds the tree of a project and prints its levels.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		direct  bool
		all     bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "tree [project]",
		Short: "Print the levels of a project's reference tree",
		Long: `Build the reference tree of a project and print one column per level.

Without a project the workspace's startup project is used. --all levels
every project under a synthetic workspace root. --json writes the tree
document instead of the columns.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: c.completeProjects,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := c.buildOptions(projectArg(args))
			opts.Direct = direct
			opts.All = all

			res, err := c.build(cmd, runner, opts)
			if res == nil {
				return err
			}
			if jsonOut {
				if werr := treeio.WriteJSON(res.Tree, runner.Workspace.Name(), c.out); werr != nil {
					return werr
				}
				return err
			}

			fmt.Fprintln(c.out, levelColumns(res.Tree.Levels()))
			printStats(c.out, res.Stats)
			return err
		},
	}

	cmd.Flags().BoolVar(&direct, "direct", false, "list only the root's direct references")
	cmd.Flags().BoolVar(&all, "all", false, "level every project of the workspace")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "write the tree as JSON")

	return cmd
}

// build runs a build behind a spinner. A partial tree comes back together
// with the error; the error is reported as a warning and returned.
func (c *CLI) build(cmd *cobra.Command, runner *pipeline.Runner, opts pipeline.BuildOptions) (*pipeline.Result, error) {
	spinner := newSpinner(cmd.Context(), cmd.ErrOrStderr(), "Building tree...")
	spinner.Start()
	p := newProgress(c.Logger)

	res, err := runner.Build(cmd.Context(), opts)
	switch {
	case res == nil:
		spinner.StopWithError("Build failed")
		return nil, err
	case err != nil:
		spinner.Stop()
		printWarning(cmd.ErrOrStderr(), "partial tree: %s", errors.UserMessage(err))
	default:
		spinner.Stop()
	}
	p.done(fmt.Sprintf("Built tree of %s", res.Root.Label()))
	return res, err
}
