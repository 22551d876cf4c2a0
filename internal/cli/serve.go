package cli

import (
	"github.com/spf13/cobra"

	"github.com/reftree/reftree/internal/server"
	"github.com/reftree/reftree/pkg/pipeline"
)

// serveCommand serves the HTTP API for the workspace.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr   string
		engine string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workspace's trees over HTTP",
		Long: `Serve the workspace's trees over HTTP.

Routes:
  GET /healthz
  GET /api/projects/
  GET /api/projects/{name}/tree[?direct=1]
  GET /api/projects/{name}/levels
  GET /api/projects/{name}/layout[?mode=all]
  GET /api/projects/{name}/graph.{dot,dgml,svg,png,pdf}

{name} is a project ID or label, "_" for the startup project and "*" for
the whole workspace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			srv := server.New(runner, server.Options{
				Build:  c.buildOptions(""),
				Engine: engine,
				Logger: c.Logger,
			})
			printInfo(c.out, "Serving %s on %s", runner.Workspace.Name(), addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: config, then :8080)")
	cmd.Flags().StringVar(&engine, "engine", pipeline.EngineBuiltin, "image engine for graph.svg/png/pdf: builtin or dot")

	return cmd
}
