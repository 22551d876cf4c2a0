package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for reftree. Project arguments of
tree, export and browse complete from the current workspace.

To load completions:

Bash:
  $ source <(reftree completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ reftree completion bash > /etc/bash_completion.d/reftree
  # macOS:
  $ reftree completion bash > $(brew --prefix)/etc/bash_completion.d/reftree

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ reftree completion zsh > "${fpath[1]}/_reftree"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ reftree completion fish | source

  # To load completions for each session, execute once:
  $ reftree completion fish > ~/.config/fish/completions/reftree.fish

PowerShell:
  PS> reftree completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> reftree completion powershell > reftree.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeProjects completes a project argument with the IDs and labels of
// the workspace's projects. Persistent pre-runs are skipped during
// completion, so the config is loaded here.
func (c *CLI) completeProjects(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if c.cfg == nil {
		if err := c.loadConfig(); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
	}
	c.noCache = true
	runner, err := c.newRunner(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer runner.Close()

	projects, err := runner.Projects(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var out []string
	for _, p := range projects {
		if strings.HasPrefix(p.ID, toComplete) {
			out = append(out, p.ID+"\t"+p.Label())
		} else if p.Name != "" && strings.HasPrefix(strings.ToLower(p.Name), strings.ToLower(toComplete)) {
			out = append(out, p.Name+"\t"+p.ID)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
