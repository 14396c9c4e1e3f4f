package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/systemgraph/pkg/render"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Print a shell completion script",
		Long: `Print a completion script for systemgraph to stdout.

Besides subcommands, the script completes --format and --direction values.

  bash:       source <(systemgraph completion bash)
  zsh:        systemgraph completion zsh > "${fpath[1]}/_systemgraph"
  fish:       systemgraph completion fish > ~/.config/fish/completions/systemgraph.fish
  powershell: systemgraph completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// completeFormats completes the last entry of a comma-separated format list.
func completeFormats(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	done, partial := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		done, partial = toComplete[:i+1], toComplete[i+1:]
	}
	var out []string
	for _, f := range render.Formats {
		name := string(f)
		if strings.HasPrefix(name, strings.ToLower(partial)) && !strings.Contains(","+done, ","+name+",") {
			out = append(out, done+name)
		}
	}
	return out, cobra.ShellCompDirectiveNoSpace | cobra.ShellCompDirectiveNoFileComp
}

func completeDirections(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(render.TB) + "\ttop to bottom",
		string(render.BT) + "\tbottom to top",
		string(render.LR) + "\tleft to right",
		string(render.RL) + "\tright to left",
	}, cobra.ShellCompDirectiveNoFileComp
}
