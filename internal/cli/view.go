package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/systemgraph/pkg/graph"
)

// viewCommand opens an interactive summary of a system.
func (c *CLI) viewCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "view <system>",
		Short: "Browse a system's graph interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, closer, err := c.newRunner(ctx, flags.noCache)
			if err != nil {
				return err
			}
			defer closer()

			// Logging would tear through the alternate screen.
			level := c.Logger.GetLevel()
			c.SetLogLevel(LogError)
			defer c.SetLogLevel(level)

			base := c.options(args[0], flags)
			load := func(refresh bool) (graph.Graph, error) {
				opts := base
				opts.Refresh = opts.Refresh || refresh
				return runner.BuildGraph(ctx, opts)
			}

			_, err = tea.NewProgram(NewViewModel(args[0], load), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "skip cached catalog responses")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")

	return cmd
}
