package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/systemgraph/pkg/catalog"
)

// systemsCommand lists the systems in the catalog. With --pick it opens an
// interactive picker and renders the chosen system.
func (c *CLI) systemsCommand() *cobra.Command {
	var flags renderFlags
	var pick bool
	var output string

	cmd := &cobra.Command{
		Use:   "systems",
		Short: "List the systems in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, closer, err := c.newRunner(ctx, flags.noCache)
			if err != nil {
				return err
			}
			systems, err := catalog.ListSystems(ctx, runner.Catalog)
			closer()
			if err != nil {
				return err
			}

			if !pick {
				printSystems(systems)
				return nil
			}

			model, err := tea.NewProgram(NewSystemListModel(systems), tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}
			selected := model.(SystemListModel).Selected
			if selected == nil {
				return nil
			}
			return c.runRender(ctx, catalog.DisplayID(selected.Ref()), output, flags)
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "choose a system interactively and render it")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file or base path for --pick")
	flags.register(cmd, true)

	return cmd
}

// printSystems prints one table row per system.
func printSystems(systems []catalog.Entity) {
	if len(systems) == 0 {
		printWarning("No systems found in the catalog")
		return
	}
	rows := make([][]string, 0, len(systems))
	for _, e := range systems {
		rows = append(rows, []string{catalog.DisplayID(e.Ref()), e.Metadata.Title, e.Spec.Owner, e.Spec.Domain})
	}
	fmt.Fprintln(os.Stdout, newTable([]string{"System", "Title", "Owner", "Domain"}, rows, -1).Render())
	printNextStep("Render one", "systemgraph render "+catalog.DisplayID(systems[0].Ref()))
}
