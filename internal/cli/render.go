package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/systemgraph/pkg/errors"
	"github.com/matzehuels/systemgraph/pkg/pipeline"
	"github.com/matzehuels/systemgraph/pkg/render"
)

// renderCommand creates the render command for writing diagram files.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags
	var output string

	cmd := &cobra.Command{
		Use:   "render <system>",
		Short: "Render a system diagram to files",
		Long: `Render a system and everything that belongs to it as a node-link diagram.

The system may be given as "payments", "team-a/payments" or
"system:team-a/payments". With a single format, --output is the file name;
with several it is the base path each format's extension is added to.`,
		Example: `  systemgraph render payments
  systemgraph render team-a/payments -f svg,png -d LR -o docs/payments`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], output, flags)
		},
	}

	flags.register(cmd, true)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")

	return cmd
}

// runRender renders the system and writes one file per format.
func (c *CLI) runRender(ctx context.Context, system, output string, flags renderFlags) error {
	runner, closer, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return err
	}
	defer closer()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, "Rendering "+system+"...")
	spinner.Start()
	result, err := runner.Execute(ctx, c.options(system, flags))
	spinner.Stop()
	if err != nil {
		if spinner.Cancelled() {
			return ctx.Err()
		}
		return err
	}

	paths, err := writeArtifacts(result, output)
	if err != nil {
		return err
	}
	prog.done("Rendered %s", result.Root)

	printSuccess("Rendered %s", StyleHighlight.Render(result.Root))
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeArtifacts writes every rendered format and returns the paths in
// render.Formats order.
func writeArtifacts(result *pipeline.Result, output string) ([]string, error) {
	var formats []render.Format
	for _, f := range render.Formats {
		if _, ok := result.Artifacts[f]; ok {
			formats = append(formats, f)
		}
	}

	var paths []string
	for _, f := range formats {
		path := outputPath(output, result.Root, f, len(formats) == 1)
		if err := errors.ValidateOutputPath(path); err != nil {
			return nil, err
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
			}
		}
		if err := os.WriteFile(path, result.Artifacts[f], 0o644); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputPath picks the file for one format. A single-format render uses
// output as given; otherwise the extension is replaced per format. Without
// output the name is derived from the system id.
func outputPath(output, rootID string, format render.Format, single bool) string {
	if output == "" {
		return fileStem(rootID) + "." + string(format)
	}
	if single && filepath.Ext(output) != "" {
		return output
	}
	return basePath(output) + "." + string(format)
}

// basePath strips a known format extension from output.
func basePath(output string) string {
	ext := filepath.Ext(output)
	if _, err := render.ParseFormat(strings.TrimPrefix(ext, ".")); err == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// fileStem turns "system:team-a/payments" into "team-a-payments".
func fileStem(id string) string {
	if i := strings.IndexByte(id, ':'); i >= 0 {
		id = id[i+1:]
	}
	return strings.ReplaceAll(id, "/", "-")
}
