package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/systemgraph/internal/server"
	"github.com/matzehuels/systemgraph/pkg/catalog/file"
	"github.com/matzehuels/systemgraph/pkg/observability"
)

// serveCommand runs the HTTP API until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve system graphs and diagrams over HTTP",
		Long: `Serve the HTTP API:

  GET /api/systems
  GET /api/systems/{namespace}/{name}/graph
  GET /api/systems/{namespace}/{name}/diagram.{svg,png,pdf,dot,json}
  GET /healthz
  GET /metrics

With the file catalog, descriptor edits are reloaded while serving.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.cfg.Server.Addr
			}

			runner, closer, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer closer()
			if fc, ok := runner.Catalog.(*file.Catalog); ok {
				c.watchCatalog(ctx, fc)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := observability.NewPrometheus(reg)
			observability.SetPipelineHooks(metrics)
			observability.SetCacheHooks(metrics)
			observability.SetHTTPHooks(metrics)
			defer observability.Reset()

			srv := server.New(server.Options{
				Runner:    runner,
				Logger:    c.Logger,
				Gatherer:  reg,
				Metrics:   metrics,
				Direction: c.cfg.Render.Direction,
				Detailed:  c.cfg.Render.Detailed,
			})
			printInfo("Serving on %s", StyleHighlight.Render(addr))
			printDetail("catalog: %s · cache: %s", c.cfg.Catalog.Source, c.cfg.Cache.Backend)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// watchCatalog reloads fc on descriptor changes for the life of ctx. A
// catalog that cannot be watched is still served as loaded.
func (c *CLI) watchCatalog(ctx context.Context, fc *file.Catalog) {
	err := fc.Watch(ctx, file.DefaultDebounce, func(err error) {
		if err != nil {
			c.Logger.Warn("catalog reload failed", "dir", fc.Dir(), "err", err)
			return
		}
		c.Logger.Info("catalog reloaded", "dir", fc.Dir(), "entities", fc.Len())
	})
	if err != nil {
		c.Logger.Warn("not watching catalog, restart to pick up changes", "dir", fc.Dir(), "err", err)
		return
	}
	c.Logger.Debug("watching catalog", "dir", fc.Dir())
}
