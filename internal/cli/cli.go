package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/systemgraph/pkg/buildinfo"
	"github.com/matzehuels/systemgraph/pkg/cache"
	"github.com/matzehuels/systemgraph/pkg/catalog"
	"github.com/matzehuels/systemgraph/pkg/catalog/backstage"
	"github.com/matzehuels/systemgraph/pkg/catalog/file"
	"github.com/matzehuels/systemgraph/pkg/catalog/mongo"
	"github.com/matzehuels/systemgraph/pkg/config"
	"github.com/matzehuels/systemgraph/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "systemgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogError = log.ErrorLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	catalogDir string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "systemgraph draws catalog systems as dependency diagrams",
		Long:         `systemgraph reads a software catalog (descriptor files, MongoDB or a Backstage backend) and draws a system with its components, APIs and resources as a node-link diagram.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/systemgraph/config.toml)")
	root.PersistentFlags().StringVar(&c.catalogDir, "catalog-dir", "", "read descriptors from this directory (overrides the configured catalog)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.systemsCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and applies global flag overrides.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.catalogDir != "" {
		cfg.Catalog.Source = config.SourceFile
		cfg.Catalog.Dir = c.catalogDir
	}
	c.cfg = cfg
	c.Logger.Debug("loaded config", "catalog", cfg.Catalog.Source, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner over the configured catalog and cache.
// The returned closer releases both.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, func(), error) {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, nil, err
	}
	client, closeCatalog, err := c.newCatalog(ctx, store)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	runner := pipeline.NewRunner(client, store, nil, c.Logger)
	closer := func() {
		closeCatalog()
		if err := runner.Close(); err != nil {
			c.Logger.Warn("close cache", "err", err)
		}
	}
	return runner, closer, nil
}

// newCatalog opens the configured catalog source. The backstage client
// shares store for its HTTP response cache.
func (c *CLI) newCatalog(ctx context.Context, store cache.Cache) (catalog.Client, func(), error) {
	cfg := c.cfg.Catalog
	switch cfg.Source {
	case config.SourceMongo:
		s, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close(context.Background()) }, nil
	case config.SourceBackstage:
		client, err := backstage.New(backstage.Options{
			BaseURL: cfg.BackstageURL,
			Token:   cfg.Token,
			Cache:   store,
			TTL:     c.cfg.Cache.TTL.Duration,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	default:
		prog := newProgress(c.Logger)
		fc, err := file.Load(ctx, cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		prog.debug("loaded %d entities from %d files", fc.Len(), len(fc.Files()))
		return fc, func() {}, nil
	}
}

// newCache opens the configured cache backend.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.cfg.Cache
	if noCache || cfg.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == config.BackendRedis {
		return cache.NewRedisCache(ctx, cache.RedisOptions{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory or the user cache dir.
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// renderFlags are the diagram flags shared by render, systems --pick and view.
type renderFlags struct {
	formats   string
	direction string
	detailed  bool
	refresh   bool
	noCache   bool
}

func (f *renderFlags) register(cmd *cobra.Command, withFormats bool) {
	if withFormats {
		cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): svg, png, pdf, dot, json (comma-separated)")
		_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	}
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "", "layout direction: TB, BT, LR, RL")
	_ = cmd.RegisterFlagCompletionFunc("direction", completeDirections)
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "show the entity kind on each node")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "skip cached catalog responses and re-render")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// options merges flags over the configured render defaults.
func (c *CLI) options(system string, f renderFlags) pipeline.Options {
	opts := pipeline.Options{
		System:    system,
		Refresh:   f.refresh,
		Formats:   parseFormats(f.formats),
		Direction: f.direction,
		Detailed:  f.detailed || c.cfg.Render.Detailed,
		Logger:    c.Logger,
	}
	if len(opts.Formats) == 0 {
		opts.Formats = c.cfg.Render.Formats
	}
	if opts.Direction == "" {
		opts.Direction = c.cfg.Render.Direction
	}
	return opts
}

// parseFormats splits a comma-separated format list, dropping blanks.
func parseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
