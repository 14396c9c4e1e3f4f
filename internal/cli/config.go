package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/systemgraph/pkg/config"
	"github.com/matzehuels/systemgraph/pkg/errors"
)

// configCommand groups config file subcommands.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	cmd.AddCommand(c.configShowCommand())
	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configInitCommand())

	return cmd
}

// configFile returns --config or the default location.
func (c *CLI) configFile() (string, error) {
	if c.configPath != "" {
		return c.configPath, nil
	}
	return config.DefaultPath()
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			printKeyValue("catalog.source", cfg.Catalog.Source)
			switch cfg.Catalog.Source {
			case config.SourceFile:
				printKeyValue("catalog.dir", cfg.Catalog.Dir)
			case config.SourceMongo:
				printKeyValue("catalog.mongo_uri", redact(cfg.Catalog.MongoURI))
			case config.SourceBackstage:
				printKeyValue("catalog.backstage", cfg.Catalog.BackstageURL)
				printKeyValue("catalog.token", redact(cfg.Catalog.Token))
			}
			printKeyValue("cache.backend", cfg.Cache.Backend)
			printKeyValue("cache.ttl", cfg.Cache.TTL.String())
			printKeyValue("render.direction", cfg.Render.Direction)
			printKeyValue("render.formats", strings.Join(cfg.Render.Formats, ","))
			printKeyValue("server.addr", cfg.Server.Addr)
			return nil
		},
	}
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configFile()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

func (c *CLI) configInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		// The file may not exist yet, so skip loading it.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configFile()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.New(errors.ErrCodeInvalidPath, "%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().Write(path); err != nil {
				return err
			}
			printSuccess("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// redact hides secrets, keeping enough to recognize them.
func redact(s string) string {
	switch {
	case s == "":
		return "(unset)"
	case len(s) <= 8:
		return "****"
	default:
		return s[:4] + "****"
	}
}
