package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/systemgraph/pkg/catalog"
	"github.com/matzehuels/systemgraph/pkg/catalog/file"
	"github.com/matzehuels/systemgraph/pkg/catalog/mongo"
	"github.com/matzehuels/systemgraph/pkg/errors"
)

// catalogCommand groups catalog maintenance subcommands.
func (c *CLI) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Validate descriptor files or import them into MongoDB",
	}

	cmd.AddCommand(c.catalogValidateCommand())
	cmd.AddCommand(c.catalogImportCommand())

	return cmd
}

// catalogValidateCommand checks every descriptor below a directory.
func (c *CLI) catalogValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <dir>",
		Short: "Validate catalog descriptor files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := file.Load(cmd.Context(), args[0])
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}

			entities, err := fc.GetEntities(cmd.Context(), catalog.Filter{})
			if err != nil {
				return err
			}
			dangling := danglingRefs(cmd.Context(), fc, entities)

			printSuccess("%d entities in %d files are valid", fc.Len(), len(fc.Files()))
			for _, ref := range dangling {
				printWarning("unresolved reference %s", ref)
			}
			return nil
		},
	}
}

// danglingRefs lists relation targets of diagram kinds that are not in the
// catalog. They still render, but usually point at a typo.
func danglingRefs(ctx context.Context, client catalog.Client, entities []catalog.Entity) []string {
	diagramKinds := catalog.Filter{Kinds: catalog.DiagramKinds}
	seen := make(map[string]bool)
	var out []string
	for _, e := range entities {
		for _, rel := range e.Relations {
			id := catalog.DisplayID(rel.Target)
			if seen[id] || !diagramKinds.Matches(catalog.Entity{Kind: rel.Target.Kind}) {
				continue
			}
			seen[id] = true
			if _, err := client.GetEntityByRef(ctx, rel.Target); errors.Is(err, errors.ErrCodeEntityNotFound) {
				out = append(out, id)
			}
		}
	}
	return out
}

// catalogImportCommand loads descriptors and upserts them into MongoDB.
func (c *CLI) catalogImportCommand() *cobra.Command {
	var uri, database, collection string

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Import descriptor files into the MongoDB catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.cfg.Catalog
			if uri == "" {
				uri = cfg.MongoURI
			}
			if database == "" {
				database = cfg.MongoDatabase
			}
			if collection == "" {
				collection = cfg.MongoCollection
			}

			prog := newProgress(c.Logger)
			entities, err := file.ReadDir(ctx, args[0])
			if err != nil {
				return err
			}

			store, err := mongo.Connect(ctx, uri, database, collection)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			if err := store.EnsureIndexes(ctx); err != nil {
				return err
			}
			res, err := store.Import(ctx, entities)
			if err != nil {
				return err
			}
			prog.done("Imported %d entities", len(entities))

			printSuccess("Imported %d entities", len(entities))
			printDetail("%d inserted · %d updated", res.Inserted, res.Updated)
			printNextStep("Use it", fmt.Sprintf("set [catalog] source = %q in the config", "mongo"))
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "mongo-uri", "", "MongoDB connection string (default from config)")
	cmd.Flags().StringVar(&database, "database", "", "database name (default from config)")
	cmd.Flags().StringVar(&collection, "collection", "", "collection name (default from config)")

	return cmd
}
