// Package file serves a catalog from YAML descriptor files on disk.
//
// Every *.yaml and *.yml file below the root directory is decoded with
// [catalog.ParseDescriptors]. Relations implied by spec fields are derived
// and stitched across the whole set, so the loaded catalog answers queries
// the same way a catalog backend would.
//
//	c, err := file.Load(ctx, "./catalog")
//	entities, err := c.GetEntities(ctx, catalog.SystemFilter(root))
//
// A long-running process calls [Catalog.Watch] to pick up descriptor edits.
package file

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/systemgraph/pkg/catalog"
	"github.com/matzehuels/systemgraph/pkg/errors"
)

// Catalog is a catalog.Client backed by descriptor files.
type Catalog struct {
	*catalog.InMemory
	dir string

	mu    sync.RWMutex
	files []string
}

// Load reads every descriptor below dir. Files are visited in lexical order
// so the resulting entity order is stable across runs.
func Load(ctx context.Context, dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "catalog directory %s", dir)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "catalog directory %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s is not a directory", dir)
	}

	c := &Catalog{InMemory: catalog.NewInMemory(nil), dir: dir}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the directory and swaps the served entity set. On error
// the previous set stays in place.
func (c *Catalog) Reload(ctx context.Context) error {
	files, err := descriptorFiles(c.dir)
	if err != nil {
		return err
	}

	var all []catalog.Entity
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		entities, err := ReadFile(path)
		if err != nil {
			return err
		}
		all = append(all, entities...)
	}

	stitched, err := catalog.Stitch(all)
	if err != nil {
		return err
	}
	c.Replace(stitched)
	c.mu.Lock()
	c.files = files
	c.mu.Unlock()
	return nil
}

// Dir returns the catalog root directory.
func (c *Catalog) Dir() string { return c.dir }

// Files returns the descriptor files read by the last successful load.
func (c *Catalog) Files() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.files)
}

// ReadFile decodes a single descriptor file without stitching.
func ReadFile(path string) ([]catalog.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()

	entities, err := catalog.ParseDescriptors(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidEntity, err, "parse %s", path)
	}
	return entities, nil
}

// ReadDir decodes and stitches every descriptor below dir.
func ReadDir(ctx context.Context, dir string) ([]catalog.Entity, error) {
	c, err := Load(ctx, dir)
	if err != nil {
		return nil, err
	}
	return c.GetEntities(ctx, catalog.Filter{})
}

func descriptorFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && hidden(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if isDescriptor(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "walk %s", dir)
	}
	slices.Sort(files)
	return files, nil
}

func hidden(path string) bool { return strings.HasPrefix(filepath.Base(path), ".") }

func isDescriptor(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

var _ catalog.Client = (*Catalog)(nil)
