package file

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/systemgraph/pkg/catalog"
)

func TestWatchReloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	writeFile(t, dir, "system.yaml", systemDoc)
	c, err := Load(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	var reloads, failures atomic.Int32
	require.NoError(t, c.Watch(ctx, 20*time.Millisecond, func(err error) {
		if err != nil {
			failures.Add(1)
			return
		}
		reloads.Add(1)
	}))

	// A new subdirectory is picked up together with its files.
	writeFile(t, dir, "services/checkout.yaml", componentsDoc)
	require.Eventually(t, func() bool { return c.Len() == 3 }, 5*time.Second, 20*time.Millisecond)
	assert.Positive(t, reloads.Load())

	root, err := c.GetEntityByRef(ctx, catalog.MustParseRef("system:payments"))
	require.NoError(t, err)
	related, err := c.GetEntities(ctx, catalog.SystemFilter(*root))
	require.NoError(t, err)
	assert.Len(t, related, 2)

	// A broken edit is reported and the last good set stays.
	writeFile(t, dir, "broken.yaml", "kind: [broken")
	require.Eventually(t, func() bool { return failures.Load() > 0 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 3, c.Len())

	// Fixing it by removal reloads again.
	require.NoError(t, os.Remove(filepath.Join(dir, "broken.yaml")))
	require.NoError(t, os.Remove(filepath.Join(dir, "services", "checkout.yaml")))
	require.Eventually(t, func() bool { return c.Len() == 1 }, 5*time.Second, 20*time.Millisecond)
}

func TestWatchMissingDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "system.yaml", systemDoc)
	c, err := Load(context.Background(), dir)
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, c.Watch(context.Background(), 0, nil))
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"descriptor write", fsnotify.Event{Name: "/c/a.yaml", Op: fsnotify.Write}, true},
		{"yml create", fsnotify.Event{Name: "/c/a.YML", Op: fsnotify.Create}, true},
		{"descriptor remove", fsnotify.Event{Name: "/c/a.yaml", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "/c/a.yaml", Op: fsnotify.Chmod}, false},
		{"other file", fsnotify.Event{Name: "/c/README.md", Op: fsnotify.Write}, false},
		{"editor swap", fsnotify.Event{Name: "/c/.a.yaml.swp", Op: fsnotify.Create}, false},
		{"directory created", fsnotify.Event{Name: "/c/services", Op: fsnotify.Create}, true},
		{"directory removed", fsnotify.Event{Name: "/c/services", Op: fsnotify.Remove}, true},
		{"hidden directory", fsnotify.Event{Name: "/c/.git", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.ev))
		})
	}
}
