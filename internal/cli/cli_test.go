package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/systemgraph/pkg/catalog/file"
	"github.com/matzehuels/systemgraph/pkg/graph"
)

const testCatalog = `apiVersion: backstage.io/v1alpha1
kind: System
metadata:
  name: payments
spec:
  owner: team-payments
  domain: commerce
---
apiVersion: backstage.io/v1alpha1
kind: Component
metadata:
  name: checkout
spec:
  owner: team-payments
  system: payments
  providesApis: [checkout-api]
  dependsOn: [component:cart]
---
apiVersion: backstage.io/v1alpha1
kind: API
metadata:
  name: checkout-api
spec:
  system: payments
`

// runCLI executes the root command against a temporary catalog and
// returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	return runCLIWith(t, testCatalog, args...)
}

// runCLIWith runs against a fresh catalog directory holding doc, keeping the
// caller's config and cache locations.
func runCLIWith(t *testing.T, doc string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "catalog-info.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--catalog-dir", dir}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGraphCommandJSON(t *testing.T) {
	out, err := runCLI(t, "graph", "payments", "--json", "--no-cache")
	if err != nil {
		t.Fatalf("graph error = %v", err)
	}

	g, err := graph.ReadGraph(strings.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a graph: %v\n%s", err, out)
	}
	want := []string{"system:payments", "domain:commerce", "component:checkout", "api:checkout-api", "component:cart"}
	got := g.NodeIDs()
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("nodes = %v, want %v", got, want)
	}
}

func TestGraphCommandTable(t *testing.T) {
	out, err := runCLI(t, "graph", "system:default/payments")
	if err != nil {
		t.Fatalf("graph error = %v", err)
	}
	for _, s := range []string{"component:checkout", "depends on", "provides API", "part of"} {
		if !strings.Contains(out, s) {
			t.Errorf("table output missing %q", s)
		}
	}
}

func TestGraphCommandUnknownSystem(t *testing.T) {
	_, err := runCLI(t, "graph", "unknown", "--no-cache")
	if err == nil {
		t.Fatal("expected an error for an unknown system")
	}
}

func TestGraphCommandRejectsNonSystem(t *testing.T) {
	_, err := runCLI(t, "graph", "component:checkout", "--no-cache")
	if err == nil {
		t.Fatal("expected an error for a non-system ref")
	}
}

func TestGraphCommandSharedCacheAcrossCatalogs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	other := strings.Replace(testCatalog, "name: checkout\n", "name: storefront\n", 1)
	for _, tc := range []struct {
		doc, want, unwanted string
	}{
		{testCatalog, "component:checkout", "component:storefront"},
		{other, "component:storefront", "component:checkout"},
	} {
		out, err := runCLIWith(t, tc.doc, "graph", "payments", "--json")
		if err != nil {
			t.Fatalf("graph error = %v", err)
		}
		g, err := graph.ReadGraph(strings.NewReader(out))
		if err != nil {
			t.Fatal(err)
		}
		if !g.HasNode(tc.want) || g.HasNode(tc.unwanted) {
			t.Errorf("nodes = %v, want %s without %s", g.NodeIDs(), tc.want, tc.unwanted)
		}
	}
}

// syncBuffer is a bytes.Buffer safe for a logger writing from another
// goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchCatalogReloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog-info.yaml")
	if err := os.WriteFile(path, []byte(testCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	fc, err := file.Load(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}

	var logs syncBuffer
	c := New(&logs, LogInfo)
	c.watchCatalog(ctx, fc)

	extra := testCatalog + "---\napiVersion: backstage.io/v1alpha1\nkind: Component\nmetadata:\n  name: ledger\nspec:\n  system: payments\n"
	if err := os.WriteFile(path, []byte(extra), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for fc.Len() != 4 || !strings.Contains(logs.String(), "catalog reloaded") {
		if time.Now().After(deadline) {
			t.Fatalf("catalog not reloaded: %d entities, logs %q", fc.Len(), logs.String())
		}
		time.Sleep(20 * time.Millisecond)
	}
}
