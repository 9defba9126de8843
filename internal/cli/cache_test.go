package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDirFromEnv(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("STACKRECIPE_CACHE_DIR", custom)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if dir != custom {
		t.Errorf("cacheDir() = %q, want %q", dir, custom)
	}
}

func TestCacheDirXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("STACKRECIPE_CACHE_DIR", "")
	t.Setenv("XDG_CACHE_HOME", xdg)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(xdg, appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheClearAfterResolve(t *testing.T) {
	c, out := newTestCLI(t)
	dir := os.Getenv("STACKRECIPE_CACHE_DIR")
	path := writeFile(t, t.TempDir(), "recipe.hcl", renderHCL)

	if err := run(t, c, "resolve", path, "-f", "json", "-s", "os=Linux"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if countEntries(t, dir) == 0 {
		t.Fatal("resolve should have written a cache entry")
	}

	out.Reset()
	if err := run(t, c, "cache", "path"); err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if got := out.String(); got != dir+"\n" {
		t.Errorf("cache path = %q, want %q", got, dir)
	}

	if err := run(t, c, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if n := countEntries(t, dir); n != 0 {
		t.Errorf("%d entries left after clear", n)
	}
}

func countEntries(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".json" {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return n
}
