package pipeline

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackrecipe/pkg/cache"
	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/platform"
)

const renderHCL = `
recipe "rawrbox-render" {
  settings   = ["os", "arch"]
  requires   = ["fmt/9.1.0"]
  generators = ["CMakeDeps"]

  rule {
    when     = os == "Linux"
    requires = ["wayland/1.21.0"]
  }
}

recipe "rawrbox-math" {
  settings = ["arch"]
  requires = ["magic_enum/0.8.2"]
}
`

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func mustParse(t *testing.T, s string) platform.Platform {
	t.Helper()
	p, err := platform.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return p
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"ok", Options{Filename: "recipe.hcl", Source: []byte("x")}, ""},
		{"no filename", Options{Source: []byte("x")}, errors.ErrCodeInvalidPath},
		{"empty source", Options{Filename: "recipe.hcl"}, errors.ErrCodeInvalidInput},
		{"bad recipe", Options{Filename: "recipe.hcl", Source: []byte("x"), Recipe: "Bad Name"}, errors.ErrCodeInvalidPackage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.code == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if tt.opts.Logger == nil {
					t.Error("Validate() should set a default logger")
				}
				return
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("Validate() code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestRunnerResolve(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, quietLogger())

	res, err := r.Resolve(ctx, Options{
		Filename: "recipe.hcl",
		Source:   []byte(renderHCL),
		Platform: mustParse(t, "os=Linux,arch=x86_64"),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Locks) != 2 {
		t.Fatalf("len(Locks) = %d, want 2", len(res.Locks))
	}
	if got := res.Locks[0].Requires; len(got) != 2 || got[1] != "wayland/1.21.0" {
		t.Errorf("render requires = %v", got)
	}
	if got := res.Locks[1].Platform; len(got) != 1 || got["arch"] != "x86_64" {
		t.Errorf("math platform = %v, want only arch", got)
	}
	if res.Stats.Recipes != 2 || res.Stats.Requires != 3 {
		t.Errorf("Stats = %+v", res.Stats)
	}
	if res.CacheHit {
		t.Error("NullCache should never hit")
	}
}

func TestRunnerResolveSingleRecipe(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())

	res, err := r.Resolve(context.Background(), Options{
		Filename: "recipe.hcl",
		Source:   []byte(renderHCL),
		Platform: mustParse(t, "os=Windows"),
		Recipe:   "rawrbox-render",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Locks) != 1 || res.Locks[0].Recipe != "rawrbox-render" {
		t.Fatalf("Locks = %+v", res.Locks)
	}
	if got := res.Locks[0].Requires; len(got) != 1 || got[0] != "fmt/9.1.0" {
		t.Errorf("Requires = %v, want [fmt/9.1.0]", got)
	}

	_, err = r.Resolve(context.Background(), Options{
		Filename: "recipe.hcl",
		Source:   []byte(renderHCL),
		Recipe:   "rawrbox-ui",
	})
	if !errors.Is(err, errors.ErrCodeRecipeNotFound) {
		t.Errorf("unknown recipe error = %v", err)
	}
}

func TestRunnerCachesLocks(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewLRUCache(16)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, quietLogger())

	opts := Options{
		Filename: "recipe.hcl",
		Source:   []byte(renderHCL),
		Platform: mustParse(t, "os=Linux"),
	}

	first, err := r.Resolve(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Resolve(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHit || !second.CacheHit {
		t.Errorf("CacheHit = %v, %v; want false, true", first.CacheHit, second.CacheHit)
	}
	if first.Locks[0].Digest != second.Locks[0].Digest {
		t.Error("cached lock should carry the same digest")
	}

	opts.Refresh = true
	third, err := r.Resolve(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheHit {
		t.Error("Refresh should bypass the cache")
	}

	opts.Refresh = false
	opts.Platform = mustParse(t, "os=Windows")
	fourth, _ := r.Resolve(ctx, opts)
	if fourth.CacheHit {
		t.Error("a different platform should miss")
	}
}

func TestRunnerDescriptorErrors(t *testing.T) {
	ctx := context.Background()
	c, _ := cache.NewLRUCache(16)
	r := NewRunner(c, nil, quietLogger())

	src := `
recipe "a" {
  settings = ["os"]
  requires = ["wayland/1.21.0"]
  rule {
    when     = os == "Linux"
    requires = ["wayland/1.21.0"]
  }
}
`
	_, err := r.Resolve(ctx, Options{Filename: "recipe.hcl", Source: []byte(src), Platform: mustParse(t, "os=Linux")})
	if !errors.Is(err, errors.ErrCodeDuplicateRequirement) {
		t.Errorf("error = %v, want DUPLICATE_REQUIREMENT", err)
	}
	if c.Len() != 0 {
		t.Error("failed resolutions must not be cached")
	}
}

func TestRunnerCheckStyle(t *testing.T) {
	ctx := context.Background()
	c, _ := cache.NewLRUCache(16)
	r := NewRunner(c, nil, quietLogger())

	src := []byte("format:\n  line_width: 120\n")
	s, hit, err := r.CheckStyle(ctx, ".cmake-format.yaml", src)
	if err != nil || hit {
		t.Fatalf("CheckStyle = hit %v, err %v", hit, err)
	}
	if w, _ := s.Int("format", "line_width"); w != 120 {
		t.Errorf("line_width = %d, want 120", w)
	}

	s, hit, err = r.CheckStyle(ctx, ".cmake-format.yaml", src)
	if err != nil || !hit {
		t.Fatalf("second CheckStyle = hit %v, err %v", hit, err)
	}
	if w, _ := s.Int("format", "line_width"); w != 120 {
		t.Errorf("cached line_width = %d, want 120", w)
	}

	_, _, err = r.CheckStyle(ctx, "style.toml", []byte("foo_bar = 1\n"))
	if !errors.Is(err, errors.ErrCodeUnknownOption) {
		t.Errorf("error = %v, want UNKNOWN_OPTION", err)
	}
}
