package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/platform"
)

const mathRecipe = `
recipe "rawrbox-math" {
  version  = "0.1.0"
  settings = ["arch"]
  requires = ["magic_enum/0.8.2", "fmt/9.1.0"]
}
`

const renderRecipe = `
name     = "rawrbox-render"
version  = "0.1.0"
settings = ["os"]
requires = ["rawrbox-math/0.1.0", "fmt/9.1.0"]

[[rule]]
when     = { os = "Linux" }
requires = ["wayland/1.21.0"]
`

const uiRecipe = `
recipe "rawrbox-ui" {
  settings = ["os"]
  requires = ["rawrbox-render/0.1.0", "fmt/10.0.0"]
}
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func sampleWorkspace(t *testing.T) *Workspace {
	t.Helper()
	root := writeFiles(t, map[string]string{
		"math/recipe.hcl":           mathRecipe,
		"render/render.recipe.toml": renderRecipe,
		"ui/recipe.hcl":             uiRecipe,
		"ui/style.toml":             "[format]\nline_width = 100\n",
		".git/recipe.hcl":           "not a recipe",
	})
	ws, err := Load(context.Background(), root)
	require.NoError(t, err)
	return ws
}

func linux(t *testing.T) platform.Platform {
	t.Helper()
	p, err := platform.Parse("os=Linux,arch=x86_64")
	require.NoError(t, err)
	return p
}

func TestLoad(t *testing.T) {
	ws := sampleWorkspace(t)

	assert.Equal(t, []string{"rawrbox-math", "rawrbox-render", "rawrbox-ui"}, ws.Names())
	assert.Equal(t, []string{
		filepath.Join("math", "recipe.hcl"),
		filepath.Join("render", "render.recipe.toml"),
		filepath.Join("ui", "recipe.hcl"),
	}, ws.Files)

	r, err := ws.Recipe("rawrbox-render")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("render", "render.recipe.toml"), r.Source)
}

func TestLoadDuplicateAcrossFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a/recipe.hcl": mathRecipe,
		"b/recipe.hcl": mathRecipe,
	})
	_, err := Load(context.Background(), root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeDuplicateRecipe), "error: %v", err)
	assert.Contains(t, err.Error(), filepath.Join("a", "recipe.hcl"))
}

func TestLoadPropagatesDescriptorErrors(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"recipe.hcl": `recipe "a" { license = "MIT" }`,
	})
	_, err := Load(context.Background(), root)
	assert.True(t, errors.Is(err, errors.ErrCodeUnknownOption), "error: %v", err)
}

func TestLoadMissingRoot(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidPath), "error: %v", err)
}

func TestResolveAll(t *testing.T) {
	ws := sampleWorkspace(t)

	results, err := ws.ResolveAll(context.Background(), linux(t))
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "rawrbox-math", results[0].Recipe.Name)
	assert.Equal(t, "arch=x86_64", results[0].Platform.String())
	assert.Equal(t, []string{"rawrbox-math/0.1.0", "fmt/9.1.0", "wayland/1.21.0"}, results[1].Strings())

	locks := Locks(results)
	assert.Equal(t, "rawrbox-ui", locks[2].Recipe)
}

func TestResolveAllReportsFirstFailureByName(t *testing.T) {
	dup := `
recipe "NAME" {
  settings = ["os"]
  requires = ["wayland/1.21.0"]
  rule {
    when     = os == "Linux"
    requires = ["wayland/1.21.0"]
  }
}
`
	root := writeFiles(t, map[string]string{
		"b/recipe.hcl": strings.ReplaceAll(dup, "NAME", "b-recipe"),
		"a/recipe.hcl": strings.ReplaceAll(dup, "NAME", "a-recipe"),
	})
	ws, err := Load(context.Background(), root)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err = ws.ResolveAll(context.Background(), linux(t))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeDuplicateRequirement))
		assert.Contains(t, err.Error(), "a-recipe")
	}
}

func TestConflicts(t *testing.T) {
	results, err := sampleWorkspace(t).ResolveAll(context.Background(), linux(t))
	require.NoError(t, err)

	conflicts := Conflicts(results)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "fmt", conflicts[0].Package)
	assert.Equal(t, map[string][]string{
		"9.1.0":  {"rawrbox-math", "rawrbox-render"},
		"10.0.0": {"rawrbox-ui"},
	}, conflicts[0].Versions)
}

func TestGraphAndBuildOrder(t *testing.T) {
	results, err := sampleWorkspace(t).ResolveAll(context.Background(), linux(t))
	require.NoError(t, err)

	g, err := Graph(results)
	require.NoError(t, err)

	n, ok := g.Node("wayland/1.21.0")
	require.True(t, ok)
	assert.True(t, n.IsExternal())
	assert.Contains(t, g.Children("rawrbox-render"), "rawrbox-math")

	var when string
	for _, e := range g.Edges() {
		if e.From == "rawrbox-render" && e.To == "wayland/1.21.0" {
			when, _ = e.Meta["when"].(string)
		}
	}
	assert.Equal(t, `os == "Linux"`, when)

	order, err := BuildOrder(results)
	require.NoError(t, err)
	assert.Equal(t, []string{"rawrbox-math", "rawrbox-render", "rawrbox-ui"}, order)
}

func TestBuildOrderCycle(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"recipe.hcl": `
recipe "a" { requires = ["b/1.0"] }
recipe "b" { requires = ["a/1.0"] }
`,
	})
	ws, err := Load(context.Background(), root)
	require.NoError(t, err)
	results, err := ws.ResolveAll(context.Background(), platform.Platform{})
	require.NoError(t, err)

	_, err = BuildOrder(results)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeDependencyCycle), "error: %v", err)
}
