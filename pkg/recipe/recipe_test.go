package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/platform"
)

const renderHCL = `
recipe "rawrbox-render" {
  version    = "0.1.0"
  settings   = ["os", "compiler", "build_type", "arch"]
  requires   = ["fmt/9.1.0", "nlohmann_json/3.11.2", "utfcpp/3.2.3", "stb/cci.20220909", "glfw/3.3.8"]
  generators = ["CMakeToolchain", "CMakeDeps"]

  rule {
    when     = os == "Linux"
    requires = ["wayland/1.21.0"]
  }
}

recipe "rawrbox-math" {
  settings   = ["os", "arch"]
  requires   = ["magic_enum/0.8.2"]
  generators = ["CMakeDeps"]
}
`

const renderTOML = `
name       = "rawrbox-render"
version    = "0.1.0"
settings   = ["os", "compiler", "build_type", "arch"]
requires   = ["fmt/9.1.0"]
generators = ["CMakeToolchain", "CMakeDeps"]

[[rule]]
when     = { os = "Linux" }
requires = ["wayland/1.21.0"]
`

func linux(t *testing.T) platform.Platform {
	t.Helper()
	p, err := platform.Parse("os=Linux")
	require.NoError(t, err)
	return p
}

func windows(t *testing.T) platform.Platform {
	t.Helper()
	p, err := platform.Parse("os=Windows")
	require.NoError(t, err)
	return p
}

func TestParseHCL(t *testing.T) {
	recipes, err := Parse("recipe.hcl", []byte(renderHCL))
	require.NoError(t, err)
	require.Len(t, recipes, 2)

	r := recipes[0]
	assert.Equal(t, "rawrbox-render", r.Name)
	assert.Equal(t, "0.1.0", r.Version)
	assert.Equal(t, []string{"os", "compiler", "build_type", "arch"}, r.Settings)
	assert.Equal(t, Reference{Name: "fmt", Version: "9.1.0"}, r.Requires[0])
	assert.Equal(t, "stb/cci.20220909", r.Requires[3].String())
	assert.Equal(t, []string{"CMakeToolchain", "CMakeDeps"}, r.Generators)
	assert.Equal(t, "recipe.hcl", r.Source)

	require.Len(t, r.Rules, 1)
	assert.Equal(t, `os == "Linux"`, r.Rules[0].When.String())
	assert.Equal(t, []string{"os"}, r.Rules[0].When.Axes())
	assert.Equal(t, []Reference{{Name: "wayland", Version: "1.21.0"}}, r.Rules[0].Requires)

	ok, err := r.Rules[0].When.Holds(linux(t))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Rules[0].When.Holds(windows(t))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Empty(t, recipes[1].Version)
	assert.Empty(t, recipes[1].Rules)
}

func TestParseTOML(t *testing.T) {
	recipes, err := Parse("render.recipe.toml", []byte(renderTOML))
	require.NoError(t, err)
	require.Len(t, recipes, 1)

	r := recipes[0]
	assert.Equal(t, "rawrbox-render", r.Name)
	require.Len(t, r.Rules, 1)
	assert.Equal(t, Match{"os": "Linux"}, r.Rules[0].When)
	assert.Equal(t, `os == "Linux"`, r.Rules[0].When.String())

	ok, err := r.Rules[0].When.Holds(linux(t))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExpressionPredicates(t *testing.T) {
	tests := []struct {
		name    string
		when    string
		linux   bool
		windows bool
	}{
		{"settings attribute", `settings.os == "Linux"`, true, false},
		{"negation", `os != "Windows"`, true, false},
		{"lower", `lower(os) == "linux"`, true, false},
		{"contains", `contains(["Linux", "FreeBSD"], os)`, true, false},
		{"or", `os == "Linux" || os == "Windows"`, true, true},
		{"literal", `true`, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `recipe "demo" {
  settings = ["os"]
  rule {
    when     = ` + tt.when + `
    requires = ["wayland/1.21.0"]
  }
}
`
			recipes, err := Parse("recipe.hcl", []byte(src))
			require.NoError(t, err)
			pred := recipes[0].Rules[0].When

			got, err := pred.Holds(linux(t))
			require.NoError(t, err)
			assert.Equal(t, tt.linux, got, "linux")

			got, err = pred.Holds(windows(t))
			require.NoError(t, err)
			assert.Equal(t, tt.windows, got, "windows")
		})
	}
}

func TestUnsetAxisNeverMatches(t *testing.T) {
	m := Equals(platform.AxisOS, "Linux")
	ok, err := m.Holds(platform.Platform{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		src      string
		code     errors.Code
	}{
		{
			name:     "unknown hcl attribute",
			filename: "recipe.hcl",
			src:      `recipe "a" { license = "MIT" }`,
			code:     errors.ErrCodeUnknownOption,
		},
		{
			name:     "unknown hcl block",
			filename: "recipe.hcl",
			src:      "recipe \"a\" {\n  options {\n  }\n}\n",
			code:     errors.ErrCodeUnknownOption,
		},
		{
			name:     "unknown toml key",
			filename: "recipe.toml",
			src:      "name = \"a\"\nlicense = \"MIT\"\n",
			code:     errors.ErrCodeUnknownOption,
		},
		{
			name:     "unknown toml rule key",
			filename: "recipe.toml",
			src:      "name = \"a\"\nsettings = [\"os\"]\n[[rule]]\nwhen = { os = \"Linux\" }\nunless = true\nrequires = [\"x/1\"]\n",
			code:     errors.ErrCodeUnknownOption,
		},
		{
			name:     "hcl predicate compares against unknown os",
			filename: "recipe.hcl",
			src:      "recipe \"a\" {\n  settings = [\"os\"]\n  rule {\n    when     = os == \"linux\"\n    requires = [\"wayland/1.21.0\"]\n  }\n}\n",
			code:     errors.ErrCodeUnknownOption,
		},
		{
			name:     "hcl predicate literal on the left",
			filename: "recipe.hcl",
			src:      "recipe \"a\" {\n  settings = [\"arch\"]\n  rule {\n    when     = \"x64\" != settings.arch\n    requires = [\"x/1.0.0\"]\n  }\n}\n",
			code:     errors.ErrCodeUnknownOption,
		},
		{
			name:     "unknown setting",
			filename: "recipe.hcl",
			src:      `recipe "a" { settings = ["distro"] }`,
			code:     errors.ErrCodeUnknownOption,
		},
		{
			name:     "unknown generator",
			filename: "recipe.hcl",
			src:      `recipe "a" { generators = ["premake"] }`,
			code:     errors.ErrCodeUnknownOption,
		},
		{
			name:     "rule axis not in settings",
			filename: "recipe.hcl",
			src:      "recipe \"a\" {\n  settings = [\"arch\"]\n  rule {\n    when = os == \"Linux\"\n    requires = [\"x/1\"]\n  }\n}\n",
			code:     errors.ErrCodeUnknownOption,
		},
		{
			name:     "predicate unknown variable",
			filename: "recipe.hcl",
			src:      "recipe \"a\" {\n  settings = [\"os\"]\n  rule {\n    when = distro == \"arch\"\n    requires = [\"x/1\"]\n  }\n}\n",
			code:     errors.ErrCodeUnknownOption,
		},
		{
			name:     "toml rule unknown value",
			filename: "recipe.toml",
			src:      "name = \"a\"\nsettings = [\"os\"]\n[[rule]]\nwhen = { os = \"Linx\" }\nrequires = [\"x/1\"]\n",
			code:     errors.ErrCodeUnknownOption,
		},
		{
			name:     "predicate not bool",
			filename: "recipe.hcl",
			src:      "recipe \"a\" {\n  settings = [\"os\"]\n  rule {\n    when = os\n    requires = [\"x/1\"]\n  }\n}\n",
			code:     errors.ErrCodeMalformedDescriptor,
		},
		{
			name:     "missing when",
			filename: "recipe.hcl",
			src:      "recipe \"a\" {\n  rule {\n    requires = [\"x/1\"]\n  }\n}\n",
			code:     errors.ErrCodeMalformedDescriptor,
		},
		{
			name:     "empty rule",
			filename: "recipe.hcl",
			src:      "recipe \"a\" {\n  settings = [\"os\"]\n  rule {\n    when = os == \"Linux\"\n    requires = []\n  }\n}\n",
			code:     errors.ErrCodeMalformedDescriptor,
		},
		{
			name:     "version range",
			filename: "recipe.hcl",
			src:      `recipe "a" { requires = ["fmt/[>=9.0 <10]"] }`,
			code:     errors.ErrCodeMalformedDescriptor,
		},
		{
			name:     "missing version",
			filename: "recipe.toml",
			src:      "name = \"a\"\nrequires = [\"fmt\"]\n",
			code:     errors.ErrCodeMalformedDescriptor,
		},
		{
			name:     "duplicate setting",
			filename: "recipe.hcl",
			src:      `recipe "a" { settings = ["os", "os"] }`,
			code:     errors.ErrCodeMalformedDescriptor,
		},
		{
			name:     "duplicate base requirement",
			filename: "recipe.hcl",
			src:      `recipe "a" { requires = ["fmt/9.1.0", "fmt/10.0.0"] }`,
			code:     errors.ErrCodeDuplicateRequirement,
		},
		{
			name:     "duplicate recipe",
			filename: "recipe.hcl",
			src:      "recipe \"a\" {}\nrecipe \"a\" {}\n",
			code:     errors.ErrCodeDuplicateRecipe,
		},
		{
			name:     "no recipes",
			filename: "recipe.hcl",
			src:      "",
			code:     errors.ErrCodeMalformedDescriptor,
		},
		{
			name:     "hcl syntax",
			filename: "recipe.hcl",
			src:      `recipe "a" {`,
			code:     errors.ErrCodeMalformedDescriptor,
		},
		{
			name:     "toml missing name",
			filename: "recipe.toml",
			src:      "requires = [\"fmt/9.1.0\"]\n",
			code:     errors.ErrCodeMalformedDescriptor,
		},
		{
			name:     "bad recipe name",
			filename: "recipe.toml",
			src:      "name = \"Rawrbox Render\"\n",
			code:     errors.ErrCodeMalformedDescriptor,
		},
		{
			name:     "unsupported format",
			filename: "conanfile.py",
			src:      "",
			code:     errors.ErrCodeUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.filename, []byte(tt.src))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err), "error: %v", err)
		})
	}
}

func TestIsRecipeFile(t *testing.T) {
	tests := map[string]bool{
		"recipe.hcl":         true,
		"recipe.toml":        true,
		"render.recipe.hcl":  true,
		"Math.Recipe.TOML":   true,
		"style.toml":         false,
		".cmake-format.yaml": false,
		"recipe.yaml":        false,
		"myrecipe.hcl":       false,
	}
	for name, want := range tests {
		assert.Equal(t, want, IsRecipeFile(name), name)
	}
}

func TestLoadAndFind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipe.hcl")
	require.NoError(t, os.WriteFile(path, []byte(renderHCL), 0o644))

	recipes, err := Load(path)
	require.NoError(t, err)

	r, err := Find(recipes, "rawrbox-math")
	require.NoError(t, err)
	assert.Equal(t, "rawrbox-math", r.Name)

	_, err = Find(recipes, "rawrbox-ui")
	assert.True(t, errors.Is(err, errors.ErrCodeRecipeNotFound))
}
