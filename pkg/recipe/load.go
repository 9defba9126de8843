package recipe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/stackrecipe/pkg/errors"
)

// Parser reads recipe descriptors in one serialization.
type Parser interface {
	// Parse decodes src. It does not run Validate.
	Parse(filename string, src []byte) ([]*Recipe, error)
	// Supports reports whether this parser handles the given filename.
	Supports(filename string) bool
	// Format returns the serialization identifier (e.g., "hcl").
	Format() string
}

// Parsers returns every supported recipe parser.
func Parsers() []Parser {
	return []Parser{hclParser{}, tomlParser{}}
}

// DetectParser finds a parser that supports the given file path.
func DetectParser(path string) (Parser, error) {
	name := filepath.Base(path)
	for _, p := range Parsers() {
		if p.Supports(name) {
			return p, nil
		}
	}
	formats := make([]string, 0, len(Parsers()))
	for _, p := range Parsers() {
		formats = append(formats, "."+p.Format())
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported recipe descriptor: %s (use %s)", name, strings.Join(formats, " or "))
}

// IsRecipeFile reports whether name follows the recipe file naming
// convention: recipe.hcl, recipe.toml, or <target>.recipe.{hcl,toml}.
func IsRecipeFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".hcl" && ext != ".toml" {
		return false
	}
	stem := strings.TrimSuffix(strings.ToLower(name), ext)
	return stem == "recipe" || strings.HasSuffix(stem, ".recipe")
}

// Load reads, parses and validates every recipe in the file at path.
func Load(path string) ([]*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse parses and validates src, choosing the serialization from filename.
// Recipe names must be unique within one document.
func Parse(filename string, src []byte) ([]*Recipe, error) {
	p, err := DetectParser(filename)
	if err != nil {
		return nil, err
	}
	recipes, err := p.Parse(filename, src)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(recipes))
	for _, r := range recipes {
		if seen[r.Name] {
			return nil, errors.New(errors.ErrCodeDuplicateRecipe, "%s: recipe %q declared twice", filename, r.Name)
		}
		seen[r.Name] = true
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return recipes, nil
}

// Find returns the recipe with the given name.
func Find(recipes []*Recipe, name string) (*Recipe, error) {
	for _, r := range recipes {
		if r.Name == name {
			return r, nil
		}
	}
	names := make([]string, 0, len(recipes))
	for _, r := range recipes {
		names = append(names, r.Name)
	}
	return nil, errors.New(errors.ErrCodeRecipeNotFound, "no recipe %q (available: %s)", name, strings.Join(names, ", "))
}
