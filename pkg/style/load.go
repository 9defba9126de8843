package style

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stackrecipe/pkg/errors"
)

// Format identifies a style descriptor serialization.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Parser reads style descriptors in one serialization.
type Parser interface {
	// Parse decodes and validates a whole document.
	Parse(src []byte) (*Settings, error)
	// Supports reports whether this parser handles the given filename.
	Supports(filename string) bool
	// Format returns the serialization handled by this parser.
	Format() Format
}

// Parsers returns every supported style parser.
func Parsers() []Parser {
	return []Parser{tomlParser{}, yamlParser{}}
}

// DetectParser finds a parser that supports the given file path.
func DetectParser(path string) (Parser, error) {
	name := filepath.Base(path)
	for _, p := range Parsers() {
		if p.Supports(name) {
			return p, nil
		}
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported style descriptor: %s (use .toml, .yaml or .yml)", name)
}

// Load reads and validates the style descriptor at path.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse validates src, choosing the serialization from filename.
func Parse(filename string, src []byte) (*Settings, error) {
	p, err := DetectParser(filename)
	if err != nil {
		return nil, err
	}
	s, err := p.Parse(src)
	if err != nil {
		if errors.GetCode(err) == "" {
			return nil, errors.Wrap(errors.ErrCodeMalformedDescriptor, err, "parse %s", filepath.Base(filename))
		}
		return nil, err
	}
	return s, nil
}

type tomlParser struct{}

func (tomlParser) Format() Format { return FormatTOML }

func (tomlParser) Supports(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".toml")
}

func (tomlParser) Parse(src []byte) (*Settings, error) {
	var doc map[string]any
	if _, err := toml.NewDecoder(bytes.NewReader(src)).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedDescriptor, err, "invalid TOML")
	}
	return FromMap(doc)
}

type yamlParser struct{}

func (yamlParser) Format() Format { return FormatYAML }

func (yamlParser) Supports(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func (yamlParser) Parse(src []byte) (*Settings, error) {
	var doc map[string]any
	dec := yaml.NewDecoder(bytes.NewReader(src))
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeMalformedDescriptor, err, "invalid YAML")
	}
	return FromMap(doc)
}
