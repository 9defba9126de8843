package recipe

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/platform"
)

type tomlRecipe struct {
	Name       string     `toml:"name"`
	Version    string     `toml:"version"`
	Settings   []string   `toml:"settings"`
	Requires   []string   `toml:"requires"`
	Generators []string   `toml:"generators"`
	Rules      []tomlRule `toml:"rule"`
}

type tomlRule struct {
	When     map[string]string `toml:"when"`
	Requires []string          `toml:"requires"`
}

type tomlParser struct{}

func (tomlParser) Format() string { return "toml" }

func (tomlParser) Supports(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".toml")
}

func (tomlParser) Parse(filename string, src []byte) ([]*Recipe, error) {
	var tr tomlRecipe
	md, err := toml.NewDecoder(bytes.NewReader(src)).Decode(&tr)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedDescriptor, err, "parse %s", filename)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeUnknownOption, "%s: unknown option %q", filename, undecoded[0].String())
	}
	if tr.Name == "" {
		return nil, errors.New(errors.ErrCodeMalformedDescriptor, "%s: missing name", filename)
	}

	requires, err := parseReferences(tr.Requires)
	if err != nil {
		return nil, err
	}

	r := &Recipe{
		Name:       tr.Name,
		Version:    tr.Version,
		Settings:   tr.Settings,
		Requires:   requires,
		Generators: tr.Generators,
		Source:     filename,
	}

	for i, rule := range tr.Rules {
		if len(rule.When) == 0 {
			return nil, errors.New(errors.ErrCodeMalformedDescriptor, "%s: rule %d needs a when table", filename, i+1)
		}
		for axis, value := range rule.When {
			if !platform.IsAxis(axis) {
				return nil, errors.New(errors.ErrCodeUnknownOption, "%s: rule %d: unknown axis %q", filename, i+1, axis)
			}
			if !slices.Contains(platform.Values(axis), value) {
				return nil, errors.New(errors.ErrCodeUnknownOption, "%s: rule %d: unknown %s %q", filename, i+1, axis, value)
			}
		}
		refs, err := parseReferences(rule.Requires)
		if err != nil {
			return nil, err
		}
		r.Rules = append(r.Rules, Rule{When: Match(rule.When), Requires: refs})
	}
	return []*Recipe{r}, nil
}
