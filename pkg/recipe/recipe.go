// Package recipe loads dependency recipe descriptors.
//
// A recipe describes one buildable unit: the platform axes it varies over,
// the packages it requires (each pinned to an exact version), the build-file
// generators it needs, and an ordered list of rules that add requirements
// when a predicate over the platform holds.
//
// Two serializations are supported. HCL files may hold several recipes and
// express predicates as expressions:
//
//	recipe "rawrbox-render" {
//	  version    = "0.1.0"
//	  settings   = ["os", "compiler", "build_type", "arch"]
//	  requires   = ["fmt/9.1.0", "nlohmann_json/3.11.2"]
//	  generators = ["CMakeToolchain", "CMakeDeps"]
//
//	  rule {
//	    when     = os == "Linux"
//	    requires = ["wayland/1.21.0"]
//	  }
//	}
//
// TOML files hold one recipe and express predicates as equality tables:
//
//	name       = "rawrbox-render"
//	settings   = ["os"]
//	requires   = ["fmt/9.1.0"]
//	generators = ["CMakeToolchain", "CMakeDeps"]
//
//	[[rule]]
//	when     = { os = "Linux" }
//	requires = ["wayland/1.21.0"]
//
// Loading is all-or-nothing. Errors carry MALFORMED_DESCRIPTOR,
// UNKNOWN_OPTION or DUPLICATE_REQUIREMENT codes from pkg/errors.
package recipe

import (
	"slices"
	"strings"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/platform"
)

// Generators lists the build-file generators a recipe may request.
var Generators = []string{
	"CMake",
	"CMakeDeps",
	"CMakeToolchain",
	"MesonToolchain",
	"PkgConfigDeps",
	"VirtualBuildEnv",
	"VirtualRunEnv",
}

// Reference is a package pinned to one version, written "name/version".
type Reference struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ParseReference parses "name/version".
func ParseReference(s string) (Reference, error) {
	name, version, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Reference{}, errors.New(errors.ErrCodeMalformedDescriptor, "requirement %q must be name/version", s)
	}
	if err := errors.ValidateRecipeName(name); err != nil {
		return Reference{}, errors.Wrap(errors.ErrCodeMalformedDescriptor, err, "requirement %q", s)
	}
	if err := errors.ValidateExactVersion(version); err != nil {
		return Reference{}, errors.Wrap(errors.ErrCodeMalformedDescriptor, err, "requirement %q", s)
	}
	return Reference{Name: name, Version: version}, nil
}

// String returns "name/version".
func (r Reference) String() string {
	return r.Name + "/" + r.Version
}

// Rule appends Requires when When holds for the platform.
type Rule struct {
	When     Predicate
	Requires []Reference
}

// Recipe is one buildable unit.
type Recipe struct {
	Name       string
	Version    string
	Settings   []string    // axes the build varies over, in declared order
	Requires   []Reference // base requirements, in declared order
	Generators []string
	Rules      []Rule // evaluated in declared order
	Source     string // file the recipe was loaded from
}

// Ref returns the recipe's own reference. Version may be empty.
func (r *Recipe) Ref() Reference {
	return Reference{Name: r.Name, Version: r.Version}
}

// Validate checks the invariants shared by every serialization.
func (r *Recipe) Validate() error {
	if err := errors.ValidateRecipeName(r.Name); err != nil {
		return errors.Wrap(errors.ErrCodeMalformedDescriptor, err, "recipe name")
	}
	if r.Version != "" {
		if err := errors.ValidateExactVersion(r.Version); err != nil {
			return errors.Wrap(errors.ErrCodeMalformedDescriptor, err, "recipe %s version", r.Name)
		}
	}

	for i, axis := range r.Settings {
		if !platform.IsAxis(axis) {
			return errors.New(errors.ErrCodeUnknownOption, "recipe %s: unknown setting %q (known: %s)",
				r.Name, axis, strings.Join(platform.Axes(), ", "))
		}
		if slices.Contains(r.Settings[:i], axis) {
			return errors.New(errors.ErrCodeMalformedDescriptor, "recipe %s: setting %q listed twice", r.Name, axis)
		}
	}

	if err := checkUnique(r.Name, "requires", r.Requires); err != nil {
		return err
	}

	for i, g := range r.Generators {
		if !slices.Contains(Generators, g) {
			return errors.New(errors.ErrCodeUnknownOption, "recipe %s: unknown generator %q (known: %s)",
				r.Name, g, strings.Join(Generators, ", "))
		}
		if slices.Contains(r.Generators[:i], g) {
			return errors.New(errors.ErrCodeMalformedDescriptor, "recipe %s: generator %q listed twice", r.Name, g)
		}
	}

	for i, rule := range r.Rules {
		if rule.When == nil {
			return errors.New(errors.ErrCodeMalformedDescriptor, "recipe %s: rule %d has no predicate", r.Name, i+1)
		}
		if len(rule.Requires) == 0 {
			return errors.New(errors.ErrCodeMalformedDescriptor, "recipe %s: rule %d requires nothing", r.Name, i+1)
		}
		for _, axis := range rule.When.Axes() {
			if !slices.Contains(r.Settings, axis) {
				return errors.New(errors.ErrCodeUnknownOption, "recipe %s: rule %d uses %q which is not in settings",
					r.Name, i+1, axis)
			}
		}
		if err := checkUnique(r.Name, "rule", rule.Requires); err != nil {
			return err
		}
	}
	return nil
}

func checkUnique(recipe, where string, refs []Reference) error {
	seen := make(map[string]Reference, len(refs))
	for _, ref := range refs {
		if prev, ok := seen[ref.Name]; ok {
			return errors.New(errors.ErrCodeDuplicateRequirement, "recipe %s: %s pins %s twice (%s and %s)",
				recipe, where, ref.Name, prev, ref)
		}
		seen[ref.Name] = ref
	}
	return nil
}

func parseReferences(raw []string) ([]Reference, error) {
	refs := make([]Reference, 0, len(raw))
	for _, s := range raw {
		ref, err := ParseReference(s)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
