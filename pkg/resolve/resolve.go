// Package resolve computes the final requirement list of a recipe for one
// platform.
//
// Resolution starts from the recipe's base requirements in declared order and
// walks its rules in declared order, appending each rule's packages when its
// predicate holds. Nothing is ever reordered, so the same recipe and platform
// always yield the same list. A rule that would pin an already present
// package fails with DUPLICATE_REQUIREMENT instead of overriding it.
package resolve

import (
	"slices"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/platform"
	"github.com/matzehuels/stackrecipe/pkg/recipe"
)

// Resolution is the evaluated form of a recipe for one platform.
type Resolution struct {
	Recipe     *recipe.Recipe
	Platform   platform.Platform  // projected onto the recipe's settings
	Requires   []recipe.Reference // base first, then applied rules in order
	Generators []string
	Applied    []int // zero-based indexes of the rules that held
}

// Resolve evaluates r against p. The platform is first projected onto the
// axes the recipe declares, so axes a recipe does not vary over can never
// change its result.
func Resolve(r *recipe.Recipe, p platform.Platform) (*Resolution, error) {
	projected := p.Project(r.Settings)

	requires := slices.Clone(r.Requires)
	index := make(map[string]recipe.Reference, len(requires))
	for _, ref := range requires {
		index[ref.Name] = ref
	}

	res := &Resolution{
		Recipe:     r,
		Platform:   projected,
		Generators: slices.Clone(r.Generators),
	}

	for i, rule := range r.Rules {
		ok, err := rule.When.Holds(projected)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedDescriptor, err, "recipe %s: rule %d", r.Name, i+1)
		}
		if !ok {
			continue
		}
		for _, ref := range rule.Requires {
			if prev, dup := index[ref.Name]; dup {
				return nil, errors.New(errors.ErrCodeDuplicateRequirement,
					"recipe %s: rule %d (%s) adds %s but %s is already required",
					r.Name, i+1, rule.When, ref, prev)
			}
			index[ref.Name] = ref
			requires = append(requires, ref)
		}
		res.Applied = append(res.Applied, i)
	}

	res.Requires = requires
	return res, nil
}

// Strings returns the requirements as "name/version" strings.
func (r *Resolution) Strings() []string {
	out := make([]string, len(r.Requires))
	for i, ref := range r.Requires {
		out[i] = ref.String()
	}
	return out
}
