package workspace

import (
	"maps"
	"slices"

	"github.com/matzehuels/stackrecipe/pkg/dag"
	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/resolve"
)

// Conflict is a package pinned to different versions by different recipes.
type Conflict struct {
	Package  string
	Versions map[string][]string // version -> recipe names, sorted
}

// Conflicts reports packages required at more than one version across the
// given resolutions, sorted by package name. The external resolver would
// reject such a set, so it is surfaced before handing locks over.
func Conflicts(results []*resolve.Resolution) []Conflict {
	byPkg := make(map[string]map[string][]string)
	for _, res := range results {
		for _, ref := range res.Requires {
			if byPkg[ref.Name] == nil {
				byPkg[ref.Name] = make(map[string][]string)
			}
			byPkg[ref.Name][ref.Version] = append(byPkg[ref.Name][ref.Version], res.Recipe.Name)
		}
	}

	var out []Conflict
	for _, name := range slices.Sorted(maps.Keys(byPkg)) {
		versions := byPkg[name]
		if len(versions) < 2 {
			continue
		}
		for v := range versions {
			slices.Sort(versions[v])
		}
		out = append(out, Conflict{Package: name, Versions: versions})
	}
	return out
}

// Graph builds the requirement graph of the given resolutions. Workspace
// recipes are local nodes; every other requirement is an external node
// identified by name/version. Edges added by a rule carry the rule's
// predicate under the "when" metadata key.
func Graph(results []*resolve.Resolution) (*dag.DAG, error) {
	g := dag.New(nil)
	local := make(map[string]bool, len(results))
	for _, res := range results {
		meta := dag.Metadata{}
		if res.Recipe.Version != "" {
			meta["version"] = res.Recipe.Version
		}
		if res.Recipe.Source != "" {
			meta["source"] = res.Recipe.Source
		}
		if err := g.AddNode(dag.Node{ID: res.Recipe.Name, Kind: dag.NodeKindLocal, Meta: meta}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDuplicateRecipe, err, "recipe %q", res.Recipe.Name)
		}
		local[res.Recipe.Name] = true
	}

	for _, res := range results {
		when := conditionOf(res)
		for _, ref := range res.Requires {
			to := ref.Name
			if !local[to] {
				to = ref.String()
				if _, ok := g.Node(to); !ok {
					_ = g.AddNode(dag.Node{ID: to, Kind: dag.NodeKindExternal})
				}
			}
			meta := dag.Metadata{}
			if w, ok := when[ref.Name]; ok {
				meta["when"] = w
			}
			if err := g.AddEdge(dag.Edge{From: res.Recipe.Name, To: to, Meta: meta}); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// conditionOf maps each package added by an applied rule to that rule's
// predicate text.
func conditionOf(res *resolve.Resolution) map[string]string {
	out := make(map[string]string)
	for _, i := range res.Applied {
		rule := res.Recipe.Rules[i]
		for _, ref := range rule.Requires {
			out[ref.Name] = rule.When.String()
		}
	}
	return out
}

// BuildOrder returns workspace recipe names so that every recipe follows
// the workspace recipes it requires. Ties are broken by name.
func BuildOrder(results []*resolve.Resolution) ([]string, error) {
	g, err := Graph(results)
	if err != nil {
		return nil, err
	}
	order, err := g.TopoOrder()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDependencyCycle, err, "workspace recipes require each other")
	}
	return slices.DeleteFunc(order, func(id string) bool {
		n, _ := g.Node(id)
		return n.IsExternal()
	}), nil
}

// Locks converts resolutions to locks in the same order.
func Locks(results []*resolve.Resolution) []*resolve.Lock {
	locks := make([]*resolve.Lock, len(results))
	for i, res := range results {
		locks[i] = res.Lock()
	}
	return locks
}

