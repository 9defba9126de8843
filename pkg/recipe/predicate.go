package recipe

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/stackrecipe/pkg/platform"
)

// Predicate decides whether a rule applies to a platform.
// Implementations are immutable and safe for concurrent use.
type Predicate interface {
	// Holds evaluates the predicate. An error means the predicate itself is
	// broken, not that it is false.
	Holds(p platform.Platform) (bool, error)
	// Axes lists the platform axes the predicate reads, sorted.
	Axes() []string
	// String renders the predicate for humans.
	String() string
}

// Match holds when every listed axis has exactly the given value.
// An axis the platform leaves unset never matches.
type Match map[string]string

// Equals is shorthand for a single-axis Match.
func Equals(axis, value string) Match {
	return Match{axis: value}
}

func (m Match) Holds(p platform.Platform) (bool, error) {
	for axis, want := range m {
		got, ok := p.Get(axis)
		if !ok || got != want {
			return false, nil
		}
	}
	return true, nil
}

func (m Match) Axes() []string {
	return slices.Sorted(maps.Keys(m))
}

func (m Match) String() string {
	parts := make([]string, 0, len(m))
	for _, axis := range m.Axes() {
		parts = append(parts, fmt.Sprintf("%s == %q", axis, m[axis]))
	}
	return strings.Join(parts, " && ")
}
