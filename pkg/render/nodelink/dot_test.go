package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/stackrecipe/pkg/dag"
)

func sample(t *testing.T) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, n := range []dag.Node{
		{ID: "rawrbox-render", Meta: dag.Metadata{"version": "0.1.0"}},
		{ID: "rawrbox-math"},
		{ID: "wayland/1.21.0", Kind: dag.NodeKindExternal},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	_ = g.AddEdge(dag.Edge{From: "rawrbox-render", To: "wayland/1.21.0", Meta: dag.Metadata{"when": `os == "Linux"`}})
	_ = g.AddEdge(dag.Edge{From: "rawrbox-render", To: "rawrbox-math"})
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sample(t), Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=BT;",
		`"rawrbox-math" [label="rawrbox-math", fillcolor=lightsteelblue1];`,
		`"wayland/1.21.0" [label="wayland/1.21.0", style="rounded,dashed", fontcolor=gray30];`,
		`"rawrbox-render" -> "rawrbox-math";`,
		`"rawrbox-render" -> "wayland/1.21.0" [style=dashed, tooltip="os == \"Linux\""];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}

	// edges are sorted regardless of insertion order
	if strings.Index(dot, `-> "rawrbox-math"`) > strings.Index(dot, `-> "wayland/1.21.0"`) {
		t.Error("edges should be sorted by target")
	}
}

func TestToDOTDeterministic(t *testing.T) {
	a := ToDOT(sample(t), Options{Detailed: true})
	b := ToDOT(sample(t), Options{Detailed: true})
	if a != b {
		t.Error("ToDOT should be deterministic")
	}
	if !strings.Contains(a, `label="rawrbox-render\nversion: 0.1.0"`) {
		t.Errorf("detailed label missing metadata:\n%s", a)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.25 200.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.25 200.00" width="100" height="200">`) {
		t.Errorf("normalizeViewBox = %s", out)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("without viewBox the SVG should be unchanged, got %s", got)
	}
}
