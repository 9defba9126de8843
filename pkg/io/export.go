package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/matzehuels/stackrecipe/pkg/dag"
)

const (
	kindExternal = "external"
	metaWhen     = "when"
)

type graph struct {
	Nodes []node `json:"nodes"`
	Edges []edge `json:"edges"`
}

type node struct {
	ID   string       `json:"id"`
	Kind string       `json:"kind,omitempty"`
	Meta dag.Metadata `json:"meta,omitempty"`
}

type edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	When string `json:"when,omitempty"`
}

// WriteJSON encodes g as indented JSON.
func WriteJSON(g *dag.DAG, w io.Writer) error {
	nodes := g.Nodes()
	out := graph{
		Nodes: make([]node, len(nodes)),
		Edges: []edge{},
	}
	for i, n := range nodes {
		nd := node{ID: n.ID}
		if len(n.Meta) > 0 {
			nd.Meta = n.Meta
		}
		if n.IsExternal() {
			nd.Kind = kindExternal
		}
		out.Nodes[i] = nd
	}

	for _, e := range g.Edges() {
		ed := edge{From: e.From, To: e.To}
		if when, ok := e.Meta[metaWhen].(string); ok {
			ed.When = when
		}
		out.Edges = append(out.Edges, ed)
	}
	slices.SortFunc(out.Edges, func(a, b edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes g to a JSON file at path.
func ExportJSON(g *dag.DAG, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
