package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/stackrecipe/pkg/dag"
)

// ReadJSON decodes a graph written by [WriteJSON]. Unknown kinds are
// rejected; a missing kind means a workspace recipe. The returned graph is
// validated, so errors.Is(err, dag.ErrGraphHasCycle) reports a cycle.
func ReadJSON(r io.Reader) (*dag.DAG, error) {
	var data graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := dag.New(nil)
	for _, n := range data.Nodes {
		nd := dag.Node{ID: n.ID, Meta: n.Meta}
		switch n.Kind {
		case "":
			nd.Kind = dag.NodeKindLocal
		case kindExternal:
			nd.Kind = dag.NodeKindExternal
		default:
			return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
		}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range data.Edges {
		ed := dag.Edge{From: e.From, To: e.To}
		if e.When != "" {
			ed.Meta = dag.Metadata{metaWhen: e.When}
		}
		if err := g.AddEdge(ed); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// ImportJSON reads the JSON graph file at path.
func ImportJSON(path string) (*dag.DAG, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
