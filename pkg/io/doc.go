// Package io provides JSON import and export for requirement graphs.
//
// The format is a flat object of nodes and edges:
//
//	{
//	  "nodes": [
//	    {"id": "rawrbox-render", "meta": {"version": "0.1.0"}},
//	    {"id": "wayland/1.21.0", "kind": "external"}
//	  ],
//	  "edges": [
//	    {"from": "rawrbox-render", "to": "wayland/1.21.0", "when": "os == \"Linux\""}
//	  ]
//	}
//
// Nodes are written sorted by ID and edges by (from, to), so exporting the
// same graph twice yields identical bytes. Workspace recipes omit "kind";
// external packages carry "external". An edge added by a rule carries the
// rule's predicate under "when".
//
// [ReadJSON] rebuilds the graph and rejects duplicate nodes, edges to
// unknown nodes and cycles.
package io
