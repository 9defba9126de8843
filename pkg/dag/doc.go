// Package dag provides the requirement graph of a workspace.
//
// Nodes are recipes defined in the workspace ([NodeKindLocal]) and the
// packages they require that no workspace recipe provides
// ([NodeKindExternal]). An edge From → To means From requires To.
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "rawrbox-render"})
//	g.AddNode(dag.Node{ID: "rawrbox-math"})
//	g.AddEdge(dag.Edge{From: "rawrbox-render", To: "rawrbox-math"})
//	order, err := g.TopoOrder() // [rawrbox-math rawrbox-render]
//
// Every query that returns several nodes sorts them by ID, and
// [DAG.TopoOrder] breaks ties by ID, so output never depends on map
// iteration order. A cycle is reported as a [CycleError] carrying the
// offending path.
package dag
