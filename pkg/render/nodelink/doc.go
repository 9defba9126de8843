// Package nodelink renders requirement graphs as node-link diagrams.
//
// Workspace recipes are drawn as filled boxes and external packages as
// dashed boxes, with an arrow from each dependent to what it requires.
// [ToDOT] produces Graphviz DOT source; [RenderSVG] lays it out with
// [github.com/goccy/go-graphviz], which embeds Graphviz so no external
// binary is needed.
package nodelink
