// Package render turns workspace requirement graphs into diagrams.
//
// The [nodelink] subpackage emits Graphviz DOT and renders it to SVG
// in-process:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/stackrecipe/pkg/render/nodelink
package render
