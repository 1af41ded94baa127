// Package report renders installed artifacts and their dependencies as a
// Graphviz diagram.
//
// Each package becomes a cluster holding its artifacts. Dependencies point
// at the artifact they resolved to; dependencies resolved outside the run
// appear as grey external nodes, and unresolved ones as dashed red nodes.
//
//	dot := report.ToDOT(pkgs, report.Options{Detailed: true})
//	svg, err := report.RenderSVG(dot)
//
// SVG rendering happens in-process through [github.com/goccy/go-graphviz].
package report
