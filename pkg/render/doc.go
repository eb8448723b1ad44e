// Package render rasterizes flow diagrams for export.
//
// # Overview
//
// This package turns an exported diagram snapshot into static images. It
// provides:
//
//   - DOT generation from a snapshot module ([ToDOT])
//   - In-process SVG and PNG rendering via Graphviz ([RenderSVG], [RenderPNG])
//
// # Usage
//
// Convert one module of a snapshot to DOT, then render:
//
//	dot := render.ToDOT(snap, "Home", render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
// The generated DOT uses left-to-right layout (rankdir=LR) matching the
// editor's horizontal connection flow, with one record-shaped box per node
// so edges attach to the port they belong to.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process
// rendering; no external Graphviz installation is needed.
package render
