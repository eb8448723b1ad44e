package render

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/flowgrid/flowgrid/pkg/flow"
	"github.com/flowgrid/flowgrid/pkg/wire"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes the node class and data keys in node labels.
	// When false, only the node name is shown.
	Detailed bool
}

// ToDOT converts one module of a snapshot to Graphviz DOT format.
// Nodes become record shapes with one cell per port, so edges attach to
// the port they connect, and edges are drawn from the output side only so
// each connection appears exactly once. An unknown module yields an empty
// graph.
func ToDOT(snap *wire.Snapshot, module string, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=record, style=\"rounded,filled\", fillcolor=white, fontsize=12];\n")
	buf.WriteString("  ranksep=0.7;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	mod, ok := snap.Graph[module]
	if !ok {
		buf.WriteString("}\n")
		return buf.String()
	}

	ids := slices.Sorted(maps.Keys(mod.Data))
	for _, id := range ids {
		n := mod.Data[id]
		// The label is written raw: it already carries DOT-level escapes
		// that %q would double.
		fmt.Fprintf(&buf, "  %q [label=\"%s\"];\n", id, recordLabel(n, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, id := range ids {
		n := mod.Data[id]
		for _, label := range sortedPorts(n.Outputs) {
			for _, link := range n.Outputs[label].Connections {
				fmt.Fprintf(&buf, "  %q:%q -> %q:%q;\n", id, label, link.Node, link.Output)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// recordLabel builds a graphviz record: input cells, then the name body,
// then output cells. Port cells carry the port label so edges can target
// them.
func recordLabel(n wire.Node, detailed bool) string {
	var parts []string
	if cells := portCells(n.Inputs); cells != "" {
		parts = append(parts, "{"+cells+"}")
	}
	parts = append(parts, bodyLabel(n, detailed))
	if cells := portCells(n.Outputs); cells != "" {
		parts = append(parts, "{"+cells+"}")
	}
	return "{" + strings.Join(parts, "|") + "}"
}

func bodyLabel(n wire.Node, detailed bool) string {
	if !detailed {
		return escapeRecord(n.Name)
	}
	lines := []string{escapeRecord(n.Name)}
	if n.Class != "" {
		lines = append(lines, "class: "+escapeRecord(n.Class))
	}
	for _, k := range slices.Sorted(maps.Keys(n.Data)) {
		lines = append(lines, escapeRecord(fmt.Sprintf("%s: %v", k, n.Data[k])))
	}
	return strings.Join(lines, `\n`)
}

func portCells(ports map[string]wire.Port) string {
	labels := sortedPorts(ports)
	cells := make([]string, 0, len(labels))
	for _, label := range labels {
		cells = append(cells, fmt.Sprintf("<%s> %s", label, label))
	}
	return strings.Join(cells, "|")
}

// sortedPorts orders port labels numerically, input_2 before input_10.
func sortedPorts(ports map[string]wire.Port) []string {
	labels := slices.Collect(maps.Keys(ports))
	slices.SortFunc(labels, func(a, b string) int {
		_, na, _ := flow.ParsePortLabel(a)
		_, nb, _ := flow.ParsePortLabel(b)
		return na - nb
	})
	return labels
}

var recordEscaper = strings.NewReplacer(
	`"`, `\"`, "{", `\{`, "}", `\}`, "|", `\|`, "<", `\<`, ">", `\>`,
)

func escapeRecord(s string) string { return recordEscaper.Replace(s) }
