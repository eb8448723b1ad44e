package flow

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a point in logical canvas coordinates.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Side distinguishes the input and output sides of a node.
type Side int

const (
	// SideInput addresses a node's input ports ("input_N" labels).
	SideInput Side = iota
	// SideOutput addresses a node's output ports ("output_N" labels).
	SideOutput
)

// String returns "input" or "output".
func (s Side) String() string {
	if s == SideOutput {
		return "output"
	}
	return "input"
}

// PortLabel builds the positional label for the nth port (1-based) on a side.
func PortLabel(side Side, n int) string {
	return fmt.Sprintf("%s_%d", side, n)
}

// ParsePortLabel splits a positional label into its side and 1-based index.
// Returns ok=false for anything that is not of the form input_N / output_N
// with N >= 1.
func ParsePortLabel(label string) (side Side, n int, ok bool) {
	var rest string
	switch {
	case strings.HasPrefix(label, "input_"):
		side, rest = SideInput, label[len("input_"):]
	case strings.HasPrefix(label, "output_"):
		side, rest = SideOutput, label[len("output_"):]
	default:
		return 0, 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, 0, false
	}
	return side, n, true
}

// Connection is one half of a mirrored connection pair: the entry stored on
// an output port names the peer input node and port, and the entry stored on
// an input port names the peer output node and port.
//
// Waypoints are owned by the output-side entry only; the input-side mirror
// always has a nil Points slice. This keeps a single source of truth for
// reroute geometry.
type Connection struct {
	Node   string     // peer node id
	Port   string     // peer port label
	Points []Position // waypoints, output side only
}

// Port is a labeled connection slot holding an ordered connection list.
type Port struct {
	Connections []Connection
}

// Node is a placed element with named input/output ports and an opaque data
// payload. Ports are keyed by their positional label; because labels are
// dense, iterating PortLabel(side, 1..len) visits them in positional order.
type Node struct {
	ID      string
	Name    string
	Class   string         // CSS classes applied to the node's visual box
	Content string         // raw markup, or a registered template name when Typed
	Typed   bool           // Content names a registered template
	Data    map[string]any // arbitrary key-tree, caller-defined structure
	Pos     Position
	Inputs  map[string]*Port
	Outputs map[string]*Port
}

// PortsOn returns the port map for the given side.
func (n *Node) PortsOn(side Side) map[string]*Port {
	if side == SideOutput {
		return n.Outputs
	}
	return n.Inputs
}

// Clone returns a deep copy of the node. Mutating the copy never affects
// the original, including through the data payload or waypoint slices.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Data = copyTree(n.Data)
	out.Inputs = clonePorts(n.Inputs)
	out.Outputs = clonePorts(n.Outputs)
	return &out
}

func clonePorts(ports map[string]*Port) map[string]*Port {
	out := make(map[string]*Port, len(ports))
	for label, p := range ports {
		cp := &Port{Connections: make([]Connection, len(p.Connections))}
		for i, c := range p.Connections {
			cc := c
			if c.Points != nil {
				cc.Points = append([]Position(nil), c.Points...)
			}
			cp.Connections[i] = cc
		}
		out[label] = cp
	}
	return out
}

// copyTree deep-copies an arbitrary JSON-like key tree. Maps and slices are
// duplicated recursively; scalar leaves are shared (they are immutable).
func copyTree(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyTree(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

// NodeSpec describes a node to be created by [Store.AddNode].
type NodeSpec struct {
	Name    string
	Inputs  int // number of input ports to create
	Outputs int // number of output ports to create
	Pos     Position
	Class   string
	Content string
	Typed   bool
	Data    map[string]any
}
