package editor

import "github.com/flowgrid/flowgrid/pkg/flow"

// ConnectionShape is everything a view needs to draw one connection: one
// SVG path per curve segment plus the waypoint positions in canvas
// coordinates. Segments and waypoints are indexed independently of any
// view-layer child ordering; views must never derive waypoint indices from
// their own element order.
type ConnectionShape struct {
	Key      flow.ConnKey
	Segments []string        // SVG path data, one entry per curve segment
	Points   []flow.Position // waypoints, in connection order
}

// View is the rendering surface an editor session keeps consistent with
// the graph store. Implementations mutate DOM, SVG, a terminal grid or
// nothing at all; the editor never reads state back from a view.
//
// All positions are logical canvas coordinates; the view applies the
// transform announced by SetTransform itself.
type View interface {
	// MountNode creates the visual box for a node.
	MountNode(n *flow.Node)
	// UnmountNode removes a node's box and any attached chrome.
	UnmountNode(id string)
	// PlaceNode repositions a node's box.
	PlaceNode(id string, pos flow.Position)
	// SetNodeSelected toggles selection styling on a node.
	SetNodeSelected(id string, selected bool)

	// MountConnection creates the visual element for a connection.
	MountConnection(key flow.ConnKey)
	// UnmountConnection removes a connection's element.
	UnmountConnection(key flow.ConnKey)
	// DrawConnection applies recomputed path data to a connection.
	DrawConnection(shape ConnectionShape)
	// SetConnectionSelected toggles selection styling on a connection.
	SetConnectionSelected(key flow.ConnKey, selected bool)

	// DrawProvisional shows or updates the connector that follows the
	// pointer while a connection is being drawn. It has no logical
	// backing in the store.
	DrawProvisional(path string)
	// ClearProvisional discards the provisional connector.
	ClearProvisional()

	// SetTransform announces a new zoom level and pan offset for the
	// whole canvas.
	SetTransform(zoom float64, pan flow.Position)
	// Clear drops every mounted element, used when switching modules.
	Clear()
}

// Metrics reports where a node's ports sit in canvas coordinates. A DOM
// host measures real elements; headless hosts use [BoxMetrics].
type Metrics interface {
	PortPosition(n *flow.Node, side flow.Side, label string) flow.Position
}

// BoxMetrics computes port positions for fixed-size node boxes: inputs on
// the left edge, outputs on the right, stacked top to bottom.
type BoxMetrics struct {
	Width       float64 // box width
	HeaderH     float64 // vertical offset of the first port row
	PortSpacing float64 // vertical distance between port rows
}

// DefaultMetrics returns box metrics matching the stock CSS theme.
func DefaultMetrics() BoxMetrics {
	return BoxMetrics{Width: 160, HeaderH: 20, PortSpacing: 24}
}

// PortPosition implements [Metrics].
func (m BoxMetrics) PortPosition(n *flow.Node, side flow.Side, label string) flow.Position {
	_, idx, ok := flow.ParsePortLabel(label)
	if !ok {
		idx = 1
	}
	x := n.Pos.X
	if side == flow.SideOutput {
		x += m.Width
	}
	return flow.Position{X: x, Y: n.Pos.Y + m.HeaderH + float64(idx-1)*m.PortSpacing}
}

// NullView is a View that renders nothing. It lets the model and event
// contract run headless, for tests and for hosts that only need the data
// layer.
type NullView struct{}

func (NullView) MountNode(*flow.Node)                     {}
func (NullView) UnmountNode(string)                       {}
func (NullView) PlaceNode(string, flow.Position)          {}
func (NullView) SetNodeSelected(string, bool)             {}
func (NullView) MountConnection(flow.ConnKey)             {}
func (NullView) UnmountConnection(flow.ConnKey)           {}
func (NullView) DrawConnection(ConnectionShape)           {}
func (NullView) SetConnectionSelected(flow.ConnKey, bool) {}
func (NullView) DrawProvisional(string)                   {}
func (NullView) ClearProvisional()                        {}
func (NullView) SetTransform(float64, flow.Position)      {}
func (NullView) Clear()                                   {}
