package editor

import (
	"github.com/flowgrid/flowgrid/pkg/curve"
	"github.com/flowgrid/flowgrid/pkg/flow"
)

// Synchronizer recomputes and applies visual path and position data so the
// view matches the graph store. It owns no state of its own: given a node
// id or connection key it reads the store, runs the curve engine, and hands
// the result to the view.
type Synchronizer struct {
	store   *flow.Store
	view    View
	metrics Metrics
	opts    *Options
}

// NewSynchronizer wires a synchronizer to its collaborators. The options
// pointer is shared with the editor so curvature changes take effect
// without rewiring.
func NewSynchronizer(store *flow.Store, view View, metrics Metrics, opts *Options) *Synchronizer {
	return &Synchronizer{store: store, view: view, metrics: metrics, opts: opts}
}

// SyncNode repositions a node's box and redraws every connection touching
// any of its ports, as source or destination.
func (y *Synchronizer) SyncNode(id string) {
	n, ok := y.store.Node(id)
	if !ok {
		return
	}
	y.view.PlaceNode(id, n.Pos)
	for _, key := range y.store.ConnectionsOf(id) {
		y.SyncConnection(key)
	}
}

// SyncConnection recomputes the full path of one connection. A connection
// with N waypoints becomes N+1 curve segments: the first in close mode,
// the last in open mode, interior segments symmetric, so joined segments
// look continuous at each waypoint.
func (y *Synchronizer) SyncConnection(key flow.ConnKey) {
	shape, ok := y.Shape(key)
	if !ok {
		return
	}
	y.view.DrawConnection(shape)
}

// Shape computes the drawable form of a connection without touching the
// view. Exposed for hosts that rasterize paths themselves.
func (y *Synchronizer) Shape(key flow.ConnKey) (ConnectionShape, bool) {
	src, ok := y.store.Node(key.OutNode)
	if !ok {
		return ConnectionShape{}, false
	}
	dst, ok := y.store.Node(key.InNode)
	if !ok {
		return ConnectionShape{}, false
	}
	points, err := y.store.Points(key)
	if err != nil {
		return ConnectionShape{}, false
	}

	start := y.metrics.PortPosition(src, flow.SideOutput, key.OutPort)
	end := y.metrics.PortPosition(dst, flow.SideInput, key.InPort)

	shape := ConnectionShape{Key: key, Points: points}
	if len(points) == 0 {
		shape.Segments = []string{
			curve.Path(start.X, start.Y, end.X, end.Y, y.opts.Curvature, curve.ModeSymmetric),
		}
		return shape, true
	}

	stops := make([]flow.Position, 0, len(points)+2)
	stops = append(stops, start)
	stops = append(stops, points...)
	stops = append(stops, end)

	for i := 0; i < len(stops)-1; i++ {
		mode := curve.ModeSymmetric
		curvature := y.opts.RerouteCurvature
		switch {
		case i == 0:
			mode = curve.ModeClose
			curvature = y.startEndCurvature()
		case i == len(stops)-2:
			mode = curve.ModeOpen
			curvature = y.startEndCurvature()
		}
		a, b := stops[i], stops[i+1]
		shape.Segments = append(shape.Segments, curve.Path(a.X, a.Y, b.X, b.Y, curvature, mode))
	}
	return shape, true
}

// startEndCurvature picks the curvature for the first and last segments of
// a rerouted path. With RerouteFixCurvature set, every segment shares
// RerouteCurvature so the curvature never jumps at the outermost waypoints.
func (y *Synchronizer) startEndCurvature() float64 {
	if y.opts.RerouteFixCurvature {
		return y.opts.RerouteCurvature
	}
	return y.opts.RerouteCurvatureStartEnd
}

// ProvisionalPath computes the connector path from an output port to the
// current pointer position, for the provisional visual during connection
// drawing.
func (y *Synchronizer) ProvisionalPath(outNode, outPort string, pointer flow.Position) (string, bool) {
	src, ok := y.store.Node(outNode)
	if !ok {
		return "", false
	}
	start := y.metrics.PortPosition(src, flow.SideOutput, outPort)
	return curve.Path(start.X, start.Y, pointer.X, pointer.Y, y.opts.Curvature, curve.ModeSymmetric), true
}

// SyncAll rebuilds the view for an entire module: every node is mounted and
// placed, then every connection is drawn exactly once (enumerated from the
// output side). Called after imports and module switches.
func (y *Synchronizer) SyncAll(module string) {
	ids := y.store.NodeIDs(module)
	for _, id := range ids {
		n, ok := y.store.Node(id)
		if !ok {
			continue
		}
		y.view.MountNode(n)
		y.view.PlaceNode(id, n.Pos)
	}
	for _, id := range ids {
		n, _ := y.store.Node(id)
		for i := 1; i <= len(n.Outputs); i++ {
			label := flow.PortLabel(flow.SideOutput, i)
			for _, c := range n.Outputs[label].Connections {
				key := flow.ConnKey{OutNode: id, OutPort: label, InNode: c.Node, InPort: c.Port}
				y.view.MountConnection(key)
				y.SyncConnection(key)
			}
		}
	}
}

// retarget swaps the store the synchronizer reads from, used when an
// import replaces the editor's store wholesale.
func (y *Synchronizer) retarget(store *flow.Store) { y.store = store }
