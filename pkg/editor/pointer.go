package editor

import (
	"github.com/flowgrid/flowgrid/pkg/events"
	"github.com/flowgrid/flowgrid/pkg/flow"
)

// This file is the interaction state machine: pointer-down on a classified
// target begins a gesture, pointer-move drives it, pointer-up commits or
// cancels it. Every handler leaves the session in a consistent state; an
// aborted gesture leaves the store exactly as it was when the gesture
// began: provisional connectors never touch the model, and in-flight node
// or waypoint moves are rolled back to their pointer-down position.

// PointerDown begins a gesture for the classified target under the
// pointer, at the given screen coordinates.
func (e *Editor) PointerDown(hit Hit, sx, sy float64) {
	// A new press while a gesture is somehow still active (lost
	// pointer-up) abandons the stale gesture first.
	e.CancelGesture()

	canvas := e.viewport.ScreenToCanvas(sx, sy)

	switch e.opts.EditorMode {
	case ModeView:
		if hit.Kind == HitBackground {
			e.beginCanvasDrag(sx, sy)
		}
		return
	case ModeFixed:
		if hit.Kind == HitBackground {
			e.clearSelection()
			e.beginCanvasDrag(sx, sy)
		}
		return
	}

	switch hit.Kind {
	case HitNode:
		e.selectNode(hit.Node)
		e.beginNodeDrag(hit.Node, canvas)

	case HitContent:
		e.selectNode(hit.Node)
		if e.opts.DraggableInputs {
			e.beginNodeDrag(hit.Node, canvas)
		}

	case HitOutput:
		e.gesture = gestureDrawConnection{outNode: hit.Node, outPort: hit.Port}
		if path, ok := e.sync.ProvisionalPath(hit.Node, hit.Port, canvas); ok {
			e.view.DrawProvisional(path)
		}
		e.bus.Emit(events.ConnectionStart, events.ConnectionStartInfo{
			OutputID:    hit.Node,
			OutputClass: hit.Port,
		})

	case HitInput:
		// Inputs accept drops; pressing one starts nothing.

	case HitConnection:
		e.selectConnection(hit.Conn)

	case HitReroutePoint:
		e.selectConnection(hit.Conn)
		g := gestureDragPoint{key: hit.Conn, index: hit.PointIndex}
		if pts, err := e.store.Points(hit.Conn); err == nil && hit.PointIndex >= 0 && hit.PointIndex < len(pts) {
			g.origin = pts[hit.PointIndex]
		}
		e.gesture = g

	case HitDeleteGlyph:
		e.deleteHitTarget(hit)

	case HitBackground:
		e.clearSelection()
		e.beginCanvasDrag(sx, sy)
	}
}

func (e *Editor) beginNodeDrag(id string, canvas flow.Position) {
	n, ok := e.store.Node(id)
	if !ok {
		return
	}
	e.gesture = gestureDragNode{
		id:         id,
		grabOffset: flow.Position{X: canvas.X - n.Pos.X, Y: canvas.Y - n.Pos.Y},
		origin:     n.Pos,
	}
}

func (e *Editor) beginCanvasDrag(sx, sy float64) {
	e.gesture = gestureDragCanvas{
		startScreen: flow.Position{X: sx, Y: sy},
		startPan:    e.viewport.Pan(),
	}
}

// PointerMove drives the active gesture. Re-delivering the same position
// is harmless: every branch recomputes absolute state from the pointer,
// it never accumulates deltas.
func (e *Editor) PointerMove(sx, sy float64) {
	switch g := e.gesture.(type) {
	case gestureDragNode:
		canvas := e.viewport.ScreenToCanvas(sx, sy)
		pos := flow.Position{X: canvas.X - g.grabOffset.X, Y: canvas.Y - g.grabOffset.Y}
		if e.store.SetPosition(g.id, pos) != nil {
			return
		}
		g.moved = true
		e.gesture = g
		e.sync.SyncNode(g.id)

	case gestureDragCanvas:
		pan := flow.Position{
			X: g.startPan.X + (sx - g.startScreen.X),
			Y: g.startPan.Y + (sy - g.startScreen.Y),
		}
		e.viewport.SetPan(pan)
		e.view.SetTransform(e.viewport.Zoom(), pan)
		e.bus.Emit(events.Translate, events.TranslateInfo{X: pan.X, Y: pan.Y})

	case gestureDrawConnection:
		canvas := e.viewport.ScreenToCanvas(sx, sy)
		if path, ok := e.sync.ProvisionalPath(g.outNode, g.outPort, canvas); ok {
			e.view.DrawProvisional(path)
		}

	case gestureDragPoint:
		canvas := e.viewport.ScreenToCanvas(sx, sy)
		if e.store.MovePoint(g.key, g.index, canvas) != nil {
			// The connection vanished under the gesture: prior
			// invariant breach, abandon rather than corrupt.
			e.CancelGesture()
			return
		}
		g.moved = true
		e.gesture = g
		e.sync.SyncConnection(g.key)
	}
}

// PointerUp ends the active gesture over the classified target. Drawing a
// connection commits if the drop target resolves to a valid input port;
// every other outcome discards the provisional connector and emits
// connectionCancel.
func (e *Editor) PointerUp(hit Hit, sx, sy float64) {
	switch g := e.gesture.(type) {
	case gestureDragNode:
		if g.moved {
			e.bus.Emit(events.NodeMoved, g.id)
		}

	case gestureDrawConnection:
		e.view.ClearProvisional()
		if inNode, inPort, ok := e.dropTarget(g, hit); ok {
			if e.Connect(g.outNode, inNode, g.outPort, inPort) == nil {
				break
			}
		}
		e.bus.Emit(events.ConnectionCancel, true)
	}
	e.gesture = gestureIdle{}
}

// dropTarget resolves where a drawn connection landed. A direct input-port
// hit wins; with ForceFirstInput, releasing anywhere over a node falls
// back to its first input when it has any.
func (e *Editor) dropTarget(g gestureDrawConnection, hit Hit) (node, port string, ok bool) {
	switch hit.Kind {
	case HitInput:
		return hit.Node, hit.Port, true
	case HitNode, HitContent, HitOutput:
		if !e.opts.ForceFirstInput || hit.Node == "" || hit.Node == g.outNode {
			return "", "", false
		}
		n, found := e.store.Node(hit.Node)
		if !found || len(n.Inputs) == 0 {
			return "", "", false
		}
		return hit.Node, flow.PortLabel(flow.SideInput, 1), true
	default:
		return "", "", false
	}
}

// DoubleClick inserts a waypoint on a connector, or removes the waypoint
// under the pointer. Only active with the Reroute option, in edit mode.
func (e *Editor) DoubleClick(hit Hit, sx, sy float64) {
	if !e.opts.Reroute || e.opts.EditorMode != ModeEdit {
		return
	}
	switch hit.Kind {
	case HitConnection:
		e.selectConnection(hit.Conn)
		canvas := e.viewport.ScreenToCanvas(sx, sy)
		_ = e.AddReroutePoint(hit.Conn, canvas)
	case HitReroutePoint:
		_ = e.RemoveReroutePoint(hit.Conn, hit.PointIndex)
	}
}

// DeleteSelected removes whatever is selected: the delete key handler.
// Nodes cascade their connections; a selected connection is simply
// disconnected. No-op in non-edit modes or with nothing selected.
func (e *Editor) DeleteSelected() {
	if e.opts.EditorMode != ModeEdit {
		return
	}
	switch {
	case e.selNode != "":
		e.RemoveNode(e.selNode)
	case e.selConn != nil:
		key := *e.selConn
		e.Disconnect(key.OutNode, key.InNode, key.OutPort, key.InPort)
	}
}

func (e *Editor) deleteHitTarget(hit Hit) {
	switch {
	case hit.Node != "":
		e.RemoveNode(hit.Node)
	case hit.Conn != (flow.ConnKey{}):
		e.Disconnect(hit.Conn.OutNode, hit.Conn.InNode, hit.Conn.OutPort, hit.Conn.InPort)
	}
}

// CancelGesture abandons any gesture in flight: the state machine returns
// to idle, provisional visuals are discarded, and any node or waypoint
// moved during the gesture snaps back to its pointer-down position. Hosts
// call this on lost pointer capture. On return the store holds exactly
// what it held when the gesture began.
func (e *Editor) CancelGesture() {
	switch g := e.gesture.(type) {
	case gestureIdle:
		return

	case gestureDragNode:
		if g.moved && e.store.SetPosition(g.id, g.origin) == nil {
			e.sync.SyncNode(g.id)
		}

	case gestureDragPoint:
		if g.moved && e.store.MovePoint(g.key, g.index, g.origin) == nil {
			e.sync.SyncConnection(g.key)
		}

	case gestureDrawConnection:
		e.view.ClearProvisional()
		e.bus.Emit(events.ConnectionCancel, true)
	}
	e.gesture = gestureIdle{}
}

// =============================================================================
// Selection
// =============================================================================

// SelectedNode returns the selected node id, or "" when none.
func (e *Editor) SelectedNode() string { return e.selNode }

// SelectedConnection returns the selected connection, or nil.
func (e *Editor) SelectedConnection() *flow.ConnKey {
	if e.selConn == nil {
		return nil
	}
	key := *e.selConn
	return &key
}

func (e *Editor) selectNode(id string) {
	if e.selNode == id {
		return
	}
	e.clearSelection()
	e.selNode = id
	e.view.SetNodeSelected(id, true)
	e.bus.Emit(events.NodeSelected, id)
}

func (e *Editor) selectConnection(key flow.ConnKey) {
	if e.selConn != nil && *e.selConn == key {
		return
	}
	e.clearSelection()
	e.selConn = &key
	e.view.SetConnectionSelected(key, true)
	e.bus.Emit(events.ConnectionSelected, connInfo(key))
}

func (e *Editor) clearSelection() {
	if e.selNode != "" {
		e.view.SetNodeSelected(e.selNode, false)
		e.selNode = ""
		e.bus.Emit(events.NodeUnselected, true)
	}
	if e.selConn != nil {
		e.view.SetConnectionSelected(*e.selConn, false)
		e.selConn = nil
		e.bus.Emit(events.ConnectionUnselected, true)
	}
}
