package editor

import "github.com/flowgrid/flowgrid/pkg/flow"

// HitKind classifies what sits under a pointer event. The host's view
// layer performs the actual hit test (it knows its elements); the editor
// only consumes the classification.
type HitKind int

const (
	// HitBackground is empty canvas.
	HitBackground HitKind = iota
	// HitNode is a node body.
	HitNode
	// HitContent is interactive content inside a node body (form fields
	// and the like). Subject to the DraggableInputs option.
	HitContent
	// HitOutput is an output port.
	HitOutput
	// HitInput is an input port.
	HitInput
	// HitConnection is a connector path.
	HitConnection
	// HitReroutePoint is a waypoint handle on a connector.
	HitReroutePoint
	// HitDeleteGlyph is the delete button shown on a selected element.
	HitDeleteGlyph
)

// Hit is a classified pointer target. Fields beyond Kind are filled only
// where meaningful: Node and Port for node-side kinds, Conn (and
// PointIndex for waypoints) for connection-side kinds. Identity always
// travels in these typed fields, never encoded into class strings.
type Hit struct {
	Kind       HitKind
	Node       string
	Port       string
	Conn       flow.ConnKey
	PointIndex int
}

// gesture is the tagged union of interaction states. Exactly one variant
// is active at any time, which makes invalid combinations (dragging a node
// and a waypoint simultaneously) unrepresentable.
type gesture interface{ isGesture() }

// gestureIdle: no pointer interaction in progress.
type gestureIdle struct{}

// gestureDragNode: a node follows the pointer. grabOffset is the vector
// from the node's origin to the grab point, so the node does not jump to
// the cursor on the first move. origin is the position at pointer-down,
// restored if the gesture is cancelled.
type gestureDragNode struct {
	id         string
	grabOffset flow.Position
	origin     flow.Position
	moved      bool
}

// gestureDragCanvas: the whole canvas pans with the pointer.
type gestureDragCanvas struct {
	startScreen flow.Position
	startPan    flow.Position
}

// gestureDrawConnection: a provisional connector runs from a source output
// port to the pointer. Nothing exists in the store until commit.
type gestureDrawConnection struct {
	outNode string
	outPort string
}

// gestureDragPoint: one waypoint of one connection follows the pointer.
// The waypoint is addressed by its index in the connection's ordered
// point list, independent of any view-layer child ordering. origin is
// the waypoint position at pointer-down, restored on cancellation.
type gestureDragPoint struct {
	key    flow.ConnKey
	index  int
	origin flow.Position
	moved  bool
}

func (gestureIdle) isGesture()           {}
func (gestureDragNode) isGesture()       {}
func (gestureDragCanvas) isGesture()     {}
func (gestureDrawConnection) isGesture() {}
func (gestureDragPoint) isGesture()      {}
