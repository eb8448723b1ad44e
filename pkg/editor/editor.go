// Package editor implements the interactive session on top of the flow
// store: viewport transforms, the pointer gesture state machine, the
// render synchronizer, content mounting, and the event contract.
//
// One Editor owns one [flow.Store], one [events.Bus] and one [View]. All
// operations are synchronous and run on the calling goroutine; pointer
// handlers and API calls must not be interleaved from multiple goroutines.
// Gesture-level failures (dropping a connection on an invalid target) are
// absorbed into gesture cancellation and surface only as events, because
// they are expected user behavior; API-level failures return errors.
package editor

import (
	"github.com/flowgrid/flowgrid/pkg/errors"
	"github.com/flowgrid/flowgrid/pkg/events"
	"github.com/flowgrid/flowgrid/pkg/flow"
	"github.com/flowgrid/flowgrid/pkg/wire"
)

// Editor is one interactive diagram session.
//
// The zero value is not usable - use New.
type Editor struct {
	opts      Options
	store     *flow.Store
	bus       *events.Bus
	viewport  *Viewport
	view      View
	metrics   Metrics
	sync      *Synchronizer
	renderer  ContentRenderer
	templates *Registry

	module  string // active module, always registered in the store
	gesture gesture

	selNode string        // selected node id, "" when none
	selConn *flow.ConnKey // selected connection, nil when none
}

// New creates an editor session. view and metrics may be nil, in which
// case the session runs headless with [NullView] and [DefaultMetrics].
// Invalid options are returned as an INVALID_CONFIG error.
func New(opts Options, view View, metrics Metrics) (*Editor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if view == nil {
		view = NullView{}
	}
	if metrics == nil {
		metrics = DefaultMetrics()
	}

	e := &Editor{
		opts:      opts,
		store:     flow.New(opts.UseUUID),
		bus:       events.New(),
		view:      view,
		metrics:   metrics,
		renderer:  NullContentRenderer{},
		templates: NewRegistry(),
		module:    flow.DefaultModule,
		gesture:   gestureIdle{},
	}
	e.viewport = NewViewport(e.opts)
	e.sync = NewSynchronizer(e.store, view, metrics, &e.opts)
	return e, nil
}

// Store exposes the underlying graph store for read access. Mutate through
// the editor, not the store, or no events are emitted and the view drifts.
func (e *Editor) Store() *flow.Store { return e.store }

// Bus returns the session's event bus.
func (e *Editor) Bus() *events.Bus { return e.bus }

// Viewport returns the session's viewport controller.
func (e *Editor) Viewport() *Viewport { return e.viewport }

// Sync returns the render synchronizer, for hosts that need to force
// redraws (window resize, font change).
func (e *Editor) Sync() *Synchronizer { return e.sync }

// Templates returns the content template registry.
func (e *Editor) Templates() *Registry { return e.templates }

// On registers an event listener; see [events.Bus.On].
func (e *Editor) On(event string, fn events.Listener) error { return e.bus.On(event, fn) }

// SetContentRenderer injects the host capability that populates node
// bodies. Passing nil restores the null renderer.
func (e *Editor) SetContentRenderer(r ContentRenderer) {
	if r == nil {
		r = NullContentRenderer{}
	}
	e.renderer = r
}

// Mode returns the current editor mode.
func (e *Editor) Mode() Mode { return e.opts.EditorMode }

// SetMode switches the interaction mode at runtime. Any gesture in flight
// is cancelled first so a mode switch can never strand a half-finished
// mutation.
func (e *Editor) SetMode(m Mode) error {
	switch m {
	case ModeEdit, ModeView, ModeFixed:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "editor_mode must be edit, view or fixed, got %q", m)
	}
	e.CancelGesture()
	e.opts.EditorMode = m
	return nil
}

// =============================================================================
// Modules
// =============================================================================

// ActiveModule returns the name of the module currently rendered.
func (e *Editor) ActiveModule() string { return e.module }

// AddModule registers a new empty module and emits moduleCreated.
func (e *Editor) AddModule(name string) error {
	if err := e.store.AddModule(name); err != nil {
		return err
	}
	e.bus.Emit(events.ModuleCreated, name)
	return nil
}

// ChangeModule switches the visible module: the viewport resets to default
// zoom and pan, the visual tree is cleared and rebuilt from the target
// module, and moduleChanged is emitted.
func (e *Editor) ChangeModule(name string) error {
	if !e.store.HasModule(name) {
		return flow.ErrUnknownModule
	}
	e.CancelGesture()
	e.clearSelection()

	e.module = name
	e.viewport.Reset()
	e.viewport.SetPan(flow.Position{})
	e.view.Clear()
	e.view.SetTransform(e.viewport.Zoom(), e.viewport.Pan())
	e.sync.SyncAll(name)
	e.bus.Emit(events.ModuleChanged, name)
	return nil
}

// RemoveModule deletes a module and its data, emitting moduleRemoved. When
// the active module is removed the session falls back to the default
// module first, so there is always a live visual tree.
func (e *Editor) RemoveModule(name string) error {
	if !e.store.HasModule(name) {
		return flow.ErrUnknownModule
	}
	if name == e.module && name != flow.DefaultModule {
		if err := e.ChangeModule(flow.DefaultModule); err != nil {
			return err
		}
	}
	if err := e.store.RemoveModule(name); err != nil {
		return err
	}
	if name == e.module {
		// Default module was cleared in place; rebuild its empty view.
		e.view.Clear()
	}
	e.bus.Emit(events.ModuleRemoved, name)
	return nil
}

// ClearModule removes every node of the active module, cascading their
// connections, and rebuilds the view.
func (e *Editor) ClearModule() {
	e.CancelGesture()
	e.clearSelection()
	for _, id := range e.store.NodeIDs(e.module) {
		e.store.RemoveNode(id)
	}
	e.view.Clear()
}

// =============================================================================
// Nodes
// =============================================================================

// AddNode creates a node in the active module, mounts its content exactly
// once, and emits nodeCreated. Typed content specifications resolve
// against the template registry; an unregistered name is a
// TEMPLATE_NOT_FOUND error and nothing is created.
func (e *Editor) AddNode(spec flow.NodeSpec) (string, error) {
	var tmpl *Template
	if spec.Typed {
		t, ok := e.templates.Lookup(spec.Content)
		if !ok {
			return "", errors.New(errors.ErrCodeTemplateNotFound, "no registered node template %q", spec.Content)
		}
		tmpl = &t
	}

	id, err := e.store.AddNode(e.module, spec)
	if err != nil {
		return "", err
	}
	e.mountNode(id, tmpl)
	e.bus.Emit(events.NodeCreated, id)
	return id, nil
}

func (e *Editor) mountNode(id string, tmpl *Template) {
	n, _ := e.store.Node(id)
	e.view.MountNode(n)
	e.view.PlaceNode(id, n.Pos)
	// The node exists whether or not content rendering succeeds.
	_ = e.renderer.Mount(n, tmpl)
}

// RemoveNode cascades removal of all the node's connections (one
// connectionRemoved each), then deletes the node and emits nodeRemoved.
// Unknown ids are a silent no-op.
func (e *Editor) RemoveNode(id string) {
	if e.selNode == id {
		e.selNode = ""
	}
	removed, ok := e.store.RemoveNode(id)
	if !ok {
		return
	}
	for _, key := range removed {
		e.view.UnmountConnection(key)
		e.bus.Emit(events.ConnectionRemoved, connInfo(key))
	}
	e.view.UnmountNode(id)
	e.bus.Emit(events.NodeRemoved, id)
}

// MoveNode repositions a node, redraws everything attached to it, and
// emits nodeMoved.
func (e *Editor) MoveNode(id string, pos flow.Position) error {
	if err := e.store.SetPosition(id, pos); err != nil {
		return err
	}
	e.sync.SyncNode(id)
	e.bus.Emit(events.NodeMoved, id)
	return nil
}

// UpdateNodeData replaces a node's data payload and emits nodeDataChanged.
// The node's content is not re-rendered; hosts patch bound fields by key
// path instead.
func (e *Editor) UpdateNodeData(id string, data map[string]any) error {
	if err := e.store.UpdateNodeData(id, data); err != nil {
		return err
	}
	e.bus.Emit(events.NodeDataChanged, id)
	return nil
}

// AddPort appends a port on a node and redraws it.
func (e *Editor) AddPort(id string, side flow.Side) (string, error) {
	label, err := e.store.AddPort(id, side)
	if err != nil {
		return "", err
	}
	e.sync.SyncNode(id)
	return label, nil
}

// RemovePort removes a port, cascading its connections (one
// connectionRemoved each) and renumbering higher ports. Surviving
// connections whose key changed in the renumbering are remounted in the
// view under their new key before the node and every touched peer are
// redrawn.
func (e *Editor) RemovePort(id string, side flow.Side, label string) error {
	removed, renamed, err := e.store.RemovePort(id, side, label)
	if err != nil {
		return err
	}
	for _, key := range removed {
		e.view.UnmountConnection(key)
		e.bus.Emit(events.ConnectionRemoved, connInfo(key))
	}
	peers := make(map[string]bool)
	for _, r := range renamed {
		if e.selConn != nil && *e.selConn == r.Old {
			*e.selConn = r.New
		}
		e.view.UnmountConnection(r.Old)
		e.view.MountConnection(r.New)
		peers[r.New.OutNode] = true
		peers[r.New.InNode] = true
	}
	e.sync.SyncNode(id)
	for peer := range peers {
		if peer != id {
			e.sync.SyncNode(peer)
		}
	}
	return nil
}

// =============================================================================
// Connections
// =============================================================================

// Connect creates a connection and emits connectionCreated. Rejections
// (self-loop, duplicate, unknown endpoint, cross-module) return the store's
// sentinel error and emit nothing.
func (e *Editor) Connect(outNode, inNode, outPort, inPort string) error {
	if err := e.store.Connect(outNode, inNode, outPort, inPort); err != nil {
		return err
	}
	key := flow.ConnKey{OutNode: outNode, OutPort: outPort, InNode: inNode, InPort: inPort}
	e.view.MountConnection(key)
	e.sync.SyncConnection(key)
	e.bus.Emit(events.ConnectionCreated, connInfo(key))
	return nil
}

// Disconnect removes a connection if present, emitting connectionRemoved
// when a removal occurred.
func (e *Editor) Disconnect(outNode, inNode, outPort, inPort string) bool {
	key := flow.ConnKey{OutNode: outNode, OutPort: outPort, InNode: inNode, InPort: inPort}
	if e.selConn != nil && *e.selConn == key {
		e.selConn = nil
	}
	if !e.store.Disconnect(outNode, inNode, outPort, inPort) {
		return false
	}
	e.view.UnmountConnection(key)
	e.bus.Emit(events.ConnectionRemoved, connInfo(key))
	return true
}

// AddReroutePoint inserts a waypoint into a connection at the position
// nearest to pos along the existing path, redraws the connection, and
// emits addReroute. Requires the Reroute option.
func (e *Editor) AddReroutePoint(key flow.ConnKey, pos flow.Position) error {
	if !e.opts.Reroute {
		return errors.New(errors.ErrCodeUnsupported, "rerouting is disabled")
	}
	index, err := e.rerouteInsertIndex(key, pos)
	if err != nil {
		return err
	}
	if err := e.store.AddPoint(key, index, pos); err != nil {
		return err
	}
	e.sync.SyncConnection(key)
	e.bus.Emit(events.RerouteAdded, key.OutNode)
	return nil
}

// RemoveReroutePoint deletes the waypoint at index, merging its two
// segments, and emits removeReroute.
func (e *Editor) RemoveReroutePoint(key flow.ConnKey, index int) error {
	if err := e.store.RemovePoint(key, index); err != nil {
		return err
	}
	e.sync.SyncConnection(key)
	e.bus.Emit(events.RerouteRemoved, key.OutNode)
	return nil
}

// rerouteInsertIndex picks where a new waypoint slots into the ordered
// point list: the segment of the current path closest to the click.
func (e *Editor) rerouteInsertIndex(key flow.ConnKey, pos flow.Position) (int, error) {
	points, err := e.store.Points(key)
	if err != nil {
		return 0, err
	}
	src, okS := e.store.Node(key.OutNode)
	dst, okD := e.store.Node(key.InNode)
	if !okS || !okD {
		return 0, flow.ErrUnknownConnection
	}

	stops := make([]flow.Position, 0, len(points)+2)
	stops = append(stops, e.metrics.PortPosition(src, flow.SideOutput, key.OutPort))
	stops = append(stops, points...)
	stops = append(stops, e.metrics.PortPosition(dst, flow.SideInput, key.InPort))

	best, bestDist := 0, -1.0
	for i := 0; i < len(stops)-1; i++ {
		d := segmentDistance(stops[i], stops[i+1], pos)
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

// segmentDistance returns the squared distance from p to segment ab.
func segmentDistance(a, b, p flow.Position) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	t := 0.0
	if lenSq > 0 {
		t = ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	cx, cy := a.X+t*dx-p.X, a.Y+t*dy-p.Y
	return cx*cx + cy*cy
}

func connInfo(key flow.ConnKey) events.ConnectionInfo {
	return events.ConnectionInfo{
		OutputID:    key.OutNode,
		InputID:     key.InNode,
		OutputClass: key.OutPort,
		InputClass:  key.InPort,
	}
}

// =============================================================================
// Zoom
// =============================================================================

// ZoomIn raises zoom one step, retransforms the canvas and emits zoom.
func (e *Editor) ZoomIn() {
	if e.viewport.ZoomIn() {
		e.applyZoom()
	}
}

// ZoomOut lowers zoom one step, retransforms the canvas and emits zoom.
func (e *Editor) ZoomOut() {
	if e.viewport.ZoomOut() {
		e.applyZoom()
	}
}

// ZoomReset restores zoom 1.0.
func (e *Editor) ZoomReset() {
	if e.viewport.Reset() {
		e.applyZoom()
	}
}

func (e *Editor) applyZoom() {
	e.view.SetTransform(e.viewport.Zoom(), e.viewport.Pan())
	e.bus.Emit(events.Zoom, e.viewport.Zoom())
}

// =============================================================================
// Import / export
// =============================================================================

// Export snapshots every module of the store and emits export with the
// snapshot as payload.
func (e *Editor) Export() *wire.Snapshot {
	snap := wire.FromStore(e.store)
	e.bus.Emit(events.Export, snap)
	return snap
}

// Import replaces the whole store from a snapshot, rebuilds the view for
// the active module (falling back to the default module if the active one
// vanished), mounts content for every imported node, and emits import.
// A snapshot that fails validation is rejected and the session keeps its
// previous graph.
func (e *Editor) Import(snap *wire.Snapshot) error {
	store, err := wire.ToStore(snap, e.opts.UseUUID)
	if err != nil {
		return err
	}
	e.CancelGesture()
	e.clearSelection()

	e.store = store
	e.sync.retarget(store)
	if !store.HasModule(e.module) {
		e.module = flow.DefaultModule
	}

	e.viewport.Reset()
	e.viewport.SetPan(flow.Position{})
	e.view.Clear()
	e.view.SetTransform(e.viewport.Zoom(), e.viewport.Pan())
	e.sync.SyncAll(e.module)
	for _, id := range e.store.NodeIDs(e.module) {
		n, _ := e.store.Node(id)
		var tmpl *Template
		if n.Typed {
			if t, ok := e.templates.Lookup(n.Content); ok {
				tmpl = &t
			}
		}
		_ = e.renderer.Mount(n, tmpl)
	}
	e.bus.Emit(events.Import, "import")
	return nil
}
