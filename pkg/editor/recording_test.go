package editor

import "github.com/flowgrid/flowgrid/pkg/flow"

// recordingView captures every view call so tests can assert the editor
// keeps the rendering surface in step with the store.
type recordingView struct {
	mounted     map[string]bool
	positions   map[string]flow.Position
	selected    map[string]bool
	connections map[flow.ConnKey]bool
	shapes      map[flow.ConnKey]ConnectionShape
	provisional string
	hasProv     bool
	zoom        float64
	pan         flow.Position
	clears      int
}

func newRecordingView() *recordingView {
	return &recordingView{
		mounted:     map[string]bool{},
		positions:   map[string]flow.Position{},
		selected:    map[string]bool{},
		connections: map[flow.ConnKey]bool{},
		shapes:      map[flow.ConnKey]ConnectionShape{},
		zoom:        1.0,
	}
}

func (v *recordingView) MountNode(n *flow.Node) { v.mounted[n.ID] = true }
func (v *recordingView) UnmountNode(id string) {
	delete(v.mounted, id)
	delete(v.positions, id)
}
func (v *recordingView) PlaceNode(id string, pos flow.Position) { v.positions[id] = pos }
func (v *recordingView) SetNodeSelected(id string, sel bool)    { v.selected[id] = sel }

func (v *recordingView) MountConnection(key flow.ConnKey) { v.connections[key] = true }
func (v *recordingView) UnmountConnection(key flow.ConnKey) {
	delete(v.connections, key)
	delete(v.shapes, key)
}
func (v *recordingView) DrawConnection(shape ConnectionShape)          { v.shapes[shape.Key] = shape }
func (v *recordingView) SetConnectionSelected(flow.ConnKey, bool)      {}
func (v *recordingView) DrawProvisional(path string)                   { v.provisional, v.hasProv = path, true }
func (v *recordingView) ClearProvisional()                             { v.provisional, v.hasProv = "", false }
func (v *recordingView) SetTransform(zoom float64, pan flow.Position)  { v.zoom, v.pan = zoom, pan }
func (v *recordingView) Clear() {
	v.clears++
	v.mounted = map[string]bool{}
	v.positions = map[string]flow.Position{}
	v.connections = map[flow.ConnKey]bool{}
	v.shapes = map[flow.ConnKey]ConnectionShape{}
}

// recorder collects emitted events in order.
type recorder struct {
	names    []string
	payloads []any
}

func (r *recorder) listen(e *Editor, events ...string) {
	for _, name := range events {
		name := name
		e.On(name, func(p any) {
			r.names = append(r.names, name)
			r.payloads = append(r.payloads, p)
		})
	}
}

func (r *recorder) count(name string) int {
	n := 0
	for _, got := range r.names {
		if got == name {
			n++
		}
	}
	return n
}

func (r *recorder) last() (string, any) {
	if len(r.names) == 0 {
		return "", nil
	}
	return r.names[len(r.names)-1], r.payloads[len(r.payloads)-1]
}
