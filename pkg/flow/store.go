package flow

import (
	"errors"
	"slices"
	"strconv"

	"github.com/google/uuid"
)

var (
	// ErrUnknownNode is returned when an operation references a node id
	// that does not exist in any module.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownPort is returned when an operation references a port label
	// that does not exist on the addressed side of its node.
	ErrUnknownPort = errors.New("unknown port")

	// ErrUnknownModule is returned when an operation references a module
	// name that is not registered in the store.
	ErrUnknownModule = errors.New("unknown module")

	// ErrDuplicateModule is returned by [Store.AddModule] when the module
	// name is already registered. Module names must be unique.
	ErrDuplicateModule = errors.New("duplicate module name")

	// ErrSelfConnection is returned by [Store.Connect] when both endpoints
	// are the same node. Self-loops are forbidden.
	ErrSelfConnection = errors.New("connection endpoints must differ")

	// ErrDuplicateConnection is returned by [Store.Connect] when an
	// identical (node,port)->(node,port) connection already exists.
	ErrDuplicateConnection = errors.New("connection already exists")

	// ErrCrossModule is returned by [Store.Connect] when the endpoints
	// live in different modules.
	ErrCrossModule = errors.New("connection endpoints must share a module")

	// ErrUnknownConnection is returned by waypoint operations when the
	// addressed connection does not exist. Unlike the precondition errors
	// above, this indicates a prior invariant breach rather than normal
	// user input, and callers should surface it.
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrDuplicateNode is returned by [Store.RestoreNode] when the node id
	// is already present in the store.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrInvalidNodeID is returned by [Store.RestoreNode] for empty ids.
	ErrInvalidNodeID = errors.New("node ID must not be empty")
)

// DefaultModule is the module every store starts with. Deleting the active
// module falls back to it; it can be emptied but never unregistered.
const DefaultModule = "Home"

// Store is the authoritative container for all modules and their graphs.
//
// The zero value is not usable - use New. Store is not safe for concurrent
// use without external synchronization; the intended model is a single
// logical thread of synchronous mutations (see package doc).
type Store struct {
	modules    map[string]map[string]*Node
	nodeModule map[string]string // node id -> owning module
	counter    int               // last issued sequential id
	useUUID    bool
}

// New creates a store containing only the empty default module.
// When useUUID is true, node ids are random UUIDs instead of a sequential
// counter; both modes guarantee store-wide uniqueness.
func New(useUUID bool) *Store {
	return &Store{
		modules:    map[string]map[string]*Node{DefaultModule: {}},
		nodeModule: map[string]string{},
		useUUID:    useUUID,
	}
}

// =============================================================================
// Modules
// =============================================================================

// AddModule registers a new empty module.
// Returns ErrDuplicateModule if the name is already in use.
func (s *Store) AddModule(name string) error {
	if _, exists := s.modules[name]; exists {
		return ErrDuplicateModule
	}
	s.modules[name] = map[string]*Node{}
	return nil
}

// RemoveModule deletes a module and all nodes it contains.
// Returns ErrUnknownModule if the name is not registered. The default
// module cannot be removed; removing it clears its contents instead.
func (s *Store) RemoveModule(name string) error {
	nodes, ok := s.modules[name]
	if !ok {
		return ErrUnknownModule
	}
	for id := range nodes {
		delete(s.nodeModule, id)
	}
	if name == DefaultModule {
		s.modules[name] = map[string]*Node{}
		return nil
	}
	delete(s.modules, name)
	return nil
}

// HasModule reports whether a module name is registered.
func (s *Store) HasModule(name string) bool {
	_, ok := s.modules[name]
	return ok
}

// Modules returns all registered module names in sorted order.
func (s *Store) Modules() []string {
	names := make([]string, 0, len(s.modules))
	for name := range s.modules {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NodeIDs returns the ids of all nodes in a module, sorted for
// deterministic iteration. Returns nil for unknown modules.
func (s *Store) NodeIDs(module string) []string {
	nodes, ok := s.modules[module]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// NodeModule returns the module owning a node id.
func (s *Store) NodeModule(id string) (string, bool) {
	m, ok := s.nodeModule[id]
	return m, ok
}

// =============================================================================
// Nodes
// =============================================================================

// AddNode creates a node in the given module and returns its assigned id.
// Ports are created empty according to spec.Inputs and spec.Outputs. The
// data payload is deep-copied on the way in. The only failure mode is an
// unknown module name.
func (s *Store) AddNode(module string, spec NodeSpec) (string, error) {
	nodes, ok := s.modules[module]
	if !ok {
		return "", ErrUnknownModule
	}

	var id string
	if s.useUUID {
		id = uuid.NewString()
	} else {
		s.counter++
		id = strconv.Itoa(s.counter)
	}

	n := &Node{
		ID:      id,
		Name:    spec.Name,
		Class:   spec.Class,
		Content: spec.Content,
		Typed:   spec.Typed,
		Data:    copyTree(spec.Data),
		Pos:     spec.Pos,
		Inputs:  make(map[string]*Port, spec.Inputs),
		Outputs: make(map[string]*Port, spec.Outputs),
	}
	for i := 1; i <= spec.Inputs; i++ {
		n.Inputs[PortLabel(SideInput, i)] = &Port{}
	}
	for i := 1; i <= spec.Outputs; i++ {
		n.Outputs[PortLabel(SideOutput, i)] = &Port{}
	}

	nodes[id] = n
	s.nodeModule[id] = module
	return id, nil
}

// RestoreNode inserts a fully-formed node record, keeping its id and port
// contents. Used by the wire codec to rebuild a store from a snapshot; the
// sequential counter is advanced past any numeric id so later AddNode calls
// never collide with restored nodes.
func (s *Store) RestoreNode(module string, n *Node) error {
	nodes, ok := s.modules[module]
	if !ok {
		return ErrUnknownModule
	}
	if n == nil || n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := s.nodeModule[n.ID]; exists {
		return ErrDuplicateNode
	}

	cp := n.Clone()
	if cp.Inputs == nil {
		cp.Inputs = map[string]*Port{}
	}
	if cp.Outputs == nil {
		cp.Outputs = map[string]*Port{}
	}
	nodes[cp.ID] = cp
	s.nodeModule[cp.ID] = module

	if num, err := strconv.Atoi(cp.ID); err == nil && num > s.counter {
		s.counter = num
	}
	return nil
}

// Node returns a deep copy of the node record. Mutating the returned value
// never affects store state.
func (s *Store) Node(id string) (*Node, bool) {
	n, ok := s.lookup(id)
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// SetPosition moves a node to a new logical position.
func (s *Store) SetPosition(id string, pos Position) error {
	n, ok := s.lookup(id)
	if !ok {
		return ErrUnknownNode
	}
	n.Pos = pos
	return nil
}

// UpdateNodeData replaces a node's data payload with a deep copy of data.
// Ports and connections are untouched.
func (s *Store) UpdateNodeData(id string, data map[string]any) error {
	n, ok := s.lookup(id)
	if !ok {
		return ErrUnknownNode
	}
	n.Data = copyTree(data)
	return nil
}

// RemoveNode deletes a node after cascading removal of every connection
// touching it, in both directions. The removed connections are returned so
// callers can announce them. Unknown ids are a no-op returning ok=false.
func (s *Store) RemoveNode(id string) (removed []ConnKey, ok bool) {
	n, found := s.lookup(id)
	if !found {
		return nil, false
	}

	// Snapshot first: Disconnect mutates the lists being walked.
	removed = s.connectionsOf(n)
	for _, key := range removed {
		s.Disconnect(key.OutNode, key.InNode, key.OutPort, key.InPort)
	}

	module := s.nodeModule[id]
	delete(s.modules[module], id)
	delete(s.nodeModule, id)
	return removed, true
}

func (s *Store) lookup(id string) (*Node, bool) {
	module, ok := s.nodeModule[id]
	if !ok {
		return nil, false
	}
	n, ok := s.modules[module][id]
	return n, ok
}

// =============================================================================
// Connections
// =============================================================================

// Connect appends the mirrored connection pair outNode.outPort ->
// inNode.inPort. It rejects, in order: self-loops, unknown nodes, endpoints
// in different modules, unknown ports, and duplicates. On any error the
// store is unchanged.
func (s *Store) Connect(outNode, inNode, outPort, inPort string) error {
	if outNode == inNode {
		return ErrSelfConnection
	}
	src, ok := s.lookup(outNode)
	if !ok {
		return ErrUnknownNode
	}
	dst, ok := s.lookup(inNode)
	if !ok {
		return ErrUnknownNode
	}
	if s.nodeModule[outNode] != s.nodeModule[inNode] {
		return ErrCrossModule
	}
	op, ok := src.Outputs[outPort]
	if !ok {
		return ErrUnknownPort
	}
	ip, ok := dst.Inputs[inPort]
	if !ok {
		return ErrUnknownPort
	}
	for _, c := range op.Connections {
		if c.Node == inNode && c.Port == inPort {
			return ErrDuplicateConnection
		}
	}

	op.Connections = append(op.Connections, Connection{Node: inNode, Port: inPort})
	ip.Connections = append(ip.Connections, Connection{Node: outNode, Port: outPort})
	return nil
}

// Disconnect removes the mirrored pair if present and reports whether a
// removal occurred.
func (s *Store) Disconnect(outNode, inNode, outPort, inPort string) bool {
	src, ok := s.lookup(outNode)
	if !ok {
		return false
	}
	dst, ok := s.lookup(inNode)
	if !ok {
		return false
	}
	op, ok := src.Outputs[outPort]
	if !ok {
		return false
	}
	ip, ok := dst.Inputs[inPort]
	if !ok {
		return false
	}

	before := len(op.Connections)
	op.Connections = slices.DeleteFunc(op.Connections, func(c Connection) bool {
		return c.Node == inNode && c.Port == inPort
	})
	if len(op.Connections) == before {
		return false
	}
	ip.Connections = slices.DeleteFunc(ip.Connections, func(c Connection) bool {
		return c.Node == outNode && c.Port == outPort
	})
	return true
}

// Connected reports whether the exact connection exists on the output side.
func (s *Store) Connected(outNode, inNode, outPort, inPort string) bool {
	src, ok := s.lookup(outNode)
	if !ok {
		return false
	}
	op, ok := src.Outputs[outPort]
	if !ok {
		return false
	}
	for _, c := range op.Connections {
		if c.Node == inNode && c.Port == inPort {
			return true
		}
	}
	return false
}

// ConnectionsOf returns every connection touching the node, as output-side
// keys, in deterministic order. Used by the render synchronizer to redraw
// all paths attached to a moved node.
func (s *Store) ConnectionsOf(id string) []ConnKey {
	n, ok := s.lookup(id)
	if !ok {
		return nil
	}
	return s.connectionsOf(n)
}

func (s *Store) connectionsOf(n *Node) []ConnKey {
	var keys []ConnKey
	for i := 1; i <= len(n.Outputs); i++ {
		label := PortLabel(SideOutput, i)
		for _, c := range n.Outputs[label].Connections {
			keys = append(keys, ConnKey{OutNode: n.ID, OutPort: label, InNode: c.Node, InPort: c.Port})
		}
	}
	for i := 1; i <= len(n.Inputs); i++ {
		label := PortLabel(SideInput, i)
		for _, c := range n.Inputs[label].Connections {
			keys = append(keys, ConnKey{OutNode: c.Node, OutPort: c.Port, InNode: n.ID, InPort: label})
		}
	}
	return keys
}

// =============================================================================
// Ports
// =============================================================================

// AddPort appends a new empty port on the given side and returns its label.
func (s *Store) AddPort(id string, side Side) (string, error) {
	n, ok := s.lookup(id)
	if !ok {
		return "", ErrUnknownNode
	}
	ports := n.PortsOn(side)
	label := PortLabel(side, len(ports)+1)
	ports[label] = &Port{}
	return label, nil
}

// PortRename records how a surviving connection's key changed when port
// removal renumbered one of its labels.
type PortRename struct {
	Old ConnKey
	New ConnKey
}

// RemovePort deletes a port after disconnecting everything attached to it,
// then renumbers all higher-numbered ports on that side down by one and
// rewrites the peer-port field stored on the other end of every surviving
// connection that referenced a renumbered port. The whole adjustment is one
// atomic operation; the mirror invariant holds on return.
//
// The cascaded connections are returned as output-side keys (labels as they
// were before renumbering) so callers can announce them. The renames list
// carries the old and new key of every surviving connection whose label
// shifted, so keyed view layers can rebind their elements.
func (s *Store) RemovePort(id string, side Side, label string) (removed []ConnKey, renamed []PortRename, err error) {
	n, ok := s.lookup(id)
	if !ok {
		return nil, nil, ErrUnknownNode
	}
	ports := n.PortsOn(side)
	port, ok := ports[label]
	if !ok {
		return nil, nil, ErrUnknownPort
	}
	labelSide, index, ok := ParsePortLabel(label)
	if !ok || labelSide != side {
		return nil, nil, ErrUnknownPort
	}

	// Cascade disconnects on the dying port.
	for _, c := range append([]Connection(nil), port.Connections...) {
		key := sideKey(id, side, label, c)
		s.Disconnect(key.OutNode, key.InNode, key.OutPort, key.InPort)
		removed = append(removed, key)
	}

	// Shift every higher port down one slot, rewriting the mirrors that
	// referenced the shifted label as they move.
	total := len(ports)
	delete(ports, label)
	for i := index + 1; i <= total; i++ {
		oldLabel := PortLabel(side, i)
		newLabel := PortLabel(side, i-1)
		moved := ports[oldLabel]
		delete(ports, oldLabel)
		ports[newLabel] = moved
		for _, c := range moved.Connections {
			renamed = append(renamed, PortRename{
				Old: sideKey(id, side, oldLabel, c),
				New: sideKey(id, side, newLabel, c),
			})
		}
		s.rewritePeerPort(id, side, moved, oldLabel, newLabel)
	}
	return removed, renamed, nil
}

// sideKey builds the output-side key of the connection c holds from the
// perspective of port label on side of node id.
func sideKey(id string, side Side, label string, c Connection) ConnKey {
	if side == SideOutput {
		return ConnKey{OutNode: id, OutPort: label, InNode: c.Node, InPort: c.Port}
	}
	return ConnKey{OutNode: c.Node, OutPort: c.Port, InNode: id, InPort: label}
}

// rewritePeerPort updates, on the far end of each connection of a renumbered
// port, the back-reference that named the port's old label. A missing mirror
// here means the graph was already corrupt; the rewrite skips silently and
// [Store.Validate] will report the breach.
func (s *Store) rewritePeerPort(id string, side Side, port *Port, oldLabel, newLabel string) {
	for _, c := range port.Connections {
		peer, ok := s.lookup(c.Node)
		if !ok {
			continue
		}
		// The mirror lives on the opposite side of the peer node.
		var mirror *Port
		if side == SideInput {
			mirror = peer.Outputs[c.Port]
		} else {
			mirror = peer.Inputs[c.Port]
		}
		if mirror == nil {
			continue
		}
		for i := range mirror.Connections {
			if mirror.Connections[i].Node == id && mirror.Connections[i].Port == oldLabel {
				mirror.Connections[i].Port = newLabel
			}
		}
	}
}
