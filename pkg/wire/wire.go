// Package wire defines the persisted graph format and its codec.
//
// The format is the compatibility contract with existing consumers and must
// round-trip exactly: Import(Export(store)) reproduces the same node ids,
// ports, connections, waypoints and module set.
//
// # Shape
//
//	{ "graph": { "<module>": { "data": {
//	    "<nodeId>": {
//	      "id", "name", "data", "class", "content", "isTyped",
//	      "inputs":  { "input_1":  { "connections": [ {"node", "output", "points"?} ] } },
//	      "outputs": { "output_1": { "connections": [ {"node", "input",  "points"?} ] } },
//	      "pos_x", "pos_y"
//	} } } } }
//
// Note the cross-labeled peer-port fields: an output-side connection entry
// names the peer's input port in a field called "output", and an input-side
// entry names the peer's output port in a field called "input". Historical,
// and preserved deliberately - do not "fix" it.
package wire

import (
	"slices"

	"github.com/flowgrid/flowgrid/pkg/errors"
	"github.com/flowgrid/flowgrid/pkg/flow"
)

// Snapshot is the root of the persisted format.
type Snapshot struct {
	Graph map[string]Module `json:"graph" bson:"graph"`
}

// Module holds one named graph's nodes keyed by node id.
type Module struct {
	Data map[string]Node `json:"data" bson:"data"`
}

// Node is the persisted node record.
type Node struct {
	ID      string          `json:"id" bson:"id"`
	Name    string          `json:"name" bson:"name"`
	Data    map[string]any  `json:"data" bson:"data"`
	Class   string          `json:"class" bson:"class"`
	Content string          `json:"content" bson:"content"`
	IsTyped bool            `json:"isTyped" bson:"isTyped"`
	Inputs  map[string]Port `json:"inputs" bson:"inputs"`
	Outputs map[string]Port `json:"outputs" bson:"outputs"`
	PosX    float64         `json:"pos_x" bson:"pos_x"`
	PosY    float64         `json:"pos_y" bson:"pos_y"`
}

// Port is the persisted connection list of one port.
type Port struct {
	Connections []Link `json:"connections" bson:"connections"`
}

// Link is one persisted connection entry. Exactly one of Output/Input is
// set, depending on which side of the mirror the entry sits on (see the
// package doc for the cross-labeling rule).
type Link struct {
	Node   string  `json:"node" bson:"node"`
	Output string  `json:"output,omitempty" bson:"output,omitempty"`
	Input  string  `json:"input,omitempty" bson:"input,omitempty"`
	Points []Point `json:"points,omitempty" bson:"points,omitempty"`
}

// Point is a persisted waypoint.
type Point struct {
	PosX float64 `json:"pos_x" bson:"pos_x"`
	PosY float64 `json:"pos_y" bson:"pos_y"`
}

// FromStore exports every module of a store into a snapshot.
func FromStore(s *flow.Store) *Snapshot {
	snap := &Snapshot{Graph: make(map[string]Module)}
	for _, name := range s.Modules() {
		m := Module{Data: make(map[string]Node)}
		for _, id := range s.NodeIDs(name) {
			n, ok := s.Node(id)
			if !ok {
				continue
			}
			m.Data[id] = fromNode(n)
		}
		snap.Graph[name] = m
	}
	return snap
}

func fromNode(n *flow.Node) Node {
	out := Node{
		ID:      n.ID,
		Name:    n.Name,
		Data:    n.Data,
		Class:   n.Class,
		Content: n.Content,
		IsTyped: n.Typed,
		Inputs:  make(map[string]Port, len(n.Inputs)),
		Outputs: make(map[string]Port, len(n.Outputs)),
		PosX:    n.Pos.X,
		PosY:    n.Pos.Y,
	}
	if out.Data == nil {
		out.Data = map[string]any{}
	}
	for label, p := range n.Inputs {
		port := Port{Connections: make([]Link, len(p.Connections))}
		for i, c := range p.Connections {
			// Input side: the peer's output port label travels in the
			// field called "input".
			port.Connections[i] = Link{Node: c.Node, Input: c.Port}
		}
		out.Inputs[label] = port
	}
	for label, p := range n.Outputs {
		port := Port{Connections: make([]Link, len(p.Connections))}
		for i, c := range p.Connections {
			// Output side: the peer's input port label travels in the
			// field called "output". Waypoints live here.
			link := Link{Node: c.Node, Output: c.Port}
			for _, pt := range c.Points {
				link.Points = append(link.Points, Point{PosX: pt.X, PosY: pt.Y})
			}
			port.Connections[i] = link
		}
		out.Outputs[label] = port
	}
	return out
}

// ToStore rebuilds a store from a snapshot. Node ids are kept verbatim and
// the sequential id counter advances past the highest numeric id, so nodes
// added afterwards never collide. The rebuilt graph is validated; corrupt
// input (broken mirrors, sparse port labels) is rejected with an
// INVALID_SNAPSHOT error rather than loaded half-consistent.
func ToStore(snap *Snapshot, useUUID bool) (*flow.Store, error) {
	s := flow.New(useUUID)
	if snap == nil {
		return s, nil
	}

	modules := make([]string, 0, len(snap.Graph))
	for name := range snap.Graph {
		modules = append(modules, name)
	}
	slices.Sort(modules)

	for _, name := range modules {
		if name != flow.DefaultModule {
			if err := s.AddModule(name); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "module %s", name)
			}
		}
		data := snap.Graph[name].Data
		ids := make([]string, 0, len(data))
		for id := range data {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			n := toNode(id, data[id])
			if err := s.RestoreNode(name, n); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "module %s node %s", name, id)
			}
		}
	}

	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "snapshot is not internally consistent")
	}
	return s, nil
}

func toNode(id string, wn Node) *flow.Node {
	n := &flow.Node{
		ID:      id,
		Name:    wn.Name,
		Class:   wn.Class,
		Content: wn.Content,
		Typed:   wn.IsTyped,
		Data:    wn.Data,
		Pos:     flow.Position{X: wn.PosX, Y: wn.PosY},
		Inputs:  make(map[string]*flow.Port, len(wn.Inputs)),
		Outputs: make(map[string]*flow.Port, len(wn.Outputs)),
	}
	for label, p := range wn.Inputs {
		port := &flow.Port{}
		for _, l := range p.Connections {
			port.Connections = append(port.Connections, flow.Connection{Node: l.Node, Port: l.Input})
		}
		n.Inputs[label] = port
	}
	for label, p := range wn.Outputs {
		port := &flow.Port{}
		for _, l := range p.Connections {
			c := flow.Connection{Node: l.Node, Port: l.Output}
			for _, pt := range l.Points {
				c.Points = append(c.Points, flow.Position{X: pt.PosX, Y: pt.PosY})
			}
			port.Connections = append(port.Connections, c)
		}
		n.Outputs[label] = port
	}
	return n
}
