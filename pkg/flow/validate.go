package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrBrokenMirror is reported by [Store.Validate] when a connection
	// entry has no matching back-reference on its peer. This indicates
	// graph corruption: no public mutation can produce it.
	ErrBrokenMirror = errors.New("connection mirror is broken")

	// ErrSparsePorts is reported by [Store.Validate] when a node's port
	// labels do not form a dense 1..N sequence on one side.
	ErrSparsePorts = errors.New("port labels are not contiguous")
)

// Validate checks structural invariants across the whole store: dense port
// label sequences, mirrored connection pairs, and in-module endpoints. It
// returns the first violation found, wrapped with the offending location.
//
// A store mutated only through public operations always validates; this is
// primarily useful after importing external data and as a debugging aid.
func (s *Store) Validate() error {
	for module, nodes := range s.modules {
		for id, n := range nodes {
			if err := validatePorts(n, SideInput); err != nil {
				return fmt.Errorf("module %s node %s: %w", module, id, err)
			}
			if err := validatePorts(n, SideOutput); err != nil {
				return fmt.Errorf("module %s node %s: %w", module, id, err)
			}
			if err := s.validateMirrors(module, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func validatePorts(n *Node, side Side) error {
	ports := n.PortsOn(side)
	for i := 1; i <= len(ports); i++ {
		if _, ok := ports[PortLabel(side, i)]; !ok {
			return fmt.Errorf("%w: missing %s among %d %s ports", ErrSparsePorts, PortLabel(side, i), len(ports), side)
		}
	}
	return nil
}

func (s *Store) validateMirrors(module string, n *Node) error {
	for label, port := range n.Outputs {
		for _, c := range port.Connections {
			peer, ok := s.modules[module][c.Node]
			if !ok {
				return fmt.Errorf("module %s: %s.%s -> %s.%s: %w: peer node missing",
					module, n.ID, label, c.Node, c.Port, ErrBrokenMirror)
			}
			if !hasRef(peer.Inputs[c.Port], n.ID, label) {
				return fmt.Errorf("module %s: %s.%s -> %s.%s: %w",
					module, n.ID, label, c.Node, c.Port, ErrBrokenMirror)
			}
		}
	}
	for label, port := range n.Inputs {
		for _, c := range port.Connections {
			peer, ok := s.modules[module][c.Node]
			if !ok {
				return fmt.Errorf("module %s: %s.%s <- %s.%s: %w: peer node missing",
					module, n.ID, label, c.Node, c.Port, ErrBrokenMirror)
			}
			if !hasRef(peer.Outputs[c.Port], n.ID, label) {
				return fmt.Errorf("module %s: %s.%s <- %s.%s: %w",
					module, n.ID, label, c.Node, c.Port, ErrBrokenMirror)
			}
		}
	}
	return nil
}

func hasRef(p *Port, node, port string) bool {
	if p == nil {
		return false
	}
	for _, c := range p.Connections {
		if c.Node == node && c.Port == port {
			return true
		}
	}
	return false
}
