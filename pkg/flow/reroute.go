package flow

import "fmt"

// ConnKey identifies a connection by its four endpoint coordinates. It is
// the typed handle carried by view layers and gesture state instead of any
// string-encoded form.
type ConnKey struct {
	OutNode string
	OutPort string
	InNode  string
	InPort  string
}

// String formats the key for logs and error messages.
func (k ConnKey) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", k.OutNode, k.OutPort, k.InNode, k.InPort)
}

// outputEntry resolves the output-side connection entry for a key. Waypoints
// live only on that entry (see [Connection]).
func (s *Store) outputEntry(key ConnKey) (*Connection, error) {
	src, ok := s.lookup(key.OutNode)
	if !ok {
		return nil, ErrUnknownConnection
	}
	port, ok := src.Outputs[key.OutPort]
	if !ok {
		return nil, ErrUnknownConnection
	}
	for i := range port.Connections {
		c := &port.Connections[i]
		if c.Node == key.InNode && c.Port == key.InPort {
			return c, nil
		}
	}
	return nil, ErrUnknownConnection
}

// Points returns a copy of the waypoint list of a connection.
func (s *Store) Points(key ConnKey) ([]Position, error) {
	c, err := s.outputEntry(key)
	if err != nil {
		return nil, err
	}
	return append([]Position(nil), c.Points...), nil
}

// AddPoint inserts a waypoint at the given index (0 appends before the
// first existing waypoint, len(points) appends at the end). Out-of-range
// indices clamp to the nearest end.
func (s *Store) AddPoint(key ConnKey, index int, pos Position) error {
	c, err := s.outputEntry(key)
	if err != nil {
		return err
	}
	if index < 0 {
		index = 0
	}
	if index > len(c.Points) {
		index = len(c.Points)
	}
	c.Points = append(c.Points, Position{})
	copy(c.Points[index+1:], c.Points[index:])
	c.Points[index] = pos
	return nil
}

// MovePoint rewrites the waypoint at index.
func (s *Store) MovePoint(key ConnKey, index int, pos Position) error {
	c, err := s.outputEntry(key)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(c.Points) {
		return ErrUnknownConnection
	}
	c.Points[index] = pos
	return nil
}

// RemovePoint deletes the waypoint at index, merging the two curve
// segments it separated.
func (s *Store) RemovePoint(key ConnKey, index int) error {
	c, err := s.outputEntry(key)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(c.Points) {
		return ErrUnknownConnection
	}
	c.Points = append(c.Points[:index], c.Points[index+1:]...)
	if len(c.Points) == 0 {
		c.Points = nil
	}
	return nil
}
