// Package flow implements the authoritative data model for node-link
// diagrams: nodes with positional ports, directed connections between
// output and input ports, optional waypoints bending a connection, and
// named modules that partition one store into independent graphs.
//
// # Structure
//
// A [Store] holds any number of named modules. Each module maps node ids to
// [Node] records. Node ids are unique across all modules for the lifetime of
// the store and are never reused, even after a module is deleted.
//
// Ports are addressed by positional labels ("input_1", "output_2", ...).
// Labels always form a dense 1..N sequence per side; removing a port
// renumbers every higher port down by one and rewrites the peer references
// of all surviving connections in the same operation.
//
// # Invariants
//
// Every connection is stored twice, once under the source node's output
// port and once under the destination node's input port, as a mirrored
// back-reference pair. No public operation can leave the mirror broken:
// mutations are synchronous and atomic, so a failed precondition means no
// change at all. Self-connections and duplicate connections are rejected,
// and connections may not span modules.
//
// The store is pure data. It performs no rendering and emits no events;
// the editor layer in package editor owns both concerns. Like the rest of
// the model types, Store is not safe for concurrent use without external
// synchronization.
package flow
