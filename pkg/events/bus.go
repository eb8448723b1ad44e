// Package events implements the publish/subscribe bus hosts use to observe
// editor state transitions.
//
// Every mutation of the editor emits exactly one lifecycle event (plus one
// per cascaded connection removal). Listeners receive a single event-specific
// payload. Event names are plain strings so hosts can also publish their own
// application events over the same bus.
//
// Dispatch is reentrancy-safe: a listener may register further listeners or
// call back into the editor, mutating the very lists being iterated, without
// corrupting dispatch. Registration errors are reported to the caller rather
// than panicking.
package events

import (
	"sync"

	"github.com/flowgrid/flowgrid/pkg/errors"
)

// Minimum event set emitted by the editor. Hosts may subscribe to any
// subset; unknown event names are legal for host-defined events.
const (
	NodeCreated     = "nodeCreated"
	NodeMoved       = "nodeMoved"
	NodeRemoved     = "nodeRemoved"
	NodeSelected    = "nodeSelected"
	NodeUnselected  = "nodeUnselected"
	NodeDataChanged = "nodeDataChanged"

	ConnectionStart      = "connectionStart"
	ConnectionCreated    = "connectionCreated"
	ConnectionSelected   = "connectionSelected"
	ConnectionUnselected = "connectionUnselected"
	ConnectionRemoved    = "connectionRemoved"
	ConnectionCancel     = "connectionCancel"

	RerouteAdded   = "addReroute"
	RerouteRemoved = "removeReroute"

	ModuleCreated = "moduleCreated"
	ModuleChanged = "moduleChanged"
	ModuleRemoved = "moduleRemoved"

	Zoom      = "zoom"
	Translate = "translate"

	Import = "import"
	Export = "export"
)

// Listener receives one event-specific payload.
type Listener func(payload any)

// Bus is a string-keyed publish/subscribe dispatcher.
//
// The zero value is not usable - use New. Bus serializes registration with a
// mutex but dispatches over a snapshot of the listener list, so listeners
// registered during an Emit see only subsequent events.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{listeners: make(map[string][]Listener)}
}

// On registers a listener for an event name.
// Returns a structured error for empty event names or nil listeners; it
// never panics.
func (b *Bus) On(event string, fn Listener) error {
	if event == "" {
		return errors.New(errors.ErrCodeInvalidEvent, "event name must be a non-empty string")
	}
	if fn == nil {
		return errors.New(errors.ErrCodeInvalidListener, "listener for %q must be a function", event)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[event] = append(b.listeners[event], fn)
	return nil
}

// Emit delivers payload to every listener registered for event, in
// registration order. Listeners run on the calling goroutine; the editor's
// single-threaded mutation model extends through dispatch.
func (b *Bus) Emit(event string, payload any) {
	b.mu.RLock()
	snapshot := b.listeners[event]
	b.mu.RUnlock()
	// Iterate the snapshot: listeners may re-enter On (or the editor)
	// without disturbing this dispatch.
	for _, fn := range snapshot {
		fn(payload)
	}
}

// ListenerCount returns the number of listeners registered for event.
func (b *Bus) ListenerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[event])
}
