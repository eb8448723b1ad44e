package editor

import (
	"github.com/flowgrid/flowgrid/pkg/errors"
	"github.com/flowgrid/flowgrid/pkg/flow"
)

// Template is a registered content definition for typed nodes. Properties
// seed the node's data payload bindings; Options carry host-defined
// rendering flags the core never interprets.
type Template struct {
	Content    string
	Properties map[string]any
	Options    map[string]any
}

// Registry maps template names to content definitions. A node whose
// content specification is typed resolves its markup here instead of
// carrying raw markup itself.
type Registry struct {
	templates map[string]Template
}

// NewRegistry creates an empty template registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]Template)}
}

// Register adds a named template. Re-registering a name overwrites the
// previous definition, which lets hosts hot-swap templates during
// development.
func (r *Registry) Register(name string, tmpl Template) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "template name must not be empty")
	}
	r.templates[name] = tmpl
	return nil
}

// Lookup resolves a template by name.
func (r *Registry) Lookup(name string) (Template, bool) {
	t, ok := r.templates[name]
	return t, ok
}

// ContentRenderer is the capability a host injects to populate node
// bodies. The core calls it exactly once per node creation or import and
// never again: later data updates patch bound fields by key path on the
// host side, they do not re-render.
//
// tmpl is non-nil only for typed nodes; raw-markup nodes receive their
// markup through n.Content.
type ContentRenderer interface {
	Mount(n *flow.Node, tmpl *Template) error
}

// NullContentRenderer mounts nothing. Hosts without a rendering surface
// (tests, servers manipulating graphs headless) use it implicitly.
type NullContentRenderer struct{}

// Mount implements [ContentRenderer].
func (NullContentRenderer) Mount(*flow.Node, *Template) error { return nil }
