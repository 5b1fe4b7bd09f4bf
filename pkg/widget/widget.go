// Package widget defines the runtime contracts of megawidgets. A widget is a
// struct embedding Base plus whichever optional behavior interfaces it
// implements (Stateful, ExplicitCommit, Invocable, Container); callers
// dispatch on those interfaces, never on concrete types.
package widget

import (
	"github.com/goliatone/go-megawidgets/pkg/spec"
)

// Mutable property names shared across kinds.
const (
	PropEnabled  = "enable"
	PropEditable = "editable"
	// PropValues is the bulk state property: a map keyed by state identifier.
	PropValues = "values"
)

// Widget is the runtime object built from a specifier.
type Widget interface {
	Specifier() spec.Specifier
	Identifier() string
	Enabled() bool
	SetEnabled(enabled bool)
	MutablePropertyNames() []string
	MutableProperty(name string) (any, error)
	SetMutableProperty(name string, value any) error
	MutableProperties() map[string]any
	SetMutableProperties(properties map[string]any) error
}

// Stateful widgets hold one value per state identifier of their specifier.
// SetState is a programmatic assignment and never notifies listeners.
type Stateful interface {
	Widget
	StateIdentifiers() []string
	State(stateID string) (any, error)
	SetState(stateID string, value any) error
}

// ExplicitCommit widgets buffer assignments and validate them together.
type ExplicitCommit interface {
	Stateful
	SetUncommittedState(stateID string, value any) error
	CommitStateChanges() error
}

// Invocable widgets fire one-shot commands.
type Invocable interface {
	Widget
	Invoke(extra any)
}

// Container widgets own child widgets.
type Container interface {
	Widget
	Children() []Widget
}

// Listener receives notifications caused by user input.
type Listener interface {
	StateChanged(identifier, stateID string, value any)
	Invoked(identifier string, extra any)
}

// ListenerFuncs adapts plain functions to Listener. Nil entries are skipped.
type ListenerFuncs struct {
	OnStateChanged func(identifier, stateID string, value any)
	OnInvoked      func(identifier string, extra any)
}

func (l ListenerFuncs) StateChanged(identifier, stateID string, value any) {
	if l.OnStateChanged != nil {
		l.OnStateChanged(identifier, stateID, value)
	}
}

func (l ListenerFuncs) Invoked(identifier string, extra any) {
	if l.OnInvoked != nil {
		l.OnInvoked(identifier, extra)
	}
}

// Capability is a bit set of optional behaviors.
type Capability uint8

const (
	CapStateful Capability = 1 << iota
	CapExplicitCommit
	CapInvocable
	CapContainer

	// CapNone places no constraint.
	CapNone Capability = 0
)

// Has reports whether every bit of other is present in c.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

func (c Capability) String() string {
	if c == CapNone {
		return "none"
	}
	names := []struct {
		bit  Capability
		name string
	}{
		{CapStateful, "stateful"},
		{CapExplicitCommit, "explicit-commit"},
		{CapInvocable, "invocable"},
		{CapContainer, "container"},
	}
	out := ""
	for _, entry := range names {
		if c&entry.bit == 0 {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += entry.name
	}
	return out
}

// CapabilitiesOf reports which behavior interfaces w implements.
func CapabilitiesOf(w Widget) Capability {
	var caps Capability
	if _, ok := w.(Stateful); ok {
		caps |= CapStateful
	}
	if _, ok := w.(ExplicitCommit); ok {
		caps |= CapExplicitCommit
	}
	if _, ok := w.(Invocable); ok {
		caps |= CapInvocable
	}
	if _, ok := w.(Container); ok {
		caps |= CapContainer
	}
	return caps
}

// Walk visits w and, depth first, every descendant widget.
func Walk(w Widget, visit func(Widget)) {
	visit(w)
	container, ok := w.(Container)
	if !ok {
		return
	}
	for _, child := range container.Children() {
		Walk(child, visit)
	}
}
