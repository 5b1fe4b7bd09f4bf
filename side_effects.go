package megawidget

import (
	"reflect"

	"github.com/goliatone/go-megawidgets/pkg/coerce"
	"github.com/goliatone/go-megawidgets/pkg/statestore"
)

// Properties maps widget identifiers to mutable property values. It carries
// both the full property snapshot handed to an applier and the partial updates
// an applier returns.
type Properties map[string]map[string]any

// Clone returns a deep copy of p.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for id, props := range p {
		out[id] = statestore.Clone(props)
	}
	return out
}

// Set records value for the property of identifier. It allocates p itself
// when p is nil.
func (p *Properties) Set(identifier, property string, value any) {
	if *p == nil {
		*p = Properties{}
	}
	props := *p
	if props[identifier] == nil {
		props[identifier] = map[string]any{}
	}
	props[identifier][property] = value
}

// Get returns the recorded value for the property of identifier.
func (p Properties) Get(identifier, property string) (any, bool) {
	props, ok := p[identifier]
	if !ok {
		return nil, false
	}
	value, ok := props[property]
	return value, ok
}

// SideEffectsApplier computes cross-widget property changes after a state
// change or invocation. significant is true for real state changes and for the
// first call following a programmatic property write. A nil or empty result
// means nothing changes.
type SideEffectsApplier interface {
	Apply(trigger string, properties Properties, significant bool) (Properties, error)
}

// ApplierFunc adapts a function to SideEffectsApplier.
type ApplierFunc func(trigger string, properties Properties, significant bool) (Properties, error)

// Apply implements SideEffectsApplier.
func (f ApplierFunc) Apply(trigger string, properties Properties, significant bool) (Properties, error) {
	if f == nil {
		return nil, nil
	}
	return f(trigger, properties, significant)
}

// sameValue compares loosely typed values, treating 3 and 3.0 or []string and
// []any of equal items as equal.
func sameValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	av, err := coerce.ToCty(a)
	if err != nil {
		return false
	}
	bv, err := coerce.ToCty(b)
	if err != nil {
		return false
	}
	na, err := coerce.FromCty(av)
	if err != nil {
		return false
	}
	nb, err := coerce.FromCty(bv)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}
