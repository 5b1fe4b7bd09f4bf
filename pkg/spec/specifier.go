// Package spec holds the immutable, validated descriptions widgets are built
// from. A specifier is created once from a Params bag and never mutated; every
// validation failure surfaces as an errs.SpecificationError naming the
// offending parameter and identifier.
package spec

import (
	"strings"

	"github.com/goliatone/go-megawidgets/pkg/errs"
)

// Specifier describes one widget.
type Specifier interface {
	Identifier() string
	Type() string
	Enabled() bool
	Label() string
}

// Container is implemented by specifiers that own child specifiers.
type Container interface {
	Specifier
	ChildSpecifiers() []Specifier
}

// Factory builds specifiers from raw descriptions. Container specifiers use it
// to build their children.
type Factory interface {
	NewSpecifier(params Params) (Specifier, error)
}

// Base carries the fields every specifier shares. Concrete specifiers embed it.
type Base struct {
	identifier string
	kind       string
	label      string
	enabled    bool
}

// NewBase validates the shared fields of params for kind.
func NewBase(kind string, params Params) (Base, error) {
	raw, present := params[KeyIdentifier]
	identifier, isString := raw.(string)
	if !present || raw == nil {
		return Base{}, &errs.SpecificationError{Type: kind, Parameter: KeyIdentifier, Message: "missing required value"}
	}
	if !isString || strings.TrimSpace(identifier) == "" {
		return Base{}, &errs.SpecificationError{Type: kind, Parameter: KeyIdentifier, Value: raw, Message: "must be a non-empty string"}
	}
	label, err := params.String(KeyLabel, "")
	if err != nil {
		return Base{}, err
	}
	enabled, err := params.Bool(KeyEnable, true)
	if err != nil {
		return Base{}, err
	}
	return Base{
		identifier: identifier,
		kind:       kind,
		label:      label,
		enabled:    enabled,
	}, nil
}

func (b Base) Identifier() string { return b.identifier }

func (b Base) Type() string { return b.kind }

func (b Base) Enabled() bool { return b.enabled }

func (b Base) Label() string { return b.label }

// Walk visits s and, depth first, every descendant specifier.
func Walk(s Specifier, visit func(Specifier) error) error {
	if err := visit(s); err != nil {
		return err
	}
	container, ok := s.(Container)
	if !ok {
		return nil
	}
	for _, child := range container.ChildSpecifiers() {
		if err := Walk(child, visit); err != nil {
			return err
		}
	}
	return nil
}
