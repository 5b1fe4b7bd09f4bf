package widgets

import (
	"github.com/goliatone/go-megawidgets/pkg/errs"
	"github.com/goliatone/go-megawidgets/pkg/spec"
	"github.com/goliatone/go-megawidgets/pkg/widget"
)

// Declaration keys of a Group.
const (
	KeyFields  = "fields"
	KeyColumns = "columns"
)

// GroupSpecifier describes a labeled container of child widgets.
type GroupSpecifier struct {
	spec.Base
	columns  int
	children []spec.Specifier
}

// NewGroupSpecifier builds a GroupSpecifier and, through factory, the
// specifiers of every declared field.
func NewGroupSpecifier(params spec.Params, factory spec.Factory) (spec.Specifier, error) {
	base, err := spec.NewBase(KindGroup, params)
	if err != nil {
		return nil, err
	}
	columns, err := params.Int(KeyColumns, 1)
	if err != nil {
		return nil, err
	}
	if columns < 1 {
		return nil, errs.Specification(base.Identifier(), KeyColumns, columns, "must be a positive integer")
	}
	fields, err := params.List(KeyFields)
	if err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, errs.Specification(base.Identifier(), KeyFields, nil, "no specifier factory available for child fields")
	}
	children := make([]spec.Specifier, 0, len(fields))
	for i, field := range fields {
		raw, ok := field.(map[string]any)
		if !ok {
			return nil, errs.Specification(base.Identifier(), KeyFields, field, "field %d must be a mapping", i)
		}
		child, err := factory.NewSpecifier(spec.Params(raw))
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return &GroupSpecifier{Base: base, columns: columns, children: children}, nil
}

func (s *GroupSpecifier) Columns() int { return s.columns }

// ChildSpecifiers implements spec.Container.
func (s *GroupSpecifier) ChildSpecifiers() []spec.Specifier {
	return append([]spec.Specifier(nil), s.children...)
}

// groupArea is the parent handed to the children of a Group.
type groupArea struct {
	outer widget.Parent
}

func (g groupArea) Lineage() []widget.ParentKind {
	return append([]widget.ParentKind{widget.ParentGroup}, g.outer.Lineage()...)
}

// Group owns child widgets. Disabling a group disables every child.
type Group struct {
	widget.Base
	children []widget.Widget
}

func buildGroup(ctx widget.Context, s spec.Specifier, parent widget.Parent, params widget.CreationParams) (widget.Widget, error) {
	specifier, ok := s.(*GroupSpecifier)
	if !ok {
		return nil, errWrongSpecifier(s, KindGroup)
	}
	if ctx.Builder == nil {
		return nil, errs.Specification(s.Identifier(), KeyFields, nil, "no widget builder available for child fields")
	}
	g := &Group{Base: widget.NewBase(ctx, specifier)}
	area := groupArea{outer: parent}
	for _, child := range specifier.children {
		w, err := ctx.Builder.BuildWidget(ctx, child, area, widget.CapNone, params)
		if err != nil {
			return nil, err
		}
		g.children = append(g.children, w)
	}
	g.OnEnabledChange(func(enabled bool) {
		for _, child := range g.children {
			child.SetEnabled(enabled)
		}
	})
	if !specifier.Enabled() {
		for _, child := range g.children {
			child.SetEnabled(false)
		}
	}
	return g, nil
}

// Children implements widget.Container.
func (g *Group) Children() []widget.Widget {
	return append([]widget.Widget(nil), g.children...)
}
