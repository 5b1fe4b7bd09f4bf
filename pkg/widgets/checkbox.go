package widgets

import (
	"github.com/goliatone/go-megawidgets/pkg/coerce"
	"github.com/goliatone/go-megawidgets/pkg/spec"
	"github.com/goliatone/go-megawidgets/pkg/widget"
)

// CheckBoxSpecifier describes a single boolean toggle.
type CheckBoxSpecifier struct {
	spec.Stateful
}

// NewCheckBoxSpecifier builds a CheckBoxSpecifier.
func NewCheckBoxSpecifier(params spec.Params, _ spec.Factory) (spec.Specifier, error) {
	stateful, err := spec.NewStateful(KindCheckBox, params, spec.StatefulOptions{
		ConvertValue: func(_ string, value any) (any, error) {
			return coerce.Bool(value)
		},
	})
	if err != nil {
		return nil, err
	}
	return &CheckBoxSpecifier{Stateful: stateful}, nil
}

// CheckBox holds one boolean.
type CheckBox struct {
	widget.StatefulBase
	layout string
}

func buildCheckBox(layout string) func(widget.Context, spec.Specifier, widget.Parent, widget.CreationParams) (widget.Widget, error) {
	return func(ctx widget.Context, s spec.Specifier, _ widget.Parent, _ widget.CreationParams) (widget.Widget, error) {
		specifier, ok := s.(*CheckBoxSpecifier)
		if !ok {
			return nil, errWrongSpecifier(s, KindCheckBox)
		}
		sb, err := widget.NewStatefulBase(ctx, specifier, widget.StatefulOptions{
			Validate: func(_ string, value any) (any, error) {
				if value == nil {
					return false, nil
				}
				return coerce.Bool(value)
			},
		})
		if err != nil {
			return nil, err
		}
		w := &CheckBox{StatefulBase: sb, layout: layout}
		w.DefineStateProperties()
		return w, nil
	}
}

// Layout reports whether the box was built standalone or inline in a group.
func (c *CheckBox) Layout() string { return c.layout }

// Checked returns the current value.
func (c *CheckBox) Checked() bool {
	value, _ := c.State(c.StateIdentifiers()[0])
	checked, _ := value.(bool)
	return checked
}
