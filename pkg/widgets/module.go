// Package widgets provides the built-in headless megawidget kinds. Each kind
// pairs a specifier constructor with one or more widget builders keyed by
// parent kind; a view layer renders them and reports user input through
// Input, InputAll and Invoke.
package widgets

import (
	"github.com/goliatone/go-megawidgets/pkg/registry"
	"github.com/goliatone/go-megawidgets/pkg/widget"
)

// Kind tags of the built-in widgets.
const (
	KindCheckBox       = "CheckBox"
	KindIntegerSpinner = "IntegerSpinner"
	KindIntegerRange   = "IntegerRange"
	KindText           = "Text"
	KindComboBox       = "ComboBox"
	KindCheckList      = "CheckList"
	KindButton         = "Button"
	KindGroup          = "Group"
)

// Layout values reported by widgets whose builder depends on the parent.
const (
	LayoutStandalone = "standalone"
	LayoutInline     = "inline"
)

// Module registers every built-in kind.
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) error {
	kinds := []registry.Kind{
		{
			Name:         KindCheckBox,
			Capabilities: widget.CapStateful,
			NewSpecifier: NewCheckBoxSpecifier,
			Builders: []registry.Builder{
				{Parent: widget.ParentRoot, Build: buildCheckBox(LayoutStandalone)},
				{Parent: widget.ParentGroup, Build: buildCheckBox(LayoutInline)},
			},
		},
		{
			Name:         KindIntegerSpinner,
			Capabilities: widget.CapStateful,
			NewSpecifier: NewIntegerSpinnerSpecifier,
			Builders:     []registry.Builder{{Parent: widget.ParentRoot, Build: buildIntegerSpinner}},
		},
		{
			Name:         KindIntegerRange,
			Capabilities: widget.CapStateful | widget.CapExplicitCommit,
			NewSpecifier: NewIntegerRangeSpecifier,
			Builders:     []registry.Builder{{Parent: widget.ParentRoot, Build: buildIntegerRange}},
		},
		{
			Name:         KindText,
			Capabilities: widget.CapStateful,
			NewSpecifier: NewTextSpecifier,
			Builders:     []registry.Builder{{Parent: widget.ParentRoot, Build: buildText}},
		},
		{
			Name:         KindComboBox,
			Capabilities: widget.CapStateful,
			NewSpecifier: NewComboBoxSpecifier,
			Builders:     []registry.Builder{{Parent: widget.ParentRoot, Build: buildComboBox}},
		},
		{
			Name:         KindCheckList,
			Capabilities: widget.CapStateful,
			NewSpecifier: NewCheckListSpecifier,
			Builders:     []registry.Builder{{Parent: widget.ParentRoot, Build: buildCheckList}},
		},
		{
			Name:         KindButton,
			Capabilities: widget.CapInvocable,
			NewSpecifier: NewButtonSpecifier,
			Builders:     []registry.Builder{{Parent: widget.ParentRoot, Build: buildButton}},
		},
		{
			Name:         KindGroup,
			Capabilities: widget.CapContainer,
			NewSpecifier: NewGroupSpecifier,
			Builders:     []registry.Builder{{Parent: widget.ParentRoot, Build: buildGroup}},
		},
	}
	for _, kind := range kinds {
		if err := r.Register(kind); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry preloaded with the built-in kinds.
func NewRegistry(opts ...registry.Option) *registry.Registry {
	r := registry.New(opts...)
	if err := r.Use(Module{}); err != nil {
		panic(err)
	}
	return r
}
