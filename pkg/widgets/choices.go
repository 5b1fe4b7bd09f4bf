package widgets

import (
	"fmt"

	"github.com/goliatone/go-megawidgets/pkg/coerce"
	"github.com/goliatone/go-megawidgets/pkg/errs"
	"github.com/goliatone/go-megawidgets/pkg/spec"
	"github.com/goliatone/go-megawidgets/pkg/widget"
)

// KeyChoices lists the selectable identifiers of choice widgets. It is both a
// declaration key and a mutable property.
const KeyChoices = "choices"

func parseChoices(params spec.Params, allowEmpty bool) ([]string, error) {
	choices, err := params.StringList(KeyChoices)
	if err != nil {
		return nil, err
	}
	if len(choices) == 0 && !allowEmpty {
		return nil, errs.Specification(params.Identifier(), KeyChoices, params[KeyChoices], "at least one choice is required")
	}
	unique, ok := uniqueStrings(choices)
	if !ok {
		return nil, errs.Specification(params.Identifier(), KeyChoices, choices, "choices must be unique")
	}
	return unique, nil
}

// ComboBoxSpecifier describes a single selection among choices.
type ComboBoxSpecifier struct {
	spec.Stateful
	choices []string
}

// NewComboBoxSpecifier builds a ComboBoxSpecifier.
func NewComboBoxSpecifier(params spec.Params, _ spec.Factory) (spec.Specifier, error) {
	choices, err := parseChoices(params, false)
	if err != nil {
		return nil, err
	}
	stateful, err := spec.NewStateful(KindComboBox, params, spec.StatefulOptions{
		ConvertValue: func(_ string, value any) (any, error) {
			return pickChoice(value, choices)
		},
	})
	if err != nil {
		return nil, err
	}
	return &ComboBoxSpecifier{Stateful: stateful, choices: choices}, nil
}

func (s *ComboBoxSpecifier) Choices() []string { return append([]string(nil), s.choices...) }

func pickChoice(value any, choices []string) (string, error) {
	choice, err := coerce.String(value)
	if err != nil {
		return "", err
	}
	if !containsString(choices, choice) {
		return "", fmt.Errorf("%q is not one of %v", choice, choices)
	}
	return choice, nil
}

// ComboBox holds one selected choice. Replacing the choices falls back to the
// first new choice when the selection disappears.
type ComboBox struct {
	widget.StatefulBase
	choices []string
}

func buildComboBox(ctx widget.Context, s spec.Specifier, _ widget.Parent, _ widget.CreationParams) (widget.Widget, error) {
	specifier, ok := s.(*ComboBoxSpecifier)
	if !ok {
		return nil, errWrongSpecifier(s, KindComboBox)
	}
	w := &ComboBox{choices: specifier.Choices()}
	sb, err := widget.NewStatefulBase(ctx, specifier, widget.StatefulOptions{
		Validate: func(_ string, value any) (any, error) {
			if value == nil {
				return w.choices[0], nil
			}
			return pickChoice(value, w.choices)
		},
	})
	if err != nil {
		return nil, err
	}
	w.StatefulBase = sb
	w.DefineStateProperties()
	w.DefineProperty(KeyChoices, widget.Property{
		Get: func() any { return append([]string(nil), w.choices...) },
		Set: func(value any) error {
			choices, err := coerce.StringList(value)
			if err != nil {
				return err
			}
			if len(choices) == 0 {
				return errs.Property(w.Identifier(), KeyChoices, value, "at least one choice is required")
			}
			unique, ok := uniqueStrings(choices)
			if !ok {
				return errs.Property(w.Identifier(), KeyChoices, value, "choices must be unique")
			}
			w.choices = unique
			id := w.StateIdentifiers()[0]
			current, _ := w.State(id)
			if selected, _ := current.(string); containsString(unique, selected) {
				return nil
			}
			return w.SetState(id, unique[0])
		},
	})
	return w, nil
}

// Selected returns the current choice.
func (w *ComboBox) Selected() string {
	value, _ := w.State(w.StateIdentifiers()[0])
	selected, _ := value.(string)
	return selected
}

// CheckListSpecifier describes a multi selection among choices.
type CheckListSpecifier struct {
	spec.Stateful
	choices []string
}

// NewCheckListSpecifier builds a CheckListSpecifier.
func NewCheckListSpecifier(params spec.Params, _ spec.Factory) (spec.Specifier, error) {
	choices, err := parseChoices(params, true)
	if err != nil {
		return nil, err
	}
	stateful, err := spec.NewStateful(KindCheckList, params, spec.StatefulOptions{
		ConvertValue: func(_ string, value any) (any, error) {
			return pickSubset(value, choices)
		},
	})
	if err != nil {
		return nil, err
	}
	return &CheckListSpecifier{Stateful: stateful, choices: choices}, nil
}

func (s *CheckListSpecifier) Choices() []string { return append([]string(nil), s.choices...) }

func pickSubset(value any, choices []string) ([]string, error) {
	selected, err := coerce.StringList(value)
	if err != nil {
		return nil, err
	}
	unique, ok := uniqueStrings(selected)
	if !ok {
		return nil, fmt.Errorf("selection %v contains duplicates", selected)
	}
	for _, item := range unique {
		if !containsString(choices, item) {
			return nil, fmt.Errorf("%q is not one of %v", item, choices)
		}
	}
	if unique == nil {
		unique = []string{}
	}
	return unique, nil
}

// CheckList holds the checked subset of its choices. Replacing the choices
// drops checked items that no longer exist.
type CheckList struct {
	widget.StatefulBase
	choices []string
}

func buildCheckList(ctx widget.Context, s spec.Specifier, _ widget.Parent, _ widget.CreationParams) (widget.Widget, error) {
	specifier, ok := s.(*CheckListSpecifier)
	if !ok {
		return nil, errWrongSpecifier(s, KindCheckList)
	}
	w := &CheckList{choices: specifier.Choices()}
	sb, err := widget.NewStatefulBase(ctx, specifier, widget.StatefulOptions{
		Validate: func(_ string, value any) (any, error) {
			if value == nil {
				return []string{}, nil
			}
			return pickSubset(value, w.choices)
		},
	})
	if err != nil {
		return nil, err
	}
	w.StatefulBase = sb
	w.DefineStateProperties()
	w.DefineProperty(KeyChoices, widget.Property{
		Get: func() any { return append([]string(nil), w.choices...) },
		Set: func(value any) error {
			choices, err := coerce.StringList(value)
			if err != nil {
				return err
			}
			unique, ok := uniqueStrings(choices)
			if !ok {
				return errs.Property(w.Identifier(), KeyChoices, value, "choices must be unique")
			}
			w.choices = unique
			kept := []string{}
			for _, item := range w.Checked() {
				if containsString(unique, item) {
					kept = append(kept, item)
				}
			}
			return w.SetState(w.StateIdentifiers()[0], kept)
		},
	})
	return w, nil
}

// Checked returns the checked items in selection order.
func (w *CheckList) Checked() []string {
	value, _ := w.State(w.StateIdentifiers()[0])
	checked, _ := value.([]string)
	return append([]string(nil), checked...)
}
