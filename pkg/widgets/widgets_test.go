package widgets

import (
	"errors"
	"reflect"
	"testing"

	"github.com/goliatone/go-megawidgets/pkg/errs"
	"github.com/goliatone/go-megawidgets/pkg/spec"
	"github.com/goliatone/go-megawidgets/pkg/widget"
)

type notification struct {
	identifier string
	stateID    string
	value      any
}

type recorder struct {
	changes     []notification
	invocations []notification
}

func (r *recorder) listener() widget.Listener {
	return widget.ListenerFuncs{
		OnStateChanged: func(identifier, stateID string, value any) {
			r.changes = append(r.changes, notification{identifier: identifier, stateID: stateID, value: value})
		},
		OnInvoked: func(identifier string, extra any) {
			r.invocations = append(r.invocations, notification{identifier: identifier, value: extra})
		},
	}
}

func buildWidget[T widget.Widget](t *testing.T, rec *recorder, description map[string]any) T {
	t.Helper()
	w, err := tryBuild(rec, description)
	if err != nil {
		t.Fatalf("failed to build %v: %v", description, err)
	}
	typed, ok := w.(T)
	if !ok {
		t.Fatalf("expected %T, got %T", *new(T), w)
	}
	return typed
}

func tryBuild(rec *recorder, description map[string]any) (widget.Widget, error) {
	r := NewRegistry()
	s, err := r.NewSpecifier(spec.Params(description))
	if err != nil {
		return nil, err
	}
	ctx := widget.Context{}
	if rec != nil {
		ctx.Listener = rec.listener()
	}
	return r.BuildWidget(ctx, s, widget.Root{}, widget.CapNone, nil)
}

func TestCheckBoxLayoutFollowsParent(t *testing.T) {
	standalone := buildWidget[*CheckBox](t, nil, map[string]any{"fieldType": KindCheckBox, "fieldName": "a"})
	if standalone.Layout() != LayoutStandalone {
		t.Fatalf("expected standalone layout, got %q", standalone.Layout())
	}

	group := buildWidget[*Group](t, nil, map[string]any{
		"fieldType": KindGroup,
		"fieldName": "g",
		"fields":    []any{map[string]any{"fieldType": KindCheckBox, "fieldName": "g>a"}},
	})
	inline := group.Children()[0].(*CheckBox)
	if inline.Layout() != LayoutInline {
		t.Fatalf("expected inline layout inside a group, got %q", inline.Layout())
	}
}

func TestStatefulInput(t *testing.T) {
	rec := &recorder{}
	box := buildWidget[*CheckBox](t, rec, map[string]any{"fieldType": KindCheckBox, "fieldName": "a", "values": true})
	if !box.Checked() {
		t.Fatalf("expected starting value to be applied")
	}

	if err := box.Input("a", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.changes) != 0 {
		t.Fatalf("unchanged input must not notify, got %v", rec.changes)
	}
	if err := box.Input("a", "false"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(rec.changes, []notification{{identifier: "a", stateID: "a", value: false}}) {
		t.Fatalf("unexpected notifications %v", rec.changes)
	}

	if err := box.Input("b", true); !errors.Is(err, errs.ErrState) {
		t.Fatalf("expected unknown state identifier error, got %v", err)
	}
	if err := box.SetState("a", true); err != nil || len(rec.changes) != 1 {
		t.Fatalf("programmatic SetState must not notify, got %v (%v)", rec.changes, err)
	}

	if err := box.SetMutableProperty(widget.PropEditable, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := box.Input("a", false); !errors.Is(err, errs.ErrState) {
		t.Fatalf("expected read-only widget to reject input, got %v", err)
	}
}

func TestIntegerSpinnerBounds(t *testing.T) {
	spinner := buildWidget[*IntegerSpinner](t, nil, map[string]any{
		"fieldType": KindIntegerSpinner, "fieldName": "n", "minValue": 1, "maxValue": 10, "values": 8,
	})

	if err := spinner.Input("n", 11); !errors.Is(err, errs.ErrState) {
		t.Fatalf("expected out of range input to fail, got %v", err)
	}
	if spinner.Value() != 8 {
		t.Fatalf("expected rejected input to keep 8, got %d", spinner.Value())
	}

	if err := spinner.SetMutableProperties(map[string]any{KeyMaxValue: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spinner.Value() != 5 {
		t.Fatalf("expected narrowing the bounds to clamp the value, got %d", spinner.Value())
	}

	cases := []struct {
		name     string
		property string
		value    any
	}{
		{name: "min_above_max", property: KeyMinValue, value: 6},
		{name: "max_below_min", property: KeyMaxValue, value: 0},
		{name: "zero_delta", property: KeyIncrementDelta, value: 0},
		{name: "non_numeric", property: KeyMaxValue, value: "many"},
		{name: "unknown", property: "step", value: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := spinner.SetMutableProperty(tc.property, tc.value)
			var propErr *errs.PropertyError
			if !errors.As(err, &propErr) || propErr.Property != tc.property {
				t.Fatalf("expected property error for %s, got %v", tc.property, err)
			}
		})
	}

	props := spinner.MutableProperties()
	if props[KeyMinValue] != 1 || props[KeyMaxValue] != 5 || props[KeyIncrementDelta] != 1 {
		t.Fatalf("unexpected properties %#v", props)
	}
}

func TestIntegerSpecifierValidation(t *testing.T) {
	cases := []struct {
		name        string
		description map[string]any
		parameter   string
	}{
		{name: "inverted_bounds", description: map[string]any{"fieldType": KindIntegerSpinner, "fieldName": "n", "minValue": 3, "maxValue": 1}, parameter: KeyMaxValue},
		{name: "bad_delta", description: map[string]any{"fieldType": KindIntegerSpinner, "fieldName": "n", "incrementDelta": -1}, parameter: KeyIncrementDelta},
		{name: "start_outside_bounds", description: map[string]any{"fieldType": KindIntegerSpinner, "fieldName": "n", "maxValue": 3, "values": 4}, parameter: spec.KeyValues},
		{name: "range_needs_two_ids", description: map[string]any{"fieldType": KindIntegerRange, "fieldName": "low"}, parameter: spec.KeyIdentifier},
		{name: "interval_too_wide", description: map[string]any{"fieldType": KindIntegerRange, "fieldName": "a:b", "maxValue": 3, "minimumInterval": 4}, parameter: KeyMinimumInterval},
		{name: "start_breaks_interval", description: map[string]any{"fieldType": KindIntegerRange, "fieldName": "a:b", "minimumInterval": 2, "values": map[string]any{"a": 5, "b": 6}}, parameter: spec.KeyValues},
		{name: "negative_max_length", description: map[string]any{"fieldType": KindText, "fieldName": "t", "maxLength": -1}, parameter: KeyMaxLength},
		{name: "text_too_long", description: map[string]any{"fieldType": KindText, "fieldName": "t", "maxLength": 2, "values": "abc"}, parameter: spec.KeyValues},
		{name: "combo_without_choices", description: map[string]any{"fieldType": KindComboBox, "fieldName": "c"}, parameter: KeyChoices},
		{name: "duplicate_choices", description: map[string]any{"fieldType": KindCheckList, "fieldName": "c", "choices": []any{"a", "a"}}, parameter: KeyChoices},
		{name: "bad_columns", description: map[string]any{"fieldType": KindGroup, "fieldName": "g", "columns": 0}, parameter: KeyColumns},
		{name: "field_not_a_mapping", description: map[string]any{"fieldType": KindGroup, "fieldName": "g", "fields": []any{"x"}}, parameter: KeyFields},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tryBuild(nil, tc.description)
			var specErr *errs.SpecificationError
			if !errors.As(err, &specErr) {
				t.Fatalf("expected SpecificationError, got %v", err)
			}
			if specErr.Parameter != tc.parameter {
				t.Fatalf("expected parameter %q, got %q (%v)", tc.parameter, specErr.Parameter, err)
			}
		})
	}
}

func TestIntegerRangeExplicitCommit(t *testing.T) {
	rec := &recorder{}
	window := buildWidget[*IntegerRange](t, rec, map[string]any{
		"fieldType": KindIntegerRange, "fieldName": "low:high", "minValue": 0, "maxValue": 10, "minimumInterval": 2,
	})
	if low, high := window.Range(); low != 0 || high != 10 {
		t.Fatalf("expected bounds as defaults, got %d %d", low, high)
	}

	if err := window.InputAll(map[string]any{"low": 9, "high": 10}); !errors.Is(err, errs.ErrState) {
		t.Fatalf("expected interval violation, got %v", err)
	}
	if low, high := window.Range(); low != 0 || high != 10 {
		t.Fatalf("expected failed commit to keep values, got %d %d", low, high)
	}
	if window.HasUncommittedState() {
		t.Fatalf("expected failed commit to discard the buffer")
	}

	if err := window.InputAll(map[string]any{"low": 4, "high": 6}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []notification{
		{identifier: "low:high", stateID: "low", value: 4},
		{identifier: "low:high", stateID: "high", value: 6},
	}
	if !reflect.DeepEqual(rec.changes, want) {
		t.Fatalf("expected one notification per changed value, got %v", rec.changes)
	}

	if err := window.SetUncommittedState("low", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !window.HasUncommittedState() {
		t.Fatalf("expected buffered value")
	}
	if low, _ := window.Range(); low != 4 {
		t.Fatalf("expected buffered value not to apply before commit, got %d", low)
	}
	if err := window.SetUncommittedState("middle", 5); !errors.Is(err, errs.ErrState) {
		t.Fatalf("expected unknown state identifier error, got %v", err)
	}

	// 5 and 6 are closer than the minimum interval.
	if err := window.CommitStateChanges(); err == nil {
		t.Fatalf("expected commit to fail")
	}
	if low, high := window.Range(); low != 4 || high != 6 {
		t.Fatalf("expected failed commit to keep values, got %d %d", low, high)
	}
	if len(rec.changes) != 2 {
		t.Fatalf("programmatic commits must not notify beyond input, got %v", rec.changes)
	}
	if err := window.CommitStateChanges(); err != nil {
		t.Fatalf("expected empty commit to succeed, got %v", err)
	}

	if err := window.SetMutableProperty(KeyMinimumInterval, 11); err == nil {
		t.Fatalf("expected interval wider than the bounds to be rejected")
	}
	if err := window.SetMutableProperty(KeyMinimumInterval, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := window.SetMutableProperty(KeyMaxValue, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if low, high := window.Range(); low != 4 || high != 5 {
		t.Fatalf("expected narrowed bounds to clamp the pair, got %d %d", low, high)
	}
}

func TestIntegerRangeRejectedBoundsRollBack(t *testing.T) {
	window := buildWidget[*IntegerRange](t, nil, map[string]any{
		"fieldType": KindIntegerRange, "fieldName": "low:high", "minValue": 0, "maxValue": 10, "minimumInterval": 2,
	})
	if err := window.SetStates(map[string]any{"low": 4, "high": 6}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		property string
		value    int
	}{
		{KeyMaxValue, 5},
		{KeyMinValue, 5},
	}
	for _, tc := range cases {
		err := window.SetMutableProperty(tc.property, tc.value)
		if !errors.Is(err, errs.ErrProperty) {
			t.Fatalf("%s=%d: expected property error, got %v", tc.property, tc.value, err)
		}
		var propErr *errs.PropertyError
		if !errors.As(err, &propErr) || propErr.Property != tc.property {
			t.Fatalf("%s=%d: expected error naming the property, got %v", tc.property, tc.value, err)
		}
		if got, _ := window.MutableProperty(KeyMinValue); got != 0 {
			t.Fatalf("%s=%d: expected minValue rolled back, got %v", tc.property, tc.value, got)
		}
		if got, _ := window.MutableProperty(KeyMaxValue); got != 10 {
			t.Fatalf("%s=%d: expected maxValue rolled back, got %v", tc.property, tc.value, got)
		}
		if low, high := window.Range(); low != 4 || high != 6 {
			t.Fatalf("%s=%d: expected values untouched, got %d %d", tc.property, tc.value, low, high)
		}
	}
}

func TestChoiceWidgets(t *testing.T) {
	combo := buildWidget[*ComboBox](t, nil, map[string]any{
		"fieldType": KindComboBox, "fieldName": "c", "choices": []any{"a", "b", "c"}, "values": "b",
	})
	if combo.Selected() != "b" {
		t.Fatalf("expected starting selection, got %q", combo.Selected())
	}
	if err := combo.Input("c", "z"); !errors.Is(err, errs.ErrState) {
		t.Fatalf("expected unknown choice to be rejected, got %v", err)
	}
	if err := combo.SetMutableProperty(KeyChoices, []any{"b", "d"}); err != nil || combo.Selected() != "b" {
		t.Fatalf("expected surviving selection to be kept, got %q (%v)", combo.Selected(), err)
	}
	if err := combo.SetMutableProperty(KeyChoices, []string{"x", "y"}); err != nil || combo.Selected() != "x" {
		t.Fatalf("expected selection to fall back to the first choice, got %q (%v)", combo.Selected(), err)
	}
	if err := combo.SetMutableProperty(KeyChoices, []any{}); !errors.Is(err, errs.ErrProperty) {
		t.Fatalf("expected empty choices to be rejected, got %v", err)
	}

	list := buildWidget[*CheckList](t, nil, map[string]any{
		"fieldType": KindCheckList, "fieldName": "l", "choices": []any{"a", "b", "c"}, "values": []any{"c", "a"},
	})
	if !reflect.DeepEqual(list.Checked(), []string{"c", "a"}) {
		t.Fatalf("expected selection order to be kept, got %v", list.Checked())
	}
	if err := list.Input("l", []any{"a", "a"}); !errors.Is(err, errs.ErrState) {
		t.Fatalf("expected duplicate selection to be rejected, got %v", err)
	}
	if err := list.SetMutableProperty(KeyChoices, []any{"a", "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(list.Checked(), []string{"a"}) {
		t.Fatalf("expected removed choices to be unchecked, got %v", list.Checked())
	}
	if err := list.SetMutableProperty(KeyChoices, []any{}); err != nil || len(list.Checked()) != 0 {
		t.Fatalf("expected empty choices to clear the selection, got %v (%v)", list.Checked(), err)
	}
}

func TestTextMaxLength(t *testing.T) {
	text := buildWidget[*Text](t, nil, map[string]any{"fieldType": KindText, "fieldName": "t", "maxLength": 3})
	if text.Text() != "" {
		t.Fatalf("expected empty default, got %q", text.Text())
	}
	if err := text.Input("t", "héé"); err != nil {
		t.Fatalf("expected runes to be counted, got %v", err)
	}
	if err := text.Input("t", "four"); !errors.Is(err, errs.ErrState) {
		t.Fatalf("expected long text to be rejected, got %v", err)
	}
	if text.Text() != "héé" {
		t.Fatalf("expected last good value, got %q", text.Text())
	}
}

func TestButtonInvoke(t *testing.T) {
	rec := &recorder{}
	button := buildWidget[*Button](t, rec, map[string]any{"fieldType": KindButton, "fieldName": "save", "callbackValue": "commit"})

	button.Invoke(nil)
	button.Invoke("explicit")
	button.SetEnabled(false)
	button.Invoke(nil)

	want := []notification{
		{identifier: "save", value: "commit"},
		{identifier: "save", value: "explicit"},
	}
	if !reflect.DeepEqual(rec.invocations, want) {
		t.Fatalf("unexpected invocations %v", rec.invocations)
	}
	if names := button.MutablePropertyNames(); !reflect.DeepEqual(names, []string{widget.PropEnabled}) {
		t.Fatalf("expected only the enable property, got %v", names)
	}
}

func TestGroupEnableCascade(t *testing.T) {
	group := buildWidget[*Group](t, nil, map[string]any{
		"fieldType": KindGroup,
		"fieldName": "g",
		"enable":    false,
		"columns":   2,
		"fields": []any{
			map[string]any{"fieldType": KindCheckBox, "fieldName": "g>a"},
			map[string]any{"fieldType": KindIntegerSpinner, "fieldName": "g>n"},
		},
	})
	for _, child := range group.Children() {
		if child.Enabled() {
			t.Fatalf("expected %s to start disabled with its group", child.Identifier())
		}
	}
	if group.Specifier().(*GroupSpecifier).Columns() != 2 {
		t.Fatalf("expected columns to be kept")
	}

	if err := group.SetMutableProperty(widget.PropEnabled, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var visited []string
	widget.Walk(group, func(w widget.Widget) {
		visited = append(visited, w.Identifier())
		if !w.Enabled() {
			t.Fatalf("expected %s enabled", w.Identifier())
		}
	})
	if !reflect.DeepEqual(visited, []string{"g", "g>a", "g>n"}) {
		t.Fatalf("unexpected walk order %v", visited)
	}
	if caps := widget.CapabilitiesOf(group); caps != widget.CapContainer {
		t.Fatalf("expected container capability, got %s", caps)
	}
}

func TestRegistryKinds(t *testing.T) {
	want := []string{KindButton, KindCheckBox, KindCheckList, KindComboBox, KindGroup, KindIntegerRange, KindIntegerSpinner, KindText}
	if got := NewRegistry().Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected kinds %v", got)
	}
	kind, _ := NewRegistry().Kind(KindIntegerRange)
	if !kind.Capabilities.Has(widget.CapStateful | widget.CapExplicitCommit) {
		t.Fatalf("unexpected range capabilities %s", kind.Capabilities)
	}
}
