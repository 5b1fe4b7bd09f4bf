package registry

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/goliatone/go-megawidgets/pkg/errs"
	"github.com/goliatone/go-megawidgets/pkg/spec"
	"github.com/goliatone/go-megawidgets/pkg/widget"
)

const parentPanel widget.ParentKind = "panel"

// panel is a group that is more specific than a plain group.
type panel struct{}

func (panel) Lineage() []widget.ParentKind {
	return []widget.ParentKind{parentPanel, widget.ParentGroup, widget.ParentRoot}
}

type probe struct {
	widget.Base
	builtBy string
}

func (p *probe) Invoke(any) {}

func newProbeSpecifier(params spec.Params, _ spec.Factory) (spec.Specifier, error) {
	base, err := spec.NewBase(params.Type(), params)
	if err != nil {
		return nil, err
	}
	return base, nil
}

func probeBuilder(name string) BuildFunc {
	return func(ctx widget.Context, s spec.Specifier, _ widget.Parent, _ widget.CreationParams) (widget.Widget, error) {
		return &probe{Base: widget.NewBase(ctx, s), builtBy: name}, nil
	}
}

func newTestRegistry(t *testing.T, kinds ...Kind) *Registry {
	t.Helper()
	r := New()
	for _, kind := range kinds {
		if err := r.Register(kind); err != nil {
			t.Fatalf("failed to register %s: %v", kind.Name, err)
		}
	}
	return r
}

func build(t *testing.T, r *Registry, description spec.Params, parent widget.Parent, require widget.Capability) (widget.Widget, error) {
	t.Helper()
	s, err := r.NewSpecifier(description)
	if err != nil {
		t.Fatalf("failed to build specifier: %v", err)
	}
	return r.BuildWidget(widget.Context{}, s, parent, require, nil)
}

func TestBuildWidgetResolvesNearestGeneration(t *testing.T) {
	r := newTestRegistry(t, Kind{
		Name:         "Probe",
		NewSpecifier: newProbeSpecifier,
		Builders: []Builder{
			{Parent: widget.ParentRoot, Build: probeBuilder("root")},
			{Parent: widget.ParentGroup, Build: probeBuilder("group")},
		},
	})
	description := spec.Params{spec.KeyType: "Probe", spec.KeyIdentifier: "p"}

	cases := []struct {
		name   string
		parent widget.Parent
		want   string
	}{
		{name: "root", parent: widget.Root{}, want: "root"},
		{name: "nil_parent_defaults_to_root", parent: nil, want: "root"},
		{name: "ancestor_match", parent: panel{}, want: "group"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := build(t, r, description, tc.parent, widget.CapNone)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := w.(*probe).builtBy; got != tc.want {
				t.Fatalf("expected builder %q, got %q", tc.want, got)
			}
		})
	}
}

func TestBuildWidgetExactParentBeatsAncestor(t *testing.T) {
	r := newTestRegistry(t, Kind{
		Name:         "Probe",
		NewSpecifier: newProbeSpecifier,
		Builders: []Builder{
			{Parent: widget.ParentRoot, Build: probeBuilder("root")},
			{Parent: parentPanel, Build: probeBuilder("panel")},
		},
	})
	w, err := build(t, r, spec.Params{spec.KeyType: "Probe", spec.KeyIdentifier: "p"}, panel{}, widget.CapNone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := w.(*probe).builtBy; got != "panel" {
		t.Fatalf("expected exact parent builder, got %q", got)
	}
}

func TestBuildWidgetFailures(t *testing.T) {
	r := newTestRegistry(t,
		Kind{
			Name:         "GroupOnly",
			NewSpecifier: newProbeSpecifier,
			Builders:     []Builder{{Parent: widget.ParentGroup, Build: probeBuilder("group")}},
		},
		Kind{
			Name:         "Command",
			Capabilities: widget.CapInvocable,
			NewSpecifier: newProbeSpecifier,
			Builders:     []Builder{{Parent: widget.ParentRoot, Build: probeBuilder("root")}},
		},
		Kind{
			Name:         "Liar",
			Capabilities: widget.CapStateful,
			NewSpecifier: newProbeSpecifier,
			Builders:     []Builder{{Parent: widget.ParentRoot, Build: probeBuilder("root")}},
		},
		Kind{
			Name:         "Panics",
			NewSpecifier: newProbeSpecifier,
			Builders: []Builder{{Parent: widget.ParentRoot, Build: func(widget.Context, spec.Specifier, widget.Parent, widget.CreationParams) (widget.Widget, error) {
				panic("constructor exploded")
			}}},
		},
		Kind{
			Name:         "Fails",
			NewSpecifier: newProbeSpecifier,
			Builders: []Builder{{Parent: widget.ParentRoot, Build: func(widget.Context, spec.Specifier, widget.Parent, widget.CreationParams) (widget.Widget, error) {
				return nil, errors.New("no room")
			}}},
		},
	)

	cases := []struct {
		name    string
		kind    string
		require widget.Capability
		message string
	}{
		{name: "no_builder_for_lineage", kind: "GroupOnly", message: "no constructor accepts parent lineage"},
		{name: "missing_capability", kind: "Command", require: widget.CapStateful, message: "required capabilities stateful"},
		{name: "capability_not_implemented", kind: "Liar", message: "kind advertises stateful"},
		{name: "panic_is_recovered", kind: "Panics", message: "constructor exploded"},
		{name: "builder_error_is_wrapped", kind: "Fails", message: "no room"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := build(t, r, spec.Params{spec.KeyType: tc.kind, spec.KeyIdentifier: "p"}, widget.Root{}, tc.require)
			if w != nil {
				t.Fatalf("expected no widget, got %T", w)
			}
			if !errors.Is(err, errs.ErrSpecification) {
				t.Fatalf("expected specification error, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("expected %q in %v", tc.message, err)
			}
		})
	}

	w, err := build(t, r, spec.Params{spec.KeyType: "Command", spec.KeyIdentifier: "p"}, widget.Root{}, widget.CapInvocable)
	if err != nil || w == nil {
		t.Fatalf("expected satisfied capability constraint to build, got %v", err)
	}
}

func TestNewSpecifierFailures(t *testing.T) {
	r := newTestRegistry(t, Kind{
		Name: "Strict",
		NewSpecifier: func(spec.Params, spec.Factory) (spec.Specifier, error) {
			return nil, errors.New("bad declaration")
		},
		Builders: []Builder{{Parent: widget.ParentRoot, Build: probeBuilder("root")}},
	})

	cases := []struct {
		name      string
		params    spec.Params
		parameter string
	}{
		{name: "missing_type", params: spec.Params{spec.KeyIdentifier: "x"}, parameter: spec.KeyType},
		{name: "non_string_type", params: spec.Params{spec.KeyType: 3, spec.KeyIdentifier: "x"}, parameter: spec.KeyType},
		{name: "unknown_type", params: spec.Params{spec.KeyType: "Nope", spec.KeyIdentifier: "x"}, parameter: spec.KeyType},
		{name: "constructor_error", params: spec.Params{spec.KeyType: "Strict", spec.KeyIdentifier: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.NewSpecifier(tc.params)
			var specErr *errs.SpecificationError
			if !errors.As(err, &specErr) {
				t.Fatalf("expected SpecificationError, got %v", err)
			}
			if specErr.Parameter != tc.parameter || specErr.Identifier != "x" {
				t.Fatalf("unexpected error fields %+v", specErr)
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	valid := Kind{
		Name:         "Probe",
		NewSpecifier: newProbeSpecifier,
		Builders:     []Builder{{Parent: widget.ParentRoot, Build: probeBuilder("root")}},
	}
	cases := []struct {
		name string
		kind Kind
	}{
		{name: "empty_name", kind: Kind{NewSpecifier: newProbeSpecifier, Builders: valid.Builders}},
		{name: "no_specifier", kind: Kind{Name: "X", Builders: valid.Builders}},
		{name: "no_builders", kind: Kind{Name: "X", NewSpecifier: newProbeSpecifier}},
		{name: "incomplete_builder", kind: Kind{Name: "X", NewSpecifier: newProbeSpecifier, Builders: []Builder{{Parent: widget.ParentRoot}}}},
		{name: "duplicate", kind: valid},
	}
	r := newTestRegistry(t, valid)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := r.Register(tc.kind); err == nil {
				t.Fatalf("expected registration to fail")
			}
		})
	}

	if !reflect.DeepEqual(r.Names(), []string{"Probe"}) {
		t.Fatalf("unexpected names %v", r.Names())
	}
	kind, ok := r.Kind("Probe")
	if !ok || kind.Name != "Probe" {
		t.Fatalf("expected registered kind, got %+v", kind)
	}
	kind.Builders[0].Parent = "mutated"
	again, _ := r.Kind("Probe")
	if again.Builders[0].Parent != widget.ParentRoot {
		t.Fatalf("expected Kind to return a copy")
	}
}

type moduleFunc func(r *Registry) error

func (f moduleFunc) Register(r *Registry) error { return f(r) }

func TestUseRegistersModules(t *testing.T) {
	r := New()
	err := r.Use(nil, moduleFunc(func(r *Registry) error {
		return r.Register(Kind{
			Name:         "Probe",
			NewSpecifier: newProbeSpecifier,
			Builders:     []Builder{{Parent: widget.ParentRoot, Build: probeBuilder("root")}},
		})
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := r.Kind("Probe"); !ok {
		t.Fatalf("expected module kind to be registered")
	}
}
