// Package registry maps kind tags to specifier constructors and widget
// builders, and resolves which builder to use for a given runtime parent.
//
// Builders are registered per parent kind. Resolution walks the parent's
// lineage one generation at a time and picks the first builder declared for
// that generation, so an exact parent match always beats an ancestor match.
package registry

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/goliatone/go-megawidgets/pkg/errs"
	"github.com/goliatone/go-megawidgets/pkg/spec"
	"github.com/goliatone/go-megawidgets/pkg/widget"
)

// SpecifierFunc builds a specifier of one kind from its description.
type SpecifierFunc func(params spec.Params, factory spec.Factory) (spec.Specifier, error)

// BuildFunc builds a widget of one kind inside parent.
type BuildFunc func(ctx widget.Context, s spec.Specifier, parent widget.Parent, params widget.CreationParams) (widget.Widget, error)

// Builder pairs a parent kind with the constructor used for it.
type Builder struct {
	Parent widget.ParentKind
	Build  BuildFunc
}

// Kind is one registered widget kind.
type Kind struct {
	Name         string
	Capabilities widget.Capability
	NewSpecifier SpecifierFunc
	Builders     []Builder
}

// Module registers one or more kinds.
type Module interface {
	Register(r *Registry) error
}

// Registry holds the registered kinds.
type Registry struct {
	kinds  map[string]*Kind
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration and resolution traces.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		kinds:  make(map[string]*Kind),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Register adds kind. Names must be unique and every kind needs a specifier
// constructor and at least one builder.
func (r *Registry) Register(kind Kind) error {
	if kind.Name == "" {
		return fmt.Errorf("registry: kind name must not be empty")
	}
	if kind.NewSpecifier == nil {
		return fmt.Errorf("registry: kind %q has no specifier constructor", kind.Name)
	}
	if len(kind.Builders) == 0 {
		return fmt.Errorf("registry: kind %q has no widget builders", kind.Name)
	}
	for i, b := range kind.Builders {
		if b.Build == nil || b.Parent == "" {
			return fmt.Errorf("registry: kind %q builder %d is incomplete", kind.Name, i)
		}
	}
	if _, exists := r.kinds[kind.Name]; exists {
		return fmt.Errorf("registry: kind %q already registered", kind.Name)
	}
	copied := kind
	copied.Builders = append([]Builder(nil), kind.Builders...)
	r.kinds[kind.Name] = &copied
	r.logger.Debug("registered widget kind", "kind", kind.Name, "capabilities", kind.Capabilities.String(), "builders", len(kind.Builders))
	return nil
}

// Use registers every kind of each module.
func (r *Registry) Use(modules ...Module) error {
	for _, module := range modules {
		if module == nil {
			continue
		}
		if err := module.Register(r); err != nil {
			return err
		}
	}
	return nil
}

// Kind returns the registration for name.
func (r *Registry) Kind(name string) (Kind, bool) {
	kind, ok := r.kinds[name]
	if !ok {
		return Kind{}, false
	}
	copied := *kind
	copied.Builders = append([]Builder(nil), kind.Builders...)
	return copied, true
}

// Names returns the registered kind names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSpecifier resolves the type tag of params and builds its specifier.
func (r *Registry) NewSpecifier(params spec.Params) (spec.Specifier, error) {
	identifier := params.Identifier()
	raw, ok := params[spec.KeyType]
	tag, isString := raw.(string)
	if !ok || raw == nil {
		return nil, &errs.SpecificationError{Identifier: identifier, Parameter: spec.KeyType, Message: "missing required value"}
	}
	if !isString || tag == "" {
		return nil, &errs.SpecificationError{Identifier: identifier, Parameter: spec.KeyType, Value: raw, Message: "must be a non-empty string"}
	}
	kind, ok := r.kinds[tag]
	if !ok {
		return nil, &errs.SpecificationError{Identifier: identifier, Type: tag, Parameter: spec.KeyType, Value: tag, Message: "unknown widget type"}
	}
	s, err := kind.NewSpecifier(params, r)
	if err != nil {
		return nil, errs.WrapSpecification(identifier, tag, err)
	}
	if s == nil {
		return nil, &errs.SpecificationError{Identifier: identifier, Type: tag, Message: "specifier constructor returned nothing"}
	}
	return s, nil
}

// BuildWidget resolves the builder for s and parent and invokes it. The kind
// must advertise require, and the built widget must implement every
// capability the kind advertises.
func (r *Registry) BuildWidget(ctx widget.Context, s spec.Specifier, parent widget.Parent, require widget.Capability, params widget.CreationParams) (w widget.Widget, err error) {
	kind, ok := r.kinds[s.Type()]
	if !ok {
		return nil, &errs.SpecificationError{Identifier: s.Identifier(), Type: s.Type(), Message: "no widget implementation registered"}
	}
	if !kind.Capabilities.Has(require) {
		return nil, &errs.SpecificationError{
			Identifier: s.Identifier(),
			Type:       s.Type(),
			Message:    fmt.Sprintf("widget does not provide required capabilities %s", require),
		}
	}
	if parent == nil {
		parent = widget.Root{}
	}
	builder, generation, ok := resolve(kind.Builders, parent.Lineage())
	if !ok {
		return nil, &errs.SpecificationError{
			Identifier: s.Identifier(),
			Type:       s.Type(),
			Message:    fmt.Sprintf("no constructor accepts parent lineage %v", parent.Lineage()),
		}
	}
	r.logger.Debug("resolved widget builder", "widget", s.Identifier(), "kind", s.Type(), "parent", builder.Parent, "generation", generation)
	if ctx.Builder == nil {
		ctx.Builder = r
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			w = nil
			err = &errs.SpecificationError{
				Identifier: s.Identifier(),
				Type:       s.Type(),
				Message:    "widget construction panicked",
				Err:        fmt.Errorf("%v", recovered),
			}
		}
	}()

	w, err = builder.Build(ctx, s, parent, params)
	if err != nil {
		return nil, errs.WrapSpecification(s.Identifier(), s.Type(), err)
	}
	if w == nil {
		return nil, &errs.SpecificationError{Identifier: s.Identifier(), Type: s.Type(), Message: "widget constructor returned nothing"}
	}
	if actual := widget.CapabilitiesOf(w); !actual.Has(kind.Capabilities) {
		return nil, &errs.SpecificationError{
			Identifier: s.Identifier(),
			Type:       s.Type(),
			Message:    fmt.Sprintf("widget provides %s but kind advertises %s", actual, kind.Capabilities),
		}
	}
	return w, nil
}

// resolve walks lineage from the parent's own kind upward and returns the
// first builder registered for the nearest generation.
func resolve(builders []Builder, lineage []widget.ParentKind) (Builder, int, bool) {
	for generation, parentKind := range lineage {
		for _, b := range builders {
			if b.Parent == parentKind {
				return b, generation, true
			}
		}
	}
	return Builder{}, -1, false
}
