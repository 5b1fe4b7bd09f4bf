package widget

import (
	"log/slog"
	"sort"

	"github.com/goliatone/go-megawidgets/pkg/coerce"
	"github.com/goliatone/go-megawidgets/pkg/errs"
	"github.com/goliatone/go-megawidgets/pkg/spec"
)

// Property binds a mutable property name to its accessors.
type Property struct {
	Get func() any
	Set func(value any) error
}

// Base implements the Widget contract. Concrete widgets embed it and add their
// own properties through DefineProperty.
type Base struct {
	specifier  spec.Specifier
	enabled    bool
	listener   Listener
	logger     *slog.Logger
	properties map[string]Property
	onEnable   func(enabled bool)
}

// NewBase prepares a Base for s using the listener and logger of ctx.
func NewBase(ctx Context, s spec.Specifier) Base {
	b := Base{
		specifier:  s,
		enabled:    s.Enabled(),
		listener:   ctx.listener(),
		logger:     ctx.LoggerOrDiscard().With("widget", s.Identifier(), "type", s.Type()),
		properties: map[string]Property{},
	}
	return b
}

// DefineProperty advertises name. Later definitions replace earlier ones.
func (b *Base) DefineProperty(name string, p Property) {
	if b.properties == nil {
		b.properties = map[string]Property{}
	}
	b.properties[name] = p
}

// OnEnabledChange registers a hook run after the enabled flag flips.
func (b *Base) OnEnabledChange(fn func(enabled bool)) {
	b.onEnable = fn
}

func (b *Base) Specifier() spec.Specifier { return b.specifier }

func (b *Base) Identifier() string { return b.specifier.Identifier() }

func (b *Base) Enabled() bool { return b.enabled }

// SetEnabled is idempotent.
func (b *Base) SetEnabled(enabled bool) {
	if b.enabled == enabled {
		return
	}
	b.enabled = enabled
	if b.onEnable != nil {
		b.onEnable(enabled)
	}
}

// Listener returns the listener notifications are sent to.
func (b *Base) Listener() Listener { return b.listener }

// Logger returns the widget-scoped logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// MutablePropertyNames returns the advertised names, sorted.
func (b *Base) MutablePropertyNames() []string {
	names := make([]string, 0, len(b.properties)+1)
	names = append(names, PropEnabled)
	for name := range b.properties {
		if name == PropEnabled {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Base) MutableProperty(name string) (any, error) {
	if name == PropEnabled {
		return b.enabled, nil
	}
	p, ok := b.properties[name]
	if !ok || p.Get == nil {
		return nil, errs.UnknownProperty(b.Identifier(), name, nil)
	}
	return p.Get(), nil
}

func (b *Base) SetMutableProperty(name string, value any) error {
	if name == PropEnabled {
		enabled, err := coerce.Bool(value)
		if err != nil {
			return &errs.PropertyError{Identifier: b.Identifier(), Property: name, Value: value, Message: "must be a boolean", Err: err}
		}
		b.SetEnabled(enabled)
		return nil
	}
	p, ok := b.properties[name]
	if !ok || p.Set == nil {
		return errs.UnknownProperty(b.Identifier(), name, value)
	}
	if err := p.Set(value); err != nil {
		if errs.IsDomain(err) {
			return err
		}
		return &errs.PropertyError{Identifier: b.Identifier(), Property: name, Value: value, Message: "invalid value", Err: err}
	}
	return nil
}

// MutableProperties returns every advertised property value.
func (b *Base) MutableProperties() map[string]any {
	out := make(map[string]any, len(b.properties)+1)
	for _, name := range b.MutablePropertyNames() {
		value, err := b.MutableProperty(name)
		if err != nil {
			continue
		}
		out[name] = value
	}
	return out
}

// SetMutableProperties assigns properties key by key in sorted order. The
// first failure stops the batch; earlier assignments stay applied.
func (b *Base) SetMutableProperties(properties map[string]any) error {
	for _, name := range coerce.SortedKeys(properties) {
		if err := b.SetMutableProperty(name, properties[name]); err != nil {
			return err
		}
	}
	return nil
}
