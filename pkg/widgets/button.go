package widgets

import (
	"github.com/goliatone/go-megawidgets/pkg/spec"
	"github.com/goliatone/go-megawidgets/pkg/widget"
)

// KeyCallbackValue is the payload a Button sends when invoked without one.
const KeyCallbackValue = "callbackValue"

// ButtonSpecifier describes a push button.
type ButtonSpecifier struct {
	spec.Base
	callbackValue string
}

// NewButtonSpecifier builds a ButtonSpecifier. The callback value defaults to
// the identifier.
func NewButtonSpecifier(params spec.Params, _ spec.Factory) (spec.Specifier, error) {
	base, err := spec.NewBase(KindButton, params)
	if err != nil {
		return nil, err
	}
	callback, err := params.String(KeyCallbackValue, base.Identifier())
	if err != nil {
		return nil, err
	}
	return &ButtonSpecifier{Base: base, callbackValue: callback}, nil
}

func (s *ButtonSpecifier) CallbackValue() string { return s.callbackValue }

// Button fires a command each time it is invoked while enabled.
type Button struct {
	widget.Base
	callbackValue string
}

func buildButton(ctx widget.Context, s spec.Specifier, _ widget.Parent, _ widget.CreationParams) (widget.Widget, error) {
	specifier, ok := s.(*ButtonSpecifier)
	if !ok {
		return nil, errWrongSpecifier(s, KindButton)
	}
	return &Button{
		Base:          widget.NewBase(ctx, specifier),
		callbackValue: specifier.callbackValue,
	}, nil
}

// Invoke notifies the listener. A nil extra is replaced by the callback
// value; disabled buttons ignore the call.
func (b *Button) Invoke(extra any) {
	if !b.Enabled() {
		b.Logger().Debug("ignoring invocation of disabled button")
		return
	}
	if extra == nil {
		extra = b.callbackValue
	}
	b.Listener().Invoked(b.Identifier(), extra)
}
