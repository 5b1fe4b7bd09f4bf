package widgets

import (
	"fmt"
	"unicode/utf8"

	"github.com/goliatone/go-megawidgets/pkg/coerce"
	"github.com/goliatone/go-megawidgets/pkg/errs"
	"github.com/goliatone/go-megawidgets/pkg/spec"
	"github.com/goliatone/go-megawidgets/pkg/widget"
)

// KeyMaxLength bounds the number of characters of a Text widget; zero means
// unlimited.
const KeyMaxLength = "maxLength"

// TextSpecifier describes a free-form string input.
type TextSpecifier struct {
	spec.Stateful
	maxLength int
}

// NewTextSpecifier builds a TextSpecifier.
func NewTextSpecifier(params spec.Params, _ spec.Factory) (spec.Specifier, error) {
	maxLength, err := params.Int(KeyMaxLength, 0)
	if err != nil {
		return nil, err
	}
	if maxLength < 0 {
		return nil, errs.Specification(params.Identifier(), KeyMaxLength, maxLength, "must not be negative")
	}
	stateful, err := spec.NewStateful(KindText, params, spec.StatefulOptions{
		ConvertValue: func(_ string, value any) (any, error) {
			return checkLength(value, maxLength)
		},
	})
	if err != nil {
		return nil, err
	}
	return &TextSpecifier{Stateful: stateful, maxLength: maxLength}, nil
}

func (s *TextSpecifier) MaxLength() int { return s.maxLength }

func checkLength(value any, maxLength int) (string, error) {
	text, err := coerce.String(value)
	if err != nil {
		return "", err
	}
	if maxLength > 0 && utf8.RuneCountInString(text) > maxLength {
		return "", fmt.Errorf("text exceeds %d characters", maxLength)
	}
	return text, nil
}

// Text holds one string.
type Text struct {
	widget.StatefulBase
	maxLength int
}

func buildText(ctx widget.Context, s spec.Specifier, _ widget.Parent, _ widget.CreationParams) (widget.Widget, error) {
	specifier, ok := s.(*TextSpecifier)
	if !ok {
		return nil, errWrongSpecifier(s, KindText)
	}
	w := &Text{maxLength: specifier.maxLength}
	sb, err := widget.NewStatefulBase(ctx, specifier, widget.StatefulOptions{
		Validate: func(_ string, value any) (any, error) {
			if value == nil {
				return "", nil
			}
			return checkLength(value, w.maxLength)
		},
	})
	if err != nil {
		return nil, err
	}
	w.StatefulBase = sb
	w.DefineStateProperties()
	return w, nil
}

// Text returns the current string.
func (w *Text) Text() string {
	value, _ := w.State(w.StateIdentifiers()[0])
	text, _ := value.(string)
	return text
}
