package spec

import (
	"errors"

	"github.com/goliatone/go-megawidgets/pkg/coerce"
	"github.com/goliatone/go-megawidgets/pkg/errs"
)

// Declaration keys shared by every specifier.
const (
	KeyIdentifier = "fieldName"
	KeyType       = "fieldType"
	KeyLabel      = "label"
	KeyEnable     = "enable"
)

// Params is the raw key/value bag a specifier is built from.
type Params map[string]any

// Identifier returns the raw identifier, or "" when absent or not a string.
func (p Params) Identifier() string {
	id, _ := p[KeyIdentifier].(string)
	return id
}

// Type returns the raw type tag, or "" when absent or not a string.
func (p Params) Type() string {
	kind, _ := p[KeyType].(string)
	return kind
}

// Has reports whether key is present with a non-nil value.
func (p Params) Has(key string) bool {
	value, ok := p[key]
	return ok && value != nil
}

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for key, value := range p {
		out[key] = value
	}
	return out
}

// Bool reads key as a bool, returning def when absent.
func (p Params) Bool(key string, def bool) (bool, error) {
	out, err := coerce.BoolOr(p[key], def)
	if err != nil {
		return false, p.fail(key, err)
	}
	return out, nil
}

// Int reads key as an int, returning def when absent.
func (p Params) Int(key string, def int) (int, error) {
	out, err := coerce.IntOr(p[key], def)
	if err != nil {
		return 0, p.fail(key, err)
	}
	return out, nil
}

// RequiredInt reads key as an int and fails when it is absent.
func (p Params) RequiredInt(key string) (int, error) {
	out, err := coerce.Int(p[key])
	if err != nil {
		return 0, p.fail(key, err)
	}
	return out, nil
}

// String reads key as a string, returning def when absent.
func (p Params) String(key string, def string) (string, error) {
	out, err := coerce.StringOr(p[key], def)
	if err != nil {
		return "", p.fail(key, err)
	}
	return out, nil
}

// StringList reads key as a list of strings; absent yields nil.
func (p Params) StringList(key string) ([]string, error) {
	if !p.Has(key) {
		return nil, nil
	}
	out, err := coerce.StringList(p[key])
	if err != nil {
		return nil, p.fail(key, err)
	}
	return out, nil
}

// List reads key as a list of arbitrary items; absent yields nil.
func (p Params) List(key string) ([]any, error) {
	if !p.Has(key) {
		return nil, nil
	}
	switch typed := p[key].(type) {
	case []any:
		return typed, nil
	case []map[string]any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out, nil
	case []Params:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = map[string]any(item)
		}
		return out, nil
	default:
		return nil, errs.Specification(p.Identifier(), key, p[key], "must be a list")
	}
}

func (p Params) fail(key string, err error) error {
	message := "invalid value"
	if errors.Is(err, coerce.ErrMissing) {
		message = "missing required value"
	}
	return &errs.SpecificationError{
		Identifier: p.Identifier(),
		Type:       p.Type(),
		Parameter:  key,
		Value:      p[key],
		Message:    message,
		Err:        err,
	}
}
