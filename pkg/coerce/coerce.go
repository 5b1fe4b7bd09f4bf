// Package coerce converts loosely typed declaration values (strings, JSON
// numbers, YAML scalars, HCL values) into the Go types specifiers and widgets
// expect. Conversion rules are delegated to go-cty so "12", 12 and 12.0 all
// coerce to the integer 12 while 12.5 is rejected.
package coerce

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Kind names a coercion target.
type Kind int

const (
	KindBool Kind = iota + 1
	KindInt
	KindFloat
	KindString
	KindStringList
	KindStringMap
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindStringList:
		return "list(string)"
	case KindStringMap:
		return "map(any)"
	default:
		return "unknown"
	}
}

// ErrMissing is returned when a value is absent and no default was supplied.
var ErrMissing = errors.New("coerce: value is missing")

// Error describes a failed conversion.
type Error struct {
	Kind  Kind
	Value any
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("coerce: cannot interpret %v (%T) as %s: %v", e.Value, e.Value, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Coerce converts value into kind. A nil value yields ErrMissing.
func Coerce(value any, kind Kind) (any, error) {
	if value == nil {
		return nil, ErrMissing
	}
	switch kind {
	case KindBool:
		var out bool
		if err := into(value, cty.Bool, kind, &out); err != nil {
			return nil, err
		}
		return out, nil
	case KindInt:
		var out int
		if err := into(value, cty.Number, kind, &out); err != nil {
			return nil, err
		}
		return out, nil
	case KindFloat:
		var out float64
		if err := into(value, cty.Number, kind, &out); err != nil {
			return nil, err
		}
		return out, nil
	case KindString:
		var out string
		if err := into(value, cty.String, kind, &out); err != nil {
			return nil, err
		}
		return out, nil
	case KindStringList:
		var out []string
		if err := into(value, cty.List(cty.String), kind, &out); err != nil {
			return nil, err
		}
		if out == nil {
			out = []string{}
		}
		return out, nil
	case KindStringMap:
		m, ok := asMap(value)
		if !ok {
			return nil, &Error{Kind: kind, Value: value, Err: fmt.Errorf("expected a mapping")}
		}
		return m, nil
	default:
		return nil, &Error{Kind: kind, Value: value, Err: fmt.Errorf("unsupported kind")}
	}
}

// CoerceOr converts value into kind, returning def when value is nil.
func CoerceOr(value any, kind Kind, def any) (any, error) {
	if value == nil {
		return def, nil
	}
	return Coerce(value, kind)
}

// Bool coerces value into a bool.
func Bool(value any) (bool, error) {
	out, err := Coerce(value, KindBool)
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}

// BoolOr coerces value into a bool, returning def when value is nil.
func BoolOr(value any, def bool) (bool, error) {
	if value == nil {
		return def, nil
	}
	return Bool(value)
}

// Int coerces value into an int. Values with a fractional part are rejected.
func Int(value any) (int, error) {
	out, err := Coerce(value, KindInt)
	if err != nil {
		return 0, err
	}
	return out.(int), nil
}

// IntOr coerces value into an int, returning def when value is nil.
func IntOr(value any, def int) (int, error) {
	if value == nil {
		return def, nil
	}
	return Int(value)
}

// Float coerces value into a float64.
func Float(value any) (float64, error) {
	out, err := Coerce(value, KindFloat)
	if err != nil {
		return 0, err
	}
	return out.(float64), nil
}

// String coerces value into a string.
func String(value any) (string, error) {
	out, err := Coerce(value, KindString)
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// StringOr coerces value into a string, returning def when value is nil.
func StringOr(value any, def string) (string, error) {
	if value == nil {
		return def, nil
	}
	return String(value)
}

// StringList coerces a list (or tuple) of scalars into []string.
func StringList(value any) ([]string, error) {
	out, err := Coerce(value, KindStringList)
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}

// Map asserts value is a string-keyed mapping.
func Map(value any) (map[string]any, error) {
	out, err := Coerce(value, KindStringMap)
	if err != nil {
		return nil, err
	}
	return out.(map[string]any), nil
}

func into(value any, ty cty.Type, kind Kind, target any) error {
	native, err := ToCty(value)
	if err != nil {
		return &Error{Kind: kind, Value: value, Err: err}
	}
	converted, err := convert.Convert(native, ty)
	if err != nil {
		return &Error{Kind: kind, Value: value, Err: err}
	}
	if converted.IsNull() {
		return &Error{Kind: kind, Value: value, Err: fmt.Errorf("value is null")}
	}
	if err := gocty.FromCtyValue(converted, target); err != nil {
		return &Error{Kind: kind, Value: value, Err: err}
	}
	return nil
}

// ToCty converts a native Go value produced by JSON, YAML or Go literals into
// a cty.Value.
func ToCty(value any) (cty.Value, error) {
	switch typed := value.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return typed, nil
	case string:
		return cty.StringVal(typed), nil
	case bool:
		return cty.BoolVal(typed), nil
	case int:
		return cty.NumberIntVal(int64(typed)), nil
	case int8:
		return cty.NumberIntVal(int64(typed)), nil
	case int16:
		return cty.NumberIntVal(int64(typed)), nil
	case int32:
		return cty.NumberIntVal(int64(typed)), nil
	case int64:
		return cty.NumberIntVal(typed), nil
	case uint:
		return cty.NumberUIntVal(uint64(typed)), nil
	case uint8:
		return cty.NumberUIntVal(uint64(typed)), nil
	case uint16:
		return cty.NumberUIntVal(uint64(typed)), nil
	case uint32:
		return cty.NumberUIntVal(uint64(typed)), nil
	case uint64:
		return cty.NumberUIntVal(typed), nil
	case float32:
		return cty.NumberFloatVal(float64(typed)), nil
	case float64:
		return cty.NumberFloatVal(typed), nil
	case *big.Float:
		return cty.NumberVal(typed), nil
	case json.Number:
		return cty.ParseNumberVal(typed.String())
	case []string:
		if len(typed) == 0 {
			return cty.ListValEmpty(cty.String), nil
		}
		vals := make([]cty.Value, len(typed))
		for i, s := range typed {
			vals[i] = cty.StringVal(s)
		}
		return cty.ListVal(vals), nil
	case []any:
		if len(typed) == 0 {
			return cty.EmptyTupleVal, nil
		}
		vals := make([]cty.Value, len(typed))
		for i, item := range typed {
			v, err := ToCty(item)
			if err != nil {
				return cty.NilVal, fmt.Errorf("index %d: %w", i, err)
			}
			vals[i] = v
		}
		return cty.TupleVal(vals), nil
	case map[string]any:
		if len(typed) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(typed))
		for key, item := range typed {
			v, err := ToCty(item)
			if err != nil {
				return cty.NilVal, fmt.Errorf("key %q: %w", key, err)
			}
			attrs[key] = v
		}
		return cty.ObjectVal(attrs), nil
	default:
		return reflectToCty(value)
	}
}

func reflectToCty(value any) (cty.Value, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return ToCty(items)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return ToCty(m)
	}
	ty, err := gocty.ImpliedType(value)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unsupported value type %T: %w", value, err)
	}
	return gocty.ToCtyValue(value, ty)
}

// FromCty converts a cty.Value into its natural Go representation. Whole
// numbers become int, other numbers float64, collections []any and
// map[string]any.
func FromCty(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, item := it.Element()
			native, err := FromCty(item)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, item := it.Element()
			native, err := FromCty(item)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil
	default:
		return nil, fmt.Errorf("coerce: unsupported cty type %s", ty.FriendlyName())
	}
}

func asMap(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, true
	case map[string]string:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = v
		}
		return out, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
