package statestore

import (
	"reflect"
	"slices"
)

// Clone returns a deep copy of value. State trees (maps, lists and scalars)
// take a direct path; any other shape is copied through reflection, leaving
// unexported struct fields zero.
func Clone[T any](value T) T {
	copied, ok := deepCopy(value).(T)
	if !ok {
		var zero T
		return zero
	}
	return copied
}

// FillDefaults copies into target every key of defaults that target lacks,
// recursing into nested maps present on both sides. Values already present in
// target always win.
func FillDefaults(target, defaults map[string]any) {
	if target == nil {
		return
	}
	for key, fallback := range defaults {
		current, exists := target[key]
		if !exists {
			target[key] = Clone(fallback)
			continue
		}
		currentMap, ok := current.(map[string]any)
		if !ok {
			continue
		}
		if fallbackMap, ok := fallback.(map[string]any); ok {
			FillDefaults(currentMap, fallbackMap)
		}
	}
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case nil, bool, string, int, int64, float64:
		return value
	case map[string]any:
		if typed == nil {
			return typed
		}
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = deepCopy(item)
		}
		return out
	case []any:
		if typed == nil {
			return typed
		}
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = deepCopy(item)
		}
		return out
	case []string:
		return slices.Clone(typed)
	case []int:
		return slices.Clone(typed)
	}
	copied := reflectCopy(reflect.ValueOf(value))
	return copied.Interface()
}

// reflectCopy returns a settable deep copy of v with v's type.
func reflectCopy(v reflect.Value) reflect.Value {
	out := reflect.New(v.Type()).Elem()
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return out
		}
	}

	switch v.Kind() {
	case reflect.Pointer:
		target := reflect.New(v.Type().Elem())
		target.Elem().Set(reflectCopy(v.Elem()))
		out.Set(target)
	case reflect.Interface:
		out.Set(reflectCopy(v.Elem()))
	case reflect.Map:
		out.Set(reflect.MakeMapWithSize(v.Type(), v.Len()))
		for iter := v.MapRange(); iter.Next(); {
			out.SetMapIndex(iter.Key(), reflectCopy(iter.Value()))
		}
	case reflect.Slice:
		out.Set(reflect.MakeSlice(v.Type(), v.Len(), v.Len()))
		for i := range v.Len() {
			out.Index(i).Set(reflectCopy(v.Index(i)))
		}
	case reflect.Array:
		for i := range v.Len() {
			out.Index(i).Set(reflectCopy(v.Index(i)))
		}
	case reflect.Struct:
		for i := range v.NumField() {
			if out.Field(i).CanSet() {
				out.Field(i).Set(reflectCopy(v.Field(i)))
			}
		}
	default:
		out.Set(v)
	}
	return out
}
