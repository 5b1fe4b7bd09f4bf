package statestore

import (
	"fmt"
	"sort"
)

// FieldDescriptor describes one leaf of the store and the Go type it holds.
type FieldDescriptor struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// Describe flattens the store into sorted leaf descriptors. Paths use
// PathDelimiter so they can be fed back into ParsePath.
func (s *Store) Describe() []FieldDescriptor {
	fields := describe(s.root, nil)
	if fields == nil {
		return []FieldDescriptor{}
	}
	return fields
}

func describe(value any, prefix Path) []FieldDescriptor {
	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			if len(prefix) == 0 {
				return nil
			}
			return []FieldDescriptor{{Path: prefix.String(), Type: "map[string]any"}}
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var fields []FieldDescriptor
		for _, key := range keys {
			next := append(append(Path{}, prefix...), key)
			fields = append(fields, describe(typed[key], next)...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{Path: prefix.String(), Type: "[]" + elementType}}
	default:
		if len(prefix) == 0 {
			return nil
		}
		return []FieldDescriptor{{Path: prefix.String(), Type: typeName(typed)}}
	}
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}
