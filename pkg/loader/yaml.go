package loader

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

func parseYAML(data []byte) (map[string]any, error) {
	var payload map[string]any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	normalized, err := stringKeys(payload)
	if err != nil {
		return nil, err
	}
	out, _ := normalized.(map[string]any)
	return out, nil
}

// stringKeys converts the map[any]any mappings YAML produces for non-string
// keys into map[string]any so the payload can be hydrated.
func stringKeys(value any) (any, error) {
	switch typed := value.(type) {
	case map[string]any:
		for key, item := range typed {
			converted, err := stringKeys(item)
			if err != nil {
				return nil, err
			}
			typed[key] = converted
		}
		return typed, nil
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			name, ok := key.(string)
			if !ok {
				switch key.(type) {
				case int, int64, uint64, float64, bool:
					name = fmt.Sprint(key)
				default:
					return nil, fmt.Errorf("unsupported mapping key %v (%T)", key, key)
				}
			}
			converted, err := stringKeys(item)
			if err != nil {
				return nil, err
			}
			out[name] = converted
		}
		return out, nil
	case []any:
		for i, item := range typed {
			converted, err := stringKeys(item)
			if err != nil {
				return nil, err
			}
			typed[i] = converted
		}
		return typed, nil
	default:
		return value, nil
	}
}

// Marshal writes doc as JSON or YAML. HCL documents are read-only.
func Marshal(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("loader: cannot write %q documents", format)
	}
}
