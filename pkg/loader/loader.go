// Package loader reads form documents: the widget descriptions, the initial
// state and the side-effect rules of a manager, written as JSON, YAML or HCL.
//
// Every format is first parsed into a nested map and then hydrated into a
// Document through the same decoder, so all three accept exactly the same
// fields. Top-level keys prefixed with "x-" are ignored.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	megawidget "github.com/goliatone/go-megawidgets"
	"github.com/goliatone/go-megawidgets/internal/hydrate"
)

// Format names a document syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// extensionPrefix marks top-level keys reserved for tooling.
const extensionPrefix = "x-"

// Document is a complete form definition.
type Document struct {
	Engine  string                      `json:"engine,omitempty" yaml:"engine,omitempty"`
	Widgets []map[string]any            `json:"widgets" yaml:"widgets"`
	State   map[string]any              `json:"state,omitempty" yaml:"state,omitempty"`
	Rules   []megawidget.SideEffectRule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".hcl":
		return FormatHCL, nil
	default:
		return "", fmt.Errorf("loader: cannot infer document format of %q", path)
	}
}

// LoadFile reads and parses the document at path.
func LoadFile(path string) (Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("loader: read %s: %w", path, err)
	}
	return Parse(data, format, path)
}

// Parse decodes data written in format. source names the document in errors.
func Parse(data []byte, format Format, source string) (Document, error) {
	var (
		payload map[string]any
		err     error
	)
	switch format {
	case FormatJSON:
		payload, err = parseJSON(data)
	case FormatYAML:
		payload, err = parseYAML(data)
	case FormatHCL:
		payload, err = parseHCL(data, source)
	default:
		return Document{}, fmt.Errorf("loader: unsupported format %q", format)
	}
	if err != nil {
		return Document{}, fmt.Errorf("loader: parse %s: %w", source, err)
	}
	if payload == nil {
		payload = map[string]any{}
	}

	decoder := hydrate.New[Document](
		hydrate.Normalize[Document](dropExtensions),
		hydrate.Strict[Document](),
		hydrate.ExactNumbers[Document](),
		hydrate.Validate[Document](normalizeNumbers),
		hydrate.Validate[Document](validate),
	)
	return decoder.Decode(hydrate.Source{Name: source, Format: string(format)}, payload)
}

func parseJSON(data []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func dropExtensions(_ hydrate.Source, payload map[string]any) (map[string]any, error) {
	for key := range payload {
		if strings.HasPrefix(key, extensionPrefix) {
			delete(payload, key)
		}
	}
	return payload, nil
}

// normalizeNumbers turns the json.Number values left by the decoder into int
// when whole and float64 otherwise.
func normalizeNumbers(_ hydrate.Source, doc *Document) error {
	for i, description := range doc.Widgets {
		normalized, err := normalizeValue(description)
		if err != nil {
			return fmt.Errorf("widget %d: %w", i, err)
		}
		doc.Widgets[i] = normalized.(map[string]any)
	}
	if doc.State != nil {
		normalized, err := normalizeValue(doc.State)
		if err != nil {
			return fmt.Errorf("state: %w", err)
		}
		doc.State = normalized.(map[string]any)
	}
	return nil
}

func normalizeValue(value any) (any, error) {
	switch typed := value.(type) {
	case json.Number:
		if n, err := typed.Int64(); err == nil {
			return int(n), nil
		}
		return typed.Float64()
	case map[string]any:
		for key, item := range typed {
			normalized, err := normalizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			typed[key] = normalized
		}
		return typed, nil
	case []any:
		for i, item := range typed {
			normalized, err := normalizeValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			typed[i] = normalized
		}
		return typed, nil
	default:
		return value, nil
	}
}

func validate(src hydrate.Source, doc *Document) error {
	if len(doc.Widgets) == 0 {
		return fmt.Errorf("document %s declares no widgets", src.Name)
	}
	for i, description := range doc.Widgets {
		if description == nil {
			return fmt.Errorf("widget %d is empty", i)
		}
	}
	return nil
}

// Applier compiles the rules of d using its engine. It returns nil when the
// document has no rules.
func (d Document) Applier(opts ...megawidget.RuleOption) (*megawidget.RuleApplier, error) {
	if len(d.Rules) == 0 {
		return nil, nil
	}
	if d.Engine != "" {
		opts = append([]megawidget.RuleOption{megawidget.WithEngine(d.Engine)}, opts...)
	}
	return megawidget.NewRuleApplier(d.Rules, opts...)
}

// NewManager builds a manager from d. A non-nil d.State becomes the store,
// so callers observe every committed change in it.
func (d Document) NewManager(host megawidget.Host, ruleOpts []megawidget.RuleOption, opts ...megawidget.Option) (*megawidget.Manager, error) {
	applier, err := d.Applier(ruleOpts...)
	if err != nil {
		return nil, err
	}
	if applier != nil {
		opts = append(opts, megawidget.WithSideEffectsApplier(applier))
	}
	return megawidget.New(d.Widgets, d.State, host, opts...)
}
