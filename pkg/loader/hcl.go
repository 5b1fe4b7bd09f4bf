package loader

import (
	"fmt"

	"github.com/goliatone/go-megawidgets/pkg/coerce"
	"github.com/goliatone/go-megawidgets/pkg/spec"
	"github.com/goliatone/go-megawidgets/pkg/widgets"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// hclRoot decodes the top level of an HCL form document:
//
//	engine = "cel"
//	state  = { notify = true }
//
//	widget "CheckBox" "notify" {
//	  label = "Notify me"
//	}
//
//	rule "frequency" {
//	  triggers = ["notify"]
//	  set "frequency" {
//	    enable = "state.notify"
//	  }
//	}
type hclRoot struct {
	Engine  string         `hcl:"engine,optional"`
	State   hcl.Expression `hcl:"state,optional"`
	Widgets []*hclWidget   `hcl:"widget,block"`
	Rules   []*hclRule     `hcl:"rule,block"`
}

// hclWidget is a widget description. Nested widget blocks become the fields
// of a container; every other attribute is copied into the description.
type hclWidget struct {
	Type   string       `hcl:"type,label"`
	Name   string       `hcl:"name,label"`
	Fields []*hclWidget `hcl:"widget,block"`
	Body   hcl.Body     `hcl:",remain"`
}

type hclRule struct {
	Name            string    `hcl:"name,label"`
	Triggers        []string  `hcl:"triggers,optional"`
	When            string    `hcl:"when,optional"`
	OnlySignificant bool      `hcl:"only_significant,optional"`
	Sets            []*hclSet `hcl:"set,block"`
}

// hclSet holds property = "expression" pairs for one widget.
type hclSet struct {
	Widget string   `hcl:"widget,label"`
	Body   hcl.Body `hcl:",remain"`
}

func parseHCL(data []byte, source string) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, source)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", source, diags)
	}

	var root hclRoot
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", source, diags)
	}

	payload := map[string]any{}
	if root.Engine != "" {
		payload["engine"] = root.Engine
	}
	if root.State != nil {
		value, diags := root.State.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate state in %s: %w", source, diags)
		}
		state, err := coerce.FromCty(value)
		if err != nil {
			return nil, fmt.Errorf("state: %w", err)
		}
		if state != nil {
			payload["state"] = state
		}
	}

	descriptions := make([]any, 0, len(root.Widgets))
	for _, w := range root.Widgets {
		description, err := w.description()
		if err != nil {
			return nil, err
		}
		descriptions = append(descriptions, description)
	}
	payload["widgets"] = descriptions

	if len(root.Rules) > 0 {
		rules := make([]any, 0, len(root.Rules))
		for _, r := range root.Rules {
			rule, err := r.payload()
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
		payload["rules"] = rules
	}
	return payload, nil
}

func (w *hclWidget) description() (map[string]any, error) {
	description := map[string]any{
		spec.KeyType:       w.Type,
		spec.KeyIdentifier: w.Name,
	}
	attrs, diags := w.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("widget %q: %w", w.Name, diags)
	}
	for name, attr := range attrs {
		if name == spec.KeyType || name == spec.KeyIdentifier {
			return nil, fmt.Errorf("widget %q: %s is taken from the block labels", w.Name, name)
		}
		value, err := attributeValue(attr)
		if err != nil {
			return nil, fmt.Errorf("widget %q: %w", w.Name, err)
		}
		description[name] = value
	}
	if len(w.Fields) > 0 {
		if _, clash := description[widgets.KeyFields]; clash {
			return nil, fmt.Errorf("widget %q: declare fields either as blocks or as an attribute", w.Name)
		}
		fields := make([]any, 0, len(w.Fields))
		for _, child := range w.Fields {
			field, err := child.description()
			if err != nil {
				return nil, err
			}
			fields = append(fields, field)
		}
		description[widgets.KeyFields] = fields
	}
	return description, nil
}

func (r *hclRule) payload() (map[string]any, error) {
	set := map[string]any{}
	for _, block := range r.Sets {
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("rule %q: %w", r.Name, diags)
		}
		properties, _ := set[block.Widget].(map[string]any)
		if properties == nil {
			properties = map[string]any{}
			set[block.Widget] = properties
		}
		for name, attr := range attrs {
			value, err := attributeValue(attr)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.Name, err)
			}
			expression, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("rule %q: %s.%s must be an expression string", r.Name, block.Widget, name)
			}
			properties[name] = expression
		}
	}
	rule := map[string]any{
		"name": r.Name,
		"set":  set,
	}
	if len(r.Triggers) > 0 {
		triggers := make([]any, len(r.Triggers))
		for i, trigger := range r.Triggers {
			triggers[i] = trigger
		}
		rule["triggers"] = triggers
	}
	if r.When != "" {
		rule["when"] = r.When
	}
	if r.OnlySignificant {
		rule["only_significant"] = true
	}
	return rule, nil
}

func attributeValue(attr *hcl.Attribute) (any, error) {
	value, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("attribute %s: %w", attr.Name, diags)
	}
	native, err := coerce.FromCty(value)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", attr.Name, err)
	}
	return native, nil
}
