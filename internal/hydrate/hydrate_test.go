package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

type panelDoc struct {
	Identifier string         `json:"identifier"`
	Label      string         `json:"label"`
	Columns    int            `json:"columns"`
	Children   []string       `json:"children"`
	Extra      map[string]any `json:"extra"`
}

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_forms.json")

	for _, tc := range fx.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			decoder := New[panelDoc](tc.decoderOptions()...)
			result, err := decoder.Decode(Source{Name: tc.Source, Format: tc.Format}, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				if stage, ok := StageOf(err); !ok || string(stage) != tc.ExpectStage {
					t.Fatalf("expected stage %q, got %q", tc.ExpectStage, stage)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded panel mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func TestDecoderRejectsNilTree(t *testing.T) {
	_, err := New[panelDoc]().Decode(Source{Name: "empty.json", Format: "json"}, nil)
	var hydrateErr *Error
	if !errors.As(err, &hydrateErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if hydrateErr.Source.Name != "empty.json" || !strings.Contains(err.Error(), `json "empty.json"`) {
		t.Fatalf("expected error naming the source, got %v", err)
	}
}

func TestDecoderExactNumbers(t *testing.T) {
	tree := map[string]any{
		"label": "Weights",
		"extra": map[string]any{"weight": 1.5, "count": 9007199254740993},
	}

	loose, err := New[panelDoc]().Decode(Source{Name: "weights.json"}, tree)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if _, ok := loose.Extra["weight"].(float64); !ok {
		t.Fatalf("expected float64 by default, got %T", loose.Extra["weight"])
	}

	exact, err := New[panelDoc](ExactNumbers[panelDoc]()).Decode(Source{Name: "weights.json"}, tree)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got, ok := exact.Extra["count"].(json.Number); !ok || got.String() != "9007199254740993" {
		t.Fatalf("expected exact json.Number count, got %#v", exact.Extra["count"])
	}
}

func TestNormalizersWorkOnACopy(t *testing.T) {
	var seen []string
	record := func(name string) Normalizer {
		return func(_ Source, tree map[string]any) (map[string]any, error) {
			seen = append(seen, name)
			return nil, nil
		}
	}
	decoder := New[panelDoc](
		Normalize[panelDoc](splitChildren),
		Normalize[panelDoc](record("second")),
		Normalize[panelDoc](nil),
		Validate[panelDoc](nil),
	)
	tree := map[string]any{"label": "Network", "children": "a,b"}

	result, err := decoder.Decode(Source{Name: "network.json"}, tree)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if tree["children"] != "a,b" {
		t.Fatalf("expected caller tree to stay untouched, got %#v", tree["children"])
	}
	if !reflect.DeepEqual(result.Children, []string{"a", "b"}) {
		t.Fatalf("expected a nil normalizer result to keep the previous tree, got %v", result.Children)
	}
	if !reflect.DeepEqual(seen, []string{"second"}) {
		t.Fatalf("expected normalizers to run in order, got %v", seen)
	}
}

func TestStageOfForeignErrors(t *testing.T) {
	if _, ok := StageOf(errors.New("plain")); ok {
		t.Fatalf("expected no stage for foreign errors")
	}
	wrapped := fmt.Errorf("loader: %w", &Error{Stage: StageValidate, Err: errors.New("x")})
	if stage, ok := StageOf(wrapped); !ok || stage != StageValidate {
		t.Fatalf("expected stage through wrapping, got %q", stage)
	}
}

func splitChildren(_ Source, tree map[string]any) (map[string]any, error) {
	value, ok := tree["children"].(string)
	if !ok || value == "" {
		return tree, nil
	}
	if strings.Contains(value, ";") {
		return nil, fmt.Errorf("children must be comma separated, got %q", value)
	}
	parts := strings.Split(value, ",")
	children := make([]any, 0, len(parts))
	for _, part := range parts {
		children = append(children, strings.TrimSpace(part))
	}
	tree["children"] = children
	return tree, nil
}

func deriveIdentifier(src Source, doc *panelDoc) error {
	if doc.Label == "" {
		return errors.New("label required")
	}
	if doc.Identifier != "" {
		return nil
	}
	name := strings.TrimSuffix(filepath.Base(src.Name), filepath.Ext(src.Name))
	doc.Identifier = strings.ToLower(name)
	return nil
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name        string         `json:"name"`
	Source      string         `json:"source"`
	Format      string         `json:"format"`
	Input       map[string]any `json:"input"`
	Expect      panelDoc       `json:"expect"`
	ExpectErr   string         `json:"expectErr"`
	ExpectStage string         `json:"expectStage"`
	Normalizers []string       `json:"normalizers"`
	Validators  []string       `json:"validators"`
	Options     []string       `json:"options"`
}

func (tc fixtureCase) decoderOptions() []Option[panelDoc] {
	var opts []Option[panelDoc]
	for _, name := range tc.Options {
		switch name {
		case "strict":
			opts = append(opts, Strict[panelDoc]())
		case "exact_numbers":
			opts = append(opts, ExactNumbers[panelDoc]())
		}
	}
	for _, name := range tc.Normalizers {
		if name == "split_children" {
			opts = append(opts, Normalize[panelDoc](splitChildren))
		}
	}
	for _, name := range tc.Validators {
		if name == "derive_identifier" {
			opts = append(opts, Validate[panelDoc](deriveIdentifier))
		}
	}
	return opts
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
