package spec

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/goliatone/go-megawidgets/pkg/coerce"
	"github.com/goliatone/go-megawidgets/pkg/errs"
	"github.com/goliatone/go-megawidgets/pkg/statestore"
)

type statefulFixture struct {
	Description string                `json:"description"`
	Cases       []statefulFixtureCase `json:"cases"`
}

type statefulFixtureCase struct {
	Name      string         `json:"name"`
	MaxStates int            `json:"maxStates"`
	Params    map[string]any `json:"params"`
	Expect    *struct {
		StateIDs    []string            `json:"stateIds"`
		Paths       map[string][]string `json:"paths"`
		Label       string              `json:"label"`
		Editable    bool                `json:"editable"`
		Enabled     bool                `json:"enabled"`
		Labels      map[string]string   `json:"labels"`
		ShortLabels map[string]string   `json:"shortLabels"`
		Weights     map[string]int      `json:"weights"`
		Starting    map[string]int      `json:"starting"`
	} `json:"expect"`
	ExpectErr string `json:"expectErr"`
}

func TestNewStatefulFixture(t *testing.T) {
	fixture := loadFixture[statefulFixture](t, "stateful_specifiers.json")

	for _, tc := range fixture.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			s, err := NewStateful("Probe", Params(tc.Params), StatefulOptions{
				MaxStates: tc.MaxStates,
				ConvertValue: func(_ string, value any) (any, error) {
					return coerce.Int(value)
				},
			})
			if tc.ExpectErr != "" {
				var specErr *errs.SpecificationError
				if !errors.As(err, &specErr) {
					t.Fatalf("expected SpecificationError, got %v", err)
				}
				if specErr.Parameter != tc.ExpectErr {
					t.Fatalf("expected parameter %q, got %q (%v)", tc.ExpectErr, specErr.Parameter, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := tc.Expect
			if !reflect.DeepEqual(s.StateIdentifiers(), want.StateIDs) {
				t.Fatalf("expected state identifiers %v, got %v", want.StateIDs, s.StateIdentifiers())
			}
			if s.Type() != "Probe" || s.Label() != want.Label || s.Editable() != want.Editable || s.Enabled() != want.Enabled {
				t.Fatalf("unexpected shared fields: type=%s label=%q editable=%v enabled=%v", s.Type(), s.Label(), s.Editable(), s.Enabled())
			}
			for _, id := range s.StateIdentifiers() {
				if got := []string(s.StatePath(id)); !reflect.DeepEqual(got, want.Paths[id]) {
					t.Fatalf("%s: expected path %v, got %v", id, want.Paths[id], got)
				}
				if got := s.StateLabel(id); got != want.Labels[id] {
					t.Fatalf("%s: expected label %q, got %q", id, want.Labels[id], got)
				}
				if got := s.ShortStateLabel(id); got != want.ShortLabels[id] {
					t.Fatalf("%s: expected short label %q, got %q", id, want.ShortLabels[id], got)
				}
				if got := s.RelativeWeight(id); got != want.Weights[id] {
					t.Fatalf("%s: expected weight %d, got %d", id, want.Weights[id], got)
				}
				expected, hasStart := want.Starting[id]
				got, ok := s.StartingState(id)
				if ok != hasStart || (ok && got != expected) {
					t.Fatalf("%s: expected starting value %v (%v), got %v (%v)", id, expected, hasStart, got, ok)
				}
			}
		})
	}
}

func TestParamsAccessors(t *testing.T) {
	p := Params{
		KeyIdentifier: "x",
		KeyType:       "Text",
		"count":       "3",
		"items":       []map[string]any{{"a": 1}},
		"names":       []any{"a", "b"},
		"nothing":     nil,
	}
	if p.Identifier() != "x" || p.Type() != "Text" {
		t.Fatalf("unexpected identifier/type %q %q", p.Identifier(), p.Type())
	}
	if p.Has("nothing") || !p.Has("count") {
		t.Fatalf("expected Has to ignore nil values")
	}
	if n, err := p.Int("count", 0); err != nil || n != 3 {
		t.Fatalf("expected 3, got %d (%v)", n, err)
	}
	if n, err := p.Int("absent", 7); err != nil || n != 7 {
		t.Fatalf("expected default 7, got %d (%v)", n, err)
	}
	if names, err := p.StringList("names"); err != nil || !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Fatalf("unexpected names %v (%v)", names, err)
	}
	if items, err := p.List("items"); err != nil || len(items) != 1 {
		t.Fatalf("expected typed list to be accepted, got %v (%v)", items, err)
	}
	if _, err := p.List("count"); !errors.Is(err, errs.ErrSpecification) {
		t.Fatalf("expected list error, got %v", err)
	}

	_, err := p.RequiredInt("absent")
	var specErr *errs.SpecificationError
	if !errors.As(err, &specErr) || specErr.Message != "missing required value" || !errors.Is(err, coerce.ErrMissing) {
		t.Fatalf("expected missing required value, got %v", err)
	}

	clone := p.Clone()
	clone["count"] = 4
	if p["count"] != "3" {
		t.Fatalf("expected Clone to copy the bag")
	}
}

type probeContainer struct {
	Base
	children []Specifier
}

func (c probeContainer) ChildSpecifiers() []Specifier { return c.children }

func TestWalkVisitsDepthFirst(t *testing.T) {
	leaf := func(id string) Specifier {
		base, err := NewBase("Probe", Params{KeyIdentifier: id})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return base
	}
	groupBase, _ := NewBase("Group", Params{KeyIdentifier: "outer"})
	innerBase, _ := NewBase("Group", Params{KeyIdentifier: "inner"})
	tree := probeContainer{Base: groupBase, children: []Specifier{
		leaf("a"),
		probeContainer{Base: innerBase, children: []Specifier{leaf("b")}},
		leaf("c"),
	}}

	var visited []string
	err := Walk(tree, func(s Specifier) error {
		visited = append(visited, s.Identifier())
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(visited, []string{"outer", "a", "inner", "b", "c"}) {
		t.Fatalf("unexpected visit order %v", visited)
	}

	stop := errors.New("stop")
	visited = nil
	err = Walk(tree, func(s Specifier) error {
		visited = append(visited, s.Identifier())
		if s.Identifier() == "inner" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || len(visited) != 3 {
		t.Fatalf("expected walk to stop at inner, got %v (%v)", visited, err)
	}
}

func TestParseStateIdentifiersPaths(t *testing.T) {
	ids, paths, err := ParseStateIdentifiers("a>b:c", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a>b", "c"}) {
		t.Fatalf("unexpected ids %v", ids)
	}
	if !reflect.DeepEqual(paths["a>b"], statestore.Path{"a", "b"}) {
		t.Fatalf("unexpected path %v", paths["a>b"])
	}
}

func loadFixture[T any](t *testing.T, name string) T {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("failed to decode fixture %s: %v", name, err)
	}
	return out
}
