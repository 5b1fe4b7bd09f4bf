package spec

import (
	"strings"

	"github.com/goliatone/go-megawidgets/pkg/coerce"
	"github.com/goliatone/go-megawidgets/pkg/errs"
	"github.com/goliatone/go-megawidgets/pkg/statestore"
)

// SubStateDelimiter separates the state identifiers packed into one
// specifier identifier.
const SubStateDelimiter = ":"

// Declaration keys understood by stateful specifiers. Each per-state key
// accepts nothing, a scalar (single state identifier only), or a mapping keyed
// by exactly the state identifier set.
const (
	KeyEditable         = "editable"
	KeyValueLabels      = "valueLabels"
	KeyShortValueLabels = "shortValueLabels"
	KeyRelativeWeights  = "relativeWeights"
	KeyValues           = "values"
)

// StatefulSpecifier describes a widget holding one value per state identifier.
type StatefulSpecifier interface {
	Specifier
	Editable() bool
	StateIdentifiers() []string
	StatePath(stateID string) statestore.Path
	StateLabel(stateID string) string
	ShortStateLabel(stateID string) string
	RelativeWeight(stateID string) int
	StartingState(stateID string) (any, bool)
}

// ValueConverter validates and normalizes a declared starting value.
type ValueConverter func(stateID string, value any) (any, error)

// StatefulOptions tunes NewStateful for a concrete kind.
type StatefulOptions struct {
	// MaxStates bounds the number of state identifiers; zero means one.
	MaxStates int
	// ConvertValue normalizes starting values; nil keeps them as declared.
	ConvertValue ValueConverter
}

// Stateful is the embeddable implementation of StatefulSpecifier.
type Stateful struct {
	Base
	editable    bool
	stateIDs    []string
	paths       map[string]statestore.Path
	labels      map[string]string
	shortLabels map[string]string
	weights     map[string]int
	starting    map[string]any
}

// NewStateful validates the shared and per-state fields of params.
func NewStateful(kind string, params Params, opts StatefulOptions) (Stateful, error) {
	base, err := NewBase(kind, params)
	if err != nil {
		return Stateful{}, err
	}
	maxStates := opts.MaxStates
	if maxStates <= 0 {
		maxStates = 1
	}
	stateIDs, paths, err := ParseStateIdentifiers(base.identifier, maxStates)
	if err != nil {
		return Stateful{}, withKind(err, kind)
	}
	editable, err := params.Bool(KeyEditable, true)
	if err != nil {
		return Stateful{}, err
	}

	s := Stateful{
		Base:     base,
		editable: editable,
		stateIDs: stateIDs,
		paths:    paths,
	}
	if s.labels, err = perState(params, KeyValueLabels, stateIDs, "", func(_ string, v any) (string, error) {
		return coerce.String(v)
	}); err != nil {
		return Stateful{}, err
	}
	if s.shortLabels, err = perState(params, KeyShortValueLabels, stateIDs, "", func(_ string, v any) (string, error) {
		return coerce.String(v)
	}); err != nil {
		return Stateful{}, err
	}
	if s.weights, err = perState(params, KeyRelativeWeights, stateIDs, 1, func(_ string, v any) (int, error) {
		weight, err := coerce.Int(v)
		if err != nil {
			return 0, err
		}
		if weight < 1 {
			return 0, errs.Specification(base.identifier, KeyRelativeWeights, v, "must be a positive integer")
		}
		return weight, nil
	}); err != nil {
		return Stateful{}, err
	}
	convert := opts.ConvertValue
	if convert == nil {
		convert = func(_ string, v any) (any, error) { return v, nil }
	}
	if s.starting, err = perState(params, KeyValues, stateIDs, nil, convert); err != nil {
		return Stateful{}, err
	}
	return s, nil
}

// ParseStateIdentifiers splits identifier on SubStateDelimiter and parses each
// piece as a state path. Empty, duplicate or surplus identifiers fail.
func ParseStateIdentifiers(identifier string, maxStates int) ([]string, map[string]statestore.Path, error) {
	pieces := strings.Split(identifier, SubStateDelimiter)
	if len(pieces) > maxStates {
		return nil, nil, errs.Specification(identifier, KeyIdentifier, identifier,
			"%d state identifiers exceed the maximum of %d", len(pieces), maxStates)
	}
	seen := make(map[string]struct{}, len(pieces))
	paths := make(map[string]statestore.Path, len(pieces))
	for _, piece := range pieces {
		if piece == "" {
			return nil, nil, errs.Specification(identifier, KeyIdentifier, identifier, "empty state identifier")
		}
		if _, dup := seen[piece]; dup {
			return nil, nil, errs.Specification(identifier, KeyIdentifier, identifier, "duplicate state identifier %q", piece)
		}
		seen[piece] = struct{}{}
		path, err := statestore.ParsePath(piece)
		if err != nil {
			return nil, nil, &errs.SpecificationError{Identifier: identifier, Parameter: KeyIdentifier, Value: piece, Err: err}
		}
		paths[piece] = path
	}
	return pieces, paths, nil
}

func perState[T any](params Params, key string, stateIDs []string, def T, convert func(string, any) (T, error)) (map[string]T, error) {
	identifier := params.Identifier()
	out := make(map[string]T, len(stateIDs))
	raw, present := params[key]
	if !present || raw == nil {
		for _, id := range stateIDs {
			out[id] = def
		}
		return out, nil
	}

	keyed, isMap := raw.(map[string]any)
	if !isMap {
		if len(stateIDs) != 1 {
			return nil, errs.Specification(identifier, key, raw,
				"a single value is only allowed with one state identifier, got %d", len(stateIDs))
		}
		value, err := convert(stateIDs[0], raw)
		if err != nil {
			return nil, wrapParam(identifier, params.Type(), key, raw, err)
		}
		out[stateIDs[0]] = value
		return out, nil
	}

	if len(keyed) != len(stateIDs) {
		return nil, errs.Specification(identifier, key, raw,
			"mapping must hold exactly the state identifiers %v", stateIDs)
	}
	for _, id := range stateIDs {
		item, ok := keyed[id]
		if !ok {
			return nil, errs.Specification(identifier, key, raw, "missing entry for state identifier %q", id)
		}
		value, err := convert(id, item)
		if err != nil {
			return nil, wrapParam(identifier, params.Type(), key, item, err)
		}
		out[id] = value
	}
	return out, nil
}

func wrapParam(identifier, kind, key string, value any, err error) error {
	if errs.IsDomain(err) {
		return err
	}
	return &errs.SpecificationError{
		Identifier: identifier,
		Type:       kind,
		Parameter:  key,
		Value:      value,
		Message:    "invalid value",
		Err:        err,
	}
}

func withKind(err error, kind string) error {
	if specErr, ok := err.(*errs.SpecificationError); ok && specErr.Type == "" {
		specErr.Type = kind
	}
	return err
}

func (s Stateful) Editable() bool { return s.editable }

// StateIdentifiers returns a copy of the ordered state identifiers.
func (s Stateful) StateIdentifiers() []string {
	return append([]string(nil), s.stateIDs...)
}

func (s Stateful) StatePath(stateID string) statestore.Path {
	return s.paths[stateID]
}

func (s Stateful) StateLabel(stateID string) string { return s.labels[stateID] }

func (s Stateful) ShortStateLabel(stateID string) string { return s.shortLabels[stateID] }

func (s Stateful) RelativeWeight(stateID string) int {
	if weight, ok := s.weights[stateID]; ok {
		return weight
	}
	return 1
}

// StartingState returns the declared starting value for stateID, if any.
func (s Stateful) StartingState(stateID string) (any, bool) {
	value, ok := s.starting[stateID]
	return value, ok && value != nil
}
