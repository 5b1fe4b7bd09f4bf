package widget

import (
	"reflect"

	"github.com/goliatone/go-megawidgets/pkg/coerce"
	"github.com/goliatone/go-megawidgets/pkg/errs"
	"github.com/goliatone/go-megawidgets/pkg/spec"
)

// Validator normalizes a candidate value for stateID. It returns a StateError
// (or any error, which is wrapped into one) to reject the value.
type Validator func(stateID string, value any) (any, error)

// CrossValidator checks constraints spanning several state identifiers, e.g.
// ordering between sibling values. candidate holds every value.
type CrossValidator func(candidate map[string]any) error

// StatefulOptions configures a StatefulBase.
type StatefulOptions struct {
	Validate      Validator
	ValidateAll   CrossValidator
	DefaultValues map[string]any
}

// StatefulBase implements Stateful on top of Base. Values are validated and
// applied atomically; rejected values leave the previous ones in place.
type StatefulBase struct {
	Base
	stateSpec   spec.StatefulSpecifier
	editable    bool
	values      map[string]any
	validate    Validator
	validateAll CrossValidator
}

// NewStatefulBase seeds values from the specifier starting values, falling
// back to opts.DefaultValues.
func NewStatefulBase(ctx Context, s spec.StatefulSpecifier, opts StatefulOptions) (StatefulBase, error) {
	sb := StatefulBase{
		Base:        NewBase(ctx, s),
		stateSpec:   s,
		editable:    s.Editable(),
		values:      make(map[string]any, len(s.StateIdentifiers())),
		validate:    opts.Validate,
		validateAll: opts.ValidateAll,
	}
	candidate := make(map[string]any, len(s.StateIdentifiers()))
	for _, id := range s.StateIdentifiers() {
		if value, ok := s.StartingState(id); ok {
			candidate[id] = value
			continue
		}
		candidate[id] = opts.DefaultValues[id]
	}
	normalized, err := sb.check(candidate, s.StateIdentifiers())
	if err != nil {
		return StatefulBase{}, &errs.SpecificationError{
			Identifier: s.Identifier(),
			Type:       s.Type(),
			Parameter:  spec.KeyValues,
			Message:    "invalid starting value",
			Err:        err,
		}
	}
	sb.values = normalized
	return sb, nil
}

// DefineStateProperties advertises the editable and values properties. It is
// separate from the constructor so it binds to the final struct address.
func (s *StatefulBase) DefineStateProperties() {
	s.DefineProperty(PropEditable, Property{
		Get: func() any { return s.editable },
		Set: func(value any) error {
			editable, err := coerce.Bool(value)
			if err != nil {
				return err
			}
			s.editable = editable
			return nil
		},
	})
	s.DefineProperty(PropValues, Property{
		Get: func() any { return s.States() },
		Set: func(value any) error {
			return s.SetStates(value)
		},
	})
}

// StatefulSpecifier returns the specifier as its stateful contract.
func (s *StatefulBase) StatefulSpecifier() spec.StatefulSpecifier { return s.stateSpec }

func (s *StatefulBase) StateIdentifiers() []string {
	return s.stateSpec.StateIdentifiers()
}

// Editable reports whether user input is accepted.
func (s *StatefulBase) Editable() bool { return s.editable }

func (s *StatefulBase) State(stateID string) (any, error) {
	value, ok := s.values[stateID]
	if !ok {
		if !s.known(stateID) {
			return nil, errs.State(stateID, nil, "unknown state identifier for %q", s.Identifier())
		}
	}
	return value, nil
}

// States returns a copy of every value keyed by state identifier.
func (s *StatefulBase) States() map[string]any {
	out := make(map[string]any, len(s.values))
	for id, value := range s.values {
		out[id] = value
	}
	return out
}

func (s *StatefulBase) SetState(stateID string, value any) error {
	_, err := s.apply(map[string]any{stateID: value})
	return err
}

// SetStates assigns the bulk values property. A bare scalar is accepted when
// the widget has a single state identifier.
func (s *StatefulBase) SetStates(value any) error {
	updates, ok := value.(map[string]any)
	if !ok {
		ids := s.StateIdentifiers()
		if len(ids) != 1 {
			return errs.State(s.Identifier(), value, "values must be a mapping keyed by state identifier")
		}
		updates = map[string]any{ids[0]: value}
	}
	_, err := s.apply(updates)
	return err
}

// Input records a user-driven change: the value is validated and applied and
// the listener is notified when it differs from the previous one. Rejected
// input leaves the last good value in place.
func (s *StatefulBase) Input(stateID string, value any) error {
	if !s.Enabled() || !s.editable {
		return errs.State(stateID, value, "widget %q does not accept input", s.Identifier())
	}
	changed, err := s.apply(map[string]any{stateID: value})
	if err != nil {
		s.Logger().Debug("input rejected", "state", stateID, "error", err)
		return err
	}
	s.notify(changed)
	return nil
}

// apply validates updates against the current values and swaps them in. It
// returns the state identifiers whose values changed, in declaration order.
func (s *StatefulBase) apply(updates map[string]any) ([]string, error) {
	for id := range updates {
		if !s.known(id) {
			return nil, errs.State(id, updates[id], "unknown state identifier for %q", s.Identifier())
		}
	}
	candidate := s.States()
	order := make([]string, 0, len(updates))
	for _, id := range s.StateIdentifiers() {
		if value, ok := updates[id]; ok {
			candidate[id] = value
			order = append(order, id)
		}
	}
	normalized, err := s.check(candidate, order)
	if err != nil {
		return nil, err
	}
	var changed []string
	for _, id := range s.StateIdentifiers() {
		if !reflect.DeepEqual(s.values[id], normalized[id]) {
			changed = append(changed, id)
		}
	}
	s.values = normalized
	return changed, nil
}

func (s *StatefulBase) check(candidate map[string]any, order []string) (map[string]any, error) {
	if s.validate != nil {
		for _, id := range order {
			value, err := s.validate(id, candidate[id])
			if err != nil {
				return nil, asStateError(id, candidate[id], err)
			}
			candidate[id] = value
		}
	}
	if s.validateAll != nil {
		if err := s.validateAll(candidate); err != nil {
			return nil, asStateError(s.Identifier(), candidate, err)
		}
	}
	return candidate, nil
}

func (s *StatefulBase) notify(changed []string) {
	for _, id := range changed {
		s.Listener().StateChanged(s.Identifier(), id, s.values[id])
	}
}

func (s *StatefulBase) known(stateID string) bool {
	for _, id := range s.stateSpec.StateIdentifiers() {
		if id == stateID {
			return true
		}
	}
	return false
}

func asStateError(stateID string, value any, err error) error {
	if errs.IsDomain(err) {
		return err
	}
	return &errs.StateError{Identifier: stateID, Value: value, Message: "rejected", Err: err}
}

// ExplicitCommitBase adds buffered assignment on top of StatefulBase.
type ExplicitCommitBase struct {
	StatefulBase
	uncommitted map[string]any
}

// NewExplicitCommitBase wraps a StatefulBase.
func NewExplicitCommitBase(sb StatefulBase) ExplicitCommitBase {
	return ExplicitCommitBase{StatefulBase: sb, uncommitted: map[string]any{}}
}

// SetUncommittedState buffers value for stateID without validating it.
func (e *ExplicitCommitBase) SetUncommittedState(stateID string, value any) error {
	if !e.known(stateID) {
		return errs.State(stateID, value, "unknown state identifier for %q", e.Identifier())
	}
	if e.uncommitted == nil {
		e.uncommitted = map[string]any{}
	}
	e.uncommitted[stateID] = value
	return nil
}

// CommitStateChanges validates every buffered value, applies them together and
// notifies once per changed state identifier. On failure nothing is applied
// and the buffer is discarded.
func (e *ExplicitCommitBase) CommitStateChanges() error {
	pending := e.uncommitted
	e.uncommitted = map[string]any{}
	if len(pending) == 0 {
		return nil
	}
	changed, err := e.apply(pending)
	if err != nil {
		return err
	}
	e.notify(changed)
	return nil
}

// HasUncommittedState reports whether assignments are waiting for a commit.
func (e *ExplicitCommitBase) HasUncommittedState() bool {
	return len(e.uncommitted) > 0
}

// InputAll records a user-driven change of several values at once.
func (e *ExplicitCommitBase) InputAll(values map[string]any) error {
	if !e.Enabled() || !e.editable {
		return errs.State(e.Identifier(), values, "widget %q does not accept input", e.Identifier())
	}
	for id, value := range values {
		if err := e.SetUncommittedState(id, value); err != nil {
			e.uncommitted = map[string]any{}
			return err
		}
	}
	return e.CommitStateChanges()
}
