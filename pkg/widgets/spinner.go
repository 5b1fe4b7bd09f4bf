package widgets

import (
	"fmt"

	"github.com/goliatone/go-megawidgets/pkg/coerce"
	"github.com/goliatone/go-megawidgets/pkg/errs"
	"github.com/goliatone/go-megawidgets/pkg/spec"
	"github.com/goliatone/go-megawidgets/pkg/widget"
)

// Declaration keys and mutable property names of the integer widgets.
const (
	KeyMinValue        = "minValue"
	KeyMaxValue        = "maxValue"
	KeyIncrementDelta  = "incrementDelta"
	KeyMinimumInterval = "minimumInterval"
)

type bounds struct {
	min   int
	max   int
	delta int
}

func parseBounds(params spec.Params) (bounds, error) {
	b := bounds{}
	var err error
	if b.min, err = params.Int(KeyMinValue, 0); err != nil {
		return bounds{}, err
	}
	if b.max, err = params.Int(KeyMaxValue, 100); err != nil {
		return bounds{}, err
	}
	if b.min > b.max {
		return bounds{}, errs.Specification(params.Identifier(), KeyMaxValue, b.max, "must not be less than %s (%d)", KeyMinValue, b.min)
	}
	if b.delta, err = params.Int(KeyIncrementDelta, 1); err != nil {
		return bounds{}, err
	}
	if b.delta < 1 {
		return bounds{}, errs.Specification(params.Identifier(), KeyIncrementDelta, b.delta, "must be a positive integer")
	}
	return b, nil
}

func (b bounds) check(value any) (int, error) {
	n, err := coerce.Int(value)
	if err != nil {
		return 0, err
	}
	if n < b.min || n > b.max {
		return 0, fmt.Errorf("%d is outside [%d, %d]", n, b.min, b.max)
	}
	return n, nil
}

func (b bounds) clamp(n int) int {
	if n < b.min {
		return b.min
	}
	if n > b.max {
		return b.max
	}
	return n
}

// IntegerSpinnerSpecifier describes a bounded integer input.
type IntegerSpinnerSpecifier struct {
	spec.Stateful
	bounds bounds
}

// NewIntegerSpinnerSpecifier builds an IntegerSpinnerSpecifier.
func NewIntegerSpinnerSpecifier(params spec.Params, _ spec.Factory) (spec.Specifier, error) {
	b, err := parseBounds(params)
	if err != nil {
		return nil, err
	}
	stateful, err := spec.NewStateful(KindIntegerSpinner, params, spec.StatefulOptions{
		ConvertValue: func(_ string, value any) (any, error) {
			return b.check(value)
		},
	})
	if err != nil {
		return nil, err
	}
	return &IntegerSpinnerSpecifier{Stateful: stateful, bounds: b}, nil
}

func (s *IntegerSpinnerSpecifier) MinValue() int { return s.bounds.min }

func (s *IntegerSpinnerSpecifier) MaxValue() int { return s.bounds.max }

func (s *IntegerSpinnerSpecifier) IncrementDelta() int { return s.bounds.delta }

// IntegerSpinner holds one bounded integer. Its bounds are mutable; narrowing
// them clamps the current value.
type IntegerSpinner struct {
	widget.StatefulBase
	bounds bounds
}

func buildIntegerSpinner(ctx widget.Context, s spec.Specifier, _ widget.Parent, _ widget.CreationParams) (widget.Widget, error) {
	specifier, ok := s.(*IntegerSpinnerSpecifier)
	if !ok {
		return nil, errWrongSpecifier(s, KindIntegerSpinner)
	}
	w := &IntegerSpinner{bounds: specifier.bounds}
	sb, err := widget.NewStatefulBase(ctx, specifier, widget.StatefulOptions{
		Validate: func(_ string, value any) (any, error) {
			if value == nil {
				return w.bounds.min, nil
			}
			return w.bounds.check(value)
		},
	})
	if err != nil {
		return nil, err
	}
	w.StatefulBase = sb
	w.DefineStateProperties()
	defineBoundsProperties(&w.StatefulBase, &w.bounds, func() error {
		id := w.StateIdentifiers()[0]
		current, _ := w.State(id)
		n, _ := current.(int)
		return w.SetState(id, w.bounds.clamp(n))
	})
	return w, nil
}

// defineBoundsProperties advertises the bound properties. A bound change
// that the current values cannot be clamped into is rolled back.
func defineBoundsProperties(sb *widget.StatefulBase, b *bounds, reclamp func() error) {
	rebound := func(property string, value any, next bounds) error {
		previous := *b
		*b = next
		if err := reclamp(); err != nil {
			*b = previous
			return &errs.PropertyError{
				Identifier: sb.Identifier(),
				Property:   property,
				Value:      value,
				Message:    "current values do not fit the new bounds",
				Err:        err,
			}
		}
		return nil
	}
	sb.DefineProperty(KeyMinValue, widget.Property{
		Get: func() any { return b.min },
		Set: func(value any) error {
			n, err := coerce.Int(value)
			if err != nil {
				return err
			}
			if n > b.max {
				return errs.Property(sb.Identifier(), KeyMinValue, value, "must not exceed %s (%d)", KeyMaxValue, b.max)
			}
			next := *b
			next.min = n
			return rebound(KeyMinValue, value, next)
		},
	})
	sb.DefineProperty(KeyMaxValue, widget.Property{
		Get: func() any { return b.max },
		Set: func(value any) error {
			n, err := coerce.Int(value)
			if err != nil {
				return err
			}
			if n < b.min {
				return errs.Property(sb.Identifier(), KeyMaxValue, value, "must not be less than %s (%d)", KeyMinValue, b.min)
			}
			next := *b
			next.max = n
			return rebound(KeyMaxValue, value, next)
		},
	})
	sb.DefineProperty(KeyIncrementDelta, widget.Property{
		Get: func() any { return b.delta },
		Set: func(value any) error {
			n, err := coerce.Int(value)
			if err != nil {
				return err
			}
			if n < 1 {
				return errs.Property(sb.Identifier(), KeyIncrementDelta, value, "must be a positive integer")
			}
			b.delta = n
			return nil
		},
	})
}

// Value returns the current integer.
func (w *IntegerSpinner) Value() int {
	value, _ := w.State(w.StateIdentifiers()[0])
	n, _ := value.(int)
	return n
}

// IntegerRangeSpecifier describes an ordered pair of bounded integers packed
// into one identifier, e.g. "low:high".
type IntegerRangeSpecifier struct {
	spec.Stateful
	bounds   bounds
	interval int
}

// NewIntegerRangeSpecifier builds an IntegerRangeSpecifier.
func NewIntegerRangeSpecifier(params spec.Params, _ spec.Factory) (spec.Specifier, error) {
	b, err := parseBounds(params)
	if err != nil {
		return nil, err
	}
	interval, err := params.Int(KeyMinimumInterval, 0)
	if err != nil {
		return nil, err
	}
	if interval < 0 || interval > b.max-b.min {
		return nil, errs.Specification(params.Identifier(), KeyMinimumInterval, interval, "must lie within [0, %d]", b.max-b.min)
	}
	stateful, err := spec.NewStateful(KindIntegerRange, params, spec.StatefulOptions{
		MaxStates: 2,
		ConvertValue: func(_ string, value any) (any, error) {
			return b.check(value)
		},
	})
	if err != nil {
		return nil, err
	}
	if len(stateful.StateIdentifiers()) != 2 {
		return nil, errs.Specification(params.Identifier(), spec.KeyIdentifier, params.Identifier(), "a range needs exactly two state identifiers")
	}
	return &IntegerRangeSpecifier{Stateful: stateful, bounds: b, interval: interval}, nil
}

func (s *IntegerRangeSpecifier) MinimumInterval() int { return s.interval }

// IntegerRange holds a lower and an upper integer. The two values constrain
// each other, so it supports explicit commits.
type IntegerRange struct {
	widget.ExplicitCommitBase
	bounds   bounds
	interval int
}

func buildIntegerRange(ctx widget.Context, s spec.Specifier, _ widget.Parent, _ widget.CreationParams) (widget.Widget, error) {
	specifier, ok := s.(*IntegerRangeSpecifier)
	if !ok {
		return nil, errWrongSpecifier(s, KindIntegerRange)
	}
	ids := specifier.StateIdentifiers()
	w := &IntegerRange{bounds: specifier.bounds, interval: specifier.interval}
	sb, err := widget.NewStatefulBase(ctx, specifier, widget.StatefulOptions{
		Validate: func(_ string, value any) (any, error) {
			return w.bounds.check(value)
		},
		ValidateAll: func(candidate map[string]any) error {
			low, _ := candidate[ids[0]].(int)
			high, _ := candidate[ids[1]].(int)
			if high-low < w.interval {
				return fmt.Errorf("%s (%d) and %s (%d) must be at least %d apart", ids[0], low, ids[1], high, w.interval)
			}
			return nil
		},
		DefaultValues: map[string]any{ids[0]: specifier.bounds.min, ids[1]: specifier.bounds.max},
	})
	if err != nil {
		return nil, err
	}
	w.ExplicitCommitBase = widget.NewExplicitCommitBase(sb)
	w.DefineStateProperties()
	defineBoundsProperties(&w.StatefulBase, &w.bounds, func() error {
		low, _ := w.State(ids[0])
		high, _ := w.State(ids[1])
		l, _ := low.(int)
		h, _ := high.(int)
		return w.SetStates(map[string]any{ids[0]: w.bounds.clamp(l), ids[1]: w.bounds.clamp(h)})
	})
	w.DefineProperty(KeyMinimumInterval, widget.Property{
		Get: func() any { return w.interval },
		Set: func(value any) error {
			n, err := coerce.Int(value)
			if err != nil {
				return err
			}
			if n < 0 || n > w.bounds.max-w.bounds.min {
				return errs.Property(w.Identifier(), KeyMinimumInterval, value, "must lie within [0, %d]", w.bounds.max-w.bounds.min)
			}
			w.interval = n
			return nil
		},
	})
	return w, nil
}

// Range returns the lower and upper values.
func (w *IntegerRange) Range() (int, int) {
	ids := w.StateIdentifiers()
	low, _ := w.State(ids[0])
	high, _ := w.State(ids[1])
	l, _ := low.(int)
	h, _ := high.(int)
	return l, h
}
