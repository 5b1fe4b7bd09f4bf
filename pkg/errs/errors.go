// Package errs defines the error taxonomy shared by specifiers, widgets and
// the manager. Each error type unwraps to its cause and matches one of the
// sentinels below through errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrSpecification matches every SpecificationError.
	ErrSpecification = errors.New("megawidget: specification error")
	// ErrState matches every StateError.
	ErrState = errors.New("megawidget: state error")
	// ErrProperty matches every PropertyError.
	ErrProperty = errors.New("megawidget: property error")
)

// SpecificationError reports a bad declarative description. It is raised at
// construction time and aborts building the widget tree.
type SpecificationError struct {
	Identifier string
	Type       string
	Parameter  string
	Value      any
	Message    string
	Err        error
}

func (e *SpecificationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("megawidget: specifier %s", describeIdentifier(e.Identifier))
	if e.Type != "" {
		msg += fmt.Sprintf(" type=%s", e.Type)
	}
	if e.Parameter != "" {
		msg += fmt.Sprintf(" parameter %q", e.Parameter)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" value=%v", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SpecificationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *SpecificationError) Is(target error) bool {
	return target == ErrSpecification
}

// StateError reports a state value rejected by a stateful widget, or a state
// path that cannot be resolved against the store.
type StateError struct {
	Identifier string
	Value      any
	Message    string
	Err        error
}

func (e *StateError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("megawidget: state %s value=%v", describeIdentifier(e.Identifier), e.Value)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *StateError) Is(target error) bool {
	return target == ErrState
}

// PropertyError reports an unknown mutable property name or an invalid value
// for a known one.
type PropertyError struct {
	Identifier string
	Property   string
	Value      any
	Message    string
	Err        error
}

func (e *PropertyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("megawidget: property %q of %s value=%v", e.Property, describeIdentifier(e.Identifier), e.Value)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PropertyError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *PropertyError) Is(target error) bool {
	return target == ErrProperty
}

func describeIdentifier(identifier string) string {
	if identifier == "" {
		return "id=<empty>"
	}
	return fmt.Sprintf("id=%q", identifier)
}

// Specification builds a SpecificationError for identifier.
func Specification(identifier, parameter string, value any, format string, args ...any) *SpecificationError {
	return &SpecificationError{
		Identifier: identifier,
		Parameter:  parameter,
		Value:      value,
		Message:    fmt.Sprintf(format, args...),
	}
}

// State builds a StateError for identifier.
func State(identifier string, value any, format string, args ...any) *StateError {
	return &StateError{
		Identifier: identifier,
		Value:      value,
		Message:    fmt.Sprintf(format, args...),
	}
}

// Property builds a PropertyError for identifier.
func Property(identifier, property string, value any, format string, args ...any) *PropertyError {
	return &PropertyError{
		Identifier: identifier,
		Property:   property,
		Value:      value,
		Message:    fmt.Sprintf(format, args...),
	}
}

// UnknownProperty reports a property name the widget does not advertise.
func UnknownProperty(identifier, property string, value any) *PropertyError {
	return Property(identifier, property, value, "unknown mutable property")
}

// IsDomain reports whether err is (or wraps) one of the taxonomy errors.
func IsDomain(err error) bool {
	return errors.Is(err, ErrSpecification) || errors.Is(err, ErrState) || errors.Is(err, ErrProperty)
}

// WrapSpecification converts err into a SpecificationError for identifier,
// leaving domain errors untouched.
func WrapSpecification(identifier, kind string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomain(err) {
		return err
	}
	return &SpecificationError{
		Identifier: identifier,
		Type:       kind,
		Err:        err,
	}
}
