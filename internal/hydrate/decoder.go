// Package hydrate turns parsed document trees (JSON, YAML or HCL already
// reduced to nested maps) into typed values.
//
// Decoding runs in three stages: normalizers rewrite a private copy of the
// tree, the tree is decoded into T through encoding/json, and validators
// inspect the result. A failure in any stage is reported as an *Error naming
// the stage and the source.
package hydrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Source names the document being decoded.
type Source struct {
	Name   string
	Format string
}

func (s Source) String() string {
	if s.Format == "" {
		return fmt.Sprintf("%q", s.Name)
	}
	return fmt.Sprintf("%s %q", s.Format, s.Name)
}

// Stage identifies where decoding failed.
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageDecode    Stage = "decode"
	StageValidate  Stage = "validate"
)

// Error reports a failed stage.
type Error struct {
	Source Source
	Stage  Stage
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("hydrate: %s %s: %v", e.Stage, e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// StageOf reports the stage err failed in, if it came from a Decoder.
func StageOf(err error) (Stage, bool) {
	var hydrateErr *Error
	if errors.As(err, &hydrateErr) {
		return hydrateErr.Stage, true
	}
	return "", false
}

// Normalizer rewrites the tree before decoding. Returning nil keeps the tree
// it was given.
type Normalizer func(Source, map[string]any) (map[string]any, error)

// Validator checks or completes the decoded value.
type Validator[T any] func(Source, *T) error

// Option configures a Decoder.
type Option[T any] func(*Decoder[T])

// Decoder hydrates trees into T. The zero value decodes leniently: unknown
// fields are ignored and numbers become float64.
type Decoder[T any] struct {
	normalizers  []Normalizer
	validators   []Validator[T]
	strict       bool
	exactNumbers bool
}

// Normalize appends fn to the normalize stage.
func Normalize[T any](fn Normalizer) Option[T] {
	return func(d *Decoder[T]) {
		if fn != nil {
			d.normalizers = append(d.normalizers, fn)
		}
	}
}

// Validate appends fn to the validate stage.
func Validate[T any](fn Validator[T]) Option[T] {
	return func(d *Decoder[T]) {
		if fn != nil {
			d.validators = append(d.validators, fn)
		}
	}
}

// Strict rejects fields T does not declare.
func Strict[T any]() Option[T] {
	return func(d *Decoder[T]) {
		d.strict = true
	}
}

// ExactNumbers decodes numbers held in interface fields as json.Number.
func ExactNumbers[T any]() Option[T] {
	return func(d *Decoder[T]) {
		d.exactNumbers = true
	}
}

// New builds a Decoder.
func New[T any](opts ...Option[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode hydrates tree into T. tree itself is never modified.
func (d *Decoder[T]) Decode(src Source, tree map[string]any) (T, error) {
	var zero T
	if tree == nil {
		return zero, &Error{Source: src, Stage: StageNormalize, Err: errors.New("document is empty")}
	}

	raw, err := json.Marshal(tree)
	if err != nil {
		return zero, &Error{Source: src, Stage: StageNormalize, Err: err}
	}
	if len(d.normalizers) > 0 {
		working, err := d.decodeTree(raw)
		if err != nil {
			return zero, &Error{Source: src, Stage: StageNormalize, Err: err}
		}
		for _, normalize := range d.normalizers {
			next, err := normalize(src, working)
			if err != nil {
				return zero, &Error{Source: src, Stage: StageNormalize, Err: err}
			}
			if next != nil {
				working = next
			}
		}
		if raw, err = json.Marshal(working); err != nil {
			return zero, &Error{Source: src, Stage: StageNormalize, Err: err}
		}
	}

	var out T
	if err := d.newDecoder(raw).Decode(&out); err != nil {
		return zero, &Error{Source: src, Stage: StageDecode, Err: err}
	}
	for _, validate := range d.validators {
		if err := validate(src, &out); err != nil {
			return zero, &Error{Source: src, Stage: StageValidate, Err: err}
		}
	}
	return out, nil
}

// decodeTree gives normalizers a private copy; numbers stay json.Number so
// large integers survive the round trip.
func (d *Decoder[T]) decodeTree(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var working map[string]any
	if err := dec.Decode(&working); err != nil {
		return nil, err
	}
	return working, nil
}

func (d *Decoder[T]) newDecoder(raw []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if d.strict {
		dec.DisallowUnknownFields()
	}
	if d.exactNumbers {
		dec.UseNumber()
	}
	return dec
}
