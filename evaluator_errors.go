package megawidget

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyExpression rejects blank expressions before they reach an engine.
var ErrEmptyExpression = errors.New("megawidget: expression must not be empty")

// EvaluationPhase tells compile failures apart from runtime failures.
type EvaluationPhase string

const (
	PhaseCompile EvaluationPhase = "compile"
	PhaseRun     EvaluationPhase = "run"
)

// EvaluationError describes a failing rule expression.
type EvaluationError struct {
	Engine string
	Phase  EvaluationPhase
	Rule   string
	// Target is identifier.property for assignments and "when" for guards.
	Target string
	Expr   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("megawidget: ")
	b.WriteString(orDefault(e.Engine, "unknown"))
	b.WriteByte(' ')
	b.WriteString(orDefault(string(e.Phase), "evaluation"))
	b.WriteString(" failed rule=")
	b.WriteString(orDefault(e.Rule, "<anonymous>"))
	if e.Target != "" {
		b.WriteString(" target=")
		b.WriteString(e.Target)
	}
	if e.Expr != "" {
		fmt.Fprintf(&b, " expr=%q", e.Expr)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// evaluationFailure wraps err as an EvaluationError. An error that already is
// one keeps its fields and only has the blanks filled.
func evaluationFailure(engine string, phase EvaluationPhase, expr, rule string, err error) error {
	if err == nil {
		return nil
	}
	var existing *EvaluationError
	if errors.As(err, &existing) {
		existing.Engine = orDefault(existing.Engine, engine)
		existing.Phase = EvaluationPhase(orDefault(string(existing.Phase), string(phase)))
		existing.Expr = orDefault(existing.Expr, expr)
		existing.Rule = orDefault(existing.Rule, rule)
		return err
	}
	return &EvaluationError{
		Engine: engine,
		Phase:  phase,
		Rule:   rule,
		Expr:   expr,
		Err:    err,
	}
}

// withTarget records which assignment failed.
func withTarget(err error, target string) error {
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) && evalErr.Target == "" {
		evalErr.Target = target
	}
	return err
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
