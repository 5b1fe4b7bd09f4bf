package megawidget

import (
	"context"
	"log/slog"
	"time"
)

// EvaluatorLogEvent describes one rule expression evaluation.
type EvaluatorLogEvent struct {
	Engine   string
	Rule     string
	Target   string
	Expr     string
	Trigger  string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger receives an event per evaluated expression.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

// SlogEvaluatorLogger writes evaluations to logger at level, and failures
// at warn.
func SlogEvaluatorLogger(logger *slog.Logger, level slog.Level) EvaluatorLogger {
	if logger == nil {
		return nil
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		attrs := []slog.Attr{
			slog.String("engine", event.Engine),
			slog.String("rule", event.Rule),
			slog.String("trigger", event.Trigger),
			slog.Duration("duration", event.Duration),
		}
		if event.Target != "" {
			attrs = append(attrs, slog.String("target", event.Target))
		}
		if event.Err != nil {
			attrs = append(attrs, slog.String("expr", event.Expr), slog.Any("error", event.Err))
			logger.LogAttrs(context.Background(), slog.LevelWarn, "rule expression failed", attrs...)
			return
		}
		logger.LogAttrs(context.Background(), level, "rule expression evaluated", attrs...)
	})
}
