package megawidget

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator runs rule expressions with github.com/expr-lang/expr. Programs
// compile against an open environment so snapshot variables need no
// declaration.
type exprEvaluator struct {
	evaluatorConfig
}

// NewExprEvaluator returns the default rule engine.
func NewExprEvaluator(opts ...EvaluatorOption) Evaluator {
	return &exprEvaluator{evaluatorConfig: applyEvaluatorOptions(opts)}
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	program, err := e.program(expression, ctx.Rule)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *exprEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	cfg := applyCompileOptions(opts)
	program, err := e.program(expression, cfg.rule)
	if err != nil {
		return nil, err
	}
	return exprRule{evaluator: e, expression: expression, program: program}, nil
}

func (e *exprEvaluator) program(expression, rule string) (*exprvm.Program, error) {
	if expression == "" {
		return nil, evaluationFailure(EngineExpr, PhaseCompile, expression, rule, ErrEmptyExpression)
	}
	key := cacheKey(EngineExpr, expression)
	if program, ok := cachedProgram[*exprvm.Program](e.cache, key); ok {
		return program, nil
	}

	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.functions.Names() {
		options = append(options, exprlang.Function(name, e.functions.bound(name)))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, evaluationFailure(EngineExpr, PhaseCompile, expression, rule, err)
	}
	storeProgram(e.cache, key, program)
	return program, nil
}

func (e *exprEvaluator) run(ctx RuleContext, expression string, program *exprvm.Program) (any, error) {
	ctx = ctx.withDefaults()
	result, err := exprlang.Run(program, ctx.bindings())
	if err != nil {
		return nil, evaluationFailure(EngineExpr, PhaseRun, expression, ctx.Rule, err)
	}
	return result, nil
}

type exprRule struct {
	evaluator  *exprEvaluator
	expression string
	program    *exprvm.Program
}

func (r exprRule) Evaluate(ctx RuleContext) (any, error) {
	return r.evaluator.run(ctx, r.expression, r.program)
}
