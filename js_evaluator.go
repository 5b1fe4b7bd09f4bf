//go:build js_eval

package megawidget

import (
	"github.com/dop251/goja"
)

// jsEvaluator runs rule expressions in a fresh goja runtime per evaluation.
// Compiled programs are shared; runtimes are not, so rules never see each
// other's globals.
type jsEvaluator struct {
	evaluatorConfig
}

// NewJSEvaluator returns an Evaluator backed by goja.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	return &jsEvaluator{evaluatorConfig: applyEvaluatorOptions(opts)}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	program, err := e.program(expression, ctx.Rule)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *jsEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	cfg := applyCompileOptions(opts)
	program, err := e.program(expression, cfg.rule)
	if err != nil {
		return nil, err
	}
	return jsRule{evaluator: e, expression: expression, program: program}, nil
}

func (e *jsEvaluator) program(expression, rule string) (*goja.Program, error) {
	if expression == "" {
		return nil, evaluationFailure(EngineJS, PhaseCompile, expression, rule, ErrEmptyExpression)
	}
	key := cacheKey(EngineJS, expression)
	if program, ok := cachedProgram[*goja.Program](e.cache, key); ok {
		return program, nil
	}
	// The expression is wrapped so statements like `a; b` are rejected and
	// the value of the expression is what the program returns.
	program, err := goja.Compile(rule, "(function(){ return ("+expression+"); })()", true)
	if err != nil {
		return nil, evaluationFailure(EngineJS, PhaseCompile, expression, rule, err)
	}
	storeProgram(e.cache, key, program)
	return program, nil
}

func (e *jsEvaluator) run(ctx RuleContext, expression string, program *goja.Program) (any, error) {
	ctx = ctx.withDefaults()
	vm := goja.New()
	vars := ctx.bindings()
	for _, name := range e.functions.Names() {
		vars[name] = e.functions.bound(name)
	}
	for name, value := range vars {
		if err := vm.Set(name, value); err != nil {
			return nil, evaluationFailure(EngineJS, PhaseRun, expression, ctx.Rule, err)
		}
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, evaluationFailure(EngineJS, PhaseRun, expression, ctx.Rule, err)
	}
	return value.Export(), nil
}

type jsRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r jsRule) Evaluate(ctx RuleContext) (any, error) {
	return r.evaluator.run(ctx, r.expression, r.program)
}

// JSEvaluatorAvailable reports whether the binary was built with js_eval.
func JSEvaluatorAvailable() bool {
	return true
}

func isJSEvaluator(e Evaluator) bool {
	_, ok := e.(*jsEvaluator)
	return ok
}
