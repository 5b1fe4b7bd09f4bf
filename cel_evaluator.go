package megawidget

import (
	"fmt"
	"reflect"

	"github.com/goliatone/go-megawidgets/pkg/coerce"
	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

var (
	nativeListType = reflect.TypeOf([]any{})
	nativeMapType  = reflect.TypeOf(map[string]any{})
)

// maxCELArity bounds the overloads declared per function; CEL has no
// variadic functions.
const maxCELArity = 4

// celEvaluator runs rule expressions with cel-go. CEL needs every variable
// declared, so programs are built lazily per snapshot shape and cached under
// the expression plus its sorted variable names.
type celEvaluator struct {
	evaluatorConfig
}

// NewCELEvaluator returns an Evaluator backed by cel-go.
func NewCELEvaluator(opts ...EvaluatorOption) Evaluator {
	return &celEvaluator{evaluatorConfig: applyEvaluatorOptions(opts)}
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, evaluationFailure(EngineCEL, PhaseCompile, expression, ctx.Rule, ErrEmptyExpression)
	}
	ctx = ctx.withDefaults()
	vars := ctx.bindings()
	program, err := e.program(expression, vars)
	if err != nil {
		return nil, evaluationFailure(EngineCEL, PhaseCompile, expression, ctx.Rule, err)
	}
	out, _, err := program.Eval(vars)
	if err != nil {
		return nil, evaluationFailure(EngineCEL, PhaseRun, expression, ctx.Rule, err)
	}
	return celNative(out), nil
}

// Compile only validates the expression is present; type checking waits for
// the first evaluation, when the snapshot variables are known.
func (e *celEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		cfg := applyCompileOptions(opts)
		return nil, evaluationFailure(EngineCEL, PhaseCompile, expression, cfg.rule, ErrEmptyExpression)
	}
	return celRule{evaluator: e, expression: expression}, nil
}

func (e *celEvaluator) program(expression string, vars map[string]any) (celgo.Program, error) {
	names := coerce.SortedKeys(vars)
	key := cacheKey(EngineCEL, expression, names...)
	if program, ok := cachedProgram[celgo.Program](e.cache, key); ok {
		return program, nil
	}

	opts := make([]celgo.EnvOption, 0, len(names)+len(e.functions.Names()))
	for _, name := range names {
		ty := celgo.DynType
		if name == "now" {
			ty = celgo.TimestampType
		}
		opts = append(opts, celgo.Variable(name, ty))
	}
	for _, name := range e.functions.Names() {
		opts = append(opts, celgo.Function(name, e.overloads(name)...))
	}
	env, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	storeProgram(e.cache, key, program)
	return program, nil
}

// overloads declares name for every arity up to maxCELArity, all dyn typed.
func (e *celEvaluator) overloads(name string) []celgo.FunctionOpt {
	call := e.functions.bound(name)
	binding := celgo.FunctionBinding(func(values ...ref.Val) ref.Val {
		args := make([]any, len(values))
		for i, val := range values {
			if _, null := val.(types.Null); null {
				continue
			}
			args[i] = val.Value()
		}
		result, err := call(args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	})

	opts := make([]celgo.FunctionOpt, 0, maxCELArity+1)
	for arity := 0; arity <= maxCELArity; arity++ {
		params := make([]*celgo.Type, arity)
		for i := range params {
			params[i] = celgo.DynType
		}
		opts = append(opts, celgo.Overload(fmt.Sprintf("%s_dyn_%d", name, arity), params, celgo.DynType, binding))
	}
	return opts
}

type celRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r celRule) Evaluate(ctx RuleContext) (any, error) {
	return r.evaluator.Evaluate(ctx, r.expression)
}

// celNative unwraps CEL lists and maps into []any and map[string]any so rule
// results can be assigned to widget properties.
func celNative(val ref.Val) any {
	switch val.(type) {
	case traits.Lister:
		if native, err := val.ConvertToNative(nativeListType); err == nil {
			return native
		}
	case traits.Mapper:
		if native, err := val.ConvertToNative(nativeMapType); err == nil {
			return native
		}
	}
	return val.Value()
}
