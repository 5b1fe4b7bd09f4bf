package megawidget

import "time"

// RuleContext is what a single rule evaluation sees. Snapshot keys become
// top-level variables; now, args and metadata are always bound.
type RuleContext struct {
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Rule     string
}

func (ctx RuleContext) withDefaults() RuleContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

// bindings returns the variables shared by every engine: the snapshot keys
// plus now, args and metadata. Callers must pass a context with defaults.
func (ctx RuleContext) bindings() map[string]any {
	snapshot, _ := ctx.Snapshot.(map[string]any)
	vars := make(map[string]any, len(snapshot)+3)
	for key, value := range snapshot {
		vars[key] = value
	}
	vars["now"] = *ctx.Now
	vars["args"] = ctx.Args
	vars["metadata"] = ctx.Metadata
	return vars
}

// Evaluator runs expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule is an expression prepared for repeated evaluation.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures a single Compile call.
type CompileOption func(*compileConfig)

type compileConfig struct {
	rule string
}

// CompileForRule labels compile errors with the rule name.
func CompileForRule(name string) CompileOption {
	return func(cfg *compileConfig) {
		cfg.rule = name
	}
}

func applyCompileOptions(opts []CompileOption) compileConfig {
	cfg := compileConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// EvaluatorOption configures any of the built-in evaluators.
type EvaluatorOption func(*evaluatorConfig)

type evaluatorConfig struct {
	cache     ProgramCache
	functions *Functions
}

// EvaluatorCache stores compiled programs in cache. Engines namespace their
// keys so one cache can back several evaluators.
func EvaluatorCache(cache ProgramCache) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.cache = cache
	}
}

// EvaluatorFunctions exposes a copy of functions to expressions.
func EvaluatorFunctions(functions *Functions) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.functions = functions.clone()
	}
}

func applyEvaluatorOptions(opts []EvaluatorOption) evaluatorConfig {
	cfg := evaluatorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// cachedProgram fetches a program of type T from cache.
func cachedProgram[T any](cache ProgramCache, key string) (T, bool) {
	var zero T
	if cache == nil {
		return zero, false
	}
	cached, ok := cache.Get(key)
	if !ok {
		return zero, false
	}
	program, ok := cached.(T)
	return program, ok
}

func storeProgram(cache ProgramCache, key string, program any) {
	if cache != nil {
		cache.Set(key, program)
	}
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return EngineExpr
	case *celEvaluator:
		return EngineCEL
	default:
		if isJSEvaluator(e) {
			return EngineJS
		}
		return "custom"
	}
}
