package megawidget

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-megawidgets/pkg/coerce"
	"github.com/goliatone/go-megawidgets/pkg/statestore"
	"github.com/goliatone/go-megawidgets/pkg/widget"
)

// Evaluation engines understood by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// targetWhen names the guard in evaluation errors and log events.
const targetWhen = "when"

// ErrNoEvaluator reports an engine that is unknown or not compiled in.
var ErrNoEvaluator = errors.New("megawidget: evaluator not available")

// SideEffectRule sets widget properties from expressions when a trigger
// fires.
//
// Triggers limits the rule to events from those widget identifiers; empty
// matches every event. When is an optional boolean guard. Set maps widget
// identifier to property name to the expression producing its value.
type SideEffectRule struct {
	Name            string                       `json:"name" yaml:"name"`
	Triggers        []string                     `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	When            string                       `json:"when,omitempty" yaml:"when,omitempty"`
	OnlySignificant bool                         `json:"only_significant,omitempty" yaml:"only_significant,omitempty"`
	Set             map[string]map[string]string `json:"set" yaml:"set"`
}

// RuleOption configures a RuleApplier.
type RuleOption func(*ruleConfig)

type ruleConfig struct {
	engine    string
	evaluator Evaluator
	cache     ProgramCache
	functions *Functions
	logger    EvaluatorLogger
	args      map[string]any
	metadata  map[string]any
	now       func() time.Time
	err       error
}

// WithEngine selects a built-in evaluator by name (expr, cel or js).
func WithEngine(engine string) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.engine = engine
	}
}

// WithEvaluator installs a custom evaluator; it takes precedence over
// WithEngine.
func WithEvaluator(evaluator Evaluator) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.evaluator = evaluator
	}
}

// WithProgramCache shares compiled programs across appliers.
func WithProgramCache(cache ProgramCache) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.cache = cache
	}
}

// WithFunctions replaces the helper table, StandardFunctions by default,
// with a copy of functions.
func WithFunctions(functions *Functions) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.functions = functions.clone()
	}
}

// WithCustomFunction adds fn under name to the helper table.
func WithCustomFunction(name string, fn Function) RuleOption {
	return func(cfg *ruleConfig) {
		if cfg.functions == nil {
			cfg.functions = StandardFunctions()
		}
		if err := cfg.functions.Define(name, fn); err != nil && cfg.err == nil {
			cfg.err = err
		}
	}
}

// WithEvaluatorLogger reports every rule evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.logger = logger
	}
}

// WithRuleArgs exposes args to expressions as the args variable.
func WithRuleArgs(args map[string]any) RuleOption {
	cloned := statestore.Clone(args)
	return func(cfg *ruleConfig) {
		cfg.args = cloned
	}
}

// WithRuleMetadata exposes metadata to expressions as the metadata variable.
func WithRuleMetadata(metadata map[string]any) RuleOption {
	cloned := statestore.Clone(metadata)
	return func(cfg *ruleConfig) {
		cfg.metadata = cloned
	}
}

// WithClock overrides the source of the now variable.
func WithClock(now func() time.Time) RuleOption {
	return func(cfg *ruleConfig) {
		cfg.now = now
	}
}

// NewEvaluator returns the built-in evaluator for engine.
func NewEvaluator(engine string, opts ...EvaluatorOption) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(opts...), nil
	case EngineCEL:
		return NewCELEvaluator(opts...), nil
	case EngineJS:
		evaluator := NewJSEvaluator(opts...)
		if evaluator == nil {
			return nil, fmt.Errorf("%w: js requires the js_eval build tag", ErrNoEvaluator)
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
}

type ruleTarget struct {
	identifier string
	property   string
	expression string
	program    CompiledRule
}

type compiledSideEffectRule struct {
	name            string
	triggers        map[string]struct{}
	onlySignificant bool
	whenExpr        string
	when            CompiledRule
	targets         []ruleTarget
}

func (r compiledSideEffectRule) matches(trigger string, significant bool) bool {
	if r.onlySignificant && !significant {
		return false
	}
	if len(r.triggers) == 0 {
		return true
	}
	_, ok := r.triggers[trigger]
	return ok
}

// RuleApplier is a SideEffectsApplier driven by declarative rules. Rules run
// in declaration order and see the updates of earlier rules through props.
//
// Expressions see trigger, significant, props (identifier -> property ->
// value), state (state identifier -> value, gathered from every values
// property), now, args and metadata.
type RuleApplier struct {
	cfg       ruleConfig
	evaluator Evaluator
	engine    string
	rules     []compiledSideEffectRule
}

// NewRuleApplier compiles rules up front; any compile error aborts.
func NewRuleApplier(rules []SideEffectRule, opts ...RuleOption) (*RuleApplier, error) {
	cfg := ruleConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.err != nil {
		return nil, cfg.err
	}
	if cfg.functions == nil {
		cfg.functions = StandardFunctions()
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	evaluator := cfg.evaluator
	if evaluator == nil {
		var err error
		evaluator, err = NewEvaluator(cfg.engine, EvaluatorCache(cfg.cache), EvaluatorFunctions(cfg.functions))
		if err != nil {
			return nil, err
		}
	}

	applier := &RuleApplier{
		cfg:       cfg,
		evaluator: evaluator,
		engine:    evaluatorEngineName(evaluator),
	}
	seen := map[string]struct{}{}
	for i, rule := range rules {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			name = fmt.Sprintf("rule-%d", i+1)
		}
		if _, exists := seen[name]; exists {
			return nil, fmt.Errorf("megawidget: duplicate side effect rule %q", name)
		}
		seen[name] = struct{}{}
		compiled, err := applier.compile(name, rule)
		if err != nil {
			return nil, err
		}
		applier.rules = append(applier.rules, compiled)
	}
	return applier, nil
}

func (a *RuleApplier) compile(name string, rule SideEffectRule) (compiledSideEffectRule, error) {
	compiled := compiledSideEffectRule{
		name:            name,
		onlySignificant: rule.OnlySignificant,
		whenExpr:        strings.TrimSpace(rule.When),
	}
	if len(rule.Triggers) > 0 {
		compiled.triggers = make(map[string]struct{}, len(rule.Triggers))
		for _, trigger := range rule.Triggers {
			compiled.triggers[trigger] = struct{}{}
		}
	}
	if compiled.whenExpr != "" {
		program, err := a.evaluator.Compile(compiled.whenExpr, CompileForRule(name))
		if err != nil {
			return compiledSideEffectRule{}, withTarget(evaluationFailure(a.engine, PhaseCompile, compiled.whenExpr, name, err), targetWhen)
		}
		compiled.when = program
	}
	if len(rule.Set) == 0 {
		return compiledSideEffectRule{}, fmt.Errorf("megawidget: side effect rule %q sets nothing", name)
	}
	for _, identifier := range coerce.SortedKeys(rule.Set) {
		properties := rule.Set[identifier]
		for _, property := range coerce.SortedKeys(properties) {
			expression := strings.TrimSpace(properties[property])
			program, err := a.evaluator.Compile(expression, CompileForRule(name))
			if err != nil {
				return compiledSideEffectRule{}, withTarget(evaluationFailure(a.engine, PhaseCompile, expression, name, err), identifier+"."+property)
			}
			compiled.targets = append(compiled.targets, ruleTarget{
				identifier: identifier,
				property:   property,
				expression: expression,
				program:    program,
			})
		}
	}
	return compiled, nil
}

// Rules returns the rule names in evaluation order.
func (a *RuleApplier) Rules() []string {
	names := make([]string, len(a.rules))
	for i, rule := range a.rules {
		names[i] = rule.name
	}
	return names
}

// Apply implements SideEffectsApplier. Failing expressions are skipped and
// reported through the joined error; the updates of the others are returned.
func (a *RuleApplier) Apply(trigger string, properties Properties, significant bool) (Properties, error) {
	now := a.cfg.now()
	view := properties.Clone()
	if view == nil {
		view = Properties{}
	}
	updates := Properties{}
	var failures []error

	for _, rule := range a.rules {
		if !rule.matches(trigger, significant) {
			continue
		}
		ctx := RuleContext{
			Snapshot: ruleSnapshot(trigger, significant, view),
			Now:      &now,
			Args:     a.cfg.args,
			Metadata: a.cfg.metadata,
			Rule:     rule.name,
		}
		if rule.when != nil {
			result, err := a.evaluate(ctx, trigger, targetWhen, rule.whenExpr, rule.when)
			if err != nil {
				failures = append(failures, err)
				continue
			}
			pass, err := coerce.Bool(result)
			if err != nil {
				failures = append(failures, withTarget(evaluationFailure(a.engine, PhaseRun, rule.whenExpr, rule.name, fmt.Errorf("guard must be boolean: %w", err)), targetWhen))
				continue
			}
			if !pass {
				continue
			}
		}
		for _, target := range rule.targets {
			value, err := a.evaluate(ctx, trigger, target.identifier+"."+target.property, target.expression, target.program)
			if err != nil {
				failures = append(failures, err)
				continue
			}
			current, _ := view.Get(target.identifier, target.property)
			if sameValue(current, value) {
				continue
			}
			updates.Set(target.identifier, target.property, value)
			view.Set(target.identifier, target.property, value)
		}
	}

	if len(updates) == 0 {
		updates = nil
	}
	return updates, errors.Join(failures...)
}

func (a *RuleApplier) evaluate(ctx RuleContext, trigger, target, expression string, program CompiledRule) (any, error) {
	start := time.Now()
	value, err := program.Evaluate(ctx)
	err = withTarget(evaluationFailure(a.engine, PhaseRun, expression, ctx.Rule, err), target)
	if a.cfg.logger != nil {
		a.cfg.logger.LogEvaluation(EvaluatorLogEvent{
			Engine:   a.engine,
			Rule:     ctx.Rule,
			Target:   target,
			Expr:     expression,
			Trigger:  trigger,
			Duration: time.Since(start),
			Err:      err,
		})
	}
	return value, err
}

// ruleSnapshot builds the variables visible to expressions.
func ruleSnapshot(trigger string, significant bool, view Properties) map[string]any {
	props := make(map[string]any, len(view))
	state := map[string]any{}
	ids := make([]string, 0, len(view))
	for id := range view {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		widgetProps := view[id]
		props[id] = widgetProps
		values, ok := widgetProps[widget.PropValues].(map[string]any)
		if !ok {
			continue
		}
		for stateID, value := range values {
			state[stateID] = value
		}
	}
	return map[string]any{
		"trigger":     trigger,
		"significant": significant,
		"props":       props,
		"state":       state,
	}
}
