// Package megawidget builds forms of headless input widgets from declarative
// descriptions and keeps them synchronized with a caller-owned nested state
// map.
//
// A Manager owns every widget it builds. User input reaches the manager
// through the widgets' input methods; the manager commits the change to the
// store, runs the configured SideEffectsApplier and finally notifies the Host.
// Programmatic writes (SetState, SetMutableProperties, applier results) never
// notify listeners, which keeps the side-effects pass from recursing.
package megawidget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/goliatone/go-megawidgets/pkg/activity"
	"github.com/goliatone/go-megawidgets/pkg/coerce"
	"github.com/goliatone/go-megawidgets/pkg/errs"
	"github.com/goliatone/go-megawidgets/pkg/spec"
	"github.com/goliatone/go-megawidgets/pkg/statestore"
	"github.com/goliatone/go-megawidgets/pkg/widget"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotReady is returned by operations invoked before construction finished.
var ErrNotReady = errors.New("megawidget: manager not ready")

// Phase is the lifecycle position of a Manager.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseConstructing
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseConstructing:
		return "constructing"
	case PhaseReady:
		return "ready"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// stateSlot locates one state identifier: the widget holding it and the
// store path it is persisted under.
type stateSlot struct {
	widget  widget.Stateful
	stateID string
	path    statestore.Path
}

// Manager owns a widget tree and its state store. It is not safe for
// concurrent use; drive it from the goroutine that owns the form.
type Manager struct {
	id      string
	cfg     managerConfig
	phase   Phase
	host    Host
	store   *statestore.Store
	logger  *slog.Logger
	tracer  trace.Tracer
	emitter *activity.Emitter

	roots     []widget.Widget
	widgets   map[string]widget.Widget
	order     []string
	slots     map[string]stateSlot
	slotOrder []string

	// propertiesChanged is set by every programmatic write and consumed by
	// the next side-effects pass.
	propertiesChanged bool
	// suppress counts nested programmatic operations during which listener
	// events are ignored.
	suppress  int
	lastTrace *SideEffectTrace
}

// New builds every description, seeds the widgets from state and returns a
// ready manager. state is owned by the caller and written in place. Any
// failure aborts construction and no manager is returned.
func New(descriptions []map[string]any, state map[string]any, host Host, opts ...Option) (*Manager, error) {
	cfg := applyOptions(opts)
	if host == nil {
		host = HostFuncs{}
	}
	id := cfg.id
	if id == "" {
		id = uuid.NewString()
	}
	if state == nil {
		state = map[string]any{}
	}
	if len(cfg.stateDefaults) > 0 {
		statestore.FillDefaults(state, cfg.stateDefaults)
	}

	m := &Manager{
		id:      id,
		cfg:     cfg,
		phase:   PhaseUninitialized,
		host:    host,
		store:   statestore.New(state),
		logger:  cfg.logger.With("manager", id),
		tracer:  cfg.tracer,
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Stamp{
			ActorID:  id,
			UserID:   cfg.userID,
			TenantID: cfg.tenantID,
			Channel:  cfg.activityChannel,
		}),
		widgets: map[string]widget.Widget{},
		slots:   map[string]stateSlot{},
	}

	_, span := m.tracer.Start(context.Background(), "megawidget.construct",
		trace.WithAttributes(
			attribute.String("megawidget.manager", id),
			attribute.Int("megawidget.descriptions", len(descriptions)),
		))
	defer span.End()

	if err := m.construct(descriptions); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.Error("manager construction failed", "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("megawidget.widgets", len(m.order)))
	m.logger.Debug("manager ready", "widgets", len(m.order), "states", len(m.slotOrder))
	return m, nil
}

func (m *Manager) construct(descriptions []map[string]any) error {
	m.phase = PhaseConstructing

	specifiers := make([]spec.Specifier, 0, len(descriptions))
	for i, description := range descriptions {
		if description == nil {
			return errs.Specification("", spec.KeyIdentifier, nil, "description %d is empty", i)
		}
		s, err := m.cfg.registry.NewSpecifier(spec.Params(description))
		if err != nil {
			return err
		}
		specifiers = append(specifiers, s)
	}
	if err := checkUnique(specifiers); err != nil {
		return err
	}

	ctx := widget.Context{
		Listener: managerListener{m: m},
		Builder:  m.cfg.registry,
		Logger:   m.logger,
	}
	for _, s := range specifiers {
		w, err := m.cfg.registry.BuildWidget(ctx, s, m.cfg.parent, widget.CapNone, m.cfg.creationParams)
		if err != nil {
			return err
		}
		if err := m.register(w); err != nil {
			return err
		}
		m.roots = append(m.roots, w)
	}

	for _, id := range m.order {
		stateful, ok := m.widgets[id].(widget.Stateful)
		if !ok {
			continue
		}
		if err := m.seed(stateful); err != nil {
			return err
		}
	}

	m.phase = PhaseReady
	return nil
}

// checkUnique rejects duplicate identifiers, duplicate state identifiers and
// state paths nested under another state path, anywhere in the specifier
// trees.
func checkUnique(specifiers []spec.Specifier) error {
	identifiers := map[string]struct{}{}
	stateIDs := map[string]string{}
	var paths []statestore.Path
	for _, root := range specifiers {
		err := spec.Walk(root, func(s spec.Specifier) error {
			if _, exists := identifiers[s.Identifier()]; exists {
				return errs.Specification(s.Identifier(), spec.KeyIdentifier, s.Identifier(), "duplicate identifier")
			}
			identifiers[s.Identifier()] = struct{}{}
			stateful, ok := s.(spec.StatefulSpecifier)
			if !ok {
				return nil
			}
			for _, stateID := range stateful.StateIdentifiers() {
				if owner, exists := stateIDs[stateID]; exists {
					return errs.Specification(s.Identifier(), spec.KeyIdentifier, stateID, "duplicate state identifier, already held by %q", owner)
				}
				path := stateful.StatePath(stateID)
				for _, other := range paths {
					if nested(path, other) || nested(other, path) {
						return errs.Specification(s.Identifier(), spec.KeyIdentifier, stateID, "state path collides with %q held by %q", other.String(), stateIDs[other.String()])
					}
				}
				stateIDs[stateID] = s.Identifier()
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// nested reports whether inner lies strictly below outer.
func nested(inner, outer statestore.Path) bool {
	return len(inner) > len(outer) && slices.Equal(inner[:len(outer)], outer)
}

func (m *Manager) register(root widget.Widget) error {
	var err error
	widget.Walk(root, func(w widget.Widget) {
		if err != nil {
			return
		}
		id := w.Identifier()
		if _, exists := m.widgets[id]; exists {
			err = errs.Specification(id, spec.KeyIdentifier, id, "duplicate identifier")
			return
		}
		m.widgets[id] = w
		m.order = append(m.order, id)

		stateful, ok := w.(widget.Stateful)
		if !ok {
			return
		}
		specifier, ok := w.Specifier().(spec.StatefulSpecifier)
		if !ok {
			err = errs.Specification(id, spec.KeyType, w.Specifier().Type(), "stateful widget built from a specifier without state identifiers")
			return
		}
		for _, stateID := range stateful.StateIdentifiers() {
			if _, exists := m.slots[stateID]; exists {
				err = errs.Specification(id, spec.KeyIdentifier, stateID, "duplicate state identifier")
				return
			}
			m.slots[stateID] = stateSlot{widget: stateful, stateID: stateID, path: specifier.StatePath(stateID)}
			m.slotOrder = append(m.slotOrder, stateID)
		}
	})
	return err
}

// seed loads the stored values of w. Rejected values keep the widget default;
// either way the effective values are written back to the store.
func (m *Manager) seed(w widget.Stateful) error {
	values := map[string]any{}
	for _, stateID := range w.StateIdentifiers() {
		value, ok, err := m.store.Get(m.slots[stateID].path)
		if err != nil {
			return err
		}
		if ok {
			values[stateID] = value
		}
	}
	if len(values) > 0 {
		if err := assignState(w, values); err != nil {
			m.logger.Warn("stored state rejected, keeping widget default", "widget", w.Identifier(), "error", err)
		}
	}
	return m.commitWidgetState(w)
}

// assignState applies values to w without notifying, through the explicit
// commit path when w supports it.
func assignState(w widget.Stateful, values map[string]any) error {
	if committer, ok := w.(widget.ExplicitCommit); ok {
		for _, stateID := range w.StateIdentifiers() {
			value, ok := values[stateID]
			if !ok {
				continue
			}
			if err := committer.SetUncommittedState(stateID, value); err != nil {
				return err
			}
		}
		return committer.CommitStateChanges()
	}
	for _, stateID := range w.StateIdentifiers() {
		value, ok := values[stateID]
		if !ok {
			continue
		}
		if err := w.SetState(stateID, value); err != nil {
			return err
		}
	}
	return nil
}

// commitWidgetState writes the current values of w into the store.
func (m *Manager) commitWidgetState(w widget.Stateful) error {
	var failures []error
	for _, stateID := range w.StateIdentifiers() {
		value, err := w.State(stateID)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if err := m.store.Set(m.slots[stateID].path, statestore.Clone(value)); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (m *Manager) ready() error {
	if m == nil || m.phase != PhaseReady {
		return ErrNotReady
	}
	return nil
}

// ID returns the manager id used as activity actor.
func (m *Manager) ID() string { return m.id }

// Phase reports the lifecycle phase.
func (m *Manager) Phase() Phase { return m.phase }

// Roots returns the top-level widgets in declaration order.
func (m *Manager) Roots() []widget.Widget {
	return append([]widget.Widget(nil), m.roots...)
}

// Widget returns the registered widget with identifier, at any depth.
func (m *Manager) Widget(identifier string) (widget.Widget, bool) {
	w, ok := m.widgets[identifier]
	return w, ok
}

// Identifiers lists every registered widget depth first in declaration order.
func (m *Manager) Identifiers() []string {
	return append([]string(nil), m.order...)
}

// StateIdentifiers lists every state identifier in registration order.
func (m *Manager) StateIdentifiers() []string {
	return append([]string(nil), m.slotOrder...)
}

// State returns a deep copy of the store.
func (m *Manager) State() map[string]any {
	return m.store.Snapshot()
}

// StateElement reads the value stored under a ">" delimited path.
func (m *Manager) StateElement(path string) (any, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	parsed, err := parseStatePath(path)
	if err != nil {
		return nil, err
	}
	value, ok, err := m.store.Get(parsed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.State(path, nil, "no value stored")
	}
	return statestore.Clone(value), nil
}

func parseStatePath(path string) (statestore.Path, error) {
	parsed, err := statestore.ParsePath(path)
	if err != nil {
		return nil, &errs.StateError{Identifier: path, Message: "invalid state path", Err: err}
	}
	return parsed, nil
}

// SetStateElement writes one value. Paths owned by a widget go through the
// widget first and store its normalized value; other paths are stored as is.
func (m *Manager) SetStateElement(path string, value any) error {
	if err := m.ready(); err != nil {
		return err
	}
	parsed, err := parseStatePath(path)
	if err != nil {
		return err
	}
	slot, owned := m.slots[parsed.String()]
	if !owned {
		if err := m.store.Set(parsed, statestore.Clone(value)); err != nil {
			return err
		}
		m.propertiesChanged = true
		return nil
	}

	m.suppress++
	err = assignState(slot.widget, map[string]any{slot.stateID: value})
	m.suppress--
	if err != nil {
		return err
	}
	m.propertiesChanged = true
	return m.commitWidgetState(slot.widget)
}

// SetState replaces the store with newState and reapplies every stateful
// widget. Widgets fail independently: a rejected widget keeps its previous
// values, which are written back, while the others apply theirs. The
// returned error joins every StateError.
func (m *Manager) SetState(newState map[string]any) error {
	if err := m.ready(); err != nil {
		return err
	}
	if newState == nil {
		newState = map[string]any{}
	}
	m.store.Replace(newState)

	m.suppress++
	defer func() { m.suppress-- }()

	var failures []error
	for _, id := range m.order {
		w, ok := m.widgets[id].(widget.Stateful)
		if !ok {
			continue
		}
		values := map[string]any{}
		for _, stateID := range w.StateIdentifiers() {
			value, found, err := m.store.Get(m.slots[stateID].path)
			if err != nil {
				failures = append(failures, err)
				continue
			}
			if found {
				values[stateID] = value
			}
		}
		if len(values) > 0 {
			if err := assignState(w, values); err != nil {
				m.logger.Debug("state rejected", "widget", id, "error", err)
				failures = append(failures, err)
			}
		}
		if err := m.commitWidgetState(w); err != nil {
			failures = append(failures, err)
		}
	}
	m.propertiesChanged = true
	m.emit(activity.StateReplaced(m.id))
	return errors.Join(failures...)
}

// SetEnabled enables or disables every registered widget, nested ones
// included.
func (m *Manager) SetEnabled(enabled bool) {
	for _, id := range m.order {
		m.widgets[id].SetEnabled(enabled)
	}
	m.propertiesChanged = true
}

// MutableProperties returns a snapshot of every widget's mutable properties.
func (m *Manager) MutableProperties() Properties {
	out := make(Properties, len(m.widgets))
	for _, id := range m.order {
		out[id] = statestore.Clone(m.widgets[id].MutableProperties())
	}
	return out
}

// MutablePropertiesOf returns the mutable properties of one widget.
func (m *Manager) MutablePropertiesOf(identifier string) (map[string]any, error) {
	w, ok := m.widgets[identifier]
	if !ok {
		return nil, errs.Property(identifier, "", nil, "unknown widget")
	}
	return statestore.Clone(w.MutableProperties()), nil
}

// SetMutableProperties applies properties widget by widget in identifier
// order. Each widget's batch stops at its first error; other widgets still
// apply theirs. Stateful widgets have their state recommitted to the store,
// which covers the "values" property.
func (m *Manager) SetMutableProperties(properties Properties) error {
	if err := m.ready(); err != nil {
		return err
	}
	return m.setMutableProperties(properties)
}

func (m *Manager) setMutableProperties(properties Properties) error {
	if len(properties) == 0 {
		return nil
	}
	m.suppress++
	defer func() { m.suppress-- }()

	var failures []error
	for _, id := range coerce.SortedKeys(properties) {
		w, ok := m.widgets[id]
		if !ok {
			failures = append(failures, errs.Property(id, "", nil, "unknown widget"))
			continue
		}
		props := properties[id]
		if err := w.SetMutableProperties(props); err != nil {
			failures = append(failures, err)
		}
		if stateful, ok := w.(widget.Stateful); ok {
			if err := m.commitWidgetState(stateful); err != nil {
				failures = append(failures, err)
			}
		}
		m.emit(activity.PropertiesChanged(id, props))
	}
	m.propertiesChanged = true
	return errors.Join(failures...)
}

// Describe lists the leaves of the store with their Go types.
func (m *Manager) Describe() []statestore.FieldDescriptor {
	return m.store.Describe()
}

// LastSideEffectTrace returns the record of the most recent side-effects
// pass, if any ran.
func (m *Manager) LastSideEffectTrace() (SideEffectTrace, bool) {
	if m.lastTrace == nil {
		return SideEffectTrace{}, false
	}
	return m.lastTrace.clone(), true
}

// accepting reports whether listener events should be processed.
func (m *Manager) accepting() bool {
	return m.phase == PhaseReady && m.suppress == 0
}

func (m *Manager) handleStateChanged(identifier, stateID string, value any) {
	if !m.accepting() {
		m.logger.Debug("ignoring state change", "widget", identifier, "state", stateID, "phase", m.phase.String())
		return
	}
	slot, ok := m.slots[stateID]
	if !ok {
		m.logger.Warn("state change for unregistered state identifier", "widget", identifier, "state", stateID)
		return
	}
	if err := m.commitInput(identifier, slot, value); err != nil {
		return
	}

	m.emit(activity.StateChanged(identifier, stateID, value))

	m.runSideEffects(identifier, true)
	m.host.OnStateElementChanged(stateID, value)
}

// commitInput writes a user-driven value to the store. A failed write means
// the caller reshaped the state map under the widget; the change is logged
// and traced but not propagated, since the store no longer holds it.
func (m *Manager) commitInput(identifier string, slot stateSlot, value any) error {
	err := m.store.Set(slot.path, statestore.Clone(value))
	if err == nil {
		return nil
	}
	_, span := m.tracer.Start(context.Background(), "megawidget.commit_state",
		trace.WithAttributes(
			attribute.String("megawidget.manager", m.id),
			attribute.String("megawidget.widget", identifier),
			attribute.String("megawidget.state", slot.stateID),
		))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()
	m.logger.Error("state commit failed", "widget", identifier, "state", slot.stateID, "error", err)
	return err
}

func (m *Manager) handleInvoked(identifier string, extra any) {
	if !m.accepting() {
		m.logger.Debug("ignoring invocation", "widget", identifier, "phase", m.phase.String())
		return
	}

	m.emit(activity.CommandInvoked(identifier, extra))

	m.runSideEffects(identifier, false)
	m.host.OnCommand(identifier, extra)
}

// runSideEffects calls the applier once and applies its result. Errors are
// routed to the host rather than returned.
func (m *Manager) runSideEffects(trigger string, stateChange bool) {
	if m.cfg.applier == nil {
		return
	}
	significant := stateChange || m.propertiesChanged
	m.propertiesChanged = false

	_, span := m.tracer.Start(context.Background(), "megawidget.side_effects",
		trace.WithAttributes(
			attribute.String("megawidget.manager", m.id),
			attribute.String("megawidget.trigger", trigger),
			attribute.Bool("megawidget.significant", significant),
		))
	defer span.End()

	record := &SideEffectTrace{Trigger: trigger, Significant: significant, OccurredAt: time.Now()}
	defer func() { m.lastTrace = record }()

	updates, err := m.cfg.applier.Apply(trigger, m.MutableProperties(), significant)
	if err != nil {
		m.reportSideEffectError(span, record, err)
	}
	if len(updates) == 0 {
		return
	}
	record.Applied = updates.Clone()
	m.logger.Debug("applying side effects", "trigger", trigger, "widgets", len(updates))
	if err := m.setMutableProperties(updates); err != nil {
		m.reportSideEffectError(span, record, err)
	}
}

func (m *Manager) reportSideEffectError(span trace.Span, record *SideEffectTrace, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	for _, single := range splitJoined(err) {
		record.Errors = append(record.Errors, single.Error())
		m.logger.Warn("side effect failed", "trigger", record.Trigger, "error", single)
		m.host.OnSideEffectPropertyError(single)
	}
}

// splitJoined unpacks errors.Join results so the host sees one error per
// failing widget.
func splitJoined(err error) []error {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	return joined.Unwrap()
}

// managerListener keeps the Listener methods off the Manager's public API.
type managerListener struct {
	m *Manager
}

func (l managerListener) StateChanged(identifier, stateID string, value any) {
	l.m.handleStateChanged(identifier, stateID, value)
}

func (l managerListener) Invoked(identifier string, extra any) {
	l.m.handleInvoked(identifier, extra)
}
