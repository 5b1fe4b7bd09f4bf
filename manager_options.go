package megawidget

import (
	"io"
	"log/slog"

	"github.com/goliatone/go-megawidgets/pkg/activity"
	"github.com/goliatone/go-megawidgets/pkg/registry"
	"github.com/goliatone/go-megawidgets/pkg/statestore"
	"github.com/goliatone/go-megawidgets/pkg/widget"
	"github.com/goliatone/go-megawidgets/pkg/widgets"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/goliatone/go-megawidgets"

// Option configures a Manager.
type Option func(*managerConfig)

type managerConfig struct {
	id              string
	logger          *slog.Logger
	registry        *registry.Registry
	applier         SideEffectsApplier
	activityHooks   activity.Hooks
	activityChannel string
	userID          string
	tenantID        string
	tracer          trace.Tracer
	parent          widget.Parent
	creationParams  widget.CreationParams
	stateDefaults   map[string]any
}

func applyOptions(opts []Option) managerConfig {
	cfg := managerConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.registry == nil {
		cfg.registry = widgets.NewRegistry(registry.WithLogger(cfg.logger))
	}
	if cfg.tracer == nil {
		cfg.tracer = noop.NewTracerProvider().Tracer(instrumentationName)
	}
	if cfg.parent == nil {
		cfg.parent = widget.Root{}
	}
	return cfg
}

// WithID fixes the manager id reported in activity events. A random UUID is
// used otherwise.
func WithID(id string) Option {
	return func(cfg *managerConfig) {
		cfg.id = id
	}
}

// WithLogger sets the structured logger shared by the manager and its widgets.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *managerConfig) {
		cfg.logger = logger
	}
}

// WithRegistry replaces the built-in widget kinds.
func WithRegistry(r *registry.Registry) Option {
	return func(cfg *managerConfig) {
		cfg.registry = r
	}
}

// WithSideEffectsApplier installs the applier run after every state change
// and invocation.
func WithSideEffectsApplier(applier SideEffectsApplier) Option {
	return func(cfg *managerConfig) {
		cfg.applier = applier
	}
}

// WithActivityHooks attaches activity hooks. Hooks are cloned and nil entries
// dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := activity.CloneHooks(hooks)
	return func(cfg *managerConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides activity.DefaultChannel.
func WithActivityChannel(channel string) Option {
	return func(cfg *managerConfig) {
		cfg.activityChannel = channel
	}
}

// WithActor tags activity events with the user and tenant driving the form.
func WithActor(userID, tenantID string) Option {
	return func(cfg *managerConfig) {
		cfg.userID = userID
		cfg.tenantID = tenantID
	}
}

// WithTracer records construction and side-effect passes as spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(cfg *managerConfig) {
		cfg.tracer = tracer
	}
}

// WithParent sets the parent top-level widgets are built into.
func WithParent(parent widget.Parent) Option {
	return func(cfg *managerConfig) {
		cfg.parent = parent
	}
}

// WithCreationParams passes builder hints to every widget builder.
func WithCreationParams(params widget.CreationParams) Option {
	return func(cfg *managerConfig) {
		cfg.creationParams = params
	}
}

// WithStateDefaults fills keys missing from the initial state before widgets
// are seeded. Values already present win.
func WithStateDefaults(defaults map[string]any) Option {
	cloned := statestore.Clone(defaults)
	return func(cfg *managerConfig) {
		cfg.stateDefaults = cloned
	}
}
