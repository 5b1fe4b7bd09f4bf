package widget

import (
	"io"
	"log/slog"

	"github.com/goliatone/go-megawidgets/pkg/spec"
)

// ParentKind names a kind of parent container. Builders are registered per
// parent kind and resolved against a parent's lineage.
type ParentKind string

const (
	// ParentRoot is the top-level area supplied by the host.
	ParentRoot ParentKind = "root"
	// ParentGroup is the child area of a group container.
	ParentGroup ParentKind = "group"
)

// Parent is the runtime object a widget is built into. Lineage lists the
// parent's kind followed by its ancestors, most specific first.
type Parent interface {
	Lineage() []ParentKind
}

// Root is the default top-level parent.
type Root struct{}

func (Root) Lineage() []ParentKind {
	return []ParentKind{ParentRoot}
}

// CreationParams carries builder hints that are not part of the specifier.
type CreationParams map[string]any

// Builder builds a widget for a specifier inside parent. Containers use the
// builder found in their Context to create their children.
type Builder interface {
	BuildWidget(ctx Context, s spec.Specifier, parent Parent, require Capability, params CreationParams) (Widget, error)
}

// Context is passed explicitly to every widget constructor.
type Context struct {
	Listener Listener
	Builder  Builder
	Logger   *slog.Logger
}

// LoggerOrDiscard returns the configured logger or one that drops output.
func (c Context) LoggerOrDiscard() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (c Context) listener() Listener {
	if c.Listener != nil {
		return c.Listener
	}
	return ListenerFuncs{}
}
