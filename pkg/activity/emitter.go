package activity

import (
	"context"
	"strings"
)

// DefaultChannel is the channel of events emitted without one.
const DefaultChannel = "megawidgets"

// Stamp holds the manager-wide fields copied into events that leave them
// blank.
type Stamp struct {
	ActorID  string
	UserID   string
	TenantID string
	Channel  string
}

func (s Stamp) apply(event Event) Event {
	fill := func(field *string, value string) {
		if strings.TrimSpace(*field) == "" {
			*field = value
		}
	}
	fill(&event.ActorID, s.ActorID)
	fill(&event.UserID, s.UserID)
	fill(&event.TenantID, s.TenantID)
	fill(&event.Channel, s.Channel)
	return event
}

// Emitter stamps events and forwards them to its hooks.
type Emitter struct {
	hooks Hooks
	stamp Stamp
}

// NewEmitter builds an emitter over a copy of hooks. A blank stamp channel
// becomes DefaultChannel.
func NewEmitter(hooks Hooks, stamp Stamp) *Emitter {
	stamp.Channel = strings.TrimSpace(stamp.Channel)
	if stamp.Channel == "" {
		stamp.Channel = DefaultChannel
	}
	return &Emitter{hooks: CloneHooks(hooks), stamp: stamp}
}

// Enabled reports whether any hook would receive an event.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Emit stamps event and notifies the hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	return e.hooks.Notify(ctx, e.stamp.apply(event))
}
