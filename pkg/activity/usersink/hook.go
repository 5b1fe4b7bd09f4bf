// Package usersink forwards manager activity to a go-users ActivitySink.
package usersink

import (
	"context"
	"maps"
	"slices"

	"github.com/goliatone/go-megawidgets/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook is an activity.Hook writing records to Sink. When Verbs is non-empty
// only events with one of those verbs are forwarded.
type Hook struct {
	Sink  usertypes.ActivitySink
	Verbs []string
}

// Notify implements activity.Hook.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	record, ok := Record(event)
	if !ok {
		return nil
	}
	if len(h.Verbs) > 0 && !slices.Contains(h.Verbs, record.Verb) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, record)
}

// Record maps event onto an ActivityRecord. It reports false for incomplete
// events. IDs that are not UUIDs become uuid.Nil, and widget events repeat
// their identifier under Data["identifier"] since ObjectID is free text for
// the sink.
func Record(event activity.Event) (usertypes.ActivityRecord, bool) {
	event = activity.NormalizeEvent(event)
	if !event.Complete() {
		return usertypes.ActivityRecord{}, false
	}
	data := maps.Clone(event.Metadata)
	if event.ObjectType == activity.ObjectWidget {
		if data == nil {
			data = map[string]any{}
		}
		data["identifier"] = event.ObjectID
	}
	return usertypes.ActivityRecord{
		ActorID:    uuidOrNil(event.ActorID),
		UserID:     uuidOrNil(event.UserID),
		TenantID:   uuidOrNil(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}, true
}

func uuidOrNil(value string) uuid.UUID {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return id
}
