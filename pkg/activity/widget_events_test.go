package activity

import (
	"context"
	"testing"
)

func TestWidgetEventBuilders(t *testing.T) {
	props := map[string]any{"enable": false}
	cases := []struct {
		name       string
		event      Event
		verb       string
		objectType string
		objectID   string
		metadata   map[string]any
	}{
		{
			name:       "state_changed",
			event:      StateChanged("low:high", "high", 9),
			verb:       VerbStateChanged,
			objectType: ObjectWidget,
			objectID:   "low:high",
			metadata:   map[string]any{"state_id": "high", "value": 9},
		},
		{
			name:       "command_without_extra",
			event:      CommandInvoked("apply", nil),
			verb:       VerbCommandInvoked,
			objectType: ObjectWidget,
			objectID:   "apply",
		},
		{
			name:       "command_with_extra",
			event:      CommandInvoked("apply", "go"),
			verb:       VerbCommandInvoked,
			objectType: ObjectWidget,
			objectID:   "apply",
			metadata:   map[string]any{"extra": "go"},
		},
		{
			name:       "properties_changed",
			event:      PropertiesChanged("count", props),
			verb:       VerbPropertiesChanged,
			objectType: ObjectWidget,
			objectID:   "count",
			metadata:   map[string]any{"properties": props},
		},
		{
			name:       "state_replaced",
			event:      StateReplaced("mgr"),
			verb:       VerbStateReplaced,
			objectType: ObjectManager,
			objectID:   "mgr",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.event.Verb != tc.verb || tc.event.ObjectType != tc.objectType || tc.event.ObjectID != tc.objectID {
				t.Fatalf("unexpected event %+v", tc.event)
			}
			if !tc.event.Complete() {
				t.Fatalf("expected builder events to be complete")
			}
			if len(tc.event.Metadata) != len(tc.metadata) {
				t.Fatalf("expected metadata %v, got %v", tc.metadata, tc.event.Metadata)
			}
			for key, want := range tc.metadata {
				if _, isMap := want.(map[string]any); isMap {
					continue
				}
				if tc.event.Metadata[key] != want {
					t.Fatalf("%s: expected %v, got %v", key, want, tc.event.Metadata[key])
				}
			}
		})
	}

	got := PropertiesChanged("count", props).Metadata["properties"].(map[string]any)
	got["enable"] = true
	if props["enable"] != false {
		t.Fatalf("expected builder to copy the properties")
	}
}

func TestEmitterStampsManagerFields(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{nil, capture}, Stamp{ActorID: "mgr", UserID: "user-1", TenantID: "tenant-1"})

	if err := emitter.Emit(context.Background(), StateChanged("notify", "notify", true)); err != nil {
		t.Fatalf("emit: %v", err)
	}
	explicit := CommandInvoked("save", nil)
	explicit.ActorID = "someone-else"
	explicit.Channel = "custom"
	if err := emitter.Emit(context.Background(), explicit); err != nil {
		t.Fatalf("emit: %v", err)
	}

	first, second := capture.Events[0], capture.Events[1]
	if first.ActorID != "mgr" || first.UserID != "user-1" || first.TenantID != "tenant-1" || first.Channel != DefaultChannel {
		t.Fatalf("expected stamped fields, got %+v", first)
	}
	if second.ActorID != "someone-else" || second.Channel != "custom" || second.UserID != "user-1" {
		t.Fatalf("expected explicit fields to win, got %+v", second)
	}
}
