package activity

// Verbs emitted by the manager.
const (
	VerbStateChanged      = "megawidget.state.changed"
	VerbStateReplaced     = "megawidget.state.replaced"
	VerbCommandInvoked    = "megawidget.command.invoked"
	VerbPropertiesChanged = "megawidget.properties.changed"
)

// Object types emitted by the manager.
const (
	ObjectWidget  = "megawidget"
	ObjectManager = "megawidget.manager"
)

// StateChanged records a user edit of stateID on widget identifier.
func StateChanged(identifier, stateID string, value any) Event {
	return Event{
		Verb:       VerbStateChanged,
		ObjectType: ObjectWidget,
		ObjectID:   identifier,
		Metadata:   map[string]any{"state_id": stateID, "value": value},
	}
}

// CommandInvoked records an invocation; extra is kept only when non-nil.
func CommandInvoked(identifier string, extra any) Event {
	event := Event{Verb: VerbCommandInvoked, ObjectType: ObjectWidget, ObjectID: identifier}
	if extra != nil {
		event.Metadata = map[string]any{"extra": extra}
	}
	return event
}

// PropertiesChanged records a programmatic mutable property update.
func PropertiesChanged(identifier string, properties map[string]any) Event {
	event := Event{Verb: VerbPropertiesChanged, ObjectType: ObjectWidget, ObjectID: identifier}
	if len(properties) > 0 {
		event.Metadata = map[string]any{"properties": cloneMap(properties)}
	}
	return event
}

// StateReplaced records a bulk SetState on the manager managerID.
func StateReplaced(managerID string) Event {
	return Event{Verb: VerbStateReplaced, ObjectType: ObjectManager, ObjectID: managerID}
}
