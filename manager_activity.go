package megawidget

import (
	"context"

	"github.com/goliatone/go-megawidgets/pkg/activity"
)

// emit forwards event to the activity hooks. Hook failures are logged only;
// they never affect the form.
func (m *Manager) emit(event activity.Event) {
	if !m.emitter.Enabled() {
		return
	}
	if err := m.emitter.Emit(context.Background(), event); err != nil {
		m.logger.Warn("activity hook failed", "verb", event.Verb, "object", event.ObjectID, "error", err)
	}
}

// ActivityHooks returns a copy of the configured hooks.
func (m *Manager) ActivityHooks() activity.Hooks {
	return activity.CloneHooks(m.cfg.activityHooks)
}
