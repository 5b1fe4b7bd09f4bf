package megawidget

// Host receives the events a manager surfaces to the embedding application.
// Callbacks run synchronously after the side-effects pass of the event.
type Host interface {
	// OnCommand reports an invocation of a command widget.
	OnCommand(identifier string, extra any)
	// OnStateElementChanged reports a user-driven change of one state
	// identifier after it was committed to the store. Changes the store
	// refuses are logged at error level and not reported.
	OnStateElementChanged(identifier string, value any)
	// OnSideEffectPropertyError reports failures of the side-effects pass
	// only.
	OnSideEffectPropertyError(err error)
}

// HostFuncs adapts plain functions to Host. Nil entries are skipped.
type HostFuncs struct {
	Command             func(identifier string, extra any)
	StateElementChanged func(identifier string, value any)
	PropertyError       func(err error)
}

func (h HostFuncs) OnCommand(identifier string, extra any) {
	if h.Command != nil {
		h.Command(identifier, extra)
	}
}

func (h HostFuncs) OnStateElementChanged(identifier string, value any) {
	if h.StateElementChanged != nil {
		h.StateElementChanged(identifier, value)
	}
}

func (h HostFuncs) OnSideEffectPropertyError(err error) {
	if h.PropertyError != nil {
		h.PropertyError(err)
	}
}
