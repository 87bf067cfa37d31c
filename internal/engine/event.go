package engine

// EventWithArg is a multi-cast event with one argument.
type EventWithArg[T any] struct {
	listeners []func(T)
}

func (e *EventWithArg[T]) AddListener(callback func(T)) {
	if callback == nil {
		return
	}
	e.listeners = append(e.listeners, callback)
}

func (e *EventWithArg[T]) RemoveAllListeners() {
	e.listeners = nil
}

// InvokeEach calls every listener in isolation. A panic in one listener is
// recovered and handed to onPanic (dropped when onPanic is nil), and the
// remaining listeners still run.
func (e *EventWithArg[T]) InvokeEach(arg T, onPanic func(index int, recovered any)) {
	for i, listener := range e.listeners {
		func() {
			defer func() {
				if r := recover(); r != nil && onPanic != nil {
					onPanic(i, r)
				}
			}()
			listener(arg)
		}()
	}
}

func (e *EventWithArg[T]) GetListenerCount() int {
	return len(e.listeners)
}
