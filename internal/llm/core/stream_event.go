package core

import "context"

// SendEvent delivers event unless ctx is done first.
func SendEvent(ctx context.Context, events chan<- Event, event Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case events <- event:
		return nil
	}
}

// SendTerminalEvent offers event without blocking. Callers must give the
// channel at least one slot of buffer so an abandoned consumer cannot wedge
// the producing goroutine.
func SendTerminalEvent(events chan<- Event, event Event) {
	select {
	case events <- event:
	default:
	}
}
