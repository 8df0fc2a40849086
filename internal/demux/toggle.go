package demux

import "sync/atomic"

// Toggle is the internal-channel visibility flag. One goroutine flips it from
// keystrokes while another reads it for every streamed fragment.
type Toggle struct {
	on atomic.Bool
}

// NewToggle returns a flag with the given initial state.
func NewToggle(on bool) *Toggle {
	t := &Toggle{}
	t.on.Store(on)
	return t
}

// On reports the current state. A nil toggle is off.
func (t *Toggle) On() bool {
	if t == nil {
		return false
	}
	return t.on.Load()
}

// Set stores a new state.
func (t *Toggle) Set(on bool) {
	t.on.Store(on)
}

// Flip inverts the flag and returns the new state.
func (t *Toggle) Flip() bool {
	for {
		old := t.on.Load()
		if t.on.CompareAndSwap(old, !old) {
			return !old
		}
	}
}
