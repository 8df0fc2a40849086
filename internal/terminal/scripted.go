package terminal

import (
	"io"
	"sync"
)

// Scripted is a KeySource for tests and non-terminal use. Press delivers a
// key to the current subscriber, if any.
type Scripted struct {
	mu         sync.Mutex
	onKey      func(byte)
	subscribes int
	releases   int
	// OnSubscribe, when set, runs right after each subscription starts.
	OnSubscribe func(s *Scripted)
}

func (s *Scripted) Subscribe(onKey func(key byte)) (Subscription, error) {
	s.mu.Lock()
	s.onKey = onKey
	s.subscribes++
	hook := s.OnSubscribe
	s.mu.Unlock()
	if hook != nil {
		hook(s)
	}
	return &scriptedSubscription{parent: s}, nil
}

// Press delivers key synchronously. It reports false when nothing is
// subscribed.
func (s *Scripted) Press(key byte) bool {
	s.mu.Lock()
	onKey := s.onKey
	s.mu.Unlock()
	if onKey == nil {
		return false
	}
	onKey(key)
	return true
}

// Active reports whether a subscription is live.
func (s *Scripted) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onKey != nil
}

// Counts returns how many subscriptions were opened and released.
func (s *Scripted) Counts() (subscribes, releases int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribes, s.releases
}

type scriptedSubscription struct {
	parent *Scripted
	once   sync.Once
}

func (*scriptedSubscription) Output(w io.Writer) io.Writer { return w }

func (s *scriptedSubscription) Release() error {
	s.once.Do(func() {
		s.parent.mu.Lock()
		s.parent.onKey = nil
		s.parent.releases++
		s.parent.mu.Unlock()
	})
	return nil
}
