package core

import (
	"context"
	"errors"
	"testing"
)

func TestSendEventDelivered(t *testing.T) {
	t.Parallel()

	events := make(chan Event, 1)
	if err := SendEvent(context.Background(), events, Event{Type: EventStart}); err != nil {
		t.Fatalf("SendEvent() error = %v", err)
	}
	if got := <-events; got.Type != EventStart {
		t.Fatalf("event type = %q, want %q", got.Type, EventStart)
	}
}

func TestSendEventCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SendEvent(ctx, make(chan Event), Event{Type: EventStart})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("SendEvent() error = %v, want context canceled", err)
	}
}

func TestSendTerminalEventDropsWhenFull(t *testing.T) {
	t.Parallel()

	events := make(chan Event, 1)
	SendTerminalEvent(events, Event{Type: EventDone})
	SendTerminalEvent(events, Event{Type: EventError})

	if got := <-events; got.Type != EventDone {
		t.Fatalf("event type = %q, want %q", got.Type, EventDone)
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected second event %#v", ev)
	default:
	}
}

func TestEventTerminal(t *testing.T) {
	t.Parallel()

	cases := map[EventType]bool{
		EventStart:     false,
		EventTextDelta: false,
		EventDone:      true,
		EventError:     true,
	}
	for typ, want := range cases {
		if got := (Event{Type: typ}).Terminal(); got != want {
			t.Fatalf("Event{%s}.Terminal() = %v, want %v", typ, got, want)
		}
	}
}
