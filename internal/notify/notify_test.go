package notify

import (
	"testing"
)

func TestPublishDelivers(t *testing.T) {
	n := New(4)
	n.Publish(SessionStarted, map[string]any{"title": "Editor"})

	select {
	case event := <-n.Events():
		if event.Type != SessionStarted {
			t.Errorf("event type = %q, want %q", event.Type, SessionStarted)
		}
		if event.Payload["title"] != "Editor" {
			t.Errorf("payload = %v", event.Payload)
		}
		if event.Timestamp == 0 {
			t.Error("event timestamp not set")
		}
	default:
		t.Fatal("event not delivered")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	n := New(2)
	// No subscriber is draining; overflow is dropped, not blocked on.
	for i := 0; i < 10; i++ {
		n.Publish(DistractionDetected, nil)
	}
	if got := len(n.ch); got != 2 {
		t.Errorf("buffered events = %d, want 2", got)
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	n := New(4)
	n.Close()
	n.Publish(SessionEnded, nil) // dropped, no panic
	n.Close()                    // idempotent

	if _, ok := <-n.Events(); ok {
		t.Error("channel must be closed")
	}
}
