package notify

import (
	"sync"
	"time"
)

type EventType string

const (
	SessionStarted        EventType = "session-started"
	SessionEnded          EventType = "session-ended"
	DistractionDetected   EventType = "distraction-detected"
	SettingsUpdated       EventType = "settings-updated"
	TrackingStatusChanged EventType = "tracking-status-changed"
)

// Event is a fire-and-forget notification to the outer UI layer.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Notifier is an outbound event channel with at-most-once delivery. Publish
// never blocks: when the subscriber is slow the event is dropped.
type Notifier struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func New(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = 64
	}
	return &Notifier{ch: make(chan Event, buffer)}
}

// Publish delivers an event without blocking the caller.
func (n *Notifier) Publish(t EventType, payload map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	event := Event{Type: t, Timestamp: time.Now().UnixMilli(), Payload: payload}
	select {
	case n.ch <- event:
	default:
	}
}

// Events returns the subscription channel.
func (n *Notifier) Events() <-chan Event {
	return n.ch
}

// Close stops delivery. Publish calls after Close are dropped.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.closed {
		n.closed = true
		close(n.ch)
	}
}
