package monitor

import (
	"sync"
	"time"

	"live-watcher/internal/domain"
)

// EventType classifies notifications emitted by monitor loops.
type EventType string

const (
	// EventTypeCheck is emitted on every tick with the observed status.
	EventTypeCheck EventType = "check"
	// EventTypeStatus is a LIVE/OFFLINE transition.
	EventTypeStatus EventType = "status"
	// EventTypeUnknown is an advisory probe failure.
	EventTypeUnknown          EventType = "unknown"
	EventTypeRecordingStarted EventType = "recording_started"
	EventTypeRecordingStopped EventType = "recording_stopped"
	EventTypeRecordingFailed  EventType = "recording_failed"
	// EventTypeRecordingEnded means the capture process exited on its own.
	EventTypeRecordingEnded EventType = "recording_ended"
	EventTypeInfo           EventType = "info"
)

// Event is a sequenced notification consumed by terminal subscribers.
type Event struct {
	Seq        int64             `json:"seq"`
	Timestamp  time.Time         `json:"timestamp"`
	Username   string            `json:"username"`
	Type       EventType         `json:"type"`
	Status     domain.LiveStatus `json:"status,omitempty"`
	Message    string            `json:"message,omitempty"`
	SessionID  string            `json:"sessionId,omitempty"`
	OutputPath string            `json:"outputPath,omitempty"`
	Backend    string            `json:"backend,omitempty"`
	// Duration is how long the capture ran, set on stop and end events.
	Duration time.Duration `json:"duration,omitempty"`
}

// EventBus stores recent events, fans them out to subscribers and provides
// incremental reads.
type EventBus struct {
	mu          sync.RWMutex
	nextSeq     int64
	maxEvents   int
	events      []Event
	nextSub     int
	subscribers map[int]func(Event)
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents:   maxEvents,
		events:      make([]Event, 0, maxEvents),
		subscribers: make(map[int]func(Event)),
	}
}

// Publish appends one event, assigns sequence and timestamp, and delivers it
// to every subscriber outside the lock.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	subscribers := make([]func(Event), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subscribers = append(subscribers, fn)
	}
	b.mu.Unlock()

	for _, fn := range subscribers {
		fn(event)
	}
	return event
}

// Subscribe registers fn for every future event. The returned func removes it.
func (b *EventBus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextSub
	b.nextSub++
	b.subscribers[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, id)
	}
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
