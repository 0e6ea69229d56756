package jobs

import (
	"sync"
	"time"

	"screen-ocr/internal/domain"
)

// EventType classifies messages emitted for the UI.
type EventType string

const (
	EventTypeQueued EventType = "queued"
	EventTypeResult EventType = "result"
	EventTypeLang   EventType = "lang"
	EventTypeError  EventType = "error"
)

// Event is a sequenced payload consumed by UI subscribers.
type Event struct {
	Seq          int64               `json:"seq"`
	Timestamp    time.Time           `json:"timestamp"`
	JobID        string              `json:"jobId,omitempty"`
	Type         EventType           `json:"type"`
	ResultStatus domain.ResultStatus `json:"resultStatus,omitempty"`
	Text         string              `json:"text,omitempty"`
	Message      string              `json:"message,omitempty"`
	LangCode     string              `json:"langCode,omitempty"`
	OpStatus     *domain.OpStatus    `json:"opStatus,omitempty"`
	Network      bool                `json:"network,omitempty"`
}

// EventBus stores recent events and provides incremental reads.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		b.events = append([]Event(nil), b.events[len(b.events)-b.maxEvents:]...)
	}

	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Event
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
