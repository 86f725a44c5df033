package events

import (
	"context"

	"senser/internal/domain"
)

// TypeReadingRecorded event type of domain.ReadingRecorded
const TypeReadingRecorded = "reading.recorded"

// Publisher fans recorded readings out to downstream consumers
type Publisher interface {
	PublishReadingRecorded(ctx context.Context, event *domain.ReadingRecorded) error
	Close() error
}

// Envelope wire shape shared by every backend
type Envelope struct {
	Type  string                  `json:"type"`
	Event *domain.ReadingRecorded `json:"event"`
}

func newEnvelope(event *domain.ReadingRecorded) Envelope {
	return Envelope{Type: TypeReadingRecorded, Event: event}
}

// NoopPublisher used when EVENTS_BACKEND=none
type NoopPublisher struct{}

func (NoopPublisher) PublishReadingRecorded(context.Context, *domain.ReadingRecorded) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
