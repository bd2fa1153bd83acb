package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// Event represents a message published to the event bus.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// UnmarshalPayload unmarshals the event payload into the given struct.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Publisher publishes events to the event bus.
type Publisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
}

// Subscription is one consumer's handle on a channel. The transport
// connection may be shared across subscriptions; closing a handle only
// tears down that handle. Close is safe to call more than once.
type Subscription interface {
	Events() <-chan *Event
	Close() error
}

// Subscriber opens subscriptions on the event bus.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// Bus combines Publisher and Subscriber.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}
