package repository

import (
	"context"

	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
	"github.com/JLSed/ShoeFreak-Admin/internal/pubsub"
	"github.com/JLSed/ShoeFreak-Admin/pkg/log"
)

// EchoingMessageStore wraps a MessageStore and publishes a
// message.created event after every successful insert. The live feed is
// the authoritative delivery path: senders see their own message when it
// echoes back through the bus, not through an optimistic local append.
type EchoingMessageStore struct {
	MessageStore
	publisher pubsub.Publisher
}

// NewEchoingMessageStore wraps store so inserts echo onto the bus.
func NewEchoingMessageStore(store MessageStore, publisher pubsub.Publisher) *EchoingMessageStore {
	return &EchoingMessageStore{MessageStore: store, publisher: publisher}
}

// Insert stores the message, then publishes it. A failed publish is
// logged but does not fail the insert: the row is durable and a backfill
// refresh will surface it.
func (s *EchoingMessageStore) Insert(ctx context.Context, sender, recipient domain.Identity, body string) (*domain.Message, error) {
	msg, err := s.MessageStore.Insert(ctx, sender, recipient, body)
	if err != nil {
		return nil, err
	}

	event, err := pubsub.NewEvent(pubsub.EventMessageCreated, pubsub.NewMessagePayload(*msg))
	if err == nil {
		err = s.publisher.Publish(ctx, pubsub.ChannelMessages, event)
	}
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to publish message event")
	}

	return msg, nil
}
