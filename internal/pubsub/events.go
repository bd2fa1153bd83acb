package pubsub

import (
	"time"

	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
)

// ChannelMessages is the single broad channel carrying every message
// event. There is no server-side per-conversation scoping; consumers
// must filter for their own pair.
const ChannelMessages = "messages:events"

// Event types on ChannelMessages.
const (
	EventMessageCreated = "message.created"
)

// MessagePayload is the wire form of a message event.
type MessagePayload struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
}

// NewMessagePayload builds the payload for a stored message.
func NewMessagePayload(m domain.Message) MessagePayload {
	return MessagePayload{
		ID:          m.ID,
		SenderID:    string(m.SenderID),
		RecipientID: string(m.RecipientID),
		Body:        m.Body,
		CreatedAt:   m.CreatedAt,
		Read:        m.Read,
	}
}

// Valid reports whether the payload carries the fields every consumer
// needs. Events failing this check are dropped by consumers.
func (p MessagePayload) Valid() bool {
	return p.ID != "" && p.SenderID != "" && p.RecipientID != "" && !p.CreatedAt.IsZero()
}

// Message converts the payload back into the domain type.
func (p MessagePayload) Message() domain.Message {
	return domain.Message{
		ID:          p.ID,
		SenderID:    domain.Identity(p.SenderID),
		RecipientID: domain.Identity(p.RecipientID),
		Body:        p.Body,
		CreatedAt:   p.CreatedAt,
		Read:        p.Read,
	}
}
