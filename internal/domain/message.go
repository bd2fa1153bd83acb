package domain

import "time"

// ConversationKey identifies a two-party conversation as an unordered
// pair of identities. Construct it with NewConversationKey so that the
// same two participants always produce the same key regardless of order.
type ConversationKey struct {
	A Identity
	B Identity
}

// NewConversationKey builds a canonical key for the pair. The smaller
// identity (byte order) always lands in A.
func NewConversationKey(x, y Identity) ConversationKey {
	if y < x {
		x, y = y, x
	}
	return ConversationKey{A: x, B: y}
}

// Matches reports whether a message between sender and recipient belongs
// to this conversation, in either orientation.
func (k ConversationKey) Matches(sender, recipient Identity) bool {
	return NewConversationKey(sender, recipient) == k
}

// Message is a single durable chat message. Immutable once created
// except for the read flag.
type Message struct {
	ID          string    `json:"id"`
	SenderID    Identity  `json:"sender_id"`
	RecipientID Identity  `json:"recipient_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
	Read        bool      `json:"read"`
}

// Key returns the conversation key of the message.
func (m Message) Key() ConversationKey {
	return NewConversationKey(m.SenderID, m.RecipientID)
}

// Mine reports whether the message was written by the given viewer.
// Attribution is always a sender/viewer comparison, never a role label.
func (m Message) Mine(viewer Identity) bool {
	return m.SenderID == viewer
}

// Before reports whether m sorts before other in transcript order,
// ascending by (created_at, id). The id tiebreak keeps the order stable
// across merges when timestamps collide.
func (m Message) Before(other Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
