package conversation

import (
	"sort"

	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
)

// Transcript is the in-memory, query-time view of one conversation:
// unique message ids, ordered ascending by (created_at, id). The order
// holds no matter how backfill and live delivery interleave.
type Transcript struct {
	entries []domain.Message
	seen    map[string]struct{}
}

// NewTranscript creates an empty transcript. Zero prior messages is a
// valid initial state.
func NewTranscript() *Transcript {
	return &Transcript{seen: make(map[string]struct{})}
}

// Insert merges the message, keeping order. Returns false when the id
// was already present (idempotent merge).
func (t *Transcript) Insert(msg domain.Message) bool {
	if _, dup := t.seen[msg.ID]; dup {
		return false
	}
	t.seen[msg.ID] = struct{}{}

	i := sort.Search(len(t.entries), func(i int) bool {
		return msg.Before(t.entries[i])
	})
	t.entries = append(t.entries, domain.Message{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = msg
	return true
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Messages returns a copy of the ordered transcript.
func (t *Transcript) Messages() []domain.Message {
	out := make([]domain.Message, len(t.entries))
	copy(out, t.entries)
	return out
}
