package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
)

func msgAt(id string, at time.Time) domain.Message {
	return domain.Message{
		ID:          id,
		SenderID:    "admin-1",
		RecipientID: "seller-1",
		Body:        "m-" + id,
		CreatedAt:   at,
	}
}

func TestTranscriptOrdersByCreatedAtRegardlessOfArrival(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTranscript()

	assert.True(t, tr.Insert(msgAt("3", t0.Add(2*time.Second))))
	assert.True(t, tr.Insert(msgAt("1", t0)))
	assert.True(t, tr.Insert(msgAt("2", t0.Add(time.Second))))

	got := tr.Messages()
	assert.Equal(t, []string{"1", "2", "3"}, ids(got))
}

func TestTranscriptDropsDuplicateIDs(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTranscript()

	assert.True(t, tr.Insert(msgAt("1", t0)))
	assert.False(t, tr.Insert(msgAt("1", t0)))
	// Even a duplicate id with a different timestamp stays out.
	assert.False(t, tr.Insert(msgAt("1", t0.Add(time.Minute))))

	assert.Equal(t, 1, tr.Len())
}

func TestTranscriptBreaksTimestampTiesByID(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTranscript()

	tr.Insert(msgAt("b", t0))
	tr.Insert(msgAt("a", t0))
	tr.Insert(msgAt("c", t0))

	assert.Equal(t, []string{"a", "b", "c"}, ids(tr.Messages()))
}

func TestTranscriptMessagesReturnsCopy(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	tr := NewTranscript()
	tr.Insert(msgAt("1", t0))

	snapshot := tr.Messages()
	snapshot[0].ID = "mutated"

	assert.Equal(t, []string{"1"}, ids(tr.Messages()))
}

func TestEmptyTranscriptIsValid(t *testing.T) {
	tr := NewTranscript()
	assert.Zero(t, tr.Len())
	assert.Empty(t, tr.Messages())
}

func ids(messages []domain.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.ID)
	}
	return out
}
