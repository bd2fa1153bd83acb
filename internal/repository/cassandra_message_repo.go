package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
)

// CassandraConfig holds Cassandra cluster settings.
type CassandraConfig struct {
	Hosts          []string      `mapstructure:"hosts"`
	Keyspace       string        `mapstructure:"keyspace"`
	Consistency    string        `mapstructure:"consistency"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// CassandraMessageStore implements MessageStore on a Cassandra table
// partitioned by the canonical conversation pair.
type CassandraMessageStore struct {
	session *gocql.Session
}

// NewCassandraMessageStore connects to the cluster.
func NewCassandraMessageStore(cfg CassandraConfig) (*CassandraMessageStore, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.Timeout = cfg.Timeout

	switch cfg.Consistency {
	case "LOCAL_ONE":
		cluster.Consistency = gocql.LocalOne
	case "LOCAL_QUORUM":
		cluster.Consistency = gocql.LocalQuorum
	case "ONE":
		cluster.Consistency = gocql.One
	case "QUORUM":
		cluster.Consistency = gocql.Quorum
	default:
		cluster.Consistency = gocql.LocalOne
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create cassandra session: %w", err)
	}

	return &CassandraMessageStore{session: session}, nil
}

// ListConversation returns the full transcript of the pair, ascending by
// (created_at, id). Clustering orders rows by created_at; the id tiebreak
// for identical timestamps is applied after the scan.
func (r *CassandraMessageStore) ListConversation(ctx context.Context, key domain.ConversationKey) ([]domain.Message, error) {
	query := `SELECT id, sender_id, recipient_id, body, created_at, read
			  FROM messages_by_conversation
			  WHERE party_a = ? AND party_b = ?
			  ORDER BY created_at ASC`

	iter := r.session.Query(query, string(key.A), string(key.B)).WithContext(ctx).Iter()

	var messages []domain.Message
	var msg domain.Message
	var sender, recipient string

	for iter.Scan(&msg.ID, &sender, &recipient, &msg.Body, &msg.CreatedAt, &msg.Read) {
		msg.SenderID = domain.Identity(sender)
		msg.RecipientID = domain.Identity(recipient)
		messages = append(messages, msg)
		msg = domain.Message{}
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Before(messages[j])
	})

	return messages, nil
}

// Insert appends a new message with a server-assigned id.
func (r *CassandraMessageStore) Insert(ctx context.Context, sender, recipient domain.Identity, body string) (*domain.Message, error) {
	key := domain.NewConversationKey(sender, recipient)
	msg := domain.Message{
		ID:          uuid.New().String(),
		SenderID:    sender,
		RecipientID: recipient,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}

	query := `INSERT INTO messages_by_conversation
			  (party_a, party_b, id, sender_id, recipient_id, body, created_at, read)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	if err := r.session.Query(query,
		string(key.A), string(key.B),
		msg.ID, string(msg.SenderID), string(msg.RecipientID),
		msg.Body, msg.CreatedAt, msg.Read,
	).WithContext(ctx).Exec(); err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	return &msg, nil
}

// Close closes the Cassandra session.
func (r *CassandraMessageStore) Close() error {
	r.session.Close()
	return nil
}
