package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
)

// MessageModel is the messages table row.
type MessageModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	SenderID    string    `gorm:"column:sender_id;index:idx_messages_pair"`
	RecipientID string    `gorm:"column:recipient_id;index:idx_messages_pair"`
	Body        string    `gorm:"column:body"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	Read        bool      `gorm:"column:read"`
}

// TableName overrides the GORM default.
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts the row to the domain type.
func (m MessageModel) ToDomain() domain.Message {
	return domain.Message{
		ID:          m.ID,
		SenderID:    domain.Identity(m.SenderID),
		RecipientID: domain.Identity(m.RecipientID),
		Body:        m.Body,
		CreatedAt:   m.CreatedAt,
		Read:        m.Read,
	}
}

// GormMessageStore implements MessageStore using GORM.
type GormMessageStore struct {
	db *gorm.DB
}

// NewGormMessageStore creates a GORM-based message store.
func NewGormMessageStore(db *gorm.DB) *GormMessageStore {
	return &GormMessageStore{db: db}
}

// ListConversation returns the full transcript of the pair, ascending by
// (created_at, id).
func (r *GormMessageStore) ListConversation(ctx context.Context, key domain.ConversationKey) ([]domain.Message, error) {
	var rows []MessageModel
	result := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			string(key.A), string(key.B), string(key.B), string(key.A)).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", result.Error)
	}

	messages := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.ToDomain())
	}
	return messages, nil
}

// Insert appends a new message with a server-assigned id.
func (r *GormMessageStore) Insert(ctx context.Context, sender, recipient domain.Identity, body string) (*domain.Message, error) {
	model := MessageModel{
		ID:          uuid.New().String(),
		SenderID:    string(sender),
		RecipientID: string(recipient),
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	msg := model.ToDomain()
	return &msg, nil
}
