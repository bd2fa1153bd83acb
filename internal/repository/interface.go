package repository

import (
	"context"
	"errors"

	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
)

// ErrRoleNotFound is returned when no account row exists for an identity.
var ErrRoleNotFound = errors.New("role not found")

// RoleStore maps an identity to its account role. Roles are mutated only
// by an external administrative process; this service reads them.
type RoleStore interface {
	GetRole(ctx context.Context, id domain.Identity) (domain.Role, error)
}

// MessageStore is the durable append-only message log.
// ListConversation returns every message of the pair ordered ascending
// by (created_at, id). Insert appends a new message with a
// server-assigned id and returns the stored row.
type MessageStore interface {
	ListConversation(ctx context.Context, key domain.ConversationKey) ([]domain.Message, error)
	Insert(ctx context.Context, sender, recipient domain.Identity, body string) (*domain.Message, error)
}
