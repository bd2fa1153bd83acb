package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/JLSed/ShoeFreak-Admin/internal/domain"
)

// AccountModel is the users table the marketplace maintains. The console
// only reads the role column; everything else belongs to other services.
type AccountModel struct {
	UserID    string `gorm:"column:user_id;primaryKey"`
	Email     string `gorm:"column:email"`
	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`
	Role      string `gorm:"column:role;index"`
}

// TableName overrides the GORM default.
func (AccountModel) TableName() string {
	return "users"
}

// GormRoleStore implements RoleStore over the users table.
type GormRoleStore struct {
	db *gorm.DB
}

// NewGormRoleStore creates a GORM-based role store.
func NewGormRoleStore(db *gorm.DB) *GormRoleStore {
	return &GormRoleStore{db: db}
}

// GetRole returns the role of the identity. A missing row is
// ErrRoleNotFound; the caller decides what absence means.
func (r *GormRoleStore) GetRole(ctx context.Context, id domain.Identity) (domain.Role, error) {
	var model AccountModel
	result := r.db.WithContext(ctx).Select("role").First(&model, "user_id = ?", string(id))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return domain.RoleNone, ErrRoleNotFound
		}
		return domain.RoleNone, result.Error
	}
	return domain.ParseRole(model.Role), nil
}
