package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/correspondence-management/internal/auth"
	"github.com/frahmantamala/correspondence-management/internal/core/database"
	auditDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/audit"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) auth.RepositoryAPI {
	return &Repository{db: db}
}

func (r *Repository) first(query *gorm.DB) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := query.First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*userDatamodel.User, error) {
	return r.first(database.Conn(ctx, r.db).Where("username = ?", username))
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	return r.first(database.Conn(ctx, r.db).Where("email = ?", email))
}

func (r *Repository) GetWithRole(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return r.first(database.Conn(ctx, r.db).Preload("RoleRef.Permissions").Where("id = ?", id))
}

func (r *Repository) SetResetCode(ctx context.Context, userID int64, code string, expiresAt time.Time) error {
	return database.Conn(ctx, r.db).Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reset_code":            code,
			"reset_code_expires_at": expiresAt,
		}).Error
}

func (r *Repository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return database.Conn(ctx, r.db).Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash":         passwordHash,
			"reset_code":            nil,
			"reset_code_expires_at": nil,
		}).Error
}

func (r *Repository) CreateLoginLog(ctx context.Context, entry *auditDatamodel.UserLoginLog) error {
	return database.Conn(ctx, r.db).Omit("User").Create(entry).Error
}
