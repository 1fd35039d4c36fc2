package postgres

import (
	"context"

	"github.com/frahmantamala/correspondence-management/internal/core/database"
	auditDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/audit"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) PermissionChanges(ctx context.Context, userID *int64) ([]*auditDatamodel.PermissionChange, error) {
	q := database.Conn(ctx, r.db).Preload("User").Preload("ChangedBy")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var rows []*auditDatamodel.PermissionChange
	err := q.Order("changed_at DESC, id DESC").Find(&rows).Error
	return rows, err
}

func (r *AuditRepository) LoginLogs(ctx context.Context, userID *int64, limit int) ([]*auditDatamodel.UserLoginLog, error) {
	q := database.Conn(ctx, r.db).Preload("User")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []*auditDatamodel.UserLoginLog
	err := q.Order("login_at DESC, id DESC").Find(&rows).Error
	return rows, err
}
