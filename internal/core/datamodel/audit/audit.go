package audit

import (
	"time"

	"github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
)

const (
	ChangeTypeChangeStatus      = "change_status"
	ChangeTypeManagePermissions = "manage_permissions"
	ChangeTypeRoleChange        = "role_change"
	ChangeTypePermissionAdd     = "permission_add"
	ChangeTypePermissionRemove  = "permission_remove"
	ChangeTypeDirectPermission  = "direct_permission"
	ChangeTypeRolePermission    = "role_permission"
)

const (
	LoginStatusSuccess  = "success"
	LoginStatusFailed   = "failed"
	LoginStatusInactive = "inactive"
)

// PermissionChange is append-only.
type PermissionChange struct {
	ID           int64      `gorm:"primaryKey"`
	UserID       int64      `gorm:"column:user_id;not null;index"`
	User         *user.User `gorm:"foreignKey:UserID"`
	ChangedByID  int64      `gorm:"column:changed_by_id;not null"`
	ChangedBy    *user.User `gorm:"foreignKey:ChangedByID"`
	ChangeType   string     `gorm:"column:change_type;not null"`
	OldValue     string     `gorm:"column:old_value"`
	NewValue     string     `gorm:"column:new_value"`
	ChangedAt    time.Time  `gorm:"column:changed_at;not null"`
	Notes        string     `gorm:"column:notes"`
	PermissionID *int64     `gorm:"column:permission_id"`
	RoleID       *int64     `gorm:"column:role_id"`
}

func (PermissionChange) TableName() string {
	return "permission_changes"
}

// UserLoginLog is append-only.
type UserLoginLog struct {
	ID        int64      `gorm:"primaryKey"`
	UserID    int64      `gorm:"column:user_id;not null;index"`
	User      *user.User `gorm:"foreignKey:UserID"`
	LoginAt   time.Time  `gorm:"column:login_at;not null"`
	IPAddress string     `gorm:"column:ip_address"`
	UserAgent string     `gorm:"column:user_agent"`
	Status    string     `gorm:"column:status;not null"`
}

func (UserLoginLog) TableName() string {
	return "user_login_logs"
}
