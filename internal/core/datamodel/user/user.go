package user

import (
	"time"

	"github.com/frahmantamala/correspondence-management/internal/core/datamodel/access"
)

type Department struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	Description string    `gorm:"column:description"`
	IsActive    bool      `gorm:"column:is_active"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Department) TableName() string {
	return "departments"
}

// User carries both the role reference and the legacy role string and flags.
type User struct {
	ID                         int64        `gorm:"primaryKey"`
	Username                   string       `gorm:"column:username;uniqueIndex;not null"`
	Email                      string       `gorm:"column:email;uniqueIndex;not null"`
	PasswordHash               string       `gorm:"column:password_hash;not null"`
	DepartmentID               *int64       `gorm:"column:department_id"`
	Department                 *Department  `gorm:"foreignKey:DepartmentID"`
	Role                       string       `gorm:"column:role;not null"`
	RoleID                     *int64       `gorm:"column:role_id"`
	RoleRef                    *access.Role `gorm:"foreignKey:RoleID"`
	IsActive                   bool         `gorm:"column:is_active"`
	ResetCode                  *string      `gorm:"column:reset_code"`
	ResetCodeExpiresAt         *time.Time   `gorm:"column:reset_code_expires_at"`
	FullName                   string       `gorm:"column:full_name"`
	Phone                      string       `gorm:"column:phone"`
	Position                   string       `gorm:"column:position"`
	Bio                        string       `gorm:"column:bio"`
	ProfileImage               string       `gorm:"column:profile_image"`
	Signature                  string       `gorm:"column:signature"`
	SignatureImage             string       `gorm:"column:signature_image"`
	Theme                      string       `gorm:"column:theme"`
	Language                   string       `gorm:"column:language"`
	NotificationsEnabled       bool         `gorm:"column:notifications_enabled"`
	CanChangeStatus            bool         `gorm:"column:can_change_status"`
	CanManageStatusPermissions bool         `gorm:"column:can_manage_status_permissions"`
	CreatedAt                  time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                  time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

type FavoriteUser struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     int64     `gorm:"column:user_id;not null;uniqueIndex:idx_favorite_pair"`
	FavoriteID int64     `gorm:"column:favorite_user_id;not null;uniqueIndex:idx_favorite_pair"`
	Favorite   *User     `gorm:"foreignKey:FavoriteID"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (FavoriteUser) TableName() string {
	return "favorite_users"
}
