package group

import (
	"time"

	"github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
)

type UserGroup struct {
	ID          int64                 `gorm:"primaryKey"`
	Name        string                `gorm:"column:name;uniqueIndex;not null"`
	Description string                `gorm:"column:description"`
	CreatedByID int64                 `gorm:"column:created_by_id;not null"`
	CreatedBy   *user.User            `gorm:"foreignKey:CreatedByID"`
	IsActive    bool                  `gorm:"column:is_active"`
	IsPublic    bool                  `gorm:"column:is_public"`
	Members     []UserGroupMembership `gorm:"foreignKey:GroupID"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserGroup) TableName() string {
	return "user_groups"
}

type UserGroupMembership struct {
	ID       int64      `gorm:"primaryKey"`
	GroupID  int64      `gorm:"column:group_id;not null;uniqueIndex:idx_group_member"`
	UserID   int64      `gorm:"column:user_id;not null;uniqueIndex:idx_group_member;index"`
	User     *user.User `gorm:"foreignKey:UserID"`
	Role     string     `gorm:"column:role;not null"`
	JoinedAt time.Time  `gorm:"column:joined_at;autoCreateTime"`
}

func (UserGroupMembership) TableName() string {
	return "user_group_memberships"
}
