package access

import "time"

type PermissionGroup struct {
	ID          int64        `gorm:"primaryKey"`
	Name        string       `gorm:"column:name;uniqueIndex;not null"`
	DisplayName string       `gorm:"column:display_name;not null"`
	Description string       `gorm:"column:description"`
	Icon        string       `gorm:"column:icon"`
	Order       int          `gorm:"column:sort_order"`
	Permissions []Permission `gorm:"foreignKey:GroupID"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
}

func (PermissionGroup) TableName() string {
	return "permission_groups"
}

type Permission struct {
	ID          int64     `gorm:"primaryKey"`
	Name        string    `gorm:"column:name;uniqueIndex;not null"`
	DisplayName string    `gorm:"column:display_name"`
	Description string    `gorm:"column:description"`
	GroupID     *int64    `gorm:"column:group_id"`
	IsCritical  bool      `gorm:"column:is_critical"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Permission) TableName() string {
	return "permissions"
}

type Role struct {
	ID          int64        `gorm:"primaryKey"`
	Name        string       `gorm:"column:name;uniqueIndex;not null"`
	Description string       `gorm:"column:description"`
	IsSystem    bool         `gorm:"column:is_system"`
	Permissions []Permission `gorm:"many2many:role_permissions;"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (Role) TableName() string {
	return "roles"
}

// PermissionNames flattens the role's permission set.
func (r *Role) PermissionNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name)
	}
	return names
}
