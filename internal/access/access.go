package access

import (
	"time"

	accessDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/access"
)

type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	IsCritical  bool   `json:"is_critical"`
}

type PermissionGroup struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	DisplayName string        `json:"display_name"`
	Description string        `json:"description,omitempty"`
	Icon        string        `json:"icon,omitempty"`
	Order       int           `json:"order"`
	Permissions []*Permission `json:"permissions"`
}

// Catalog is every permission, grouped, with ungrouped ones listed last.
type Catalog struct {
	Groups        []*PermissionGroup `json:"groups"`
	Uncategorized []*Permission      `json:"uncategorized"`
}

type Role struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	IsSystem    bool          `json:"is_system"`
	UserCount   int64         `json:"user_count"`
	Permissions []*Permission `json:"permissions"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Grant names the source that grants a permission to a user.
type Grant struct {
	Permission string `json:"permission"`
	Source     string `json:"source"`
}

type UserPermissions struct {
	UserID                     int64   `json:"user_id"`
	Username                   string  `json:"username"`
	LegacyRole                 string  `json:"legacy_role"`
	RoleID                     *int64  `json:"role_id,omitempty"`
	RoleName                   string  `json:"role_name,omitempty"`
	IsAdmin                    bool    `json:"is_admin"`
	CanChangeStatus            bool    `json:"can_change_status"`
	CanManageStatusPermissions bool    `json:"can_manage_status_permissions"`
	Grants                     []Grant `json:"grants"`
}

func PermissionFromDataModel(p *accessDatamodel.Permission) *Permission {
	return &Permission{
		ID:          p.ID,
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Description: p.Description,
		IsCritical:  p.IsCritical,
	}
}

func permissionsFromDataModel(perms []accessDatamodel.Permission) []*Permission {
	out := make([]*Permission, len(perms))
	for i := range perms {
		out[i] = PermissionFromDataModel(&perms[i])
	}
	return out
}

func GroupFromDataModel(g *accessDatamodel.PermissionGroup) *PermissionGroup {
	return &PermissionGroup{
		ID:          g.ID,
		Name:        g.Name,
		DisplayName: g.DisplayName,
		Description: g.Description,
		Icon:        g.Icon,
		Order:       g.Order,
		Permissions: permissionsFromDataModel(g.Permissions),
	}
}

func RoleFromDataModel(r *accessDatamodel.Role) *Role {
	return &Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: permissionsFromDataModel(r.Permissions),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
