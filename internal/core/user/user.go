package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
)

const (
	LegacyRoleAdmin = "admin"
	LegacyRoleUser  = "user"
)

// Principal is the authenticated user together with every input the
// permission resolver looks at.
type Principal struct {
	ID                         int64
	Username                   string
	Email                      string
	FullName                   string
	DepartmentID               *int64
	LegacyRole                 string
	RoleID                     *int64
	RoleName                   string
	RolePermissions            []string
	CanChangeStatus            bool
	CanManageStatusPermissions bool
	IsActive                   bool
	NotificationsEnabled       bool
	Signature                  string
	LoadedAt                   time.Time
}

func (p *Principal) RoleGrants(permission string) bool {
	for _, name := range p.RolePermissions {
		if name == permission {
			return true
		}
	}
	return false
}

// FromDataModel expects u.RoleRef to be preloaded with its permissions.
func FromDataModel(u *userDatamodel.User) *Principal {
	p := &Principal{
		ID:                         u.ID,
		Username:                   u.Username,
		Email:                      u.Email,
		FullName:                   u.FullName,
		DepartmentID:               u.DepartmentID,
		LegacyRole:                 u.Role,
		RoleID:                     u.RoleID,
		CanChangeStatus:            u.CanChangeStatus,
		CanManageStatusPermissions: u.CanManageStatusPermissions,
		IsActive:                   u.IsActive,
		NotificationsEnabled:       u.NotificationsEnabled,
		Signature:                  u.Signature,
		LoadedAt:                   time.Now(),
	}
	if u.RoleRef != nil {
		p.RoleName = u.RoleRef.Name
		p.RolePermissions = u.RoleRef.PermissionNames()
	}
	return p
}
