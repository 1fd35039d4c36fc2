package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	DefaultLanguage = "ar"
)

var (
	Themes    = []string{ThemeLight, ThemeDark}
	Languages = []string{"ar", "en"}
)

// User is the administrative and profile view of an account. Image fields
// hold paths relative to the upload directory.
type User struct {
	ID                         int64     `json:"id"`
	Username                   string    `json:"username"`
	Email                      string    `json:"email"`
	FullName                   string    `json:"full_name,omitempty"`
	Phone                      string    `json:"phone,omitempty"`
	Position                   string    `json:"position,omitempty"`
	Bio                        string    `json:"bio,omitempty"`
	DepartmentID               *int64    `json:"department_id,omitempty"`
	Department                 string    `json:"department,omitempty"`
	Role                       string    `json:"role"`
	RoleID                     *int64    `json:"role_id,omitempty"`
	RoleName                   string    `json:"role_name,omitempty"`
	IsActive                   bool      `json:"is_active"`
	Signature                  string    `json:"signature,omitempty"`
	HasProfileImage            bool      `json:"has_profile_image"`
	HasSignatureImage          bool      `json:"has_signature_image"`
	Theme                      string    `json:"theme,omitempty"`
	Language                   string    `json:"language,omitempty"`
	NotificationsEnabled       bool      `json:"notifications_enabled"`
	CanChangeStatus            bool      `json:"can_change_status"`
	CanManageStatusPermissions bool      `json:"can_manage_status_permissions"`
	CreatedAt                  time.Time `json:"created_at"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

// MessageStats mirrors the dashboard counters shown on a profile.
type MessageStats struct {
	Total    int64 `json:"total_messages"`
	Inbox    int64 `json:"inbox_messages"`
	Sent     int64 `json:"sent_messages"`
	Archived int64 `json:"archived_messages"`
}

type Profile struct {
	*User
	Stats MessageStats `json:"stats"`
}

// DirectoryEntry is what a user sees when addressing a message.
type DirectoryEntry struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name,omitempty"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
	IsFavorite bool   `json:"is_favorite"`
}

func FromDataModel(u *userDatamodel.User) *User {
	out := &User{
		ID:                         u.ID,
		Username:                   u.Username,
		Email:                      u.Email,
		FullName:                   u.FullName,
		Phone:                      u.Phone,
		Position:                   u.Position,
		Bio:                        u.Bio,
		DepartmentID:               u.DepartmentID,
		Role:                       u.Role,
		RoleID:                     u.RoleID,
		IsActive:                   u.IsActive,
		Signature:                  u.Signature,
		HasProfileImage:            u.ProfileImage != "",
		HasSignatureImage:          u.SignatureImage != "",
		Theme:                      u.Theme,
		Language:                   u.Language,
		NotificationsEnabled:       u.NotificationsEnabled,
		CanChangeStatus:            u.CanChangeStatus,
		CanManageStatusPermissions: u.CanManageStatusPermissions,
		CreatedAt:                  u.CreatedAt,
		UpdatedAt:                  u.UpdatedAt,
	}
	if u.Department != nil {
		out.Department = u.Department.Name
	}
	if u.RoleRef != nil {
		out.RoleName = u.RoleRef.Name
	}
	return out
}

func FromDataModelSlice(users []*userDatamodel.User) []*User {
	out := make([]*User, len(users))
	for i, u := range users {
		out[i] = FromDataModel(u)
	}
	return out
}

func DirectoryEntryFromDataModel(u *userDatamodel.User, favorite bool) *DirectoryEntry {
	e := &DirectoryEntry{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		Position:   u.Position,
		IsFavorite: favorite,
	}
	if u.Department != nil {
		e.Department = u.Department.Name
	}
	return e
}
