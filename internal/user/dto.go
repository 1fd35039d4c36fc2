package user

import (
	"strings"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/core/common/validation"
	coreuser "github.com/frahmantamala/correspondence-management/internal/core/user"
)

var legacyRoles = []string{coreuser.LegacyRoleAdmin, coreuser.LegacyRoleUser}

type CreateUserDTO struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	FullName     string `json:"full_name"`
	DepartmentID *int64 `json:"department_id"`
	Position     string `json:"position"`
	Role         string `json:"role"`
	RoleID       *int64 `json:"role_id"`
}

func (d *CreateUserDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = strings.TrimSpace(d.Email)
	if d.Role == "" {
		d.Role = coreuser.LegacyRoleUser
	}
}

func (d CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", d.Username).Required().MinLength(3).MaxLength(64)
	v.Field("email", d.Email).Required().Email().MaxLength(120)
	v.Field("password", d.Password).Required().MinLength(6)
	v.Field("role", d.Role).OneOf(legacyRoles...)
	return v.Err()
}

// UpdateUserDTO leaves the password alone when it is empty.
type UpdateUserDTO struct {
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	DepartmentID *int64 `json:"department_id"`
	Position     string `json:"position"`
	Role         string `json:"role"`
	RoleID       *int64 `json:"role_id"`
	Password     string `json:"password"`
}

func (d UpdateUserDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", strings.TrimSpace(d.Email)).Required().Email().MaxLength(120)
	v.Field("role", d.Role).Required().OneOf(legacyRoles...)
	if d.Password != "" {
		v.Field("password", d.Password).MinLength(6)
	}
	return v.Err()
}

type UpdateProfileDTO struct {
	CurrentPassword string `json:"current_password"`
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	Phone           string `json:"phone"`
	Position        string `json:"position"`
	Bio             string `json:"bio"`
	Signature       string `json:"signature"`
	DepartmentID    *int64 `json:"department_id"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (d UpdateProfileDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("current_password", d.CurrentPassword).Required()
	v.Field("email", strings.TrimSpace(d.Email)).Required().Email().MaxLength(120)
	v.Field("phone", d.Phone).MaxLength(20)
	v.Field("signature", d.Signature).MaxLength(2000)
	if d.NewPassword != "" {
		v.Field("new_password", d.NewPassword).MinLength(6)
		v.Field("confirm_password", d.ConfirmPassword).Equals(d.NewPassword, "new_password")
	}
	return v.Err()
}

type SettingsDTO struct {
	Theme                string `json:"theme"`
	Language             string `json:"language"`
	NotificationsEnabled *bool  `json:"notifications_enabled"`
}

func (d SettingsDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("theme", d.Theme).OneOf(Themes...)
	v.Field("language", d.Language).OneOf(Languages...)
	return v.Err()
}

var (
	ErrUsernameTaken      = internal.NewConflictError("Username already exists", internal.ErrCodeUsernameTaken)
	ErrEmailTaken         = internal.NewConflictError("Email already exists", internal.ErrCodeEmailTaken)
	ErrSelfToggle         = internal.NewValidationError("You cannot disable your own account", internal.ErrCodeSelfModification)
	ErrSelfDelete         = internal.NewValidationError("You cannot delete your own account", internal.ErrCodeSelfModification)
	ErrUserReferenced     = internal.NewConflictError("User is referenced by messages and cannot be deleted", internal.ErrCodeUserHasMessages)
	ErrWrongPassword      = internal.NewValidationFieldError("current_password", "Current password is incorrect", internal.ErrCodeInvalidCredentials)
	ErrDepartmentNotFound = internal.NewValidationError("Department does not exist", internal.ErrCodeDepartmentNotFound)
	ErrRoleNotFound       = internal.NewValidationError("Role does not exist", internal.ErrCodeRoleNotFound)
	ErrFavoriteSelf       = internal.NewValidationError("You cannot add yourself to favorites", internal.ErrCodeSelfModification)
	ErrFavoriteExists     = internal.NewConflictError("User is already a favorite", internal.ErrCodeFavoriteExists)
	ErrFavoriteNotFound   = internal.NewNotFoundError("User is not a favorite", internal.ErrCodeFavoriteNotFound)
	ErrImageNotFound      = internal.NewNotFoundError("Image not found", internal.ErrCodeAttachmentNotFound)
)
