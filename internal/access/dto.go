package access

import (
	"strings"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/core/common/validation"
)

type RoleDTO struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	PermissionIDs []int64 `json:"permission_ids"`
}

func (d *RoleDTO) Normalize() {
	d.Name = strings.ToLower(strings.TrimSpace(d.Name))
	d.Description = strings.TrimSpace(d.Description)
}

func (d RoleDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MinLength(2).MaxLength(50)
	v.Field("description", d.Description).MaxLength(200)
	return v.Err()
}

// UpdateUserPermissionsDTO changes only the fields that are set. PermissionID
// is audited as permission_add without storing a grant.
type UpdateUserPermissionsDTO struct {
	RoleID                     *int64 `json:"role_id"`
	CanChangeStatus            *bool  `json:"can_change_status"`
	CanManageStatusPermissions *bool  `json:"can_manage_status_permissions"`
	PermissionID               *int64 `json:"permission_id"`
	Notes                      string `json:"notes"`
}

func (d UpdateUserPermissionsDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("notes", d.Notes).MaxLength(500)
	if d.RoleID == nil && d.CanChangeStatus == nil && d.CanManageStatusPermissions == nil && d.PermissionID == nil {
		v.Field("role_id", nil).Required()
	}
	return v.Err()
}

var (
	ErrRoleNotFound       = internal.NewNotFoundError("Role not found", internal.ErrCodeRoleNotFound)
	ErrRoleExists         = internal.NewConflictError("A role with this name already exists", internal.ErrCodeRoleExists)
	ErrSystemRole         = internal.NewForbiddenError("System roles cannot be modified or deleted", internal.ErrCodeSystemRole)
	ErrRoleInUse          = internal.NewConflictError("Role is still assigned to users", internal.ErrCodeRoleInUse)
	ErrUnknownPermissions = internal.NewValidationFieldError("permission_ids", "One or more permissions do not exist", internal.ErrCodeInvalidValue)
	ErrUnknownPermission  = internal.NewValidationFieldError("permission_id", "Permission does not exist", internal.ErrCodeInvalidValue)
	ErrAdminTarget        = internal.NewForbiddenError("Permissions of an administrator cannot be changed", internal.ErrCodeAdminTarget)
)
