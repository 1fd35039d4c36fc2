package group

import (
	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/core/common/validation"
)

type CreateGroupDTO struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	IsPublic    bool    `json:"is_public"`
	MemberIDs   []int64 `json:"member_ids,omitempty"`
}

func (d CreateGroupDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("description", d.Description).MaxLength(500)
	return v.Err()
}

type UpdateGroupDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

func (d UpdateGroupDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", d.Name).Required().MaxLength(100)
	v.Field("description", d.Description).MaxLength(500)
	return v.Err()
}

type AddMemberDTO struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

func (d AddMemberDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("user_id", d.UserID).Required()
	v.Field("role", d.Role).OneOf(MemberRoleMember, MemberRoleAdmin)
	return v.Err()
}

var (
	ErrGroupNotFound     = internal.NewNotFoundError("Group not found", internal.ErrCodeGroupNotFound)
	ErrGroupExists       = internal.NewConflictError("A group with this name already exists", internal.ErrCodeGroupExists)
	ErrGroupInactive     = internal.NewValidationError("Group is not active", internal.ErrCodeGroupNotFound)
	ErrMembershipExists  = internal.NewConflictError("User is already a member of this group", internal.ErrCodeMembershipExists)
	ErrNotMember         = internal.NewNotFoundError("User is not a member of this group", internal.ErrCodeNotMember)
	ErrCreatorRemoval    = internal.NewValidationError("The group creator cannot be removed", internal.ErrCodeInvalidValue)
	ErrUnauthorizedGroup = internal.NewForbiddenError("Not allowed to manage this group", internal.ErrCodeInsufficientPermissions)
)
