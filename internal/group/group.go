package group

import (
	"time"

	groupDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/group"
)

const (
	MemberRoleMember = "member"
	MemberRoleAdmin  = "admin"
)

type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedByID int64     `json:"created_by_id"`
	CreatedBy   string    `json:"created_by,omitempty"`
	IsActive    bool      `json:"is_active"`
	IsPublic    bool      `json:"is_public"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Member struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	FullName string    `json:"full_name,omitempty"`
	Role     string    `json:"role"`
	IsActive bool      `json:"is_active"`
	JoinedAt time.Time `json:"joined_at"`
}

// Viewer is what visibility and edit rules need to know about the caller.
type Viewer struct {
	UserID       int64
	IsAdmin      bool
	ManageGroups bool
}

// VisibleTo is true for public groups, the creator, members and admins.
func VisibleTo(g *groupDatamodel.UserGroup, v Viewer, isMember bool) bool {
	return g.IsPublic || g.CreatedByID == v.UserID || isMember || v.IsAdmin
}

func CanEdit(g *groupDatamodel.UserGroup, v Viewer, membership *groupDatamodel.UserGroupMembership) bool {
	if g.CreatedByID == v.UserID || v.ManageGroups {
		return true
	}
	return membership != nil && membership.Role == MemberRoleAdmin
}

func CanDelete(g *groupDatamodel.UserGroup, v Viewer) bool {
	return g.CreatedByID == v.UserID || v.ManageGroups
}

func FromDataModel(g *groupDatamodel.UserGroup) *Group {
	out := &Group{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedByID: g.CreatedByID,
		IsActive:    g.IsActive,
		IsPublic:    g.IsPublic,
		MemberCount: len(g.Members),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
	if g.CreatedBy != nil {
		out.CreatedBy = g.CreatedBy.Username
	}
	return out
}

func FromDataModelSlice(groups []*groupDatamodel.UserGroup) []*Group {
	result := make([]*Group, len(groups))
	for i, g := range groups {
		result[i] = FromDataModel(g)
	}
	return result
}

func MemberFromDataModel(m *groupDatamodel.UserGroupMembership) *Member {
	out := &Member{
		UserID:   m.UserID,
		Role:     m.Role,
		JoinedAt: m.JoinedAt,
	}
	if m.User != nil {
		out.Username = m.User.Username
		out.FullName = m.User.FullName
		out.IsActive = m.User.IsActive
	}
	return out
}
