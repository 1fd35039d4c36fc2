package group

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/auth"
	groupDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/group"
	"github.com/frahmantamala/correspondence-management/internal/core/user"
)

// RepositoryAPI returns nil, nil from single-row lookups that find nothing.
type RepositoryAPI interface {
	Create(ctx context.Context, g *groupDatamodel.UserGroup) error
	GetByID(ctx context.Context, id int64) (*groupDatamodel.UserGroup, error)
	GetByName(ctx context.Context, name string) (*groupDatamodel.UserGroup, error)
	ListVisible(ctx context.Context, userID int64, all bool) ([]*groupDatamodel.UserGroup, error)
	Update(ctx context.Context, g *groupDatamodel.UserGroup) error
	Delete(ctx context.Context, id int64) error
	GetMembership(ctx context.Context, groupID, userID int64) (*groupDatamodel.UserGroupMembership, error)
	AddMembership(ctx context.Context, m *groupDatamodel.UserGroupMembership) error
	RemoveMembership(ctx context.Context, groupID, userID int64) error
	ListMembers(ctx context.Context, groupID int64) ([]*groupDatamodel.UserGroupMembership, error)
	ActiveMemberIDs(ctx context.Context, groupID int64) ([]int64, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
}

type Authorizer interface {
	HasPermission(p *user.Principal, permission string) bool
	IsAdmin(p *user.Principal) bool
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo       RepositoryAPI
	authorizer Authorizer
	tx         Transactor
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, authorizer Authorizer, tx Transactor, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		authorizer: authorizer,
		tx:         tx,
		logger:     logger,
	}
}

func (s *Service) viewer(p *user.Principal) Viewer {
	return Viewer{
		UserID:       p.ID,
		IsAdmin:      s.authorizer.IsAdmin(p),
		ManageGroups: s.authorizer.HasPermission(p, auth.PermManageGroups),
	}
}

// load returns the group only when the caller may see it.
func (s *Service) load(ctx context.Context, p *user.Principal, id int64) (*groupDatamodel.UserGroup, *groupDatamodel.UserGroupMembership, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to load group", err)
	}
	if g == nil {
		return nil, nil, ErrGroupNotFound
	}

	membership, err := s.repo.GetMembership(ctx, id, p.ID)
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to load membership", err)
	}

	if !VisibleTo(g, s.viewer(p), membership != nil) {
		s.logger.Warn("hidden group requested", "group_id", id, "user_id", p.ID)
		return nil, nil, ErrGroupNotFound
	}
	return g, membership, nil
}

func (s *Service) List(ctx context.Context, p *user.Principal) ([]*Group, error) {
	groups, err := s.repo.ListVisible(ctx, p.ID, s.authorizer.IsAdmin(p))
	if err != nil {
		s.logger.Error("failed to list groups", "user_id", p.ID, "error", err)
		return nil, internal.NewInternalError("failed to list groups", err)
	}
	return FromDataModelSlice(groups), nil
}

func (s *Service) Get(ctx context.Context, p *user.Principal, id int64) (*Group, error) {
	g, _, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(g), nil
}

// Create makes the caller the group's first admin member.
func (s *Service) Create(ctx context.Context, p *user.Principal, dto CreateGroupDTO) (*Group, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(dto.Name)

	var created *groupDatamodel.UserGroup
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByName(ctx, name)
		if err != nil {
			return internal.NewInternalError("failed to check group name", err)
		}
		if existing != nil {
			return ErrGroupExists
		}

		created = &groupDatamodel.UserGroup{
			Name:        name,
			Description: dto.Description,
			CreatedByID: p.ID,
			IsActive:    true,
			IsPublic:    dto.IsPublic,
		}
		if err := s.repo.Create(ctx, created); err != nil {
			return internal.NewInternalError("failed to create group", err)
		}

		if err := s.repo.AddMembership(ctx, &groupDatamodel.UserGroupMembership{GroupID: created.ID, UserID: p.ID, Role: MemberRoleAdmin}); err != nil {
			return internal.NewInternalError("failed to add group creator", err)
		}

		for _, memberID := range dedupe(dto.MemberIDs) {
			if memberID == p.ID {
				continue
			}
			exists, err := s.repo.UserExists(ctx, memberID)
			if err != nil {
				return internal.NewInternalError("failed to check member", err)
			}
			if !exists {
				return internal.ErrUserNotFound.WithDetails(map[string]int64{"user_id": memberID})
			}
			if err := s.repo.AddMembership(ctx, &groupDatamodel.UserGroupMembership{GroupID: created.ID, UserID: memberID, Role: MemberRoleMember}); err != nil {
				return internal.NewInternalError("failed to add group member", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("group created", "group_id", created.ID, "name", created.Name, "created_by", p.ID)
	return s.Get(ctx, p, created.ID)
}

func (s *Service) Update(ctx context.Context, p *user.Principal, id int64, dto UpdateGroupDTO) (*Group, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	g, membership, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !CanEdit(g, s.viewer(p), membership) {
		return nil, ErrUnauthorizedGroup
	}

	name := strings.TrimSpace(dto.Name)
	if name != g.Name {
		existing, err := s.repo.GetByName(ctx, name)
		if err != nil {
			return nil, internal.NewInternalError("failed to check group name", err)
		}
		if existing != nil && existing.ID != id {
			return nil, ErrGroupExists
		}
	}

	g.Name = name
	g.Description = dto.Description
	g.IsPublic = dto.IsPublic
	if dto.IsActive != nil {
		g.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(ctx, g); err != nil {
		return nil, internal.NewInternalError("failed to update group", err)
	}

	s.logger.Info("group updated", "group_id", id, "user_id", p.ID)
	return FromDataModel(g), nil
}

func (s *Service) Delete(ctx context.Context, p *user.Principal, id int64) error {
	g, _, err := s.load(ctx, p, id)
	if err != nil {
		return err
	}
	if !CanDelete(g, s.viewer(p)) {
		return ErrUnauthorizedGroup
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("failed to delete group", err)
	}

	s.logger.Info("group deleted", "group_id", id, "user_id", p.ID)
	return nil
}

func (s *Service) AddMember(ctx context.Context, p *user.Principal, groupID int64, dto AddMemberDTO) (*Member, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	g, membership, err := s.load(ctx, p, groupID)
	if err != nil {
		return nil, err
	}
	if !CanEdit(g, s.viewer(p), membership) {
		return nil, ErrUnauthorizedGroup
	}

	exists, err := s.repo.UserExists(ctx, dto.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check member", err)
	}
	if !exists {
		return nil, internal.ErrUserNotFound
	}

	existing, err := s.repo.GetMembership(ctx, groupID, dto.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to check membership", err)
	}
	if existing != nil {
		return nil, ErrMembershipExists
	}

	role := dto.Role
	if role == "" {
		role = MemberRoleMember
	}
	m := &groupDatamodel.UserGroupMembership{GroupID: groupID, UserID: dto.UserID, Role: role}
	if err := s.repo.AddMembership(ctx, m); err != nil {
		return nil, internal.NewInternalError("failed to add member", err)
	}

	s.logger.Info("group member added", "group_id", groupID, "member_id", dto.UserID, "role", role, "user_id", p.ID)
	return MemberFromDataModel(m), nil
}

func (s *Service) RemoveMember(ctx context.Context, p *user.Principal, groupID, userID int64) error {
	g, membership, err := s.load(ctx, p, groupID)
	if err != nil {
		return err
	}
	if !CanEdit(g, s.viewer(p), membership) {
		return ErrUnauthorizedGroup
	}
	if userID == g.CreatedByID {
		return ErrCreatorRemoval
	}

	existing, err := s.repo.GetMembership(ctx, groupID, userID)
	if err != nil {
		return internal.NewInternalError("failed to check membership", err)
	}
	if existing == nil {
		return ErrNotMember
	}

	if err := s.repo.RemoveMembership(ctx, groupID, userID); err != nil {
		return internal.NewInternalError("failed to remove member", err)
	}

	s.logger.Info("group member removed", "group_id", groupID, "member_id", userID, "user_id", p.ID)
	return nil
}

func (s *Service) Members(ctx context.Context, p *user.Principal, groupID int64) ([]*Member, error) {
	if _, _, err := s.load(ctx, p, groupID); err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list members", err)
	}

	out := make([]*Member, len(members))
	for i, m := range members {
		out[i] = MemberFromDataModel(m)
	}
	return out, nil
}

// EligibleMembers returns the active members of a group the caller may
// address, in join order.
func (s *Service) EligibleMembers(ctx context.Context, p *user.Principal, groupID int64) ([]int64, error) {
	g, _, err := s.load(ctx, p, groupID)
	if err != nil {
		return nil, err
	}
	if !g.IsActive {
		return nil, ErrGroupInactive
	}

	ids, err := s.repo.ActiveMemberIDs(ctx, groupID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load group members", err)
	}
	return ids, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
