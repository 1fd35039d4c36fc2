package access

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/auth"
	accessDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/access"
	auditDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/audit"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/correspondence-management/internal/core/user"
)

// RepositoryAPI returns nil, nil from single-row lookups that find nothing.
type RepositoryAPI interface {
	PermissionGroups(ctx context.Context) ([]*accessDatamodel.PermissionGroup, error)
	UncategorizedPermissions(ctx context.Context) ([]accessDatamodel.Permission, error)
	AllPermissionNames(ctx context.Context) ([]string, error)
	PermissionsByIDs(ctx context.Context, ids []int64) ([]accessDatamodel.Permission, error)
	PermissionsByNames(ctx context.Context, names []string) ([]accessDatamodel.Permission, error)

	GroupByName(ctx context.Context, name string) (*accessDatamodel.PermissionGroup, error)
	CreateGroup(ctx context.Context, g *accessDatamodel.PermissionGroup) error
	PermissionByName(ctx context.Context, name string) (*accessDatamodel.Permission, error)
	CreatePermission(ctx context.Context, p *accessDatamodel.Permission) error

	Roles(ctx context.Context) ([]*accessDatamodel.Role, error)
	GetRole(ctx context.Context, id int64) (*accessDatamodel.Role, error)
	GetRoleByName(ctx context.Context, name string) (*accessDatamodel.Role, error)
	RoleUserCounts(ctx context.Context) (map[int64]int64, error)
	CreateRole(ctx context.Context, r *accessDatamodel.Role) error
	UpdateRole(ctx context.Context, r *accessDatamodel.Role) error
	DeleteRole(ctx context.Context, id int64) error

	GetUser(ctx context.Context, id int64) (*userDatamodel.User, error)
	UpdateUserAccess(ctx context.Context, id int64, fields map[string]interface{}) error
	AppendPermissionChanges(ctx context.Context, changes []*auditDatamodel.PermissionChange) error
}

type Authorizer interface {
	IsAdmin(p *coreuser.Principal) bool
	GrantedBy(p *coreuser.Principal, permission string) (string, bool)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	repo       RepositoryAPI
	authorizer Authorizer
	tx         Transactor
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repo RepositoryAPI, authorizer Authorizer, tx Transactor, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		authorizer: authorizer,
		tx:         tx,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) Catalog(ctx context.Context) (*Catalog, error) {
	groups, err := s.repo.PermissionGroups(ctx)
	if err != nil {
		s.logger.Error("failed to load permission groups", "error", err)
		return nil, internal.NewInternalError("failed to load permissions", err)
	}
	loose, err := s.repo.UncategorizedPermissions(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to load permissions", err)
	}

	out := &Catalog{
		Groups:        make([]*PermissionGroup, len(groups)),
		Uncategorized: permissionsFromDataModel(loose),
	}
	for i, g := range groups {
		out.Groups[i] = GroupFromDataModel(g)
	}
	return out, nil
}

func (s *Service) Roles(ctx context.Context) ([]*Role, error) {
	roles, err := s.repo.Roles(ctx)
	if err != nil {
		s.logger.Error("failed to load roles", "error", err)
		return nil, internal.NewInternalError("failed to load roles", err)
	}
	counts, err := s.repo.RoleUserCounts(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to count role users", err)
	}

	out := make([]*Role, len(roles))
	for i, r := range roles {
		out[i] = RoleFromDataModel(r)
		out[i].UserCount = counts[r.ID]
	}
	return out, nil
}

func (s *Service) loadRole(ctx context.Context, id int64) (*accessDatamodel.Role, error) {
	r, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load role", err)
	}
	if r == nil {
		return nil, ErrRoleNotFound
	}
	return r, nil
}

func (s *Service) Role(ctx context.Context, id int64) (*Role, error) {
	r, err := s.loadRole(ctx, id)
	if err != nil {
		return nil, err
	}
	return RoleFromDataModel(r), nil
}

func (s *Service) permissions(ctx context.Context, ids []int64) ([]accessDatamodel.Permission, error) {
	ids = distinct(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	perms, err := s.repo.PermissionsByIDs(ctx, ids)
	if err != nil {
		return nil, internal.NewInternalError("failed to load permissions", err)
	}
	if len(perms) != len(ids) {
		return nil, ErrUnknownPermissions
	}
	return perms, nil
}

func (s *Service) checkRoleName(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repo.GetRoleByName(ctx, name)
	if err != nil {
		return internal.NewInternalError("failed to check role name", err)
	}
	if existing != nil && existing.ID != selfID {
		return ErrRoleExists
	}
	return nil
}

func (s *Service) CreateRole(ctx context.Context, dto RoleDTO) (*Role, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var out *Role
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkRoleName(ctx, dto.Name, 0); err != nil {
			return err
		}
		perms, err := s.permissions(ctx, dto.PermissionIDs)
		if err != nil {
			return err
		}

		r := &accessDatamodel.Role{Name: dto.Name, Description: dto.Description, Permissions: perms}
		if err := s.repo.CreateRole(ctx, r); err != nil {
			return internal.NewInternalError("failed to create role", err)
		}
		out = RoleFromDataModel(r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("role created", "role_id", out.ID, "name", out.Name, "permissions", len(out.Permissions))
	return out, nil
}

func (s *Service) UpdateRole(ctx context.Context, id int64, dto RoleDTO) (*Role, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var out *Role
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := s.loadRole(ctx, id)
		if err != nil {
			return err
		}
		if r.IsSystem {
			s.logger.Warn("system role update refused", "role_id", id)
			return ErrSystemRole
		}
		if err := s.checkRoleName(ctx, dto.Name, id); err != nil {
			return err
		}
		perms, err := s.permissions(ctx, dto.PermissionIDs)
		if err != nil {
			return err
		}

		r.Name = dto.Name
		r.Description = dto.Description
		r.Permissions = perms
		if err := s.repo.UpdateRole(ctx, r); err != nil {
			return internal.NewInternalError("failed to update role", err)
		}
		out = RoleFromDataModel(r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("role updated", "role_id", id, "permissions", len(out.Permissions))
	return out, nil
}

func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		r, err := s.loadRole(ctx, id)
		if err != nil {
			return err
		}
		if r.IsSystem {
			return ErrSystemRole
		}

		counts, err := s.repo.RoleUserCounts(ctx)
		if err != nil {
			return internal.NewInternalError("failed to count role users", err)
		}
		if n := counts[id]; n > 0 {
			return ErrRoleInUse.WithDetails(map[string]int64{"users": n})
		}

		if err := s.repo.DeleteRole(ctx, id); err != nil {
			return internal.NewInternalError("failed to delete role", err)
		}
		s.logger.Info("role deleted", "role_id", id, "name", r.Name)
		return nil
	})
}

func (s *Service) loadUser(ctx context.Context, id int64) (*userDatamodel.User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if u == nil {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

// UserPermissions lists every catalog permission the user holds and the
// source granting it.
func (s *Service) UserPermissions(ctx context.Context, userID int64) (*UserPermissions, error) {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, u)
}

func (s *Service) describe(ctx context.Context, u *userDatamodel.User) (*UserPermissions, error) {
	names, err := s.repo.AllPermissionNames(ctx)
	if err != nil {
		return nil, internal.NewInternalError("failed to load permissions", err)
	}

	p := coreuser.FromDataModel(u)
	out := &UserPermissions{
		UserID:                     u.ID,
		Username:                   u.Username,
		LegacyRole:                 u.Role,
		RoleID:                     u.RoleID,
		RoleName:                   p.RoleName,
		IsAdmin:                    s.authorizer.IsAdmin(p),
		CanChangeStatus:            u.CanChangeStatus,
		CanManageStatusPermissions: u.CanManageStatusPermissions,
		Grants:                     []Grant{},
	}
	for _, name := range names {
		if source, ok := s.authorizer.GrantedBy(p, name); ok {
			out.Grants = append(out.Grants, Grant{Permission: name, Source: source})
		}
	}
	return out, nil
}

// UpdateUserPermissions applies a role change and the legacy flags to a
// non-admin user. Every effective change appends one audit row, as does a
// named permission, which is recorded but not granted.
func (s *Service) UpdateUserPermissions(ctx context.Context, actor *coreuser.Principal, userID int64, dto UpdateUserPermissionsDTO) (*UserPermissions, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var out *UserPermissions
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		u, err := s.loadUser(ctx, userID)
		if err != nil {
			return err
		}
		if s.authorizer.IsAdmin(coreuser.FromDataModel(u)) {
			s.logger.Warn("permission change for admin refused", "user_id", userID, "actor_id", actor.ID)
			return ErrAdminTarget
		}

		now := s.now()
		fields := map[string]interface{}{}
		var changes []*auditDatamodel.PermissionChange
		record := func(changeType, oldValue, newValue string, roleID *int64) *auditDatamodel.PermissionChange {
			change := &auditDatamodel.PermissionChange{
				UserID:      u.ID,
				ChangedByID: actor.ID,
				ChangeType:  changeType,
				OldValue:    oldValue,
				NewValue:    newValue,
				ChangedAt:   now,
				Notes:       dto.Notes,
				RoleID:      roleID,
			}
			changes = append(changes, change)
			return change
		}

		if dto.RoleID != nil && (u.RoleID == nil || *u.RoleID != *dto.RoleID) {
			role, err := s.loadRole(ctx, *dto.RoleID)
			if err != nil {
				return err
			}
			oldName := ""
			if u.RoleRef != nil {
				oldName = u.RoleRef.Name
			}
			fields["role_id"] = role.ID
			record(auditDatamodel.ChangeTypeRoleChange, oldName, role.Name, &role.ID)
			u.RoleID = &role.ID
			u.RoleRef = role
		}
		if dto.CanChangeStatus != nil && *dto.CanChangeStatus != u.CanChangeStatus {
			fields["can_change_status"] = *dto.CanChangeStatus
			record(auditDatamodel.ChangeTypeChangeStatus, strconv.FormatBool(u.CanChangeStatus), strconv.FormatBool(*dto.CanChangeStatus), nil)
			u.CanChangeStatus = *dto.CanChangeStatus
		}
		if dto.CanManageStatusPermissions != nil && *dto.CanManageStatusPermissions != u.CanManageStatusPermissions {
			fields["can_manage_status_permissions"] = *dto.CanManageStatusPermissions
			record(auditDatamodel.ChangeTypeManagePermissions, strconv.FormatBool(u.CanManageStatusPermissions), strconv.FormatBool(*dto.CanManageStatusPermissions), nil)
			u.CanManageStatusPermissions = *dto.CanManageStatusPermissions
		}
		if dto.PermissionID != nil {
			perms, err := s.repo.PermissionsByIDs(ctx, []int64{*dto.PermissionID})
			if err != nil {
				return internal.NewInternalError("failed to load permission", err)
			}
			if len(perms) == 0 {
				return ErrUnknownPermission
			}
			record(auditDatamodel.ChangeTypePermissionAdd, "false", "true", nil).PermissionID = &perms[0].ID
		}

		if len(fields) > 0 {
			if err := s.repo.UpdateUserAccess(ctx, u.ID, fields); err != nil {
				return internal.NewInternalError("failed to update user permissions", err)
			}
		}
		if len(changes) > 0 {
			if err := s.repo.AppendPermissionChanges(ctx, changes); err != nil {
				return internal.NewInternalError("failed to record permission change", err)
			}
			s.logger.Info("user permissions changed", "user_id", u.ID, "actor_id", actor.ID, "changes", len(changes))
		}

		out, err = s.describe(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SeedCatalog creates missing permission groups, permissions and default
// roles. Existing rows are left untouched.
func (s *Service) SeedCatalog(ctx context.Context) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		created := 0
		for _, def := range auth.Catalog {
			g, err := s.repo.GroupByName(ctx, def.Name)
			if err != nil {
				return err
			}
			if g == nil {
				g = &accessDatamodel.PermissionGroup{
					Name:        def.Name,
					DisplayName: def.DisplayName,
					Description: def.Description,
					Icon:        def.Icon,
					Order:       def.Order,
				}
				if err := s.repo.CreateGroup(ctx, g); err != nil {
					return err
				}
			}

			for _, pd := range def.Permissions {
				existing, err := s.repo.PermissionByName(ctx, pd.Name)
				if err != nil {
					return err
				}
				if existing != nil {
					continue
				}
				groupID := g.ID
				if err := s.repo.CreatePermission(ctx, &accessDatamodel.Permission{
					Name:        pd.Name,
					DisplayName: pd.DisplayName,
					GroupID:     &groupID,
					IsCritical:  pd.Critical,
				}); err != nil {
					return err
				}
				created++
			}
		}

		for _, def := range auth.DefaultRoles {
			existing, err := s.repo.GetRoleByName(ctx, def.Name)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			perms, err := s.repo.PermissionsByNames(ctx, def.Permissions)
			if err != nil {
				return err
			}
			r := &accessDatamodel.Role{Name: def.Name, Description: def.Description, IsSystem: def.System, Permissions: perms}
			if err := s.repo.CreateRole(ctx, r); err != nil {
				return err
			}
		}

		s.logger.Info("permission catalog seeded", "new_permissions", created)
		return nil
	})
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
