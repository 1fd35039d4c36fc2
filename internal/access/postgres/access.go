package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/correspondence-management/internal/core/database"
	accessDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/access"
	auditDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/audit"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type AccessRepository struct {
	db *gorm.DB
}

func NewAccessRepository(db *gorm.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

func first(q *gorm.DB, dst interface{}) (bool, error) {
	err := q.First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *AccessRepository) PermissionGroups(ctx context.Context) ([]*accessDatamodel.PermissionGroup, error) {
	var groups []*accessDatamodel.PermissionGroup
	err := database.Conn(ctx, r.db).
		Preload("Permissions", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("sort_order ASC, id ASC").
		Find(&groups).Error
	return groups, err
}

func (r *AccessRepository) UncategorizedPermissions(ctx context.Context) ([]accessDatamodel.Permission, error) {
	var perms []accessDatamodel.Permission
	err := database.Conn(ctx, r.db).Where("group_id IS NULL").Order("name ASC").Find(&perms).Error
	return perms, err
}

func (r *AccessRepository) AllPermissionNames(ctx context.Context) ([]string, error) {
	var names []string
	err := database.Conn(ctx, r.db).Model(&accessDatamodel.Permission{}).Order("id ASC").Pluck("name", &names).Error
	return names, err
}

func (r *AccessRepository) PermissionsByIDs(ctx context.Context, ids []int64) ([]accessDatamodel.Permission, error) {
	var perms []accessDatamodel.Permission
	err := database.Conn(ctx, r.db).Where("id IN ?", ids).Order("id ASC").Find(&perms).Error
	return perms, err
}

func (r *AccessRepository) PermissionsByNames(ctx context.Context, names []string) ([]accessDatamodel.Permission, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var perms []accessDatamodel.Permission
	err := database.Conn(ctx, r.db).Where("name IN ?", names).Order("id ASC").Find(&perms).Error
	return perms, err
}

func (r *AccessRepository) GroupByName(ctx context.Context, name string) (*accessDatamodel.PermissionGroup, error) {
	var g accessDatamodel.PermissionGroup
	found, err := first(database.Conn(ctx, r.db).Where("name = ?", name), &g)
	if !found {
		return nil, err
	}
	return &g, nil
}

func (r *AccessRepository) CreateGroup(ctx context.Context, g *accessDatamodel.PermissionGroup) error {
	return database.Conn(ctx, r.db).Omit("Permissions").Create(g).Error
}

func (r *AccessRepository) PermissionByName(ctx context.Context, name string) (*accessDatamodel.Permission, error) {
	var p accessDatamodel.Permission
	found, err := first(database.Conn(ctx, r.db).Where("name = ?", name), &p)
	if !found {
		return nil, err
	}
	return &p, nil
}

func (r *AccessRepository) CreatePermission(ctx context.Context, p *accessDatamodel.Permission) error {
	return database.Conn(ctx, r.db).Create(p).Error
}

func (r *AccessRepository) Roles(ctx context.Context) ([]*accessDatamodel.Role, error) {
	var roles []*accessDatamodel.Role
	err := database.Conn(ctx, r.db).Preload("Permissions").Order("name ASC").Find(&roles).Error
	return roles, err
}

func (r *AccessRepository) GetRole(ctx context.Context, id int64) (*accessDatamodel.Role, error) {
	var role accessDatamodel.Role
	found, err := first(database.Conn(ctx, r.db).Preload("Permissions").Where("id = ?", id), &role)
	if !found {
		return nil, err
	}
	return &role, nil
}

func (r *AccessRepository) GetRoleByName(ctx context.Context, name string) (*accessDatamodel.Role, error) {
	var role accessDatamodel.Role
	found, err := first(database.Conn(ctx, r.db).Where("name = ?", name), &role)
	if !found {
		return nil, err
	}
	return &role, nil
}

func (r *AccessRepository) RoleUserCounts(ctx context.Context) (map[int64]int64, error) {
	var rows []struct {
		RoleID int64
		Total  int64
	}
	err := database.Conn(ctx, r.db).
		Model(&userDatamodel.User{}).
		Select("role_id, COUNT(*) AS total").
		Where("role_id IS NOT NULL").
		Group("role_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int64, len(rows))
	for _, row := range rows {
		counts[row.RoleID] = row.Total
	}
	return counts, nil
}

// CreateRole links the role to its already persisted permissions.
func (r *AccessRepository) CreateRole(ctx context.Context, role *accessDatamodel.Role) error {
	return database.Conn(ctx, r.db).Omit("Permissions.*").Create(role).Error
}

func (r *AccessRepository) UpdateRole(ctx context.Context, role *accessDatamodel.Role) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Model(role).Select("name", "description").Updates(role).Error; err != nil {
		return err
	}
	return conn.Model(role).Association("Permissions").Replace(role.Permissions)
}

func (r *AccessRepository) DeleteRole(ctx context.Context, id int64) error {
	conn := database.Conn(ctx, r.db)
	role := &accessDatamodel.Role{ID: id}
	if err := conn.Model(role).Association("Permissions").Clear(); err != nil {
		return err
	}
	return conn.Delete(role).Error
}

func (r *AccessRepository) GetUser(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	found, err := first(database.Conn(ctx, r.db).Preload("RoleRef.Permissions").Where("id = ?", id), &u)
	if !found {
		return nil, err
	}
	return &u, nil
}

func (r *AccessRepository) UpdateUserAccess(ctx context.Context, id int64, fields map[string]interface{}) error {
	return database.Conn(ctx, r.db).Model(&userDatamodel.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *AccessRepository) AppendPermissionChanges(ctx context.Context, changes []*auditDatamodel.PermissionChange) error {
	if len(changes) == 0 {
		return nil
	}
	return database.Conn(ctx, r.db).Omit("User", "ChangedBy").Create(&changes).Error
}
