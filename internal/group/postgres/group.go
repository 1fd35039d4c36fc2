package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/correspondence-management/internal/core/database"
	groupDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/group"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) Create(ctx context.Context, g *groupDatamodel.UserGroup) error {
	return database.Conn(ctx, r.db).Omit(clause.Associations).Create(g).Error
}

func first(q *gorm.DB, dst interface{}) (bool, error) {
	err := q.First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*groupDatamodel.UserGroup, error) {
	var g groupDatamodel.UserGroup
	found, err := first(database.Conn(ctx, r.db).Preload("CreatedBy").Preload("Members").Where("id = ?", id), &g)
	if !found {
		return nil, err
	}
	return &g, nil
}

func (r *GroupRepository) GetByName(ctx context.Context, name string) (*groupDatamodel.UserGroup, error) {
	var g groupDatamodel.UserGroup
	found, err := first(database.Conn(ctx, r.db).Where("name = ?", name), &g)
	if !found {
		return nil, err
	}
	return &g, nil
}

// ListVisible returns public groups, groups the user created and groups the
// user belongs to; all is for administrators.
func (r *GroupRepository) ListVisible(ctx context.Context, userID int64, all bool) ([]*groupDatamodel.UserGroup, error) {
	q := database.Conn(ctx, r.db).Preload("CreatedBy").Preload("Members").Order("name ASC")
	if !all {
		memberOf := database.Conn(ctx, r.db).Model(&groupDatamodel.UserGroupMembership{}).
			Select("group_id").
			Where("user_id = ?", userID)
		q = q.Where("is_public = ? OR created_by_id = ? OR id IN (?)", true, userID, memberOf)
	}

	var groups []*groupDatamodel.UserGroup
	err := q.Find(&groups).Error
	return groups, err
}

func (r *GroupRepository) Update(ctx context.Context, g *groupDatamodel.UserGroup) error {
	return database.Conn(ctx, r.db).Model(&groupDatamodel.UserGroup{}).
		Where("id = ?", g.ID).
		Updates(map[string]interface{}{
			"name":        g.Name,
			"description": g.Description,
			"is_public":   g.IsPublic,
			"is_active":   g.IsActive,
		}).Error
}

func (r *GroupRepository) Delete(ctx context.Context, id int64) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Where("group_id = ?", id).Delete(&groupDatamodel.UserGroupMembership{}).Error; err != nil {
		return err
	}
	return conn.Delete(&groupDatamodel.UserGroup{}, id).Error
}

func (r *GroupRepository) GetMembership(ctx context.Context, groupID, userID int64) (*groupDatamodel.UserGroupMembership, error) {
	var m groupDatamodel.UserGroupMembership
	found, err := first(database.Conn(ctx, r.db).Where("group_id = ? AND user_id = ?", groupID, userID), &m)
	if !found {
		return nil, err
	}
	return &m, nil
}

func (r *GroupRepository) AddMembership(ctx context.Context, m *groupDatamodel.UserGroupMembership) error {
	return database.Conn(ctx, r.db).Omit("User").Create(m).Error
}

func (r *GroupRepository) RemoveMembership(ctx context.Context, groupID, userID int64) error {
	return database.Conn(ctx, r.db).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&groupDatamodel.UserGroupMembership{}).Error
}

func (r *GroupRepository) ListMembers(ctx context.Context, groupID int64) ([]*groupDatamodel.UserGroupMembership, error) {
	var members []*groupDatamodel.UserGroupMembership
	err := database.Conn(ctx, r.db).
		Preload("User").
		Where("group_id = ?", groupID).
		Order("joined_at ASC, id ASC").
		Find(&members).Error
	return members, err
}

func (r *GroupRepository) ActiveMemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	var ids []int64
	err := database.Conn(ctx, r.db).
		Table("user_group_memberships AS m").
		Joins("JOIN users u ON u.id = m.user_id").
		Where("m.group_id = ? AND u.is_active = ?", groupID, true).
		Order("m.joined_at ASC, m.id ASC").
		Pluck("m.user_id", &ids).Error
	return ids, err
}

func (r *GroupRepository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&userDatamodel.User{}).Where("id = ?", userID).Count(&count).Error
	return count > 0, err
}
