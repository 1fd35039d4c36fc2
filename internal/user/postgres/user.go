package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/correspondence-management/internal/core/database"
	"github.com/frahmantamala/correspondence-management/internal/core/datamodel/access"
	auditDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/audit"
	groupDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/group"
	messageDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/message"
	notificationDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/notification"
	personalmailDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/personalmail"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) first(q *gorm.DB) (*userDatamodel.User, error) {
	var u userDatamodel.User
	if err := q.First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) exists(q *gorm.DB) (bool, error) {
	var n int64
	err := q.Limit(1).Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) List(ctx context.Context) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := database.Conn(ctx, r.db).Preload("Department").Preload("RoleRef").Order("username ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	return r.first(database.Conn(ctx, r.db).Preload("Department").Preload("RoleRef").Where("id = ?", id))
}

func (r *UserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.exists(database.Conn(ctx, r.db).Model(&userDatamodel.User{}).Where("username = ?", username))
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	return r.exists(database.Conn(ctx, r.db).Model(&userDatamodel.User{}).Where("email = ? AND id <> ?", email, exceptID))
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	return database.Conn(ctx, r.db).Omit("Department", "RoleRef").Create(u).Error
}

func (r *UserRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	return database.Conn(ctx, r.db).Model(&userDatamodel.User{}).Where("id = ?", id).Updates(fields).Error
}

// IsReferenced reports whether correspondence or records owned by others
// point at the user.
func (r *UserRepository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	conn := database.Conn(ctx, r.db)
	checks := []*gorm.DB{
		conn.Model(&messageDatamodel.Message{}).Where("sender_id = ? OR recipient_id = ?", id, id),
		conn.Model(&messageDatamodel.MessageRecipient{}).Where("recipient_id = ?", id),
		conn.Model(&messageDatamodel.MessageStatusChange{}).Where("changed_by_id = ?", id),
		conn.Model(&groupDatamodel.UserGroup{}).Where("created_by_id = ?", id),
		conn.Model(&personalmailDatamodel.PersonalMail{}).Where("user_id = ?", id),
		conn.Model(&auditDatamodel.PermissionChange{}).Where("changed_by_id = ? AND user_id <> ?", id, id),
	}
	for _, q := range checks {
		found, err := r.exists(q)
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

// Delete removes the user with the rows only the user owns.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	conn := database.Conn(ctx, r.db)
	if err := conn.Where("user_id = ? OR favorite_user_id = ?", id, id).Delete(&userDatamodel.FavoriteUser{}).Error; err != nil {
		return err
	}
	for _, model := range []interface{}{
		&groupDatamodel.UserGroupMembership{},
		&notificationDatamodel.Notification{},
		&auditDatamodel.UserLoginLog{},
		&auditDatamodel.PermissionChange{},
	} {
		if err := conn.Where("user_id = ?", id).Delete(model).Error; err != nil {
			return err
		}
	}
	return conn.Where("id = ?", id).Delete(&userDatamodel.User{}).Error
}

func (r *UserRepository) DepartmentExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(database.Conn(ctx, r.db).Model(&userDatamodel.Department{}).Where("id = ?", id))
}

func (r *UserRepository) GetRole(ctx context.Context, id int64) (*access.Role, error) {
	var role access.Role
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *UserRepository) Favorites(ctx context.Context, userID int64) ([]*userDatamodel.FavoriteUser, error) {
	var favorites []*userDatamodel.FavoriteUser
	err := database.Conn(ctx, r.db).
		Preload("Favorite.Department").
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&favorites).Error
	return favorites, err
}

func (r *UserRepository) FavoriteIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := database.Conn(ctx, r.db).Model(&userDatamodel.FavoriteUser{}).
		Where("user_id = ?", userID).
		Pluck("favorite_user_id", &ids).Error
	return ids, err
}

func (r *UserRepository) AddFavorite(ctx context.Context, f *userDatamodel.FavoriteUser) error {
	return database.Conn(ctx, r.db).Omit("Favorite").Create(f).Error
}

func (r *UserRepository) RemoveFavorite(ctx context.Context, userID, favoriteID int64) (bool, error) {
	res := database.Conn(ctx, r.db).
		Where("user_id = ? AND favorite_user_id = ?", userID, favoriteID).
		Delete(&userDatamodel.FavoriteUser{})
	return res.RowsAffected > 0, res.Error
}

func (r *UserRepository) Directory(ctx context.Context, excludeID int64) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := database.Conn(ctx, r.db).
		Preload("Department").
		Where("is_active = ? AND id <> ?", true, excludeID).
		Order("full_name ASC, username ASC").
		Find(&users).Error
	return users, err
}

// ActiveUserID resolves a username to an active user id, 0 when there is
// none.
func (r *UserRepository) ActiveUserID(ctx context.Context, username string) (int64, error) {
	var ids []int64
	err := database.Conn(ctx, r.db).Model(&userDatamodel.User{}).
		Where("username = ? AND is_active = ?", username, true).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	return ids[0], nil
}

// FilterActive keeps the ids of active users in input order.
func (r *UserRepository) FilterActive(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var active []int64
	err := database.Conn(ctx, r.db).Model(&userDatamodel.User{}).
		Where("id IN ? AND is_active = ?", ids, true).
		Pluck("id", &active).Error
	if err != nil {
		return nil, err
	}

	ok := make(map[int64]bool, len(active))
	for _, id := range active {
		ok[id] = true
	}
	out := make([]int64, 0, len(active))
	for _, id := range ids {
		if ok[id] {
			out = append(out, id)
			ok[id] = false
		}
	}
	return out, nil
}
