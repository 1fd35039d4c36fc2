package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/correspondence-management/internal/core/database"
	notificationDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/notification"
	userDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
	"github.com/frahmantamala/correspondence-management/internal/notification"
	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notificationDatamodel.Notification) error {
	return database.Conn(ctx, r.db).Create(n).Error
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*notificationDatamodel.Notification, error) {
	var n notificationDatamodel.Notification
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*notificationDatamodel.Notification, error) {
	var items []*notificationDatamodel.Notification
	err := database.Conn(ctx, r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	return items, err
}

func (r *NotificationRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&notificationDatamodel.Notification{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	return database.Conn(ctx, r.db).Model(&notificationDatamodel.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	result := database.Conn(ctx, r.db).Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// Contacts keeps the order of userIDs and skips inactive users.
func (r *NotificationRepository) Contacts(ctx context.Context, userIDs []int64) ([]notification.Contact, error) {
	var users []userDatamodel.User
	err := database.Conn(ctx, r.db).
		Select("id", "email", "notifications_enabled").
		Where("id IN ? AND is_active = ?", userIDs, true).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]userDatamodel.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	contacts := make([]notification.Contact, 0, len(users))
	for _, id := range userIDs {
		if u, ok := byID[id]; ok {
			contacts = append(contacts, notification.Contact{ID: u.ID, Email: u.Email, NotificationsEnabled: u.NotificationsEnabled})
			delete(byID, id)
		}
	}
	return contacts, nil
}
