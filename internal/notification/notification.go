package notification

import (
	"fmt"
	"time"

	"github.com/frahmantamala/correspondence-management/internal"
	notificationDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/notification"
)

const (
	DefaultIcon  = "fa-bell"
	DefaultColor = "primary"

	PageSize    = 10
	RecentLimit = 5
)

var (
	ErrNotificationNotFound = internal.NewNotFoundError("Notification not found", internal.ErrCodeNotificationNotFound)
	ErrNotOwner             = internal.NewForbiddenError("Notification belongs to another user", internal.ErrCodeInsufficientPermissions)
)

const (
	PriorityNormal     = "normal"
	PriorityUrgent     = "urgent"
	PriorityVeryUrgent = "very_urgent"
)

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	IsRead    bool      `json:"is_read"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Draft is a notification before it is addressed and stored.
type Draft struct {
	Title   string
	Content string
	Icon    string
	Color   string
	Link    string
}

// Contact is what delivery needs to know about a user.
type Contact struct {
	ID                   int64
	Email                string
	NotificationsEnabled bool
}

type Page struct {
	Items      []*Notification `json:"items"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	Total      int64           `json:"total"`
	TotalPages int             `json:"total_pages"`
}

func newMessageDraft(priority, senderUsername, subject string, messageID int64) Draft {
	d := Draft{
		Title:   "New message",
		Content: fmt.Sprintf("You have a new message from %s: %s", senderUsername, subject),
		Icon:    "fa-envelope",
		Color:   "primary",
		Link:    MessageLink(messageID),
	}
	switch priority {
	case PriorityUrgent:
		d.Title, d.Icon, d.Color = "Urgent message", "fa-exclamation-circle", "warning"
	case PriorityVeryUrgent:
		d.Title, d.Icon, d.Color = "Very urgent message", "fa-exclamation-triangle", "danger"
	}
	return d
}

func replyDraft(priority, replierUsername, subject string, replyID int64) Draft {
	d := Draft{
		Title:   "Reply to your message",
		Content: fmt.Sprintf("%s replied to your message: %s", replierUsername, subject),
		Icon:    "fa-reply",
		Color:   "info",
		Link:    MessageLink(replyID),
	}
	switch priority {
	case PriorityUrgent:
		d.Title, d.Icon, d.Color = "Urgent reply to your message", "fa-exclamation-circle", "warning"
	case PriorityVeryUrgent:
		d.Title, d.Icon, d.Color = "Very urgent reply to your message", "fa-exclamation-triangle", "danger"
	}
	return d
}

func statusChangedDraft(subject, newStatus string, messageID int64) Draft {
	return Draft{
		Title:   "Message status changed",
		Content: fmt.Sprintf("The status of your message %q changed to %q", subject, newStatus),
		Icon:    "fa-exchange-alt",
		Color:   "warning",
		Link:    MessageLink(messageID),
	}
}

func MessageLink(messageID int64) string {
	return fmt.Sprintf("/api/v1/messages/%d", messageID)
}

func ToDataModel(userID int64, d Draft) *notificationDatamodel.Notification {
	icon, color := d.Icon, d.Color
	if icon == "" {
		icon = DefaultIcon
	}
	if color == "" {
		color = DefaultColor
	}
	return &notificationDatamodel.Notification{
		UserID:  userID,
		Title:   d.Title,
		Content: d.Content,
		Icon:    icon,
		Color:   color,
		IsRead:  false,
		Link:    d.Link,
	}
}

func FromDataModel(n *notificationDatamodel.Notification) *Notification {
	return &Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Content:   n.Content,
		Icon:      n.Icon,
		Color:     n.Color,
		IsRead:    n.IsRead,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
	}
}

func FromDataModelSlice(items []*notificationDatamodel.Notification) []*Notification {
	result := make([]*Notification, len(items))
	for i, n := range items {
		result[i] = FromDataModel(n)
	}
	return result
}
