package notification

import "time"

type Notification struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	Title     string    `gorm:"column:title;not null"`
	Content   string    `gorm:"column:content;not null"`
	Icon      string    `gorm:"column:icon"`
	Color     string    `gorm:"column:color"`
	IsRead    bool      `gorm:"column:is_read"`
	Link      string    `gorm:"column:link"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
