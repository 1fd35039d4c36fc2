package personalmail

import "time"

type PersonalMail struct {
	ID              int64                    `gorm:"primaryKey"`
	UserID          int64                    `gorm:"column:user_id;not null;index"`
	Title           string                   `gorm:"column:title;not null"`
	Content         string                   `gorm:"column:content"`
	Source          string                   `gorm:"column:source"`
	ReferenceNumber string                   `gorm:"column:reference_number"`
	Date            time.Time                `gorm:"column:date;not null"`
	DueDate         *time.Time               `gorm:"column:due_date"`
	Status          string                   `gorm:"column:status;not null"`
	Priority        string                   `gorm:"column:priority"`
	Notes           string                   `gorm:"column:notes"`
	HasAttachments  bool                     `gorm:"column:has_attachments"`
	IsArchived      bool                     `gorm:"column:is_archived"`
	Attachments     []PersonalMailAttachment `gorm:"foreignKey:PersonalMailID"`
	CreatedAt       time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (PersonalMail) TableName() string {
	return "personal_mails"
}

type PersonalMailAttachment struct {
	ID               int64     `gorm:"primaryKey"`
	PersonalMailID   int64     `gorm:"column:personal_mail_id;not null;index"`
	Filename         string    `gorm:"column:filename;not null"`
	OriginalFilename string    `gorm:"column:original_filename;not null"`
	FilePath         string    `gorm:"column:file_path;not null"`
	FileSize         int64     `gorm:"column:file_size"`
	MimeType         string    `gorm:"column:mime_type"`
	UploadDate       time.Time `gorm:"column:upload_date;autoCreateTime"`
}

func (PersonalMailAttachment) TableName() string {
	return "personal_mail_attachments"
}
