package message

import (
	"time"

	"github.com/frahmantamala/correspondence-management/internal/core/datamodel/user"
)

// Message keeps the sender-side state. RecipientID is only set on rows
// written before recipients moved to message_recipients.
type Message struct {
	ID               int64              `gorm:"primaryKey"`
	Subject          string             `gorm:"column:subject;not null"`
	Content          string             `gorm:"column:content;not null"`
	Date             time.Time          `gorm:"column:date;not null"`
	SenderID         int64              `gorm:"column:sender_id;not null;index"`
	Sender           *user.User         `gorm:"foreignKey:SenderID"`
	RecipientID      *int64             `gorm:"column:recipient_id"`
	Status           string             `gorm:"column:status;not null"`
	Category         string             `gorm:"column:category"`
	IsArchived       bool               `gorm:"column:is_archived"`
	HasAttachments   bool               `gorm:"column:has_attachments"`
	IsMultiRecipient bool               `gorm:"column:is_multi_recipient"`
	RecipientType    string             `gorm:"column:recipient_type"`
	Priority         string             `gorm:"column:priority"`
	MessageType      string             `gorm:"column:message_type"`
	Confidentiality  string             `gorm:"column:confidentiality"`
	ReferenceNumber  string             `gorm:"column:reference_number"`
	DueDate          *time.Time         `gorm:"column:due_date"`
	SenderEntity     string             `gorm:"column:sender_entity"`
	Recipients       []MessageRecipient `gorm:"foreignKey:MessageID"`
	Attachments      []Attachment       `gorm:"foreignKey:MessageID"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (Message) TableName() string {
	return "messages"
}

type MessageRecipient struct {
	ID            int64      `gorm:"primaryKey"`
	MessageID     int64      `gorm:"column:message_id;not null;uniqueIndex:idx_message_recipient"`
	RecipientID   int64      `gorm:"column:recipient_id;not null;uniqueIndex:idx_message_recipient;index"`
	Recipient     *user.User `gorm:"foreignKey:RecipientID"`
	RecipientType string     `gorm:"column:recipient_type"`
	Status        string     `gorm:"column:status;not null"`
	IsArchived    bool       `gorm:"column:is_archived"`
	ReadAt        *time.Time `gorm:"column:read_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (MessageRecipient) TableName() string {
	return "message_recipients"
}

// MessageStatusChange is append-only.
type MessageStatusChange struct {
	ID          int64      `gorm:"primaryKey"`
	MessageID   int64      `gorm:"column:message_id;not null;index"`
	OldStatus   string     `gorm:"column:old_status"`
	NewStatus   string     `gorm:"column:new_status;not null"`
	ChangedAt   time.Time  `gorm:"column:changed_at;not null"`
	ChangedByID int64      `gorm:"column:changed_by_id;not null"`
	ChangedBy   *user.User `gorm:"foreignKey:ChangedByID"`
	Notes       string     `gorm:"column:notes"`
	RecipientID *int64     `gorm:"column:recipient_id"`
}

func (MessageStatusChange) TableName() string {
	return "message_status_changes"
}

type Attachment struct {
	ID               int64     `gorm:"primaryKey"`
	MessageID        int64     `gorm:"column:message_id;not null;index"`
	Filename         string    `gorm:"column:filename;not null"`
	OriginalFilename string    `gorm:"column:original_filename;not null"`
	FilePath         string    `gorm:"column:file_path;not null"`
	FileSize         int64     `gorm:"column:file_size"`
	MimeType         string    `gorm:"column:mime_type"`
	UploadDate       time.Time `gorm:"column:upload_date;autoCreateTime"`
}

func (Attachment) TableName() string {
	return "attachments"
}
