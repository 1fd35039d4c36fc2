package message

import (
	"time"

	"github.com/frahmantamala/correspondence-management/internal/attachment"
	messageDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/message"
)

const (
	StatusNew        = "new"
	StatusRead       = "read"
	StatusReplied    = "replied"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusClosed     = "closed"
	StatusPostponed  = "postponed"
)

var Statuses = []string{StatusNew, StatusRead, StatusReplied, StatusProcessing, StatusCompleted, StatusClosed, StatusPostponed}

// ReadStatuses count as "read" in outbox statistics.
var ReadStatuses = []string{StatusRead, StatusReplied, StatusProcessing, StatusCompleted, StatusClosed}

const (
	RecipientTypeUser     = "user"
	RecipientTypeGroup    = "group"
	RecipientTypeMultiple = "multiple"
)

const (
	PriorityNormal     = "normal"
	PriorityUrgent     = "urgent"
	PriorityVeryUrgent = "very_urgent"
)

var Priorities = []string{PriorityNormal, PriorityUrgent, PriorityVeryUrgent}

var MessageTypes = []string{"memo", "circular", "request", "notification", "report", "invitation", "other", "incoming"}

const MessageTypeIncoming = "incoming"

const (
	ConfidentialityNormal = "normal"
)

var Confidentialities = []string{ConfidentialityNormal, "confidential", "highly_confidential"}

const (
	RecentLimit   = 5
	SignatureMark = "\n\n--\n"
)

type Message struct {
	ID               int64              `json:"id"`
	Subject          string             `json:"subject"`
	Content          string             `json:"content"`
	Date             time.Time          `json:"date"`
	SenderID         int64              `json:"sender_id"`
	Sender           string             `json:"sender,omitempty"`
	Status           string             `json:"status"`
	MyStatus         string             `json:"my_status,omitempty"`
	Category         string             `json:"category,omitempty"`
	RecipientType    string             `json:"recipient_type"`
	IsMultiRecipient bool               `json:"is_multi_recipient"`
	Priority         string             `json:"priority"`
	MessageType      string             `json:"message_type,omitempty"`
	Confidentiality  string             `json:"confidentiality"`
	ReferenceNumber  string             `json:"reference_number,omitempty"`
	DueDate          *time.Time         `json:"due_date,omitempty"`
	SenderEntity     string             `json:"sender_entity,omitempty"`
	HasAttachments   bool               `json:"has_attachments"`
	Attachments      []*Attachment      `json:"attachments"`
	Recipients       []*RecipientStatus `json:"recipients,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

type Attachment struct {
	ID               int64     `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	Size             string    `json:"size"`
	MimeType         string    `json:"mime_type"`
	Viewable         bool      `json:"viewable"`
	UploadDate       time.Time `json:"upload_date"`
}

// RecipientStatus is one recipient's state as the sender sees it.
type RecipientStatus struct {
	UserID     int64      `json:"user_id"`
	Username   string     `json:"username"`
	FullName   string     `json:"full_name,omitempty"`
	Department string     `json:"department,omitempty"`
	Status     string     `json:"status"`
	IsArchived bool       `json:"is_archived"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

type StatusChange struct {
	ID          int64     `json:"id"`
	OldStatus   string    `json:"old_status"`
	NewStatus   string    `json:"new_status"`
	ChangedAt   time.Time `json:"changed_at"`
	ChangedByID int64     `json:"changed_by_id"`
	ChangedBy   string    `json:"changed_by,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	RecipientID *int64    `json:"recipient_id,omitempty"`
}

// MailboxItem is a row of the inbox or archive, carrying the caller's own
// state.
type MailboxItem struct {
	ID              int64      `json:"id"`
	Subject         string     `json:"subject"`
	Date            time.Time  `json:"date"`
	SenderID        int64      `json:"sender_id"`
	Sender          string     `json:"sender,omitempty"`
	Priority        string     `json:"priority"`
	MessageType     string     `json:"message_type,omitempty"`
	Confidentiality string     `json:"confidentiality"`
	ReferenceNumber string     `json:"reference_number,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	HasAttachments  bool       `json:"has_attachments"`
	Status          string     `json:"status"`
	IsArchived      bool       `json:"is_archived"`
	ReadAt          *time.Time `json:"read_at,omitempty"`
}

type OutboxItem struct {
	ID             int64     `json:"id"`
	Subject        string    `json:"subject"`
	Date           time.Time `json:"date"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	RecipientType  string    `json:"recipient_type"`
	HasAttachments bool      `json:"has_attachments"`
	RecipientCount int64     `json:"recipient_count"`
	ReadCount      int64     `json:"read_count"`
}

type DashboardCounts struct {
	Total    int64 `json:"total_messages" db:"total"`
	Inbox    int64 `json:"inbox_messages" db:"inbox"`
	Sent     int64 `json:"sent_messages" db:"sent"`
	Archived int64 `json:"archived_messages" db:"archived"`
	Unread   int64 `json:"unread_messages" db:"unread"`
}

type Dashboard struct {
	Stats  DashboardCounts `json:"stats"`
	Recent []*MailboxItem  `json:"recent_messages"`
}

// MailboxRow is a message joined with one recipient's state.
type MailboxRow struct {
	Message *messageDatamodel.Message
	State   RecipientState
}

func FromDataModel(m *messageDatamodel.Message) *Message {
	out := &Message{
		ID:               m.ID,
		Subject:          m.Subject,
		Content:          m.Content,
		Date:             m.Date,
		SenderID:         m.SenderID,
		Status:           m.Status,
		Category:         m.Category,
		RecipientType:    m.RecipientType,
		IsMultiRecipient: m.IsMultiRecipient,
		Priority:         m.Priority,
		MessageType:      m.MessageType,
		Confidentiality:  m.Confidentiality,
		ReferenceNumber:  m.ReferenceNumber,
		DueDate:          m.DueDate,
		SenderEntity:     m.SenderEntity,
		HasAttachments:   m.HasAttachments,
		Attachments:      make([]*Attachment, 0, len(m.Attachments)),
		CreatedAt:        m.CreatedAt,
	}
	if m.Sender != nil {
		out.Sender = m.Sender.Username
	}
	for i := range m.Attachments {
		out.Attachments = append(out.Attachments, AttachmentFromDataModel(&m.Attachments[i]))
	}
	return out
}

func AttachmentFromDataModel(a *messageDatamodel.Attachment) *Attachment {
	return &Attachment{
		ID:               a.ID,
		OriginalFilename: a.OriginalFilename,
		FileSize:         a.FileSize,
		Size:             attachment.HumanSize(a.FileSize),
		MimeType:         a.MimeType,
		Viewable:         attachment.IsBrowserViewable(a.MimeType, a.OriginalFilename),
		UploadDate:       a.UploadDate,
	}
}

func StatusChangeFromDataModel(c *messageDatamodel.MessageStatusChange) *StatusChange {
	out := &StatusChange{
		ID:          c.ID,
		OldStatus:   c.OldStatus,
		NewStatus:   c.NewStatus,
		ChangedAt:   c.ChangedAt,
		ChangedByID: c.ChangedByID,
		Notes:       c.Notes,
		RecipientID: c.RecipientID,
	}
	if c.ChangedBy != nil {
		out.ChangedBy = c.ChangedBy.Username
	}
	return out
}

func MailboxItemFromRow(row *MailboxRow) *MailboxItem {
	m := row.Message
	item := &MailboxItem{
		ID:              m.ID,
		Subject:         m.Subject,
		Date:            m.Date,
		SenderID:        m.SenderID,
		Priority:        m.Priority,
		MessageType:     m.MessageType,
		Confidentiality: m.Confidentiality,
		ReferenceNumber: m.ReferenceNumber,
		DueDate:         m.DueDate,
		HasAttachments:  m.HasAttachments,
		Status:          row.State.Status,
		IsArchived:      row.State.IsArchived,
		ReadAt:          row.State.ReadAt,
	}
	if m.Sender != nil {
		item.Sender = m.Sender.Username
	}
	return item
}

func MailboxItemsFromRows(rows []*MailboxRow) []*MailboxItem {
	items := make([]*MailboxItem, len(rows))
	for i, row := range rows {
		items[i] = MailboxItemFromRow(row)
	}
	return items
}
