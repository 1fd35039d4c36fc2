package personalmail

import (
	"time"

	"github.com/frahmantamala/correspondence-management/internal/attachment"
	pmDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/personalmail"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

var Statuses = []string{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

var Priorities = []string{"normal", "urgent", "very_urgent"}

var statusColors = map[string]string{
	StatusPending:    "warning",
	StatusInProgress: "info",
	StatusCompleted:  "success",
	StatusCancelled:  "danger",
}

var priorityColors = map[string]string{
	"normal":      "success",
	"urgent":      "warning",
	"very_urgent": "danger",
}

func colorOf(colors map[string]string, key string) string {
	if c, ok := colors[key]; ok {
		return c
	}
	return "secondary"
}

type Mail struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Content         string        `json:"content,omitempty"`
	Source          string        `json:"source,omitempty"`
	ReferenceNumber string        `json:"reference_number,omitempty"`
	Date            time.Time     `json:"date"`
	DueDate         *time.Time    `json:"due_date,omitempty"`
	Overdue         bool          `json:"overdue"`
	Status          string        `json:"status"`
	StatusColor     string        `json:"status_color"`
	Priority        string        `json:"priority"`
	PriorityColor   string        `json:"priority_color"`
	Notes           string        `json:"notes,omitempty"`
	HasAttachments  bool          `json:"has_attachments"`
	IsArchived      bool          `json:"is_archived"`
	Attachments     []*Attachment `json:"attachments"`
	UpdatedAt       time.Time     `json:"updated_at"`
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

// FromDataModel marks an open entry overdue once its due date has passed.
func FromDataModel(m *pmDatamodel.PersonalMail, now time.Time) *Mail {
	out := &Mail{
		ID:              m.ID,
		Title:           m.Title,
		Content:         m.Content,
		Source:          m.Source,
		ReferenceNumber: m.ReferenceNumber,
		Date:            m.Date,
		DueDate:         m.DueDate,
		Status:          m.Status,
		StatusColor:     colorOf(statusColors, m.Status),
		Priority:        m.Priority,
		PriorityColor:   colorOf(priorityColors, m.Priority),
		Notes:           m.Notes,
		HasAttachments:  m.HasAttachments,
		IsArchived:      m.IsArchived,
		Attachments:     make([]*Attachment, 0, len(m.Attachments)),
		UpdatedAt:       m.UpdatedAt,
	}
	if m.DueDate != nil && m.Status != StatusCompleted && m.Status != StatusCancelled {
		out.Overdue = m.DueDate.Before(now)
	}
	for i := range m.Attachments {
		out.Attachments = append(out.Attachments, AttachmentFromDataModel(&m.Attachments[i]))
	}
	return out
}

func AttachmentFromDataModel(a *pmDatamodel.PersonalMailAttachment) *Attachment {
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
