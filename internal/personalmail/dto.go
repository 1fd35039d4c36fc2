package personalmail

import (
	"strings"
	"time"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/core/common/validation"
)

// MailDTO is accepted as JSON or as a multipart form for both create and
// update.
type MailDTO struct {
	Title           string `json:"title" schema:"title"`
	Content         string `json:"content" schema:"content"`
	Source          string `json:"source" schema:"source"`
	ReferenceNumber string `json:"reference_number" schema:"reference_number"`
	DueDate         string `json:"due_date" schema:"due_date"`
	Status          string `json:"status" schema:"status"`
	Priority        string `json:"priority" schema:"priority"`
	Notes           string `json:"notes" schema:"notes"`
}

func (d *MailDTO) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.DueDate = strings.TrimSpace(d.DueDate)
	if d.Status == "" {
		d.Status = StatusPending
	}
	if d.Priority == "" {
		d.Priority = "normal"
	}
}

func (d MailDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(200)
	v.Field("source", d.Source).MaxLength(200)
	v.Field("reference_number", d.ReferenceNumber).MaxLength(100)
	v.Field("status", d.Status).OneOf(Statuses...)
	v.Field("priority", d.Priority).OneOf(Priorities...)
	v.Field("due_date", d.DueDate).Custom(func(interface{}) *internal.AppError {
		if _, err := d.Due(); err != nil {
			return internal.NewValidationFieldError("due_date", "due_date must be a date (YYYY-MM-DD)", internal.ErrCodeInvalidDate)
		}
		return nil
	})
	return v.Err()
}

func (d MailDTO) Due() (*time.Time, error) {
	if d.DueDate == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", d.DueDate)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type ChangeStatusDTO struct {
	Status string `json:"status"`
}

func (d ChangeStatusDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("status", d.Status).Required().OneOf(Statuses...)
	return v.Err()
}

var (
	ErrMailNotFound       = internal.NewNotFoundError("Personal mail not found", internal.ErrCodePersonalMailNotFound)
	ErrAttachmentNotFound = internal.NewNotFoundError("Attachment not found", internal.ErrCodeAttachmentNotFound)
)
