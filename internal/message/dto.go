package message

import (
	"strings"
	"time"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/core/common/validation"
)

const dateLayout = "2006-01-02"

// SendMessageDTO is accepted as JSON or as a multipart form.
type SendMessageDTO struct {
	Subject          string  `json:"subject" schema:"subject"`
	Content          string  `json:"content" schema:"content"`
	RecipientType    string  `json:"recipient_type" schema:"recipient_type"`
	Recipient        string  `json:"recipient" schema:"recipient"`
	GroupID          int64   `json:"group_id" schema:"group_id"`
	RecipientIDs     []int64 `json:"recipient_ids" schema:"recipient_ids"`
	Category         string  `json:"category" schema:"category"`
	Priority         string  `json:"priority" schema:"priority"`
	MessageType      string  `json:"message_type" schema:"message_type"`
	Confidentiality  string  `json:"confidentiality" schema:"confidentiality"`
	ReferenceNumber  string  `json:"reference_number" schema:"reference_number"`
	Date             string  `json:"date" schema:"date"`
	DueDate          string  `json:"due_date" schema:"due_date"`
	SenderEntity     string  `json:"sender_entity" schema:"sender_entity"`
	IncludeSignature bool    `json:"include_signature" schema:"include_signature"`
}

func (d *SendMessageDTO) Normalize() {
	d.Subject = strings.TrimSpace(d.Subject)
	if d.RecipientType == "" {
		d.RecipientType = RecipientTypeUser
	}
	if d.Priority == "" {
		d.Priority = PriorityNormal
	}
	if d.Confidentiality == "" {
		d.Confidentiality = ConfidentialityNormal
	}
}

func (d SendMessageDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("subject", d.Subject).Required().MaxLength(200)
	v.Field("content", d.Content).Required()
	v.Field("recipient_type", d.RecipientType).OneOf(RecipientTypeUser, RecipientTypeGroup, RecipientTypeMultiple)
	v.Field("priority", d.Priority).OneOf(Priorities...)
	v.Field("message_type", d.MessageType).OneOf(MessageTypes...)
	v.Field("confidentiality", d.Confidentiality).OneOf(Confidentialities...)
	v.Field("reference_number", d.ReferenceNumber).MaxLength(50)
	v.Field("sender_entity", d.SenderEntity).MaxLength(200)
	v.Field("date", d.Date).Custom(dateField("date"))
	v.Field("due_date", d.DueDate).Custom(dateField("due_date"))
	return v.Err()
}

func (d SendMessageDTO) Spec() RecipientSpec {
	return RecipientSpec{
		Type:     d.RecipientType,
		Username: d.Recipient,
		GroupID:  d.GroupID,
		UserIDs:  d.RecipientIDs,
	}
}

// Dates returns the message date (now when omitted) and the optional due date.
func (d SendMessageDTO) Dates(now time.Time) (time.Time, *time.Time) {
	date := now
	if t, ok := parseDate(d.Date); ok {
		date = t
	}
	var due *time.Time
	if t, ok := parseDate(d.DueDate); ok {
		due = &t
	}
	return date, due
}

type ChangeStatusDTO struct {
	Status      string `json:"status"`
	Notes       string `json:"notes"`
	RecipientID *int64 `json:"recipient_id,omitempty"`
}

func (d ChangeStatusDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("status", d.Status).Required().OneOf(Statuses...)
	v.Field("notes", d.Notes).MaxLength(1000)
	return v.Err()
}

type ReplyDTO struct {
	Subject          string `json:"subject" schema:"subject"`
	Content          string `json:"content" schema:"content"`
	Priority         string `json:"priority" schema:"priority"`
	IncludeSignature bool   `json:"include_signature" schema:"include_signature"`
}

func (d ReplyDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("subject", d.Subject).MaxLength(200)
	v.Field("content", d.Content).Required()
	v.Field("priority", d.Priority).OneOf(Priorities...)
	return v.Err()
}

type BulkDeleteDTO struct {
	MessageIDs []int64 `json:"message_ids"`
}

func (d BulkDeleteDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("message_ids", d.MessageIDs).Required()
	return v.Err()
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func dateField(name string) func(interface{}) *internal.AppError {
	return func(value interface{}) *internal.AppError {
		raw, _ := value.(string)
		if strings.TrimSpace(raw) == "" {
			return nil
		}
		if _, ok := parseDate(raw); !ok {
			return internal.NewValidationFieldError(name, name+" must be a date (YYYY-MM-DD)", internal.ErrCodeInvalidDate)
		}
		return nil
	}
}

var (
	ErrMessageNotFound    = internal.NewNotFoundError("Message not found", internal.ErrCodeMessageNotFound)
	ErrAttachmentNotFound = internal.NewNotFoundError("Attachment not found", internal.ErrCodeAttachmentNotFound)
	ErrNoRecipients       = internal.NewValidationError("No valid recipients were selected", internal.ErrCodeNoRecipients)
	ErrRecipientNotFound  = internal.NewValidationError("Recipient does not exist or is inactive", internal.ErrCodeRecipientNotFound)
	ErrUnknownRecipient   = internal.NewNotFoundError("The user is not a recipient of this message", internal.ErrCodeRecipientNotFound)
	ErrMessageAccess      = internal.NewForbiddenError("Not allowed to access this message", internal.ErrCodeMessageAccess)
	ErrStatusNotPermitted = internal.NewForbiddenError("Not allowed to change the status of this message", internal.ErrCodeStatusNotPermitted)
	ErrDeleteNotPermitted = internal.NewForbiddenError("Not allowed to delete one or more of the selected messages", internal.ErrCodeMessageAccess)
)
