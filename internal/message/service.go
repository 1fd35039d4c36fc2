package message

import (
	"context"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/attachment"
	"github.com/frahmantamala/correspondence-management/internal/auth"
	"github.com/frahmantamala/correspondence-management/internal/core/database"
	messageDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/message"
	"github.com/frahmantamala/correspondence-management/internal/core/events"
	"github.com/frahmantamala/correspondence-management/internal/core/user"
)

// RepositoryAPI returns nil, nil from single-row lookups that find nothing.
type RepositoryAPI interface {
	Create(ctx context.Context, m *messageDatamodel.Message) error
	CreateAttachments(ctx context.Context, attachments []*messageDatamodel.Attachment) error
	CreateRecipients(ctx context.Context, rows []*messageDatamodel.MessageRecipient) error
	GetByID(ctx context.Context, id int64) (*messageDatamodel.Message, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*messageDatamodel.Message, error)
	RecipientState(ctx context.Context, m *messageDatamodel.Message, recipientID int64) (*RecipientState, error)
	SaveRecipientState(ctx context.Context, state *RecipientState) error
	UpdateSenderStatus(ctx context.Context, messageID int64, status string) error
	AppendStatusChange(ctx context.Context, change *messageDatamodel.MessageStatusChange) error
	StatusHistory(ctx context.Context, messageID int64) ([]*messageDatamodel.MessageStatusChange, error)
	RecipientStatuses(ctx context.Context, m *messageDatamodel.Message) ([]*RecipientStatus, error)
	Mailbox(ctx context.Context, userID int64, archived bool, limit int) ([]*MailboxRow, error)
	Outbox(ctx context.Context, userID int64) ([]*OutboxItem, error)
	Delete(ctx context.Context, ids []int64) ([]string, error)
	GetAttachment(ctx context.Context, id int64) (*messageDatamodel.Attachment, error)
}

type StatsRepository interface {
	Counts(ctx context.Context, userID int64) (DashboardCounts, error)
}

type Authorizer interface {
	HasPermission(p *user.Principal, permission string) bool
	IsAdmin(p *user.Principal) bool
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type RecipientResolver interface {
	Resolve(ctx context.Context, spec RecipientSpec, sender *user.Principal) ([]int64, error)
}

type FileStore interface {
	Check(files []*multipart.FileHeader, extensions ...string) error
	Save(area string, fh *multipart.FileHeader, extensions ...string) (*attachment.StoredFile, error)
	Remove(relPaths ...string)
}

// Sanitizer strips markup a browser would execute. *bluemonday.Policy
// satisfies it.
type Sanitizer interface {
	Sanitize(s string) string
}

type Deps struct {
	Repo       RepositoryAPI
	Stats      StatsRepository
	Recipients RecipientResolver
	Authorizer Authorizer
	Tx         Transactor
	Publisher  events.Publisher
	Files      FileStore
	Sanitizer  Sanitizer
	Logger     *slog.Logger
}

type Service struct {
	repo       RepositoryAPI
	stats      StatsRepository
	recipients RecipientResolver
	authorizer Authorizer
	tx         Transactor
	publisher  events.Publisher
	files      FileStore
	sanitizer  Sanitizer
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(d Deps) *Service {
	return &Service{
		repo:       d.Repo,
		stats:      d.Stats,
		recipients: d.Recipients,
		authorizer: d.Authorizer,
		tx:         d.Tx,
		publisher:  d.Publisher,
		files:      d.Files,
		sanitizer:  d.Sanitizer,
		logger:     d.Logger,
		now:        time.Now,
	}
}

func (s *Service) load(ctx context.Context, id int64) (*messageDatamodel.Message, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load message", err)
	}
	if m == nil {
		return nil, ErrMessageNotFound
	}
	return m, nil
}

func (s *Service) stateOf(ctx context.Context, m *messageDatamodel.Message, userID int64) (*RecipientState, error) {
	state, err := s.repo.RecipientState(ctx, m, userID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load recipient state", err)
	}
	return state, nil
}

func (s *Service) compose(content string, includeSignature bool, signature string) string {
	content = s.sanitizer.Sanitize(content)
	if includeSignature && strings.TrimSpace(signature) != "" {
		content += SignatureMark + s.sanitizer.Sanitize(signature)
	}
	return content
}

// store writes uploads to disk; on failure nothing written is kept.
func (s *Service) store(files []*multipart.FileHeader) ([]*attachment.StoredFile, error) {
	stored := make([]*attachment.StoredFile, 0, len(files))
	for _, fh := range files {
		f, err := s.files.Save(attachment.AreaMessages, fh)
		if err != nil {
			s.discard(stored)
			if _, ok := internal.IsAppError(err); ok {
				return nil, err
			}
			return nil, internal.NewInternalError("failed to store attachment", err)
		}
		stored = append(stored, f)
	}
	return stored, nil
}

func (s *Service) discard(stored []*attachment.StoredFile) {
	paths := make([]string, len(stored))
	for i, f := range stored {
		paths[i] = f.RelPath
	}
	s.files.Remove(paths...)
}

func (s *Service) writeMessage(ctx context.Context, m *messageDatamodel.Message, stored []*attachment.StoredFile, recipientIDs []int64) error {
	if err := s.repo.Create(ctx, m); err != nil {
		return internal.NewInternalError("failed to create message", err)
	}

	if len(stored) > 0 {
		rows := make([]*messageDatamodel.Attachment, len(stored))
		for i, f := range stored {
			rows[i] = &messageDatamodel.Attachment{
				MessageID:        m.ID,
				Filename:         f.Filename,
				OriginalFilename: f.OriginalFilename,
				FilePath:         f.RelPath,
				FileSize:         f.Size,
				MimeType:         f.MimeType,
			}
		}
		if err := s.repo.CreateAttachments(ctx, rows); err != nil {
			return internal.NewInternalError("failed to save attachments", err)
		}
		for _, row := range rows {
			m.Attachments = append(m.Attachments, *row)
		}
	}

	rows := make([]*messageDatamodel.MessageRecipient, len(recipientIDs))
	for i, id := range recipientIDs {
		rows[i] = &messageDatamodel.MessageRecipient{
			MessageID:     m.ID,
			RecipientID:   id,
			RecipientType: m.RecipientType,
			Status:        StatusNew,
			IsArchived:    false,
		}
	}
	if err := s.repo.CreateRecipients(ctx, rows); err != nil {
		return internal.NewInternalError("failed to save recipients", err)
	}
	return nil
}

// Send resolves recipients before touching storage, then writes the message,
// its attachments, one recipient row per user and the notifications in one
// transaction.
func (s *Service) Send(ctx context.Context, p *user.Principal, dto SendMessageDTO, files []*multipart.FileHeader) (*Message, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if len(files) > 0 {
		if err := s.files.Check(files); err != nil {
			return nil, err
		}
	}

	recipientIDs, err := s.recipients.Resolve(ctx, dto.Spec(), p)
	if err != nil {
		s.logger.Warn("message recipients rejected", "sender_id", p.ID, "recipient_type", dto.RecipientType, "error", err)
		return nil, err
	}

	stored, err := s.store(files)
	if err != nil {
		return nil, err
	}

	date, due := dto.Dates(s.now())
	m := &messageDatamodel.Message{
		Subject:          dto.Subject,
		Content:          s.compose(dto.Content, dto.IncludeSignature, p.Signature),
		Date:             date,
		SenderID:         p.ID,
		Status:           StatusNew,
		Category:         dto.Category,
		IsArchived:       false,
		HasAttachments:   len(stored) > 0,
		IsMultiRecipient: dto.RecipientType != RecipientTypeUser,
		RecipientType:    dto.RecipientType,
		Priority:         dto.Priority,
		MessageType:      dto.MessageType,
		Confidentiality:  dto.Confidentiality,
		ReferenceNumber:  dto.ReferenceNumber,
		DueDate:          due,
		SenderEntity:     dto.SenderEntity,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.writeMessage(ctx, m, stored, recipientIDs); err != nil {
			return err
		}
		event := events.NewMessageSentEvent(m.ID, p.ID, p.Username, m.Subject, m.Priority, recipientIDs)
		return s.publisher.PublishSync(ctx, event)
	})
	if err != nil {
		s.discard(stored)
		s.logger.Error("failed to send message", "sender_id", p.ID, "error", err)
		return nil, err
	}

	s.logger.Info("message sent",
		"message_id", m.ID,
		"sender_id", p.ID,
		"recipient_type", m.RecipientType,
		"recipients", len(recipientIDs),
		"attachments", len(stored))

	out := FromDataModel(m)
	out.Sender = p.Username
	return out, nil
}

// View marks a new message read for the viewing recipient.
func (s *Service) View(ctx context.Context, p *user.Principal, id int64) (*Message, error) {
	var out *Message
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		m, err := s.load(ctx, id)
		if err != nil {
			return err
		}

		state, err := s.stateOf(ctx, m, p.ID)
		if err != nil {
			return err
		}

		isSender := m.SenderID == p.ID
		if !isSender && state == nil && !s.authorizer.HasPermission(p, auth.PermViewAllMessages) {
			s.logger.Warn("message access denied", "message_id", id, "user_id", p.ID)
			return ErrMessageAccess
		}

		if state != nil && state.Status == StatusNew {
			old, err := s.apply(ctx, m, state, StatusRead, p.ID, "Message read")
			if err != nil {
				return err
			}
			recipientID := state.RecipientID
			event := events.NewMessageStatusChangedEvent(m.ID, m.Subject, m.SenderID, p.ID, &recipientID, old, StatusRead)
			if err := s.publisher.PublishSync(ctx, event); err != nil {
				return err
			}
		}

		out = FromDataModel(m)
		if state != nil {
			out.MyStatus = state.Status
		}
		if isSender || s.authorizer.IsAdmin(p) {
			recipients, err := s.repo.RecipientStatuses(ctx, m)
			if err != nil {
				return internal.NewInternalError("failed to load recipients", err)
			}
			out.Recipients = recipients
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// apply moves state and records the change. It reports false for a
// transition to the current status.
func (s *Service) apply(ctx context.Context, m *messageDatamodel.Message, state *RecipientState, status string, actorID int64, notes string) (string, error) {
	now := s.now()
	old, changed := state.Transition(status, now)
	if !changed {
		return old, nil
	}

	if err := s.repo.SaveRecipientState(ctx, state); err != nil {
		return old, internal.NewInternalError("failed to save message status", err)
	}

	change := &messageDatamodel.MessageStatusChange{
		MessageID:   m.ID,
		OldStatus:   old,
		NewStatus:   status,
		ChangedAt:   now,
		ChangedByID: actorID,
		Notes:       notes,
		RecipientID: state.ScopeID(),
	}
	if err := s.repo.AppendStatusChange(ctx, change); err != nil {
		return old, internal.NewInternalError("failed to record status change", err)
	}
	return old, nil
}

// ChangeStatus reports whether anything changed. Without a recipient_id it
// targets the caller's own recipient state, or the sender-side status when
// the caller sent the message.
func (s *Service) ChangeStatus(ctx context.Context, p *user.Principal, id int64, dto ChangeStatusDTO) (bool, error) {
	if err := dto.Validate(); err != nil {
		return false, err
	}

	changed := false
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		m, err := s.load(ctx, id)
		if err != nil {
			return err
		}

		isSender := m.SenderID == p.ID
		canChange := s.authorizer.HasPermission(p, auth.PermChangeMessageStatus)

		targetID := p.ID
		if dto.RecipientID != nil && *dto.RecipientID != p.ID {
			if !isSender || !canChange {
				s.logger.Warn("status change for another recipient denied", "message_id", id, "user_id", p.ID, "recipient_id", *dto.RecipientID)
				return ErrStatusNotPermitted
			}
			targetID = *dto.RecipientID
		}

		state, err := s.stateOf(ctx, m, targetID)
		if err != nil {
			return err
		}

		if state == nil {
			if targetID != p.ID {
				return ErrUnknownRecipient
			}
			if !isSender {
				return ErrMessageAccess
			}
			// on legacy rows the sender-side status is also the recipient's state
			if !canChange {
				s.logger.Warn("sender status change denied", "message_id", id, "user_id", p.ID, "to", dto.Status)
				return ErrStatusNotPermitted
			}
			changed, err = s.changeSenderStatus(ctx, m, p, dto)
			return err
		}

		if targetID == p.ID && !canChange && dto.Status != state.Status && !(state.Status == StatusNew && dto.Status == StatusRead) {
			s.logger.Warn("status change denied", "message_id", id, "user_id", p.ID, "from", state.Status, "to", dto.Status)
			return ErrStatusNotPermitted
		}

		old, err := s.apply(ctx, m, state, dto.Status, p.ID, dto.Notes)
		if err != nil {
			return err
		}
		if old == dto.Status {
			return nil
		}
		changed = true

		recipientID := state.RecipientID
		event := events.NewMessageStatusChangedEvent(m.ID, m.Subject, m.SenderID, p.ID, &recipientID, old, dto.Status)
		return s.publisher.PublishSync(ctx, event)
	})
	if err != nil {
		return false, err
	}

	if changed {
		s.logger.Info("message status changed", "message_id", id, "user_id", p.ID, "status", dto.Status)
	}
	return changed, nil
}

func (s *Service) changeSenderStatus(ctx context.Context, m *messageDatamodel.Message, p *user.Principal, dto ChangeStatusDTO) (bool, error) {
	if m.Status == dto.Status {
		return false, nil
	}

	old := m.Status
	if err := s.repo.UpdateSenderStatus(ctx, m.ID, dto.Status); err != nil {
		return false, internal.NewInternalError("failed to save message status", err)
	}
	m.Status = dto.Status

	change := &messageDatamodel.MessageStatusChange{
		MessageID:   m.ID,
		OldStatus:   old,
		NewStatus:   dto.Status,
		ChangedAt:   s.now(),
		ChangedByID: p.ID,
		Notes:       dto.Notes,
	}
	if err := s.repo.AppendStatusChange(ctx, change); err != nil {
		return false, internal.NewInternalError("failed to record status change", err)
	}

	event := events.NewMessageStatusChangedEvent(m.ID, m.Subject, m.SenderID, p.ID, nil, old, dto.Status)
	return true, s.publisher.PublishSync(ctx, event)
}

func (s *Service) Inbox(ctx context.Context, p *user.Principal) ([]*MailboxItem, error) {
	return s.mailbox(ctx, p, false)
}

func (s *Service) Archive(ctx context.Context, p *user.Principal) ([]*MailboxItem, error) {
	return s.mailbox(ctx, p, true)
}

func (s *Service) mailbox(ctx context.Context, p *user.Principal, archived bool) ([]*MailboxItem, error) {
	rows, err := s.repo.Mailbox(ctx, p.ID, archived, 0)
	if err != nil {
		s.logger.Error("failed to load mailbox", "user_id", p.ID, "archived", archived, "error", err)
		return nil, internal.NewInternalError("failed to load messages", err)
	}
	return MailboxItemsFromRows(rows), nil
}

func (s *Service) Outbox(ctx context.Context, p *user.Principal) ([]*OutboxItem, error) {
	items, err := s.repo.Outbox(ctx, p.ID)
	if err != nil {
		s.logger.Error("failed to load outbox", "user_id", p.ID, "error", err)
		return nil, internal.NewInternalError("failed to load messages", err)
	}
	return items, nil
}

// SetArchived only touches the caller's own recipient state.
func (s *Service) SetArchived(ctx context.Context, p *user.Principal, id int64, archived bool) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		m, err := s.load(ctx, id)
		if err != nil {
			return err
		}

		state, err := s.stateOf(ctx, m, p.ID)
		if err != nil {
			return err
		}
		if state == nil {
			return ErrMessageAccess
		}
		if state.IsArchived == archived {
			return nil
		}

		state.IsArchived = archived
		if err := s.repo.SaveRecipientState(ctx, state); err != nil {
			return internal.NewInternalError("failed to archive message", err)
		}

		s.logger.Info("message archive flag changed", "message_id", id, "user_id", p.ID, "archived", archived)
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, p *user.Principal, id int64) error {
	_, err := s.BulkDelete(ctx, p, BulkDeleteDTO{MessageIDs: []int64{id}})
	return err
}

// BulkDelete is all or nothing: one inaccessible message rejects the batch.
func (s *Service) BulkDelete(ctx context.Context, p *user.Principal, dto BulkDeleteDTO) (int, error) {
	if err := dto.Validate(); err != nil {
		return 0, err
	}
	if !s.authorizer.HasPermission(p, auth.PermDeleteMessages) {
		return 0, internal.ErrForbidden
	}

	deleted := 0
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		messages, err := s.repo.ListByIDs(ctx, dto.MessageIDs)
		if err != nil {
			return internal.NewInternalError("failed to load messages", err)
		}
		if len(messages) == 0 {
			return ErrMessageNotFound
		}

		ids := make([]int64, 0, len(messages))
		for _, m := range messages {
			if m.SenderID != p.ID {
				state, err := s.stateOf(ctx, m, p.ID)
				if err != nil {
					return err
				}
				if state == nil {
					s.logger.Warn("message delete denied", "message_id", m.ID, "user_id", p.ID)
					return ErrDeleteNotPermitted
				}
			}
			ids = append(ids, m.ID)
		}

		paths, err := s.repo.Delete(ctx, ids)
		if err != nil {
			return internal.NewInternalError("failed to delete messages", err)
		}
		deleted = len(ids)

		database.AfterCommit(ctx, func() {
			s.files.Remove(paths...)
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("messages deleted", "user_id", p.ID, "count", deleted)
	return deleted, nil
}

func (s *Service) History(ctx context.Context, p *user.Principal, id int64) ([]*StatusChange, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.SenderID != p.ID {
		state, err := s.stateOf(ctx, m, p.ID)
		if err != nil {
			return nil, err
		}
		if state == nil {
			return nil, ErrMessageAccess
		}
	}

	changes, err := s.repo.StatusHistory(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load status history", err)
	}

	out := make([]*StatusChange, len(changes))
	for i, c := range changes {
		out[i] = StatusChangeFromDataModel(c)
	}
	return out, nil
}

func (s *Service) Recipients(ctx context.Context, p *user.Principal, id int64) ([]*RecipientStatus, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.SenderID != p.ID && !s.authorizer.IsAdmin(p) {
		return nil, ErrMessageAccess
	}

	recipients, err := s.repo.RecipientStatuses(ctx, m)
	if err != nil {
		return nil, internal.NewInternalError("failed to load recipients", err)
	}
	return recipients, nil
}

// Reply sends a single-recipient message back to the original sender and
// moves the caller's state to replied.
func (s *Service) Reply(ctx context.Context, p *user.Principal, id int64, dto ReplyDTO, files []*multipart.FileHeader) (*Message, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if len(files) > 0 {
		if err := s.files.Check(files); err != nil {
			return nil, err
		}
	}

	original, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	state, err := s.stateOf(ctx, original, p.ID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrMessageAccess
	}

	subject := strings.TrimSpace(dto.Subject)
	if subject == "" {
		subject = "Re: " + original.Subject
	}
	priority := dto.Priority
	if priority == "" {
		priority = PriorityNormal
	}

	stored, err := s.store(files)
	if err != nil {
		return nil, err
	}

	reply := &messageDatamodel.Message{
		Subject:          subject,
		Content:          s.compose(dto.Content, dto.IncludeSignature, p.Signature),
		Date:             s.now(),
		SenderID:         p.ID,
		Status:           StatusNew,
		Category:         original.Category,
		HasAttachments:   len(stored) > 0,
		IsMultiRecipient: false,
		RecipientType:    RecipientTypeUser,
		Priority:         priority,
		MessageType:      original.MessageType,
		Confidentiality:  original.Confidentiality,
		ReferenceNumber:  original.ReferenceNumber,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.writeMessage(ctx, reply, stored, []int64{original.SenderID}); err != nil {
			return err
		}
		if _, err := s.apply(ctx, original, state, StatusReplied, p.ID, "Replied"); err != nil {
			return err
		}
		event := events.NewMessageRepliedEvent(original.ID, reply.ID, p.ID, p.Username, original.SenderID, original.Subject, priority)
		return s.publisher.PublishSync(ctx, event)
	})
	if err != nil {
		s.discard(stored)
		s.logger.Error("failed to reply", "message_id", id, "user_id", p.ID, "error", err)
		return nil, err
	}

	s.logger.Info("message replied", "message_id", id, "reply_id", reply.ID, "user_id", p.ID)
	out := FromDataModel(reply)
	out.Sender = p.Username
	return out, nil
}

func (s *Service) Dashboard(ctx context.Context, p *user.Principal) (*Dashboard, error) {
	counts, err := s.stats.Counts(ctx, p.ID)
	if err != nil {
		s.logger.Error("failed to count messages", "user_id", p.ID, "error", err)
		return nil, internal.NewInternalError("failed to load dashboard", err)
	}

	recent, err := s.repo.Mailbox(ctx, p.ID, false, RecentLimit)
	if err != nil {
		return nil, internal.NewInternalError("failed to load dashboard", err)
	}

	return &Dashboard{Stats: counts, Recent: MailboxItemsFromRows(recent)}, nil
}

// Attachment returns an attachment the caller may download.
func (s *Service) Attachment(ctx context.Context, p *user.Principal, attachmentID int64) (*messageDatamodel.Attachment, error) {
	a, err := s.repo.GetAttachment(ctx, attachmentID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load attachment", err)
	}
	if a == nil {
		return nil, ErrAttachmentNotFound
	}

	m, err := s.load(ctx, a.MessageID)
	if err != nil {
		return nil, err
	}
	if m.SenderID != p.ID {
		state, err := s.stateOf(ctx, m, p.ID)
		if err != nil {
			return nil, err
		}
		if state == nil {
			return nil, ErrMessageAccess
		}
	}
	return a, nil
}
