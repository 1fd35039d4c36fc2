package personalmail

import (
	"context"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/frahmantamala/correspondence-management/internal"
	"github.com/frahmantamala/correspondence-management/internal/attachment"
	"github.com/frahmantamala/correspondence-management/internal/core/database"
	pmDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/personalmail"
	"github.com/frahmantamala/correspondence-management/internal/core/user"
)

// RepositoryAPI returns nil, nil from single-row lookups that find nothing.
type RepositoryAPI interface {
	List(ctx context.Context, userID int64, archived bool) ([]*pmDatamodel.PersonalMail, error)
	GetByID(ctx context.Context, id int64) (*pmDatamodel.PersonalMail, error)
	Create(ctx context.Context, m *pmDatamodel.PersonalMail) error
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	CreateAttachments(ctx context.Context, rows []*pmDatamodel.PersonalMailAttachment) error
	Delete(ctx context.Context, id int64) ([]string, error)
	GetAttachment(ctx context.Context, id int64) (*pmDatamodel.PersonalMailAttachment, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type FileStore interface {
	Check(files []*multipart.FileHeader, extensions ...string) error
	Save(area string, fh *multipart.FileHeader, extensions ...string) (*attachment.StoredFile, error)
	Remove(relPaths ...string)
}

type Sanitizer interface {
	Sanitize(s string) string
}

type Service struct {
	repo      RepositoryAPI
	tx        Transactor
	files     FileStore
	sanitizer Sanitizer
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, tx Transactor, files FileStore, sanitizer Sanitizer, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		tx:        tx,
		files:     files,
		sanitizer: sanitizer,
		logger:    logger,
		now:       time.Now,
	}
}

// own returns the entry only to its owner; anyone else sees not found.
func (s *Service) own(ctx context.Context, p *user.Principal, id int64) (*pmDatamodel.PersonalMail, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load personal mail", err)
	}
	if m == nil || m.UserID != p.ID {
		return nil, ErrMailNotFound
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, p *user.Principal, archived bool) ([]*Mail, error) {
	rows, err := s.repo.List(ctx, p.ID, archived)
	if err != nil {
		s.logger.Error("failed to list personal mail", "user_id", p.ID, "error", err)
		return nil, internal.NewInternalError("failed to load personal mail", err)
	}

	now := s.now()
	out := make([]*Mail, len(rows))
	for i, row := range rows {
		out[i] = FromDataModel(row, now)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, p *user.Principal, id int64) (*Mail, error) {
	m, err := s.own(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(m, s.now()), nil
}

func (s *Service) store(files []*multipart.FileHeader) ([]*attachment.StoredFile, error) {
	stored := make([]*attachment.StoredFile, 0, len(files))
	for _, fh := range files {
		f, err := s.files.Save(attachment.AreaPersonalMail, fh)
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

func (s *Service) attach(ctx context.Context, mailID int64, stored []*attachment.StoredFile) error {
	if len(stored) == 0 {
		return nil
	}
	rows := make([]*pmDatamodel.PersonalMailAttachment, len(stored))
	for i, f := range stored {
		rows[i] = &pmDatamodel.PersonalMailAttachment{
			PersonalMailID:   mailID,
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
	return nil
}

// prepare validates the form and writes uploads; the caller discards them
// when its transaction fails.
func (s *Service) prepare(dto *MailDTO, files []*multipart.FileHeader) (*time.Time, []*attachment.StoredFile, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, nil, err
	}
	due, _ := dto.Due()
	if len(files) > 0 {
		if err := s.files.Check(files); err != nil {
			return nil, nil, err
		}
	}
	stored, err := s.store(files)
	if err != nil {
		return nil, nil, err
	}
	return due, stored, nil
}

func (s *Service) Create(ctx context.Context, p *user.Principal, dto MailDTO, files []*multipart.FileHeader) (*Mail, error) {
	due, stored, err := s.prepare(&dto, files)
	if err != nil {
		return nil, err
	}

	var id int64
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		m := &pmDatamodel.PersonalMail{
			UserID:          p.ID,
			Title:           dto.Title,
			Content:         s.sanitizer.Sanitize(dto.Content),
			Source:          dto.Source,
			ReferenceNumber: dto.ReferenceNumber,
			Date:            s.now(),
			DueDate:         due,
			Status:          dto.Status,
			Priority:        dto.Priority,
			Notes:           s.sanitizer.Sanitize(dto.Notes),
			HasAttachments:  len(stored) > 0,
		}
		if err := s.repo.Create(ctx, m); err != nil {
			return internal.NewInternalError("failed to create personal mail", err)
		}
		id = m.ID
		return s.attach(ctx, m.ID, stored)
	})
	if err != nil {
		s.discard(stored)
		return nil, err
	}

	s.logger.Info("personal mail created", "mail_id", id, "user_id", p.ID, "attachments", len(stored))
	return s.Get(ctx, p, id)
}

// Update replaces the fields and appends any new attachments.
func (s *Service) Update(ctx context.Context, p *user.Principal, id int64, dto MailDTO, files []*multipart.FileHeader) (*Mail, error) {
	if _, err := s.own(ctx, p, id); err != nil {
		return nil, err
	}
	due, stored, err := s.prepare(&dto, files)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		m, err := s.own(ctx, p, id)
		if err != nil {
			return err
		}
		fields := map[string]interface{}{
			"title":            dto.Title,
			"content":          s.sanitizer.Sanitize(dto.Content),
			"source":           dto.Source,
			"reference_number": dto.ReferenceNumber,
			"due_date":         due,
			"status":           dto.Status,
			"priority":         dto.Priority,
			"notes":            s.sanitizer.Sanitize(dto.Notes),
			"has_attachments":  m.HasAttachments || len(stored) > 0,
		}
		if err := s.repo.Update(ctx, id, fields); err != nil {
			return internal.NewInternalError("failed to update personal mail", err)
		}
		return s.attach(ctx, id, stored)
	})
	if err != nil {
		s.discard(stored)
		return nil, err
	}

	s.logger.Info("personal mail updated", "mail_id", id, "user_id", p.ID, "new_attachments", len(stored))
	return s.Get(ctx, p, id)
}

func (s *Service) Delete(ctx context.Context, p *user.Principal, id int64) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.own(ctx, p, id); err != nil {
			return err
		}
		paths, err := s.repo.Delete(ctx, id)
		if err != nil {
			return internal.NewInternalError("failed to delete personal mail", err)
		}
		database.AfterCommit(ctx, func() {
			s.files.Remove(paths...)
		})
		s.logger.Info("personal mail deleted", "mail_id", id, "user_id", p.ID)
		return nil
	})
}

func (s *Service) SetArchived(ctx context.Context, p *user.Principal, id int64, archived bool) error {
	m, err := s.own(ctx, p, id)
	if err != nil {
		return err
	}
	if m.IsArchived == archived {
		return nil
	}
	if err := s.repo.Update(ctx, id, map[string]interface{}{"is_archived": archived}); err != nil {
		return internal.NewInternalError("failed to archive personal mail", err)
	}
	return nil
}

func (s *Service) ChangeStatus(ctx context.Context, p *user.Principal, id int64, dto ChangeStatusDTO) (*Mail, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	m, err := s.own(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if m.Status != dto.Status {
		if err := s.repo.Update(ctx, id, map[string]interface{}{"status": dto.Status}); err != nil {
			return nil, internal.NewInternalError("failed to change personal mail status", err)
		}
		s.logger.Info("personal mail status changed", "mail_id", id, "from", m.Status, "to", dto.Status)
		m.Status = dto.Status
	}
	return FromDataModel(m, s.now()), nil
}

func (s *Service) Attachment(ctx context.Context, p *user.Principal, attachmentID int64) (*pmDatamodel.PersonalMailAttachment, error) {
	a, err := s.repo.GetAttachment(ctx, attachmentID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load attachment", err)
	}
	if a == nil {
		return nil, ErrAttachmentNotFound
	}
	if _, err := s.own(ctx, p, a.PersonalMailID); err != nil {
		return nil, ErrAttachmentNotFound
	}
	return a, nil
}
