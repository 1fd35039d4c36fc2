package message

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/frahmantamala/correspondence-management/internal/auth"
	messageDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/message"
	"github.com/frahmantamala/correspondence-management/internal/core/user"
	"github.com/frahmantamala/correspondence-management/internal/transport"
)

const attachmentField = "attachments"

type ServiceAPI interface {
	Send(ctx context.Context, p *user.Principal, dto SendMessageDTO, files []*multipart.FileHeader) (*Message, error)
	View(ctx context.Context, p *user.Principal, id int64) (*Message, error)
	Inbox(ctx context.Context, p *user.Principal) ([]*MailboxItem, error)
	Archive(ctx context.Context, p *user.Principal) ([]*MailboxItem, error)
	Outbox(ctx context.Context, p *user.Principal) ([]*OutboxItem, error)
	SetArchived(ctx context.Context, p *user.Principal, id int64, archived bool) error
	Delete(ctx context.Context, p *user.Principal, id int64) error
	BulkDelete(ctx context.Context, p *user.Principal, dto BulkDeleteDTO) (int, error)
	ChangeStatus(ctx context.Context, p *user.Principal, id int64, dto ChangeStatusDTO) (bool, error)
	History(ctx context.Context, p *user.Principal, id int64) ([]*StatusChange, error)
	Recipients(ctx context.Context, p *user.Principal, id int64) ([]*RecipientStatus, error)
	Reply(ctx context.Context, p *user.Principal, id int64, dto ReplyDTO, files []*multipart.FileHeader) (*Message, error)
	Dashboard(ctx context.Context, p *user.Principal) (*Dashboard, error)
	Attachment(ctx context.Context, p *user.Principal, attachmentID int64) (*messageDatamodel.Attachment, error)
}

// FileServer streams stored uploads. *attachment.Storage satisfies it.
type FileServer interface {
	Serve(w http.ResponseWriter, r *http.Request, rel, originalName, mimeType string, inline bool) error
	MaxSize() int64
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Files   FileServer
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI, files FileServer) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
		Files:       files,
	}
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	var dto SendMessageDTO
	files, err := h.DecodeBody(w, r, &dto, attachmentField, h.Files.MaxSize())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	m, err := h.Service.Send(r.Context(), p, dto, files)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	m, err := h.Service.View(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	h.mailbox(w, r, h.Service.Inbox)
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	h.mailbox(w, r, h.Service.Archive)
}

func (h *Handler) mailbox(w http.ResponseWriter, r *http.Request, list func(context.Context, *user.Principal) ([]*MailboxItem, error)) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	items, err := list(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": items})
}

func (h *Handler) Outbox(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	items, err := h.Service.Outbox(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": items})
}

func (h *Handler) ArchiveMessage(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

func (h *Handler) UnarchiveMessage(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, false)
}

func (h *Handler) setArchived(w http.ResponseWriter, r *http.Request, archived bool) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	if err := h.Service.SetArchived(r.Context(), p, id, archived); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"id": id, "is_archived": archived})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), p, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	var dto BulkDeleteDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	n, err := h.Service.BulkDelete(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"deleted": n})
}

func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	var dto ChangeStatusDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	changed, err := h.Service.ChangeStatus(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"changed": changed, "status": dto.Status})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	changes, err := h.Service.History(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"history": changes})
}

func (h *Handler) Recipients(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	recipients, err := h.Service.Recipients(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"recipients": recipients})
}

func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	var dto ReplyDTO
	files, err := h.DecodeBody(w, r, &dto, attachmentField, h.Files.MaxSize())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	m, err := h.Service.Reply(r.Context(), p, id, dto, files)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	d, err := h.Service.Dashboard(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	h.serveAttachment(w, r, false)
}

func (h *Handler) ViewAttachment(w http.ResponseWriter, r *http.Request) {
	h.serveAttachment(w, r, true)
}

func (h *Handler) serveAttachment(w http.ResponseWriter, r *http.Request, inline bool) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	a, err := h.Service.Attachment(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Files.Serve(w, r, a.FilePath, a.OriginalFilename, a.MimeType, inline); err != nil {
		h.HandleServiceError(w, err)
	}
}

func (h *Handler) principalAndID(w http.ResponseWriter, r *http.Request) (*user.Principal, int64, bool) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return nil, 0, false
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return nil, 0, false
	}
	return p, id, true
}
