package personalmail

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/frahmantamala/correspondence-management/internal/auth"
	pmDatamodel "github.com/frahmantamala/correspondence-management/internal/core/datamodel/personalmail"
	"github.com/frahmantamala/correspondence-management/internal/core/user"
	"github.com/frahmantamala/correspondence-management/internal/transport"
)

const attachmentField = "attachments"

type ServiceAPI interface {
	List(ctx context.Context, p *user.Principal, archived bool) ([]*Mail, error)
	Get(ctx context.Context, p *user.Principal, id int64) (*Mail, error)
	Create(ctx context.Context, p *user.Principal, dto MailDTO, files []*multipart.FileHeader) (*Mail, error)
	Update(ctx context.Context, p *user.Principal, id int64, dto MailDTO, files []*multipart.FileHeader) (*Mail, error)
	Delete(ctx context.Context, p *user.Principal, id int64) error
	SetArchived(ctx context.Context, p *user.Principal, id int64, archived bool) error
	ChangeStatus(ctx context.Context, p *user.Principal, id int64, dto ChangeStatusDTO) (*Mail, error)
	Attachment(ctx context.Context, p *user.Principal, attachmentID int64) (*pmDatamodel.PersonalMailAttachment, error)
}

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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	archived := r.URL.Query().Get("archived") == "true"
	items, err := h.Service.List(r.Context(), p, archived)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"personal_mail": items})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	m, err := h.Service.Get(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	var dto MailDTO
	files, err := h.DecodeBody(w, r, &dto, attachmentField, h.Files.MaxSize())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	m, err := h.Service.Create(r.Context(), p, dto, files)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	var dto MailDTO
	files, err := h.DecodeBody(w, r, &dto, attachmentField, h.Files.MaxSize())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	m, err := h.Service.Update(r.Context(), p, id, dto, files)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
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

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setArchived(w, r, true)
}

func (h *Handler) Unarchive(w http.ResponseWriter, r *http.Request) {
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

	m, err := h.Service.ChangeStatus(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
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
