package user

import (
	"context"
	"mime"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/frahmantamala/correspondence-management/internal/auth"
	coreuser "github.com/frahmantamala/correspondence-management/internal/core/user"
	"github.com/frahmantamala/correspondence-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]*User, error)
	Get(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, actor *coreuser.Principal, dto CreateUserDTO) (*User, error)
	Update(ctx context.Context, actor *coreuser.Principal, id int64, dto UpdateUserDTO) (*User, error)
	ToggleActive(ctx context.Context, actor *coreuser.Principal, id int64) (*User, error)
	Delete(ctx context.Context, actor *coreuser.Principal, id int64) error
	Profile(ctx context.Context, p *coreuser.Principal) (*Profile, error)
	UpdateProfile(ctx context.Context, p *coreuser.Principal, dto UpdateProfileDTO) (*User, error)
	UpdateSettings(ctx context.Context, p *coreuser.Principal, dto SettingsDTO) (*User, error)
	SetImage(ctx context.Context, p *coreuser.Principal, kind string, fh *multipart.FileHeader) (*User, error)
	Image(ctx context.Context, userID int64, kind string) (string, error)
	Favorites(ctx context.Context, p *coreuser.Principal) ([]*DirectoryEntry, error)
	AddFavorite(ctx context.Context, p *coreuser.Principal, favoriteID int64) error
	RemoveFavorite(ctx context.Context, p *coreuser.Principal, favoriteID int64) error
	Directory(ctx context.Context, p *coreuser.Principal) ([]*DirectoryEntry, error)
}

// FileServer streams stored images. *attachment.Storage satisfies it.
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

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	profile, err := h.Service.Profile(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	var dto UpdateProfileDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.UpdateProfile(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	var dto SettingsDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.UpdateSettings(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UploadProfileImage(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, ImageProfile)
}

func (h *Handler) UploadSignatureImage(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, ImageSignature)
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request, kind string) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	var form struct{}
	files, err := h.DecodeMultipart(w, r, &form, "image", h.Files.MaxSize())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var fh *multipart.FileHeader
	if len(files) > 0 {
		fh = files[0]
	}

	u, err := h.Service.SetImage(r.Context(), p, kind, fh)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) ProfileImage(w http.ResponseWriter, r *http.Request) {
	h.serveImage(w, r, ImageProfile)
}

func (h *Handler) SignatureImage(w http.ResponseWriter, r *http.Request) {
	h.serveImage(w, r, ImageSignature)
}

func (h *Handler) serveImage(w http.ResponseWriter, r *http.Request, kind string) {
	if _, ok := auth.CurrentUser(h.BaseHandler, w, r); !ok {
		return
	}
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	rel, err := h.Service.Image(r.Context(), id, kind)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	name := path.Base(rel)
	if err := h.Files.Serve(w, r, rel, kind+"-"+name, mime.TypeByExtension(path.Ext(name)), true); err != nil {
		h.HandleServiceError(w, err)
	}
}

func (h *Handler) Directory(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	entries, err := h.Service.Directory(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": entries})
}

func (h *Handler) Favorites(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	entries, err := h.Service.Favorites(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"favorites": entries})
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.favorite(w, r, http.StatusCreated, h.Service.AddFavorite)
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.favorite(w, r, http.StatusOK, h.Service.RemoveFavorite)
}

func (h *Handler) favorite(w http.ResponseWriter, r *http.Request, status int, apply func(context.Context, *coreuser.Principal, int64) error) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}
	id, err := h.IDParam(r, "userID")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := apply(r.Context(), p, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, status, map[string]interface{}{"user_id": id, "is_favorite": status == http.StatusCreated})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.CurrentUser(h.BaseHandler, w, r)
	if !ok {
		return
	}

	var dto CreateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.Create(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.Update(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	p, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}

	u, err := h.Service.ToggleActive(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
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

func (h *Handler) principalAndID(w http.ResponseWriter, r *http.Request) (*coreuser.Principal, int64, bool) {
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
